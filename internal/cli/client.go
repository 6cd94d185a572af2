package cli

import (
	"fmt"
	"net"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/protocol"
)

// Client is the game-server connection. Requests are synchronous; server
// pushes that arrive while a response is pending are handed to OnPush.
type Client struct {
	conn  net.Conn
	token string

	// OnPush receives unsolicited server messages that interleave with a
	// pending response. Nil pushes are dropped.
	OnPush func(protocol.ServerMessage)
}

// Dial connects to the game server.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Token returns the session token from the last signup or login.
func (c *Client) Token() string {
	return c.token
}

// StatusError is a non-OK response status.
type StatusError struct {
	Status  protocol.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status.String()
}

func statusErr(st protocol.Status, msg string) error {
	if st == protocol.StatusOK {
		return nil
	}
	return &StatusError{Status: st, Message: msg}
}

// roundTrip sends req and reads server messages until match accepts one,
// dispatching everything else to OnPush. The matchmaking responses can be
// deferred for a long time, so there is no timeout here; the caller decides
// what blocking is acceptable.
func (c *Client) roundTrip(req protocol.Request, match func(protocol.ServerMessage) bool) (protocol.ServerMessage, error) {
	if err := protocol.WriteRequest(c.conn, req); err != nil {
		return nil, err
	}
	for {
		msg, err := protocol.ReadServerMessage(c.conn)
		if err != nil {
			return nil, err
		}
		if match(msg) {
			return msg, nil
		}
		if c.OnPush != nil {
			c.OnPush(msg)
		}
	}
}

// WaitMessage blocks until the server pushes or responds with anything.
func (c *Client) WaitMessage() (protocol.ServerMessage, error) {
	return protocol.ReadServerMessage(c.conn)
}

// Signup registers a new account and stores the issued token.
func (c *Client) Signup(username, password string) error {
	msg, err := c.roundTrip(&protocol.SignupRequest{Username: username, Password: password}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.SignupResponse)
		return ok
	})
	if err != nil {
		return err
	}
	resp := msg.(*protocol.SignupResponse)
	if err := statusErr(resp.Status, resp.Message); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Login authenticates and stores the issued token.
func (c *Client) Login(username, password string) error {
	msg, err := c.roundTrip(&protocol.LoginRequest{Username: username, Password: password}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.LoginResponse)
		return ok
	})
	if err != nil {
		return err
	}
	resp := msg.(*protocol.LoginResponse)
	if err := statusErr(resp.Status, resp.Message); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Logout ends the authenticated session.
func (c *Client) Logout() error {
	msg, err := c.roundTrip(&protocol.LogoutRequest{Token: c.token}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.LogoutResponse)
		return ok
	})
	if err != nil {
		return err
	}
	resp := msg.(*protocol.LogoutResponse)
	if err := statusErr(resp.Status, resp.Message); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// ListUsers returns the other logged-in players.
func (c *Client) ListUsers() ([]protocol.UserEntry, error) {
	msg, err := c.roundTrip(&protocol.ListUsersRequest{Token: c.token}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.ListUsersResponse)
		return ok
	})
	if err != nil {
		return nil, err
	}
	resp := msg.(*protocol.ListUsersResponse)
	if err := statusErr(resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// LookForGame marks this player as open to challenges.
func (c *Client) LookForGame() error {
	msg, err := c.roundTrip(&protocol.LookForGameRequest{Token: c.token}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.LookForGameResponse)
		return ok
	})
	if err != nil {
		return err
	}
	resp := msg.(*protocol.LookForGameResponse)
	return statusErr(resp.Status, resp.Message)
}

// CancelLookForGame withdraws the matchmaking flag.
func (c *Client) CancelLookForGame() error {
	msg, err := c.roundTrip(&protocol.CancelLookForGameRequest{Token: c.token}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.CancelLookForGameResponse)
		return ok
	})
	if err != nil {
		return err
	}
	resp := msg.(*protocol.CancelLookForGameResponse)
	return statusErr(resp.Status, resp.Message)
}

// ChallengePlayer challenges the named player and blocks until they answer.
func (c *Client) ChallengePlayer(target string) (*protocol.ChallengePlayerResponse, error) {
	msg, err := c.roundTrip(&protocol.ChallengePlayerRequest{Token: c.token, TargetUsername: target}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.ChallengePlayerResponse)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.ChallengePlayerResponse), nil
}

// AnswerChallenge accepts or declines the pending challenge.
func (c *Client) AnswerChallenge(accept bool) (*protocol.ChallengeAnswerResponse, error) {
	msg, err := c.roundTrip(&protocol.ChallengeAnswerRequest{Token: c.token, Accept: accept}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.ChallengeAnswerResponse)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.ChallengeAnswerResponse), nil
}

// SubmitPlacement sends the ship grid and blocks until both players have
// placed and the server announces the match start.
func (c *Client) SubmitPlacement(g model.Grid) (*protocol.GameStartResponse, error) {
	msg, err := c.roundTrip(&protocol.GameStartRequest{Token: c.token, Placement: g}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.GameStartResponse)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.GameStartResponse), nil
}

// Shoot fires at the opponent's grid.
func (c *Client) Shoot(target model.Coordinate) (*protocol.PlayerShotResponse, error) {
	msg, err := c.roundTrip(&protocol.PlayerShotRequest{Token: c.token, Target: target}, func(m protocol.ServerMessage) bool {
		_, ok := m.(*protocol.PlayerShotResponse)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.PlayerShotResponse), nil
}
