package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/protocol"
	"github.com/pvidal/battlegrid/internal/services/board"
)

// The fleet both players place: one two-cell ship and one single-cell ship.
// Keeping the fleet symmetric lets each side tell when the opponent's last
// ship cell is gone.
const fleetCells = 3

var errQuit = errors.New("quit")

// Game is the interactive client session.
type Game struct {
	client  *Client
	display *Display
	in      *bufio.Scanner

	// pendingChallenge holds a ChallengeQuestion that arrived while another
	// response was pending; the next wait command picks it up.
	pendingChallenge *protocol.ChallengeQuestion
}

// Run connects to the server and drives the interactive session until the
// user quits or the connection drops.
func Run(cfg *Config) error {
	client, err := Dial(cfg.ServerAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	g := &Game{
		client:  client,
		display: NewDisplay(),
		in:      bufio.NewScanner(os.Stdin),
	}
	client.OnPush = g.onPush

	g.display.Banner()
	if err := g.lobbyLoop(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func (g *Game) onPush(msg protocol.ServerMessage) {
	switch m := msg.(type) {
	case *protocol.ChallengeQuestion:
		g.pendingChallenge = m
		g.display.Warn("%s challenged you, type 'wait' to answer", m.ChallengerUsername)
	case *protocol.GameAbandonedNotice:
		g.display.Warn("opponent left the game")
	}
}

func (g *Game) readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	if !g.in.Scan() {
		if err := g.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(g.in.Text()), nil
}

func (g *Game) lobbyLoop() error {
	for {
		line, err := g.readLine("> ")
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "signup", "login":
			err = g.authenticate(fields[0])
		case "logout":
			err = g.client.Logout()
		case "list":
			err = g.listUsers()
		case "look":
			err = g.client.LookForGame()
		case "cancel":
			err = g.client.CancelLookForGame()
		case "challenge":
			if len(fields) != 2 {
				g.display.Warn("usage: challenge <username>")
				continue
			}
			err = g.challenge(fields[1])
		case "wait":
			err = g.waitForChallenge()
		case "quit", "exit":
			return errQuit
		default:
			g.display.Warn("unknown command %q", fields[0])
			continue
		}

		if err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				g.display.Error(se)
				continue
			}
			return err
		}
	}
}

func (g *Game) authenticate(cmd string) error {
	username, err := g.readLine("username: ")
	if err != nil {
		return err
	}
	password, err := g.readLine("password: ")
	if err != nil {
		return err
	}
	if cmd == "signup" {
		err = g.client.Signup(username, password)
	} else {
		err = g.client.Login(username, password)
	}
	if err != nil {
		return err
	}
	g.display.Info("logged in as %s", username)
	return nil
}

func (g *Game) listUsers() error {
	users, err := g.client.ListUsers()
	if err != nil {
		return err
	}
	g.display.Users(users)
	return nil
}

// challenge blocks until the challenged player answers.
func (g *Game) challenge(target string) error {
	g.display.Info("challenging %s, waiting for their answer...", target)
	resp, err := g.client.ChallengePlayer(target)
	if err != nil {
		return err
	}
	if resp.Status == protocol.StatusPlayerDeclined {
		g.display.Warn("%s declined the challenge", target)
		return nil
	}
	if err := statusErr(resp.Status, resp.Message); err != nil {
		return err
	}
	g.display.Title("match %d starting", resp.GameID)
	return g.playMatch()
}

// waitForChallenge blocks until a challenge arrives, then asks the user to
// accept or decline it.
func (g *Game) waitForChallenge() error {
	q := g.pendingChallenge
	g.pendingChallenge = nil
	if q == nil {
		g.display.Info("waiting for a challenge...")
		msg, err := g.client.WaitMessage()
		if err != nil {
			return err
		}
		var ok bool
		if q, ok = msg.(*protocol.ChallengeQuestion); !ok {
			g.display.Warn("unexpected message from server")
			return nil
		}
	}

	answer, err := g.readLine(fmt.Sprintf("%s challenged you, accept? (y/n): ", q.ChallengerUsername))
	if err != nil {
		return err
	}
	accept := strings.HasPrefix(strings.ToLower(answer), "y")

	resp, err := g.client.AnswerChallenge(accept)
	if err != nil {
		return err
	}
	if err := statusErr(resp.Status, resp.Message); err != nil {
		return err
	}
	if !accept {
		g.display.Info("challenge declined")
		return nil
	}
	g.display.Title("match %d starting", resp.GameID)
	return g.playMatch()
}

// playMatch runs the placement exchange and the battle loop. Match-level
// errors end the match but not the session.
func (g *Game) playMatch() error {
	own, err := g.placeFleet()
	if err != nil {
		return err
	}

	g.display.Info("placement sent, waiting for opponent...")
	start, err := g.client.SubmitPlacement(*own)
	if err != nil {
		return err
	}
	if start.Status == protocol.StatusGameAbandoned {
		g.display.Warn("opponent left before the match started")
		return nil
	}
	if err := statusErr(start.Status, start.Message); err != nil {
		return err
	}

	return g.battle(own, start.FirstTurn)
}

// placeFleet interactively builds the placement grid.
func (g *Game) placeFleet() (*model.Grid, error) {
	var grid model.Grid
	g.display.Title("place your fleet")

	for {
		line, err := g.readLine("two-cell ship, both ends (e.g. A1 A2): ")
		if err != nil {
			return nil, err
		}
		if err := g.placeShip(&grid, line, 2); err != nil {
			g.display.Error(err)
			continue
		}
		break
	}
	for {
		line, err := g.readLine("single-cell ship (e.g. C3): ")
		if err != nil {
			return nil, err
		}
		if err := g.placeShip(&grid, line+" "+line, 1); err != nil {
			g.display.Error(err)
			continue
		}
		break
	}

	tracking := model.Grid{}
	g.display.Grids(&grid, &tracking)
	return &grid, nil
}

func (g *Game) placeShip(grid *model.Grid, line string, length uint8) error {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return fmt.Errorf("expected two coordinates, got %d", len(fields))
	}
	start, err := ParseCoordinate(fields[0])
	if err != nil {
		return err
	}
	end, err := ParseCoordinate(fields[1])
	if err != nil {
		return err
	}
	return board.PlaceShip(grid, board.Ship{
		Start:  start,
		End:    end,
		Width:  length,
		Height: 1,
	})
}

// battle alternates between firing and waiting for the opponent's shots
// until one fleet is destroyed or the opponent abandons.
func (g *Game) battle(own *model.Grid, myTurn bool) error {
	var tracking model.Grid
	hits := 0

	for {
		if myTurn {
			line, err := g.readLine("fire (e.g. B2): ")
			if err != nil {
				return err
			}
			target, err := ParseCoordinate(line)
			if err != nil {
				g.display.Error(err)
				continue
			}

			resp, err := g.client.Shoot(target)
			if err != nil {
				return err
			}
			switch resp.Status {
			case protocol.StatusOK:
			case protocol.StatusGameAbandoned:
				g.display.Warn("opponent left the game")
				return nil
			case protocol.StatusShotInvalidField, protocol.StatusShotAlreadyDestroyed, protocol.StatusNotMyTurn:
				g.display.Warn("%s", (&StatusError{Status: resp.Status, Message: resp.Message}).Error())
				continue
			default:
				return statusErr(resp.Status, resp.Message)
			}

			if resp.Hit {
				tracking.Set(target, model.CellHit)
				hits++
			} else {
				tracking.Set(target, model.CellMiss)
				myTurn = false
			}
			g.display.Shot(target, resp.Hit, true)
			g.display.Grids(own, &tracking)
			if hits == fleetCells {
				g.display.Win()
				return nil
			}
			continue
		}

		g.display.Info("opponent's turn...")
		msg, err := g.client.WaitMessage()
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case *protocol.RegisterShot:
			if m.Hit {
				own.Set(m.Target, model.CellHit)
			} else {
				own.Set(m.Target, model.CellMiss)
				myTurn = true
			}
			g.display.Shot(m.Target, m.Hit, false)
			g.display.Grids(own, &tracking)
			if own.ShipCells() == 0 {
				g.display.Lose()
				return nil
			}
		case *protocol.GameAbandonedNotice:
			g.display.Warn("opponent left the game")
			return nil
		default:
			g.display.Warn("unexpected message from server")
		}
	}
}
