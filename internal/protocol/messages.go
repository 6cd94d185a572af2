package protocol

import "github.com/pvidal/battlegrid/internal/model"

// Request is the closed set of client -> server messages. The dispatcher
// switches exhaustively over the concrete types; the unexported method keeps
// the set closed to this package.
type Request interface {
	requestType() MsgType
}

type SignupRequest struct {
	Username string
	Password string
}

type LoginRequest struct {
	Username string
	Password string
}

type LogoutRequest struct {
	Token string
}

type ListUsersRequest struct {
	Token string
}

type LookForGameRequest struct {
	Token string
}

type CancelLookForGameRequest struct {
	Token string
}

// ChallengePlayerRequest asks the server to start a match against the named
// player. The response is deferred until the challenged player answers.
type ChallengePlayerRequest struct {
	Token          string
	TargetUsername string
}

// ChallengeAnswerRequest is the challenged player's answer to a
// ChallengeQuestion push.
type ChallengeAnswerRequest struct {
	Token  string
	Accept bool
}

// GameStartRequest submits the sender's ship placement grid. Cells may only
// be empty or ship.
type GameStartRequest struct {
	Token     string
	Placement model.Grid
}

type PlayerShotRequest struct {
	Token  string
	Target model.Coordinate
}

func (*SignupRequest) requestType() MsgType            { return MsgSignup }
func (*LoginRequest) requestType() MsgType             { return MsgLogin }
func (*LogoutRequest) requestType() MsgType            { return MsgLogout }
func (*ListUsersRequest) requestType() MsgType         { return MsgListUsers }
func (*LookForGameRequest) requestType() MsgType       { return MsgLookForGame }
func (*CancelLookForGameRequest) requestType() MsgType { return MsgCancelLookForGame }
func (*ChallengePlayerRequest) requestType() MsgType   { return MsgChallengePlayer }
func (*ChallengeAnswerRequest) requestType() MsgType   { return MsgChallengeAnswer }
func (*GameStartRequest) requestType() MsgType         { return MsgGameStart }
func (*PlayerShotRequest) requestType() MsgType        { return MsgPlayerShot }

// RequestToken returns the authorization token carried by the request, or
// "" for the two unauthenticated request types.
func RequestToken(req Request) string {
	switch r := req.(type) {
	case *SignupRequest, *LoginRequest:
		return ""
	case *LogoutRequest:
		return r.Token
	case *ListUsersRequest:
		return r.Token
	case *LookForGameRequest:
		return r.Token
	case *CancelLookForGameRequest:
		return r.Token
	case *ChallengePlayerRequest:
		return r.Token
	case *ChallengeAnswerRequest:
		return r.Token
	case *GameStartRequest:
		return r.Token
	case *PlayerShotRequest:
		return r.Token
	default:
		return ""
	}
}

// ServerMessage is the closed set of server -> client messages: responses
// plus the unsolicited pushes a client decodes as its next message.
type ServerMessage interface {
	serverType() MsgType
}

// SignupResponse and LoginResponse carry the fresh session token.
type SignupResponse struct {
	Status  Status
	Message string
	Token   string
}

type LoginResponse struct {
	Status  Status
	Message string
	Token   string
}

type LogoutResponse struct {
	Status  Status
	Message string
}

// UserEntry is one row of a list-users reply: another logged-in player and
// whether they are looking for a game.
type UserEntry struct {
	Username       string
	LookingForGame bool
}

type ListUsersResponse struct {
	Status  Status
	Message string
	Users   []UserEntry
}

type LookForGameResponse struct {
	Status  Status
	Message string
}

type CancelLookForGameResponse struct {
	Status  Status
	Message string
}

// ChallengePlayerResponse answers a ChallengePlayerRequest. It is written
// by the challenged player's handler once the challenge is answered, so the
// challenger receives it as the (delayed) response to its own request.
type ChallengePlayerResponse struct {
	Status  Status
	Message string
	GameID  uint32
}

// ChallengeQuestion is pushed to a challenged player.
type ChallengeQuestion struct {
	ChallengerUsername string
}

type ChallengeAnswerResponse struct {
	Status  Status
	Message string
	GameID  uint32
}

// GameStartResponse is sent to both players once the second placement grid
// arrives. FirstTurn tells the receiver whether they shoot first.
type GameStartResponse struct {
	Status    Status
	Message   string
	FirstTurn bool
}

type PlayerShotResponse struct {
	Status  Status
	Message string
	Hit     bool
}

// RegisterShot is pushed to the player being shot at, reporting where the
// opponent fired and whether it hit.
type RegisterShot struct {
	Hit    bool
	Target model.Coordinate
}

// GameAbandonedNotice is pushed, best effort, to the remaining player when
// their opponent drops out of an active match, so a client blocked on a
// read does not hang forever.
type GameAbandonedNotice struct{}

func (*SignupResponse) serverType() MsgType            { return MsgSignup }
func (*LoginResponse) serverType() MsgType             { return MsgLogin }
func (*LogoutResponse) serverType() MsgType            { return MsgLogout }
func (*ListUsersResponse) serverType() MsgType         { return MsgListUsers }
func (*LookForGameResponse) serverType() MsgType       { return MsgLookForGame }
func (*CancelLookForGameResponse) serverType() MsgType { return MsgCancelLookForGame }
func (*ChallengePlayerResponse) serverType() MsgType   { return MsgChallengePlayer }
func (*ChallengeQuestion) serverType() MsgType         { return MsgChallengeQuestion }
func (*ChallengeAnswerResponse) serverType() MsgType   { return MsgChallengeAnswer }
func (*GameStartResponse) serverType() MsgType         { return MsgGameStart }
func (*PlayerShotResponse) serverType() MsgType        { return MsgPlayerShot }
func (*RegisterShot) serverType() MsgType              { return MsgRegisterShot }
func (*GameAbandonedNotice) serverType() MsgType       { return MsgGameAbandoned }
