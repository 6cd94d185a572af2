// Package protocol defines the wire format spoken between the game server
// and its clients: a small framed binary protocol with one message type per
// request and response, encoded explicitly field by field.
package protocol

// Version is the wire protocol version carried in every frame header.
// Frames with a different version are rejected.
const Version = 1

// TokenLen is the length of the session authorization token issued on
// signup and login.
const TokenLen = 16

// MaxErrorMessageLen caps the human-readable message carried by error
// responses.
const MaxErrorMessageLen = 128

// MsgType tags every frame with the kind of message it carries. Responses
// reuse the tag of the request they answer; the two server pushes and the
// abandon notice have tags of their own.
type MsgType uint8

const (
	MsgSignup MsgType = iota + 1
	MsgLogin
	MsgLogout
	MsgListUsers
	MsgLookForGame
	MsgCancelLookForGame
	MsgChallengePlayer
	MsgChallengeQuestion // server -> client push
	MsgChallengeAnswer
	MsgGameStart
	MsgPlayerShot
	MsgRegisterShot  // server -> client push
	MsgGameAbandoned // server -> client push
)

// Status is the result code carried by every response.
type Status uint8

const (
	StatusOK                      Status = 0
	StatusConflict                Status = 1
	StatusNotFound                Status = 2
	StatusUnauthorized            Status = 3
	StatusBadRequest              Status = 4
	StatusPlayerNotConnected      Status = 5
	StatusPlayerNotLookingForGame Status = 6
	StatusPlayerError             Status = 7
	StatusPlayerDeclined          Status = 8
	StatusGameNotStarted          Status = 9
	StatusGameAbandoned           Status = 10
	StatusShotInvalidField        Status = 11
	StatusShotAlreadyDestroyed    Status = 12
	StatusNotMyTurn               Status = 13
	StatusUnknownError            Status = 255
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusConflict:
		return "conflict"
	case StatusNotFound:
		return "not found"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusBadRequest:
		return "bad request"
	case StatusPlayerNotConnected:
		return "player not connected"
	case StatusPlayerNotLookingForGame:
		return "player not looking for game"
	case StatusPlayerError:
		return "player error"
	case StatusPlayerDeclined:
		return "player declined"
	case StatusGameNotStarted:
		return "game not started"
	case StatusGameAbandoned:
		return "game abandoned"
	case StatusShotInvalidField:
		return "shot at invalid field"
	case StatusShotAlreadyDestroyed:
		return "field already destroyed"
	case StatusNotMyTurn:
		return "not my turn"
	default:
		return "unknown error"
	}
}
