package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvidal/battlegrid/internal/model"
)

func roundTripRequest(t *testing.T, req Request) Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, req))
	got, err := ReadRequest(&buf)
	require.NoError(t, err)
	return got
}

func roundTripMessage(t *testing.T, msg ServerMessage) ServerMessage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg))
	got, err := ReadServerMessage(&buf)
	require.NoError(t, err)
	return got
}

func TestRequestRoundTrip(t *testing.T) {
	grid := model.Grid{}
	grid.Set(model.Coordinate{X: 0, Y: 0}, model.CellShip)
	grid.Set(model.Coordinate{X: 1, Y: 0}, model.CellShip)

	tests := []struct {
		name string
		req  Request
	}{
		{"signup", &SignupRequest{Username: "alice", Password: "secret"}},
		{"login", &LoginRequest{Username: "bob", Password: "hunter2"}},
		{"logout", &LogoutRequest{Token: "deadbeefdeadbeef"}},
		{"list_users", &ListUsersRequest{Token: "deadbeefdeadbeef"}},
		{"look_for_game", &LookForGameRequest{Token: "deadbeefdeadbeef"}},
		{"cancel_look", &CancelLookForGameRequest{Token: "deadbeefdeadbeef"}},
		{"challenge", &ChallengePlayerRequest{Token: "deadbeefdeadbeef", TargetUsername: "bob"}},
		{"challenge_answer", &ChallengeAnswerRequest{Token: "deadbeefdeadbeef", Accept: true}},
		{"game_start", &GameStartRequest{Token: "deadbeefdeadbeef", Placement: grid}},
		{"player_shot", &PlayerShotRequest{Token: "deadbeefdeadbeef", Target: model.Coordinate{X: 2, Y: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.req, roundTripRequest(t, tt.req))
		})
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ServerMessage
	}{
		{"signup_ok", &SignupResponse{Status: StatusOK, Token: "deadbeefdeadbeef"}},
		{"signup_conflict", &SignupResponse{Status: StatusConflict, Message: "username already exists"}},
		{"login_ok", &LoginResponse{Status: StatusOK, Token: "deadbeefdeadbeef"}},
		{"logout_ok", &LogoutResponse{Status: StatusOK}},
		{"list_users", &ListUsersResponse{Status: StatusOK, Users: []UserEntry{
			{Username: "bob", LookingForGame: true},
			{Username: "carol", LookingForGame: false},
		}}},
		{"list_users_empty", &ListUsersResponse{Status: StatusOK, Users: []UserEntry{}}},
		{"look_ok", &LookForGameResponse{Status: StatusOK}},
		{"cancel_ok", &CancelLookForGameResponse{Status: StatusOK}},
		{"challenge_ok", &ChallengePlayerResponse{Status: StatusOK, GameID: 42}},
		{"challenge_declined", &ChallengePlayerResponse{Status: StatusPlayerDeclined, Message: "player declined the challenge"}},
		{"challenge_question", &ChallengeQuestion{ChallengerUsername: "alice"}},
		{"challenge_answer_ok", &ChallengeAnswerResponse{Status: StatusOK, GameID: 42}},
		{"game_start_ok", &GameStartResponse{Status: StatusOK, FirstTurn: true}},
		{"shot_ok", &PlayerShotResponse{Status: StatusOK, Hit: true}},
		{"shot_not_my_turn", &PlayerShotResponse{Status: StatusNotMyTurn, Message: "not my turn"}},
		{"register_shot", &RegisterShot{Hit: true, Target: model.Coordinate{X: 1, Y: 2}}},
		{"abandoned", &GameAbandonedNotice{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, roundTripMessage(t, tt.msg))
		})
	}
}

func TestReadRequestRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, &LogoutRequest{Token: "deadbeefdeadbeef"}))
	raw := buf.Bytes()
	raw[0] = Version + 1

	_, err := ReadRequest(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrBadVersion)
}

func TestReadRequestUnknownTypeKeepsStreamUsable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, MsgType(200), []byte{1, 2, 3}))
	require.NoError(t, WriteRequest(&buf, &LogoutRequest{Token: "deadbeefdeadbeef"}))

	_, err := ReadRequest(&buf)
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, MsgType(200), unknown.Type)

	// The unknown frame's payload was consumed; the next request decodes.
	req, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, &LogoutRequest{Token: "deadbeefdeadbeef"}, req)
}

func TestReadRequestRejectsTrailingBytes(t *testing.T) {
	var e encoder
	e.str("deadbeefdeadbeef")
	e.byte(99)
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, MsgLogout, e.buf.Bytes()))

	_, err := ReadRequest(&buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReadRequestRejectsTruncatedString(t *testing.T) {
	// Length byte promises 10 chars, payload carries 3.
	payload := []byte{10, 'a', 'b', 'c'}
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, MsgLogout, payload))

	_, err := ReadRequest(&buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReadRequestRejectsInvalidGridCell(t *testing.T) {
	var e encoder
	e.str("deadbeefdeadbeef")
	for i := 0; i < model.GridCells; i++ {
		e.byte(7) // not a valid cell state
	}
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, MsgGameStart, e.buf.Bytes()))

	_, err := ReadRequest(&buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestErrorMessageIsTruncated(t *testing.T) {
	long := make([]byte, MaxErrorMessageLen*2)
	for i := range long {
		long[i] = 'x'
	}
	msg := roundTripMessage(t, &LogoutResponse{Status: StatusBadRequest, Message: string(long)})
	resp := msg.(*LogoutResponse)
	assert.Len(t, resp.Message, MaxErrorMessageLen)
}

func TestNegativeCoordinateSurvivesRoundTrip(t *testing.T) {
	// Out-of-range input must decode so the server can reject it explicitly.
	req := roundTripRequest(t, &PlayerShotRequest{
		Token:  "deadbeefdeadbeef",
		Target: model.Coordinate{X: -1, Y: 5},
	})
	shot := req.(*PlayerShotRequest)
	assert.Equal(t, model.Coordinate{X: -1, Y: 5}, shot.Target)
	assert.False(t, shot.Target.InBounds())
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "player declined", StatusPlayerDeclined.String())
	assert.Equal(t, "unknown error", Status(77).String())
}
