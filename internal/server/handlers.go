package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/protocol"
	"github.com/pvidal/battlegrid/internal/services/board"
	"github.com/pvidal/battlegrid/internal/services/match"
	"github.com/pvidal/battlegrid/internal/services/session"
)

// handle dispatches one decoded request. Handlers send their own responses;
// the challenge and placement flows deliberately defer or fan out responses,
// so nothing is returned up the stack.
func (s *Server) handle(ctx context.Context, sess *session.Session, req protocol.Request) {
	switch r := req.(type) {
	case *protocol.SignupRequest:
		s.handleSignup(ctx, sess, r)
	case *protocol.LoginRequest:
		s.handleLogin(ctx, sess, r)
	case *protocol.LogoutRequest:
		s.handleLogout(sess, r)
	case *protocol.ListUsersRequest:
		s.handleListUsers(sess, r)
	case *protocol.LookForGameRequest:
		s.handleLookForGame(sess, r)
	case *protocol.CancelLookForGameRequest:
		s.handleCancelLookForGame(sess, r)
	case *protocol.ChallengePlayerRequest:
		s.handleChallengePlayer(sess, r)
	case *protocol.ChallengeAnswerRequest:
		s.handleChallengeAnswer(sess, r)
	case *protocol.GameStartRequest:
		s.handleGameStart(sess, r)
	case *protocol.PlayerShotRequest:
		s.handlePlayerShot(ctx, sess, r)
	default:
		s.logger.Error("no handler for request", slog.String("addr", sess.RemoteAddr()))
	}
}

// errorResponse builds the response matching the request's type with the
// given failure status.
func errorResponse(req protocol.Request, st protocol.Status, msg string) protocol.ServerMessage {
	switch req.(type) {
	case *protocol.SignupRequest:
		return &protocol.SignupResponse{Status: st, Message: msg}
	case *protocol.LoginRequest:
		return &protocol.LoginResponse{Status: st, Message: msg}
	case *protocol.LogoutRequest:
		return &protocol.LogoutResponse{Status: st, Message: msg}
	case *protocol.ListUsersRequest:
		return &protocol.ListUsersResponse{Status: st, Message: msg}
	case *protocol.LookForGameRequest:
		return &protocol.LookForGameResponse{Status: st, Message: msg}
	case *protocol.CancelLookForGameRequest:
		return &protocol.CancelLookForGameResponse{Status: st, Message: msg}
	case *protocol.ChallengePlayerRequest:
		return &protocol.ChallengePlayerResponse{Status: st, Message: msg}
	case *protocol.ChallengeAnswerRequest:
		return &protocol.ChallengeAnswerResponse{Status: st, Message: msg}
	case *protocol.GameStartRequest:
		return &protocol.GameStartResponse{Status: st, Message: msg}
	case *protocol.PlayerShotRequest:
		return &protocol.PlayerShotResponse{Status: st, Message: msg}
	default:
		return &protocol.LogoutResponse{Status: st, Message: msg}
	}
}

// send writes a message to a session, logging rather than propagating
// failures. A dead socket is discovered by that connection's own read loop.
func (s *Server) send(sess *session.Session, msg protocol.ServerMessage) {
	if err := sess.Send(msg); err != nil {
		s.logger.Debug("send failed",
			slog.String("addr", sess.RemoteAddr()),
			slog.String("error", err.Error()),
		)
	}
}

// authorize checks the request token against the session. On failure it
// sends the matching error response and reports false.
func (s *Server) authorize(sess *session.Session, req protocol.Request) bool {
	if sess.TokenMatches(protocol.RequestToken(req)) {
		return true
	}
	s.send(sess, errorResponse(req, protocol.StatusUnauthorized, "invalid or missing token"))
	return false
}

func (s *Server) handleSignup(ctx context.Context, sess *session.Session, r *protocol.SignupRequest) {
	if sess.LoggedIn() {
		s.send(sess, &protocol.SignupResponse{Status: protocol.StatusBadRequest, Message: "already logged in"})
		return
	}
	user, token, err := s.auth.Signup(ctx, r.Username, r.Password)
	if err != nil {
		st := protocol.StatusUnknownError
		switch {
		case errors.Is(err, model.ErrInvalidUsername), errors.Is(err, model.ErrInvalidPassword):
			st = protocol.StatusBadRequest
		case errors.Is(err, model.ErrUsernameExists):
			st = protocol.StatusConflict
		}
		s.send(sess, &protocol.SignupResponse{Status: st, Message: err.Error()})
		return
	}
	sess.Login(user, token)
	s.send(sess, &protocol.SignupResponse{Status: protocol.StatusOK, Token: token})
}

func (s *Server) handleLogin(ctx context.Context, sess *session.Session, r *protocol.LoginRequest) {
	if sess.LoggedIn() {
		s.send(sess, &protocol.LoginResponse{Status: protocol.StatusBadRequest, Message: "already logged in"})
		return
	}
	user, token, err := s.auth.Login(ctx, r.Username, r.Password)
	if err != nil {
		st := protocol.StatusUnknownError
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			st = protocol.StatusNotFound
		case errors.Is(err, model.ErrWrongPassword):
			st = protocol.StatusUnauthorized
		}
		s.send(sess, &protocol.LoginResponse{Status: st, Message: err.Error()})
		return
	}
	sess.Login(user, token)
	s.send(sess, &protocol.LoginResponse{Status: protocol.StatusOK, Token: token})
}

func (s *Server) handleLogout(sess *session.Session, r *protocol.LogoutRequest) {
	if !sess.LoggedIn() {
		s.send(sess, &protocol.LogoutResponse{Status: protocol.StatusBadRequest, Message: "not logged in"})
		return
	}
	if !s.authorize(sess, r) {
		return
	}
	// Logging out mid-match abandons it, same as disconnecting.
	s.abandonMatch(sess)
	s.logger.Info("user logged out", slog.String("username", sess.Username()))
	sess.Logout()
	s.send(sess, &protocol.LogoutResponse{Status: protocol.StatusOK})
}

func (s *Server) handleListUsers(sess *session.Session, r *protocol.ListUsersRequest) {
	if !s.authorize(sess, r) {
		return
	}
	others := s.sessions.Others(sess)
	users := make([]protocol.UserEntry, 0, len(others))
	for _, other := range others {
		users = append(users, protocol.UserEntry{
			Username:       other.Username(),
			LookingForGame: other.LookingForGame(),
		})
	}
	s.send(sess, &protocol.ListUsersResponse{Status: protocol.StatusOK, Users: users})
}

func (s *Server) handleLookForGame(sess *session.Session, r *protocol.LookForGameRequest) {
	if !s.authorize(sess, r) {
		return
	}
	if sess.Match() != nil {
		s.send(sess, &protocol.LookForGameResponse{
			Status:  protocol.StatusBadRequest,
			Message: "already in a match",
		})
		return
	}
	sess.SetLookingForGame(true)
	s.send(sess, &protocol.LookForGameResponse{Status: protocol.StatusOK})
}

func (s *Server) handleCancelLookForGame(sess *session.Session, r *protocol.CancelLookForGameRequest) {
	if !s.authorize(sess, r) {
		return
	}
	// Idempotent; cancelling while not looking is fine.
	sess.SetLookingForGame(false)
	s.send(sess, &protocol.CancelLookForGameResponse{Status: protocol.StatusOK})
}

// handleChallengePlayer validates the challenge and pushes a
// ChallengeQuestion to the target. On success the challenger gets NO
// response here; their ChallengePlayerResponse is written by the target's
// answer handler once the challenge is answered.
func (s *Server) handleChallengePlayer(sess *session.Session, r *protocol.ChallengePlayerRequest) {
	if !s.authorize(sess, r) {
		return
	}
	if r.TargetUsername == sess.Username() {
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusBadRequest,
			Message: "cannot challenge yourself",
		})
		return
	}
	if sess.Match() != nil {
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusBadRequest,
			Message: "already in a match",
		})
		return
	}

	target := s.sessions.FindByUsername(r.TargetUsername)
	if target == nil {
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusPlayerNotConnected,
			Message: "player is not connected",
		})
		return
	}
	if !target.LookingForGame() {
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusPlayerNotLookingForGame,
			Message: "player is not looking for a game",
		})
		return
	}
	if target.Match() != nil {
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusPlayerError,
			Message: "player is already in a match",
		})
		return
	}

	m := s.matches.Create(sess, target)
	// The challenger accepts implicitly by challenging.
	if _, err := m.Accept(sess); err != nil {
		s.matches.Close(m)
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusUnknownError,
			Message: err.Error(),
		})
		return
	}
	// Bind both sessions with compare-and-set claims: the availability
	// checks above race against competing challengers, so the claim itself
	// must be the arbiter.
	if !sess.SetMatchIfNone(m) {
		s.matches.Close(m)
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusBadRequest,
			Message: "already in a match",
		})
		return
	}
	if !target.SetMatchIfNone(m) {
		s.matches.Close(m)
		sess.ClearMatch()
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusPlayerError,
			Message: "player is already in a match",
		})
		return
	}
	sess.SetLookingForGame(false)
	target.SetLookingForGame(false)

	if err := target.Send(&protocol.ChallengeQuestion{ChallengerUsername: sess.Username()}); err != nil {
		// Target socket is dead; undo and fail the challenge immediately.
		s.matches.Close(m)
		sess.ClearMatch()
		target.ClearMatch()
		s.send(sess, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusPlayerError,
			Message: "player is unreachable",
		})
	}
}

// handleChallengeAnswer resolves a pending challenge. The deferred
// ChallengePlayerResponse is written to the challenger's socket here.
func (s *Server) handleChallengeAnswer(sess *session.Session, r *protocol.ChallengeAnswerRequest) {
	if !s.authorize(sess, r) {
		return
	}
	m := sess.Match()
	if m == nil {
		s.send(sess, &protocol.ChallengeAnswerResponse{
			Status:  protocol.StatusBadRequest,
			Message: "no pending challenge",
		})
		return
	}
	if m.State() == match.StateClosed {
		sess.ClearMatch()
		s.send(sess, &protocol.ChallengeAnswerResponse{
			Status:  protocol.StatusGameAbandoned,
			Message: "challenger is gone",
		})
		return
	}
	if m.State() != match.StateAccepting {
		s.send(sess, &protocol.ChallengeAnswerResponse{
			Status:  protocol.StatusBadRequest,
			Message: "challenge already answered",
		})
		return
	}
	challenger, _ := m.Other(sess).(*session.Session)
	if challenger == nil {
		// Challenger dropped; the match was closed in teardown.
		sess.ClearMatch()
		s.send(sess, &protocol.ChallengeAnswerResponse{
			Status:  protocol.StatusGameAbandoned,
			Message: "challenger is gone",
		})
		return
	}

	if !r.Accept {
		s.matches.Close(m)
		sess.ClearMatch()
		challenger.ClearMatch()
		s.send(challenger, &protocol.ChallengePlayerResponse{
			Status:  protocol.StatusPlayerDeclined,
			Message: "player declined the challenge",
		})
		s.send(sess, &protocol.ChallengeAnswerResponse{Status: protocol.StatusOK, GameID: m.ID()})
		return
	}

	if _, err := m.Accept(sess); err != nil {
		st := protocol.StatusBadRequest
		if errors.Is(err, model.ErrGameAbandoned) {
			st = protocol.StatusGameAbandoned
			sess.ClearMatch()
		}
		s.send(sess, &protocol.ChallengeAnswerResponse{Status: st, Message: err.Error()})
		return
	}
	s.send(challenger, &protocol.ChallengePlayerResponse{Status: protocol.StatusOK, GameID: m.ID()})
	s.send(sess, &protocol.ChallengeAnswerResponse{Status: protocol.StatusOK, GameID: m.ID()})
}

// handleGameStart stores the sender's placement. The first submitter gets
// no response until the second grid arrives, at which point both players
// receive a GameStartResponse telling them whose turn it is.
func (s *Server) handleGameStart(sess *session.Session, r *protocol.GameStartRequest) {
	if !s.authorize(sess, r) {
		return
	}
	m := sess.Match()
	if m == nil {
		s.send(sess, &protocol.GameStartResponse{
			Status:  protocol.StatusGameNotStarted,
			Message: "no active match",
		})
		return
	}
	if err := board.ValidateSubmittedGrid(r.Placement); err != nil {
		s.send(sess, &protocol.GameStartResponse{
			Status:  protocol.StatusBadRequest,
			Message: err.Error(),
		})
		return
	}

	started, err := m.SetPlacement(sess, r.Placement)
	if err != nil {
		st := protocol.StatusBadRequest
		if errors.Is(err, model.ErrGameAbandoned) {
			st = protocol.StatusGameAbandoned
			sess.ClearMatch()
		}
		s.send(sess, &protocol.GameStartResponse{Status: st, Message: err.Error()})
		return
	}
	if !started {
		// Deferred; the opponent's placement completes the exchange.
		return
	}

	opponent, _ := m.Other(sess).(*session.Session)
	if opponent == nil {
		// The opponent disconnected between the placement landing and the
		// fan-out; their teardown closed the match.
		sess.ClearMatch()
		s.send(sess, &protocol.GameStartResponse{
			Status:  protocol.StatusGameAbandoned,
			Message: "opponent left the game",
		})
		return
	}

	s.send(sess, &protocol.GameStartResponse{
		Status:    protocol.StatusOK,
		FirstTurn: m.FirstTurn(sess),
	})
	s.send(opponent, &protocol.GameStartResponse{
		Status:    protocol.StatusOK,
		FirstTurn: m.FirstTurn(opponent),
	})
	s.logger.Info("match started", slog.Uint64("match_id", uint64(m.ID())))
}

func (s *Server) handlePlayerShot(ctx context.Context, sess *session.Session, r *protocol.PlayerShotRequest) {
	if !s.authorize(sess, r) {
		return
	}
	m := sess.Match()
	if m == nil {
		s.send(sess, &protocol.PlayerShotResponse{
			Status:  protocol.StatusGameNotStarted,
			Message: "no active match",
		})
		return
	}

	outcome, won, err := m.RegisterShot(sess, r.Target)
	if err != nil {
		var st protocol.Status
		switch {
		case errors.Is(err, model.ErrGameAbandoned):
			st = protocol.StatusGameAbandoned
			sess.ClearMatch()
		case errors.Is(err, model.ErrGameNotStarted):
			st = protocol.StatusGameNotStarted
		case errors.Is(err, model.ErrNotMyTurn):
			st = protocol.StatusNotMyTurn
		case errors.Is(err, model.ErrInvalidTarget):
			st = protocol.StatusShotInvalidField
		case errors.Is(err, model.ErrAlreadyResolved):
			st = protocol.StatusShotAlreadyDestroyed
		default:
			st = protocol.StatusUnknownError
		}
		s.send(sess, &protocol.PlayerShotResponse{Status: st, Message: err.Error()})
		return
	}

	hit := outcome == match.OutcomeHit
	opponent, _ := m.Other(sess).(*session.Session)

	s.send(sess, &protocol.PlayerShotResponse{Status: protocol.StatusOK, Hit: hit})
	if opponent != nil {
		s.send(opponent, &protocol.RegisterShot{Hit: hit, Target: r.Target})
	}

	if won {
		s.finishMatch(ctx, m, sess, opponent)
	}
}

// finishMatch persists the result of a won match and tears the match down.
func (s *Server) finishMatch(ctx context.Context, m *match.Match, winner, loser *session.Session) {
	result, err := m.Result(s.clock.Now())
	if err != nil {
		// A concurrent teardown can close the match before the result is
		// read; nothing to persist then.
		s.logger.Error("reading game result failed",
			slog.Uint64("match_id", uint64(m.ID())),
			slog.String("error", err.Error()),
		)
	} else {
		if storeErr := s.store.AppendResult(ctx, result); storeErr != nil {
			s.logger.Error("storing game result failed",
				slog.Uint64("match_id", uint64(m.ID())),
				slog.String("error", storeErr.Error()),
			)
		}
		s.logger.Info("match finished",
			slog.Uint64("match_id", uint64(m.ID())),
			slog.String("winner", winner.Username()),
		)
	}
	s.matches.Close(m)
	winner.ClearMatch()
	if loser != nil {
		loser.ClearMatch()
	}
}
