// Package session holds the server-side state of connected clients and the
// registry that owns their lifetime.
package session

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/protocol"
	"github.com/pvidal/battlegrid/internal/services/match"
)

// Session is the state of one connected client. Its transient fields are
// normally mutated only by the connection's own goroutine, but registry
// scans and the opponent's goroutine read them, so the identity fields are
// guarded by a small mutex and the matchmaking flag is atomic.
type Session struct {
	conn       net.Conn
	remoteAddr string

	// sendMu serializes frames on the socket: the owning goroutine writes
	// responses while the opponent's goroutine writes pushes.
	sendMu sync.Mutex

	mu       sync.Mutex
	user     *model.User
	loggedIn bool
	token    string
	match    *match.Match

	lookingForGame atomic.Bool
}

var _ match.Participant = (*Session)(nil)

func newSession(conn net.Conn) *Session {
	return &Session{
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
	}
}

// RemoteAddr returns the peer address, for logging.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Conn exposes the underlying connection for reading requests. Only the
// owning goroutine may read from it.
func (s *Session) Conn() net.Conn {
	return s.conn
}

// Send encodes and writes a server message to this client. Safe to call
// from any goroutine.
func (s *Session) Send(msg protocol.ServerMessage) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return protocol.WriteMessage(s.conn, msg)
}

// Login binds the authenticated user and their fresh session token.
func (s *Session) Login(user *model.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
	s.loggedIn = true
}

// Logout clears authentication and the matchmaking flag.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.loggedIn = false
	s.mu.Unlock()
	s.lookingForGame.Store(false)
}

// LoggedIn reports whether the session is authenticated.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Username returns the authenticated username, or "" when not logged in.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.Username
}

// TokenMatches checks the request token against the session's current one.
func (s *Session) TokenMatches(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn && token != "" && s.token == token
}

// SetLookingForGame flips the matchmaking flag. Read lock-free by
// list-users scans.
func (s *Session) SetLookingForGame(v bool) {
	s.lookingForGame.Store(v)
}

// LookingForGame reports the matchmaking flag.
func (s *Session) LookingForGame() bool {
	return s.lookingForGame.Load()
}

// SetMatch records the session's active match.
func (s *Session) SetMatch(m *match.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.match = m
}

// SetMatchIfNone records the match only when the session has no active
// match, reporting whether the claim won. Challenge setup uses this so two
// concurrent challengers cannot both bind the same player.
func (s *Session) SetMatchIfNone(m *match.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match != nil {
		return false
	}
	s.match = m
	return true
}

// ClearMatch drops the back-reference to the match. The match itself is
// owned by the match registry; this only severs the session's side of the
// cycle.
func (s *Session) ClearMatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.match = nil
}

// Match returns the session's active match, or nil.
func (s *Session) Match() *match.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match
}

func (s *Session) close() {
	_ = s.conn.Close()
}
