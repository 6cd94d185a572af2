package session

import (
	"log/slog"
	"net"
	"sync"
)

// Registry owns the lifetime of all connected sessions. Structural changes
// take the write lock; scans and lookups take the read lock. Session
// content is mutated by the owning connection goroutine without the
// registry lock.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions []*Session // nil entries are free slots
}

// NewRegistry creates an empty client registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register wraps an accepted connection in a fresh session, reusing the
// slot of a previously disconnected client when one exists. The caller
// spawns the per-connection goroutine.
func (r *Registry) Register(conn net.Conn) *Session {
	s := newSession(conn)

	r.mu.Lock()
	placed := false
	for i, existing := range r.sessions {
		if existing == nil {
			r.sessions[i] = s
			placed = true
			break
		}
	}
	if !placed {
		r.sessions = append(r.sessions, s)
	}
	r.mu.Unlock()

	r.logger.Info("client connected", slog.String("addr", s.RemoteAddr()))
	return s
}

// Unregister closes the connection, clears authentication and frees the
// slot. Called exactly once per connection, by its own goroutine.
func (r *Registry) Unregister(s *Session) {
	s.Logout()
	s.close()

	r.mu.Lock()
	for i, existing := range r.sessions {
		if existing == s {
			r.sessions[i] = nil
			break
		}
	}
	r.mu.Unlock()

	r.logger.Info("client disconnected", slog.String("addr", s.RemoteAddr()))
}

// FindByUsername returns the logged-in session with the given username, or
// nil. Linear scan; lobby sizes are small.
func (r *Registry) FindByUsername(name string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s == nil || !s.LoggedIn() {
			continue
		}
		if s.Username() == name {
			return s
		}
	}
	return nil
}

// Others returns every logged-in session except the given one, in slot
// order. The matchmaking flag on each entry is read lock-free and may be
// momentarily stale.
func (r *Registry) Others(exclude *Session) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s == nil || s == exclude || !s.LoggedIn() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Counts returns the number of connected and of logged-in sessions.
func (r *Registry) Counts() (connected, loggedIn int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s == nil {
			continue
		}
		connected++
		if s.LoggedIn() {
			loggedIn++
		}
	}
	return connected, loggedIn
}
