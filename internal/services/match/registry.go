package match

import (
	"log/slog"
	"sync"
)

// Registry owns the set of live matches. Slots of closed matches are reused
// for new ones, but match ids are monotonically increasing and never
// reused.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	matches []*Match
	nextID  uint32
}

// NewRegistry creates an empty match registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		nextID: 1,
	}
}

// Create allocates a match between first (the challenger) and second,
// reusing the slot of a closed match when one exists.
func (r *Registry) Create(first, second Participant) *Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := newMatch(r.nextID, first, second)
	r.nextID++

	placed := false
	for i, existing := range r.matches {
		if existing.closed() {
			r.matches[i] = m
			placed = true
			break
		}
	}
	if !placed {
		r.matches = append(r.matches, m)
	}

	r.logger.Info("match created",
		slog.Uint64("match_id", uint64(m.id)),
		slog.String("first", first.Username()),
		slog.String("second", second.Username()),
	)
	return m
}

// Close transitions the match to closed and returns its slot to the free
// pool. The slot is not removed, so handles held by other goroutines stay
// valid and observe the closed state.
func (r *Registry) Close(m *Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info("match closed", slog.Uint64("match_id", uint64(m.ID())))
	m.close()
}

// Live returns the number of matches that are not closed.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, m := range r.matches {
		if !m.closed() {
			n++
		}
	}
	return n
}
