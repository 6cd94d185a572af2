// Package match implements the per-match turn-based state machine and the
// registry of live matches. A match is mutated concurrently by the two
// participants' connection goroutines, so every state transition happens
// under the match's own lock.
package match

import (
	"fmt"
	"sync"
	"time"

	"github.com/pvidal/battlegrid/internal/model"
)

// State is the lifecycle phase of a match.
type State uint8

const (
	// StateAccepting: created, waiting for the challenged player's answer.
	// The challenger auto-accepts at creation time.
	StateAccepting State = iota
	// StateWaitingForPlacement: both accepted, waiting for the ship grids.
	StateWaitingForPlacement
	// StateStarted: shots are being exchanged.
	StateStarted
	// StateFinished: a winner was decided.
	StateFinished
	// StateClosed: abandoned or torn down; terminal from any state.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateWaitingForPlacement:
		return "waiting_for_placement"
	case StateStarted:
		return "started"
	case StateFinished:
		return "finished"
	default:
		return "closed"
	}
}

// Outcome is the result of a valid shot.
type Outcome uint8

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
)

// Participant is one side of a match. The session layer satisfies this; the
// match itself only ever needs a stable identity and a username for the
// result record.
type Participant interface {
	Username() string
}

// Match is one two-player game. The first participant is the challenger and
// holds the initial turn once the match starts.
type Match struct {
	mu sync.Mutex

	id     uint32
	first  Participant
	second Participant

	firstAccepted  bool
	secondAccepted bool

	state State

	firstGrid    model.Grid
	secondGrid   model.Grid
	firstPlaced  bool
	secondPlaced bool

	turn   model.Side
	winner model.Side
}

func newMatch(id uint32, first, second Participant) *Match {
	return &Match{
		id:     id,
		first:  first,
		second: second,
		state:  StateAccepting,
	}
}

// ID returns the match identifier.
func (m *Match) ID() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// State returns the current lifecycle state.
func (m *Match) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// side identifies which side p is, panicking if p is not a participant:
// handlers validate membership before calling in, so reaching this with a
// stranger means shared state is corrupted.
func (m *Match) side(p Participant) model.Side {
	if p == m.first {
		return model.SideFirst
	}
	if p == m.second {
		return model.SideSecond
	}
	panic(fmt.Sprintf("match %d: %q is not a participant", m.id, p.Username()))
}

// IsParticipant reports whether p is one of the two sides.
func (m *Match) IsParticipant(p Participant) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return p == m.first || p == m.second
}

// Other returns the opposite participant, or nil if the match has been
// closed and its participant references cleared.
func (m *Match) Other(p Participant) Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.first == nil || m.second == nil {
		return nil
	}
	if m.side(p) == model.SideFirst {
		return m.second
	}
	return m.first
}

// Accept records p's acceptance. When both sides have accepted the match
// moves to StateWaitingForPlacement and both reports true. Accepting a
// closed match returns ErrGameAbandoned; accepting in any later state
// returns ErrMatchAlreadyStarted.
func (m *Match) Accept(p Participant) (both bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateAccepting:
	case StateClosed:
		return false, model.ErrGameAbandoned
	default:
		return false, model.ErrMatchAlreadyStarted
	}
	if m.side(p) == model.SideFirst {
		m.firstAccepted = true
	} else {
		m.secondAccepted = true
	}
	if m.firstAccepted && m.secondAccepted {
		m.state = StateWaitingForPlacement
		return true, nil
	}
	return false, nil
}

// SetPlacement stores p's ship grid. When the second grid arrives the match
// starts and the initial turn goes to the first side (the challenger);
// started reports that transition.
func (m *Match) SetPlacement(p Participant, g model.Grid) (started bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateWaitingForPlacement:
	case StateClosed:
		return false, model.ErrGameAbandoned
	case StateAccepting:
		return false, model.ErrMatchNotAccepted
	default:
		return false, model.ErrMatchAlreadyStarted
	}
	if m.side(p) == model.SideFirst {
		if m.firstPlaced {
			return false, model.ErrPlacementAlreadySet
		}
		m.firstGrid = g
		m.firstPlaced = true
	} else {
		if m.secondPlaced {
			return false, model.ErrPlacementAlreadySet
		}
		m.secondGrid = g
		m.secondPlaced = true
	}
	if m.firstPlaced && m.secondPlaced {
		m.state = StateStarted
		m.turn = model.SideFirst
		return true, nil
	}
	return false, nil
}

// FirstTurn reports whether p holds the initial turn. Reports false once
// the match has been closed and its participant references cleared; a
// disconnect can close the match between any two calls.
func (m *Match) FirstTurn(p Participant) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.first == nil || m.second == nil {
		return false
	}
	return m.side(p) == model.SideFirst
}

// RegisterShot resolves p's shot at target against the opponent's grid.
//
// A miss passes the turn, a hit keeps it; out-of-bounds and
// already-resolved targets change nothing, including the turn. won reports
// that this hit destroyed the opponent's last ship cell, finishing the
// match with p as the winner.
func (m *Match) RegisterShot(p Participant, target model.Coordinate) (outcome Outcome, won bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateStarted:
	case StateClosed:
		return 0, false, model.ErrGameAbandoned
	default:
		return 0, false, model.ErrGameNotStarted
	}

	shooter := m.side(p)
	if m.turn != shooter {
		return 0, false, model.ErrNotMyTurn
	}
	if !target.InBounds() {
		return 0, false, model.ErrInvalidTarget
	}

	// A shot lands on the opponent's grid.
	grid := &m.secondGrid
	if shooter == model.SideSecond {
		grid = &m.firstGrid
	}

	switch grid.At(target) {
	case model.CellEmpty:
		grid.Set(target, model.CellMiss)
		m.turn = shooter.Other()
		return OutcomeMiss, false, nil
	case model.CellShip:
		grid.Set(target, model.CellHit)
		// Turn stays with the shooter after a hit.
		if grid.ShipCells() == 0 {
			m.state = StateFinished
			m.winner = shooter
			return OutcomeHit, true, nil
		}
		return OutcomeHit, false, nil
	default:
		return 0, false, model.ErrAlreadyResolved
	}
}

// Result builds the persisted record of a finished match.
func (m *Match) Result(finishedAt time.Time) (model.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFinished {
		return model.GameResult{}, model.ErrGameNotStarted
	}
	return model.GameResult{
		FirstUsername:  m.first.Username(),
		SecondUsername: m.second.Username(),
		Winner:         m.winner,
		FirstGrid:      m.firstGrid,
		SecondGrid:     m.secondGrid,
		FinishedAt:     finishedAt,
	}, nil
}

// close transitions the match to StateClosed and clears the participant
// references. Idempotent; called by the registry only.
func (m *Match) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
	m.first = nil
	m.second = nil
}

// closed reports whether the slot can be reused.
func (m *Match) closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateClosed
}
