package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/testutil"
)

type fakePlayer struct {
	name string
}

func (p *fakePlayer) Username() string { return p.name }

type MatchSuite struct {
	suite.Suite
	registry *Registry
	alice    *fakePlayer
	bob      *fakePlayer
}

func TestMatchSuite(t *testing.T) {
	suite.Run(t, new(MatchSuite))
}

func (s *MatchSuite) SetupTest() {
	s.registry = NewRegistry(testutil.NopLogger())
	s.alice = &fakePlayer{name: "alice"}
	s.bob = &fakePlayer{name: "bob"}
}

// newAccepted returns a match with both sides accepted.
func (s *MatchSuite) newAccepted() *Match {
	m := s.registry.Create(s.alice, s.bob)
	_, err := m.Accept(s.alice)
	s.Require().NoError(err)
	both, err := m.Accept(s.bob)
	s.Require().NoError(err)
	s.Require().True(both)
	return m
}

// gridWithShips returns a grid holding ship cells at the given coordinates.
func gridWithShips(coords ...model.Coordinate) model.Grid {
	var g model.Grid
	for _, c := range coords {
		g.Set(c, model.CellShip)
	}
	return g
}

// newStarted returns a running match. Each side has a single ship: alice at
// A1, bob at C3. Alice shoots first.
func (s *MatchSuite) newStarted() *Match {
	m := s.newAccepted()
	started, err := m.SetPlacement(s.alice, gridWithShips(model.Coordinate{X: 0, Y: 0}))
	s.Require().NoError(err)
	s.Require().False(started)
	started, err = m.SetPlacement(s.bob, gridWithShips(model.Coordinate{X: 2, Y: 2}))
	s.Require().NoError(err)
	s.Require().True(started)
	return m
}

// Lifecycle tests

func (s *MatchSuite) TestCreateStartsAccepting() {
	m := s.registry.Create(s.alice, s.bob)
	s.Equal(StateAccepting, m.State())
	s.True(m.IsParticipant(s.alice))
	s.True(m.IsParticipant(s.bob))
	s.False(m.IsParticipant(&fakePlayer{name: "carol"}))
}

func (s *MatchSuite) TestAcceptNeedsBothSides() {
	m := s.registry.Create(s.alice, s.bob)

	both, err := m.Accept(s.alice)
	s.Require().NoError(err)
	s.False(both)
	s.Equal(StateAccepting, m.State())

	both, err = m.Accept(s.bob)
	s.Require().NoError(err)
	s.True(both)
	s.Equal(StateWaitingForPlacement, m.State())
}

func (s *MatchSuite) TestAcceptClosedMatch() {
	m := s.registry.Create(s.alice, s.bob)
	s.registry.Close(m)

	_, err := m.Accept(s.alice)
	s.ErrorIs(err, model.ErrGameAbandoned)
}

func (s *MatchSuite) TestAcceptAfterPlacementPhase() {
	m := s.newAccepted()
	_, err := m.Accept(s.alice)
	s.ErrorIs(err, model.ErrMatchAlreadyStarted)
}

func (s *MatchSuite) TestOtherReturnsOpponent() {
	m := s.registry.Create(s.alice, s.bob)
	s.Equal(s.bob, m.Other(s.alice))
	s.Equal(s.alice, m.Other(s.bob))
}

func (s *MatchSuite) TestOtherNilAfterClose() {
	m := s.registry.Create(s.alice, s.bob)
	s.registry.Close(m)
	s.Nil(m.Other(s.alice))
}

// Placement tests

func (s *MatchSuite) TestPlacementBeforeAccept() {
	m := s.registry.Create(s.alice, s.bob)
	_, err := m.SetPlacement(s.alice, gridWithShips(model.Coordinate{X: 0, Y: 0}))
	s.ErrorIs(err, model.ErrMatchNotAccepted)
}

func (s *MatchSuite) TestPlacementOnlyOnce() {
	m := s.newAccepted()
	_, err := m.SetPlacement(s.alice, gridWithShips(model.Coordinate{X: 0, Y: 0}))
	s.Require().NoError(err)

	_, err = m.SetPlacement(s.alice, gridWithShips(model.Coordinate{X: 1, Y: 1}))
	s.ErrorIs(err, model.ErrPlacementAlreadySet)
}

func (s *MatchSuite) TestSecondPlacementStartsMatch() {
	m := s.newStarted()
	s.Equal(StateStarted, m.State())
	s.True(m.FirstTurn(s.alice))
	s.False(m.FirstTurn(s.bob))
}

func (s *MatchSuite) TestFirstTurnOnClosedMatch() {
	m := s.newStarted()
	s.registry.Close(m)

	// A disconnect can close the match while the start fan-out is still in
	// flight; asking for the turn then must not blow up.
	s.NotPanics(func() {
		s.False(m.FirstTurn(s.alice))
		s.False(m.FirstTurn(s.bob))
	})
}

func (s *MatchSuite) TestPlacementAfterStart() {
	m := s.newStarted()
	_, err := m.SetPlacement(s.alice, gridWithShips(model.Coordinate{X: 0, Y: 0}))
	s.ErrorIs(err, model.ErrMatchAlreadyStarted)
}

// Shot resolution tests

func (s *MatchSuite) TestShotOutOfTurn() {
	m := s.newStarted()
	_, _, err := m.RegisterShot(s.bob, model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrNotMyTurn)
}

func (s *MatchSuite) TestShotBeforeStart() {
	m := s.newAccepted()
	_, _, err := m.RegisterShot(s.alice, model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrGameNotStarted)
}

func (s *MatchSuite) TestShotOutOfBounds() {
	m := s.newStarted()
	_, _, err := m.RegisterShot(s.alice, model.Coordinate{X: 3, Y: 0})
	s.ErrorIs(err, model.ErrInvalidTarget)

	// An invalid shot does not pass the turn.
	s.True(m.FirstTurn(s.alice))
	_, _, err = m.RegisterShot(s.bob, model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrNotMyTurn)
}

func (s *MatchSuite) TestMissPassesTurn() {
	m := s.newStarted()

	outcome, won, err := m.RegisterShot(s.alice, model.Coordinate{X: 1, Y: 1})
	s.Require().NoError(err)
	s.Equal(OutcomeMiss, outcome)
	s.False(won)

	// Now it is bob's turn.
	_, _, err = m.RegisterShot(s.alice, model.Coordinate{X: 0, Y: 1})
	s.ErrorIs(err, model.ErrNotMyTurn)

	outcome, _, err = m.RegisterShot(s.bob, model.Coordinate{X: 1, Y: 1})
	s.Require().NoError(err)
	s.Equal(OutcomeMiss, outcome)
}

func (s *MatchSuite) TestHitKeepsTurnAndWins() {
	m := s.newAccepted()
	// Bob gets two ship cells so the first hit does not end the match.
	_, err := m.SetPlacement(s.alice, gridWithShips(model.Coordinate{X: 0, Y: 0}))
	s.Require().NoError(err)
	started, err := m.SetPlacement(s.bob, gridWithShips(
		model.Coordinate{X: 0, Y: 2},
		model.Coordinate{X: 1, Y: 2},
	))
	s.Require().NoError(err)
	s.Require().True(started)

	outcome, won, err := m.RegisterShot(s.alice, model.Coordinate{X: 0, Y: 2})
	s.Require().NoError(err)
	s.Equal(OutcomeHit, outcome)
	s.False(won)
	s.Equal(StateStarted, m.State())

	// Turn stays with alice after the hit.
	outcome, won, err = m.RegisterShot(s.alice, model.Coordinate{X: 1, Y: 2})
	s.Require().NoError(err)
	s.Equal(OutcomeHit, outcome)
	s.True(won)
	s.Equal(StateFinished, m.State())
}

func (s *MatchSuite) TestShotAtResolvedField() {
	m := s.newStarted()

	_, _, err := m.RegisterShot(s.alice, model.Coordinate{X: 1, Y: 1})
	s.Require().NoError(err)
	_, _, err = m.RegisterShot(s.bob, model.Coordinate{X: 1, Y: 1})
	s.Require().NoError(err)

	// Alice already missed at B2; shooting it again changes nothing, and
	// the turn stays with her.
	_, _, err = m.RegisterShot(s.alice, model.Coordinate{X: 1, Y: 1})
	s.ErrorIs(err, model.ErrAlreadyResolved)

	_, _, err = m.RegisterShot(s.bob, model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrNotMyTurn)
}

func (s *MatchSuite) TestShotOnClosedMatch() {
	m := s.newStarted()
	s.registry.Close(m)
	_, _, err := m.RegisterShot(s.alice, model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrGameAbandoned)
}

func (s *MatchSuite) TestShotAfterFinish() {
	m := s.newStarted()
	_, won, err := m.RegisterShot(s.alice, model.Coordinate{X: 2, Y: 2})
	s.Require().NoError(err)
	s.Require().True(won)

	_, _, err = m.RegisterShot(s.alice, model.Coordinate{X: 0, Y: 1})
	s.ErrorIs(err, model.ErrGameNotStarted)
}

// Result tests

func (s *MatchSuite) TestResultOfFinishedMatch() {
	m := s.newStarted()
	_, won, err := m.RegisterShot(s.alice, model.Coordinate{X: 2, Y: 2})
	s.Require().NoError(err)
	s.Require().True(won)

	finishedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	res, err := m.Result(finishedAt)
	s.Require().NoError(err)

	s.Equal("alice", res.FirstUsername)
	s.Equal("bob", res.SecondUsername)
	s.Equal(model.SideFirst, res.Winner)
	s.Equal(finishedAt, res.FinishedAt)
	s.Equal(model.CellShip, res.FirstGrid.At(model.Coordinate{X: 0, Y: 0}))
	s.Equal(model.CellHit, res.SecondGrid.At(model.Coordinate{X: 2, Y: 2}))
}

func (s *MatchSuite) TestResultBeforeFinish() {
	m := s.newStarted()
	_, err := m.Result(time.Now())
	s.ErrorIs(err, model.ErrGameNotStarted)
}

// Registry tests

func (s *MatchSuite) TestIDsAreMonotonic() {
	m1 := s.registry.Create(s.alice, s.bob)
	s.registry.Close(m1)
	m2 := s.registry.Create(s.alice, s.bob)

	s.Equal(uint32(1), m1.ID())
	s.Equal(uint32(2), m2.ID())
}

func (s *MatchSuite) TestClosedSlotIsReused() {
	m1 := s.registry.Create(s.alice, s.bob)
	s.registry.Close(m1)
	m2 := s.registry.Create(s.alice, s.bob)
	m3 := s.registry.Create(s.alice, s.bob)

	s.Len(s.registry.matches, 2)
	s.Equal(2, s.registry.Live())
	s.NotEqual(m2.ID(), m3.ID())
}

func (s *MatchSuite) TestLiveCount() {
	s.Equal(0, s.registry.Live())
	m := s.registry.Create(s.alice, s.bob)
	s.Equal(1, s.registry.Live())
	s.registry.Close(m)
	s.Equal(0, s.registry.Live())
}
