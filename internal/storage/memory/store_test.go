package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pvidal/battlegrid/internal/model"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *StoreSuite) TestUsersRoundTrip() {
	users, err := s.store.LoadUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)

	s.Require().NoError(s.store.AppendUser(s.ctx, model.User{Username: "alice", PasswordHash: "h1"}))
	s.Require().NoError(s.store.AppendUser(s.ctx, model.User{Username: "bob", PasswordHash: "h2"}))

	users, err = s.store.LoadUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("alice", users[0].Username)
	s.Equal("bob", users[1].Username)
}

func (s *StoreSuite) TestSaveUsersRewrites() {
	s.Require().NoError(s.store.AppendUser(s.ctx, model.User{Username: "alice"}))
	s.Require().NoError(s.store.SaveUsers(s.ctx, []model.User{{Username: "carol"}}))

	users, err := s.store.LoadUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("carol", users[0].Username)
}

func (s *StoreSuite) TestLoadUsersReturnsCopy() {
	s.Require().NoError(s.store.AppendUser(s.ctx, model.User{Username: "alice"}))

	users, err := s.store.LoadUsers(s.ctx)
	s.Require().NoError(err)
	users[0].Username = "mallory"

	again, err := s.store.LoadUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal("alice", again[0].Username)
}

func (s *StoreSuite) TestResultsRoundTrip() {
	res := model.GameResult{
		FirstUsername:  "alice",
		SecondUsername: "bob",
		Winner:         model.SideSecond,
		FinishedAt:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	res.FirstGrid.Set(model.Coordinate{X: 0, Y: 0}, model.CellHit)

	s.Require().NoError(s.store.AppendResult(s.ctx, res))

	results, err := s.store.LoadResults(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(res, results[0])
}
