// Package memory is an in-memory implementation of the storage interface,
// used in tests and for throwaway servers.
package memory

import (
	"context"
	"sync"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/storage"
)

// Store keeps users and results in slices guarded by a single lock.
type Store struct {
	mu      sync.RWMutex
	users   []model.User
	results []model.GameResult
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) AppendUser(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	return nil
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]model.User, len(users))
	copy(s.users, users)
	return nil
}

func (s *Store) AppendResult(ctx context.Context, res model.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return nil
}

func (s *Store) LoadResults(ctx context.Context) ([]model.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.GameResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
