// Package auth manages registered accounts: signup, login and session
// token generation. The user list is loaded from storage once at startup
// and kept in memory; signups are appended to storage as they happen.
package auth

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/pvidal/battlegrid/internal/dependencies/random"
	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/protocol"
	"github.com/pvidal/battlegrid/internal/storage"
)

// Service handles account management.
type Service struct {
	store  storage.Store
	random random.Random
	logger *slog.Logger

	mu    sync.RWMutex
	users map[string]*model.User
}

// New creates the auth service. Call Load before serving requests.
func New(store storage.Store, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		random: rnd,
		logger: logger,
		users:  make(map[string]*model.User),
	}
}

// Load reads all registered users from storage into memory.
func (s *Service) Load(ctx context.Context) error {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*model.User, len(users))
	for i := range users {
		u := users[i]
		s.users[u.Username] = &u
	}
	s.logger.Info("users loaded", slog.Int("count", len(users)))
	return nil
}

func validateCredentials(username, password string) error {
	if username == "" || len(username) > model.MaxUsernameLen {
		return model.ErrInvalidUsername
	}
	if password == "" || len(password) > model.MaxPasswordLen {
		return model.ErrInvalidPassword
	}
	return nil
}

// Signup registers a new account and returns it together with a fresh
// session token. The record is persisted before the call returns.
func (s *Service) Signup(ctx context.Context, username, password string) (*model.User, string, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	_, exists := s.users[username]
	s.mu.RUnlock()
	if exists {
		return nil, "", model.ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	s.mu.Lock()
	// Re-check under the write lock; two connections may race the signup.
	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		return nil, "", model.ErrUsernameExists
	}
	s.users[username] = user
	s.mu.Unlock()

	if err := s.store.AppendUser(ctx, *user); err != nil {
		s.mu.Lock()
		delete(s.users, username)
		s.mu.Unlock()
		return nil, "", err
	}

	s.logger.Info("user signed up", slog.String("username", username))
	return user, s.newToken(), nil
}

// Login authenticates an existing account and returns it with a fresh
// session token. Unknown usernames and wrong passwords are distinct
// failures so the handler can report NotFound vs Unauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return nil, "", model.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", model.ErrWrongPassword
	}

	s.logger.Info("user logged in", slog.String("username", username))
	return user, s.newToken(), nil
}

// UserCount returns the number of registered accounts.
func (s *Service) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// newToken generates a session authorization token. Regenerated on every
// signup and login, never reused across sessions.
func (s *Service) newToken() string {
	return s.random.Hex(protocol.TokenLen)
}
