// Package storage defines the durable record store consumed by the game
// server: the registered-user list and the finished-match results. The
// interface mirrors how the data is actually used: users are loaded once
// at startup, appended on signup and occasionally rewritten wholesale;
// results are append-only.
package storage

import (
	"context"

	"github.com/pvidal/battlegrid/internal/model"
)

// Store is the persistence backend for users and game results.
type Store interface {
	// LoadUsers reads every registered user. Called once at startup.
	LoadUsers(ctx context.Context) ([]model.User, error)
	// AppendUser durably adds one user record.
	AppendUser(ctx context.Context, u model.User) error
	// SaveUsers rewrites the whole user list.
	SaveUsers(ctx context.Context, users []model.User) error

	// AppendResult durably adds one finished-match record.
	AppendResult(ctx context.Context, res model.GameResult) error
	// LoadResults reads every stored match result.
	LoadResults(ctx context.Context) ([]model.GameResult, error)

	Close() error
}
