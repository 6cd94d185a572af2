// Package redis is a Redis-backed implementation of the storage interface,
// for running several server instances against a shared account database.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/storage"
)

// Store keeps users in a hash keyed by username and results in a list.
type Store struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client (for testing).
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	entries, err := s.client.HGetAll(ctx, usersKey).Result()
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(entries))
	for _, data := range entries {
		var u model.User
		if err := json.Unmarshal([]byte(data), &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) AppendUser(ctx context.Context, u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, usersKey, u.Username, data).Err()
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	// Pipeline the wholesale rewrite so readers never observe an empty
	// user hash between the delete and the refill.
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, usersKey)
	for _, u := range users {
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, usersKey, u.Username, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) AppendResult(ctx context.Context, res model.GameResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, resultsKey, data).Err()
}

func (s *Store) LoadResults(ctx context.Context) ([]model.GameResult, error) {
	entries, err := s.client.LRange(ctx, resultsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	results := make([]model.GameResult, 0, len(entries))
	for _, data := range entries {
		var r model.GameResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
