package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the snapshot under a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore using key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "bananabot:ledger"
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the snapshot key.
// Returns ErrNoSnapshot if the key is missing.
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	doc, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return doc, nil
}

// Save overwrites the snapshot key without expiry.
func (s *RedisStore) Save(ctx context.Context, doc []byte) error {
	if err := s.client.Set(ctx, s.key, doc, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
