package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxUpdateRetries bounds optimistic WATCH/MULTI retries under contention.
const maxUpdateRetries = 10

// RedisMedium stores each key as a Redis string.
// It is safe for concurrent use from multiple goroutines and processes.
type RedisMedium struct {
	rdb *redis.Client
}

// NewRedisMedium creates a medium backed by a new Redis client.
func NewRedisMedium(opts *redis.Options) *RedisMedium {
	return &RedisMedium{rdb: redis.NewClient(opts)}
}

// NewRedisMediumFromURL parses a redis:// URL and creates a medium for it.
func NewRedisMediumFromURL(url string) (*RedisMedium, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return NewRedisMedium(opts), nil
}

// Client exposes the underlying Redis client (used for Pub/Sub fan-out).
func (m *RedisMedium) Client() *redis.Client {
	return m.rdb
}

// Get reads a key. Returns ErrNotFound if the key doesn't exist.
func (m *RedisMedium) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := m.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return value, nil
}

// Set writes a key with no expiry. A single SET is atomic.
func (m *RedisMedium) Set(ctx context.Context, key string, value []byte) error {
	if err := m.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
	return nil
}

// Update performs a read-modify-write guarded by WATCH.
// If another writer touches the key between GET and EXEC the transaction
// is retried with the fresh value.
func (m *RedisMedium) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read %s from Redis: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := m.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("failed to update %s: too many concurrent writers", key)
}

// Delete removes keys.
func (m *RedisMedium) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys from Redis: %w", err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (m *RedisMedium) Ping(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection. After Close the medium must not be used.
func (m *RedisMedium) Close() error {
	return m.rdb.Close()
}
