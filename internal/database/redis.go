package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries when another client changes a watched key
const maxUpdateAttempts = 10

// DefaultRedisKeyPrefix namespaces Handbook keys inside a shared Redis
const DefaultRedisKeyPrefix = "handbook:"

// RedisStore stores each key as a Redis string
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: DefaultRedisKeyPrefix}
}

// Client exposes the underlying client so the rate limiter can share the connection
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Get retrieves the value stored under key
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, nil
}

// Put stores value under key without expiry
func (r *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Update runs fn under WATCH and writes the result in a MULTI/EXEC block,
// retrying when another client changed the key in between
func (r *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	full := r.prefix + key
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			current = nil
		case err != nil:
			return fmt.Errorf("failed to get %s: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update %s: key kept changing after %d attempts", key, maxUpdateAttempts)
}

// Delete removes key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
