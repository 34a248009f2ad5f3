package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/benvon/handbook/internal/config"
)

// ErrNotFound is returned by Get when a key has never been written (or was deleted)
var ErrNotFound = errors.New("key not found")

// UpdateFunc receives the value currently stored under a key, nil when the key is missing,
// and returns the value to store. Returning an error aborts the update and leaves the key untouched.
// It may be called more than once when a backend retries after a conflicting write.
type UpdateFunc func(current []byte) ([]byte, error)

// KV is the durable key-value persistence behind every Handbook collection.
// Values are opaque bytes; callers own the encoding.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Update is an atomic read-modify-write of one key, safe across processes sharing the backend
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Storage backends understood by Open
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// DefaultSQLiteFile is the database file name created under DATA_DIR
const DefaultSQLiteFile = "handbook.db"

// Open connects the backend selected by cfg.StorageBackend
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.StorageBackend {
	case BackendSQLite, "":
		return OpenSQLite(ctx, filepath.Join(cfg.DataDir, DefaultSQLiteFile))
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
