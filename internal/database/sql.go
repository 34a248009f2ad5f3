package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and schema for SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

const upsertQuery = `
	INSERT INTO kv_entries (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

// SQLStore stores every key as one row of the kv_entries table
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (and creates if needed) a SQLite database file
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps SQLite writes serialized inside the process.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	return newSQLStore(ctx, db, DialectSQLite)
}

// OpenPostgres connects to PostgreSQL using lib/pq
func OpenPostgres(ctx context.Context, databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return newSQLStore(ctx, db, DialectPostgres)
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	schema := sqliteSchema
	if dialect == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	return s, nil
}

// rebind rewrites ? placeholders into $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Get retrieves the value stored under key
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM kv_entries WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put inserts or overwrites the value stored under key
func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertQuery), key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside one write transaction. SQLite takes the database write lock
// before reading; postgres locks the row, inserting a placeholder when the key is new.
func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if s.dialect == DialectPostgres {
		return s.updatePostgres(ctx, key, fn)
	}
	return s.updateSQLite(ctx, key, fn)
}

func (s *SQLStore) updateSQLite(ctx context.Context, key string, fn UpdateFunc) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin update of %s: %w", key, err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	current, err := scanValue(conn.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key))
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if _, err = conn.ExecContext(ctx, upsertQuery, key, string(next), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit update of %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) updatePostgres(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin update of %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	// A concurrent insert of the same key blocks here until the other transaction ends
	res, err := tx.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, '', $2)
		ON CONFLICT (key) DO NOTHING
	`, key, now)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}

	var current []byte
	if inserted == 0 {
		current, err = scanValue(tx.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1 FOR UPDATE`, key))
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", key, err)
		}
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE kv_entries SET value = $2, updated_at = $3 WHERE key = $1`, key, string(next), now); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update of %s: %w", key, err)
	}
	return nil
}

// scanValue reads one value column; a missing row yields nil
func scanValue(row *sql.Row) ([]byte, error) {
	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Delete removes key
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM kv_entries WHERE key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
