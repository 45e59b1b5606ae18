// Package db provides PostgreSQL access for session storage.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// ConnectOptions bounds the connection retries made by Connect
type ConnectOptions struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConnectOptions retries for roughly ten seconds, which covers a
// database container that is still starting
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxRetries:      5,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     4 * time.Second,
	}
}

// Connect establishes a connection pool and verifies it with a ping,
// retrying with exponential backoff
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	return ConnectWithOptions(ctx, databaseURL, DefaultConnectOptions())
}

// ConnectWithOptions is Connect with explicit retry bounds
func ConnectWithOptions(ctx context.Context, databaseURL string, opts ConnectOptions) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	connect := func() (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return pool, nil
	}

	pool, err := backoff.RetryWithData(connect, backoff.WithContext(connectBackOff(opts), ctx))
	if err != nil {
		return nil, err
	}
	return &DB{pool: pool}, nil
}

func connectBackOff(opts ConnectOptions) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opts.InitialInterval
	eb.MaxInterval = opts.MaxInterval
	eb.MaxElapsedTime = 0
	return backoff.WithMaxRetries(eb, opts.MaxRetries)
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cv_sessions (
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS cv_sessions_expires_at_idx ON cv_sessions (expires_at);
`

// EnsureSchema creates the tables used by this package when missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
