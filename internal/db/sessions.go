package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SessionRow is a stored session document
type SessionRow struct {
	ID        string     `json:"id"`
	Payload   []byte     `json:"payload"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GetSession returns the session row, or nil when it does not exist or has
// expired
func (db *DB) GetSession(ctx context.Context, id string) (*SessionRow, error) {
	var row SessionRow
	err := db.pool.QueryRow(ctx,
		`SELECT id, payload, created_at, updated_at, expires_at
		 FROM cv_sessions
		 WHERE id = $1 AND (expires_at IS NULL OR expires_at > NOW())`,
		id,
	).Scan(&row.ID, &row.Payload, &row.CreatedAt, &row.UpdatedAt, &row.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return &row, nil
}

// PutSession inserts or replaces a session document. A zero ttl stores it
// without expiry.
func (db *DB) PutSession(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO cv_sessions (id, payload, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET payload = $2, expires_at = $3, updated_at = NOW()`,
		id, payload, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put session %s: %w", id, err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that have passed their expires_at
func (db *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM cv_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
