package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/cv-assistant/internal/db"
	"github.com/jonathan/cv-assistant/internal/types"
)

// PostgresStore keeps sessions as JSONB rows in the cv_sessions table
type PostgresStore struct {
	db  *db.DB
	ttl time.Duration
}

// NewPostgresStore wraps an open database. The schema must exist; see
// db.EnsureSchema.
func NewPostgresStore(database *db.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: database, ttl: ttl}
}

// Get implements Store
func (p *PostgresStore) Get(ctx context.Context, id string) (*types.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	row, err := p.db.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	var s types.Session
	if err := json.Unmarshal(row.Payload, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Put implements Store
func (p *PostgresStore) Put(ctx context.Context, id string, s *types.Session) error {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	return p.db.PutSession(ctx, id, data, p.ttl)
}

// Create implements Store
func (p *PostgresStore) Create(ctx context.Context, s *types.Session) (string, error) {
	prepareNew(s, time.Now().UTC())
	if err := p.Put(ctx, s.ID, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Close closes the database pool
func (p *PostgresStore) Close() error {
	p.db.Close()
	return nil
}
