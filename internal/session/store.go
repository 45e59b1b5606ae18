// Package session persists the working state of a CV editing session behind
// a small key/value interface with file, Redis and PostgreSQL backends.
package session

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jonathan/cv-assistant/internal/types"
)

var (
	// ErrNotFound is returned when no session exists for an id
	ErrNotFound = errors.New("session not found")
	// ErrInvalidID is returned for ids outside [A-Za-z0-9_-]
	ErrInvalidID = errors.New("invalid session id")

	idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Store is implemented by every session backend. Implementations are safe
// for concurrent use.
type Store interface {
	// Get returns ErrNotFound when the session does not exist or expired
	Get(ctx context.Context, id string) (*types.Session, error)
	// Put stores s under id, replacing any previous value
	Put(ctx context.Context, id string, s *types.Session) error
	// Create assigns a new id and timestamps to s, stores it and returns the id
	Create(ctx context.Context, s *types.Session) (string, error)
	Close() error
}

// NewID returns a new session id
func NewID() string {
	return "sess_" + ulid.Make().String()
}

// ValidID reports whether id is safe to use as a storage key
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func checkID(id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	return nil
}

// prepareNew fills the id, timestamps and empty collections of a new session
func prepareNew(s *types.Session, now time.Time) {
	s.ID = NewID()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Asked == nil {
		s.Asked = []types.AskedQuestion{}
	}
	if s.Answers == nil {
		s.Answers = map[string]any{}
	}
}

// Patch lists the fields to replace in Update; nil fields are kept
type Patch struct {
	CV      *types.CV
	Gaps    *types.GapsResult
	Asked   []types.AskedQuestion
	Answers map[string]any
}

// Update loads the session, applies patch, refreshes UpdatedAt and stores it
func Update(ctx context.Context, store Store, id string, patch Patch) (*types.Session, error) {
	s, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.CV != nil {
		s.CV = patch.CV
	}
	if patch.Gaps != nil {
		s.Gaps = patch.Gaps
	}
	if patch.Asked != nil {
		s.Asked = patch.Asked
	}
	if patch.Answers != nil {
		s.Answers = patch.Answers
	}
	s.UpdatedAt = time.Now().UTC()
	if err := store.Put(ctx, id, s); err != nil {
		return nil, err
	}
	return s, nil
}
