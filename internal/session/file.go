package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/cv-assistant/internal/types"
)

// FileStore keeps one JSON file per session under a directory
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir if needed and returns a store rooted at it
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve session dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: abs}, nil
}

func (f *FileStore) path(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, id+".json"), nil
}

// Get implements Store
func (f *FileStore) Get(_ context.Context, id string) (*types.Session, error) {
	p, err := f.path(id)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	data, err := os.ReadFile(p)
	f.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Put implements Store. The file is replaced atomically.
func (f *FileStore) Put(_ context.Context, id string, s *types.Session) error {
	p, err := f.path(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("write session %s: %w", id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", id, err)
	}
	return nil
}

// Create implements Store
func (f *FileStore) Create(ctx context.Context, s *types.Session) (string, error) {
	prepareNew(s, time.Now().UTC())
	if err := f.Put(ctx, s.ID, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Close implements Store
func (f *FileStore) Close() error { return nil }
