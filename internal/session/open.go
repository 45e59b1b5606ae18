package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/cv-assistant/internal/db"
)

// Backend names accepted by Open
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend
type Options struct {
	Backend     string
	Dir         string
	RedisURL    string
	DatabaseURL string
	TTL         time.Duration
}

// Open builds the Store named by opts.Backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return OpenRedisStore(ctx, opts.RedisURL, opts.TTL)
	case BackendPostgres:
		database, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return NewPostgresStore(database, opts.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", opts.Backend)
	}
}
