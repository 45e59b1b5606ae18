package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/cv-assistant/internal/types"
)

const redisKeyPrefix = "cv:session:"

// RedisStore keeps sessions as JSON strings with a sliding TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl stores sessions
// without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedisStore connects to url (redis://...) and verifies the connection
func OpenRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, id string) (*types.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

// Put implements Store. Every write restarts the TTL.
func (r *RedisStore) Put(ctx context.Context, id string, s *types.Session) error {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := r.client.Set(ctx, redisKey(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("write session %s: %w", id, err)
	}
	return nil
}

// Create implements Store. The key is only set when it does not exist yet.
func (r *RedisStore) Create(ctx context.Context, s *types.Session) (string, error) {
	prepareNew(s, time.Now().UTC())
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, redisKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("create session: id %s already exists", s.ID)
	}
	return s.ID, nil
}

// Close releases the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
