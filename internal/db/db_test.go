package db

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectBackOff_IsBounded(t *testing.T) {
	b := connectBackOff(ConnectOptions{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond})
	b.Reset()

	waits := 0
	for b.NextBackOff() != backoff.Stop {
		waits++
		require.LessOrEqual(t, waits, 3)
	}
	assert.Equal(t, 3, waits)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database url")
}

func TestConnect_GivesUpWhenUnreachable(t *testing.T) {
	opts := ConnectOptions{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ConnectWithOptions(ctx, "postgres://cv:cv@127.0.0.1:1/cv?connect_timeout=1", opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestDefaultConnectOptions(t *testing.T) {
	opts := DefaultConnectOptions()
	assert.Positive(t, opts.MaxRetries)
	assert.Less(t, opts.InitialInterval, opts.MaxInterval)
}
