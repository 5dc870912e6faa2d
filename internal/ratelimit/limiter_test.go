package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Increment(context.Context, string, time.Duration) (Window, error) {
	return Window{}, errors.New("connection refused")
}

func (brokenStore) Close() error { return nil }

func limiterConfig(mode string) config.RateLimitConfig {
	return config.RateLimitConfig{
		RequestsPerWindow: 3,
		Window:            time.Minute,
		FailMode:          mode,
	}
}

func TestLimiterEnforcesCeiling(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(clock.NewFakeClock(time.Now())), limiterConfig(config.FailModeOpen), nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Check(ctx, "anon:x")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(2-i), d.Remaining)
	}

	d, err := limiter.Check(ctx, "anon:x")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, int64(4), d.Window.Count)
	assert.Equal(t, int64(3), d.Limit)
}

func TestLimiterFailOpen(t *testing.T) {
	limiter := NewLimiter(brokenStore{}, limiterConfig(config.FailModeOpen), nil, nil)

	d, err := limiter.Check(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Degraded)
}

func TestLimiterFailClosed(t *testing.T) {
	limiter := NewLimiter(brokenStore{}, limiterConfig(config.FailModeClosed), nil, nil)

	d, err := limiter.Check(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, d.Allowed)
}
