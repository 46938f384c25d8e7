package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newMiniredisLimiter(t *testing.T) Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	limiter, err := NewRedisLimiter(mr.Addr(), "", 0, nil)
	require.NoError(t, err)
	return limiter
}

func TestRedisLimiter_RequiresAddr(t *testing.T) {
	_, err := NewRedisLimiter("", "", 0, nil)
	require.Error(t, err)
}

func TestRedisLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := newMiniredisLimiter(t)

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(context.Background(), "client-1", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, err := limiter.Allow(context.Background(), "client-1", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestRedisLimiter_ZeroLimitAlwaysAllows(t *testing.T) {
	limiter := newMiniredisLimiter(t)
	decision, err := limiter.Allow(context.Background(), "client-1", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestRedisLimiter_TracksKeysIndependently(t *testing.T) {
	limiter := newMiniredisLimiter(t)

	d1, err := limiter.Allow(context.Background(), "client-1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, d1.Allowed)

	d2, err := limiter.Allow(context.Background(), "client-2", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, d2.Allowed)
}
