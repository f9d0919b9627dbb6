package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cryptoassist-bot/internal/testutil"
	"github.com/Proton-105/cryptoassist-bot/pkg/config"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "test:allows", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 5-(i+1), result.Remaining)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "test:blocks", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i < 2, result.Allowed, "request %d", i)
	}
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "test:window", 2, 200*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(300 * time.Millisecond)

	result, err := limiter.Check(ctx, "test:window", 2, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_FailsWhenRedisIsDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())
	mr.Close()

	_, err := limiter.Check(context.Background(), "test:down", 2, time.Minute)
	assert.Error(t, err)
}

func TestCleanerRemovesStaleKeys(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	old := float64(time.Now().Add(-time.Hour).UnixMilli())
	_, err := mr.ZAdd(keyPrefix+"user:1", old, "a")
	require.NoError(t, err)

	limiter := NewRedisLimiter(client, testutil.Logger())
	_, err = limiter.Check(ctx, "user:2", 5, time.Minute)
	require.NoError(t, err)

	removed, err := NewCleaner(client, 5*time.Minute, testutil.Logger()).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, mr.Exists(keyPrefix+"user:1"))
	assert.True(t, mr.Exists(keyPrefix+"user:2"))
}

func TestMemoryLimiterSlidesWithClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, now.Add(time.Minute), result.ResetAt)

	now = now.Add(61 * time.Second)
	result, err = limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, limiter.Cleanup(time.Minute))
}

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("connection refused")
}

func TestAdaptiveLimiterFallsBackWithHalfLimit(t *testing.T) {
	limiter := NewAdaptiveLimiter(failingLimiter{}, NewMemoryLimiter(), testutil.Logger())
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 4; i++ {
		result, err := limiter.Check(ctx, "k", 4, time.Minute)
		require.NoError(t, err)
		if result.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestNewRules(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RateLimitConfig
		wantErr bool
	}{
		{name: "disabled ignores rule", cfg: config.RateLimitConfig{}},
		{name: "valid", cfg: config.RateLimitConfig{Enabled: true, PerUser: config.RateLimitRule{Limit: 5, Window: "10s"}}},
		{name: "missing window", cfg: config.RateLimitConfig{Enabled: true, PerUser: config.RateLimitRule{Limit: 5}}, wantErr: true},
		{name: "bad window", cfg: config.RateLimitConfig{Enabled: true, PerUser: config.RateLimitRule{Limit: 5, Window: "soon"}}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRules(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGuard(t *testing.T) {
	rules, err := NewRules(config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 1, Window: "1m"},
		Whitelist: []int64{42},
	})
	require.NoError(t, err)

	guard := NewGuard(NewMemoryLimiter(), rules, testutil.Logger())
	ctx := context.Background()

	assert.True(t, guard.Allow(ctx, 7))
	assert.False(t, guard.Allow(ctx, 7))
	assert.True(t, guard.Allow(ctx, 8))

	assert.True(t, guard.Allow(ctx, 42))
	assert.True(t, guard.Allow(ctx, 42))

	assert.True(t, NewGuard(failingLimiter{}, rules, testutil.Logger()).Allow(ctx, 9))

	var nilGuard *Guard
	assert.True(t, nilGuard.Allow(ctx, 7))
}
