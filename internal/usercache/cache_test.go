package usercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	"github.com/Proton-105/cryptoassist-bot/internal/testutil"
	"github.com/Proton-105/cryptoassist-bot/pkg/redis"
)

func TestCacheRoundTrip(t *testing.T) {
	client, mr := testutil.Redis(t)
	cache := NewCache(redis.NewMetricsClient(client), time.Minute)
	ctx := context.Background()

	_, ok, err := cache.GetLanguage(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetLanguage(ctx, 10, domain.LangEN))
	lang, ok, err := cache.GetLanguage(ctx, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.LangEN, lang)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.GetLanguage(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetLanguage(ctx, 10, domain.LangRU))
	require.NoError(t, cache.Invalidate(ctx, 10))
	_, ok, err = cache.GetLanguage(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheIgnoresGarbage(t *testing.T) {
	client, mr := testutil.Redis(t)
	cache := NewCache(client, time.Minute)

	require.NoError(t, mr.Set("user:3:lang", "klingon"))
	_, ok, err := cache.GetLanguage(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache = NewCache(nil, time.Minute)
	assert.Nil(t, cache)

	_, ok, err := cache.GetLanguage(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, cache.SetLanguage(context.Background(), 1, domain.LangEN))
	stored, err := cache.FillLanguage(context.Background(), 1, domain.LangEN)
	assert.NoError(t, err)
	assert.False(t, stored)
	assert.NoError(t, cache.Invalidate(context.Background(), 1))
}

func TestFillLanguageKeepsNewerValue(t *testing.T) {
	client, _ := testutil.Redis(t)
	cache := NewCache(redis.NewMetricsClient(client), time.Minute)
	ctx := context.Background()

	stored, err := cache.FillLanguage(ctx, 11, domain.LangRU)
	require.NoError(t, err)
	assert.True(t, stored)

	require.NoError(t, cache.SetLanguage(ctx, 11, domain.LangEN))
	stored, err = cache.FillLanguage(ctx, 11, domain.LangRU)
	require.NoError(t, err)
	assert.False(t, stored)

	lang, ok, err := cache.GetLanguage(ctx, 11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.LangEN, lang)
}
