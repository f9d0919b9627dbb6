// Package usercache caches per-user language preferences in Redis.
package usercache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	"github.com/Proton-105/cryptoassist-bot/pkg/metrics"
	"github.com/Proton-105/cryptoassist-bot/pkg/redis"
)

// KV is the subset of the Redis client used by the cache.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Cache stores language codes keyed by Telegram ID. A nil Cache is a no-op.
type Cache struct {
	client KV
	ttl    time.Duration
}

// NewCache constructs a cache backed by client. A nil client disables caching.
func NewCache(client KV, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}

	return &Cache{client: client, ttl: ttl}
}

// GetLanguage returns the cached language; ok is false on a miss.
func (c *Cache) GetLanguage(ctx context.Context, telegramID int64) (domain.Language, bool, error) {
	if c == nil {
		return "", false, nil
	}

	raw, err := c.client.Get(ctx, cacheKey(telegramID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheLookup(false)
			return "", false, nil
		}
		return "", false, fmt.Errorf("get cached language: %w", err)
	}

	lang, supported := domain.ParseLanguage(raw)
	metrics.RecordCacheLookup(supported)
	if !supported {
		return "", false, nil
	}

	return lang, true, nil
}

// SetLanguage stores the language for the configured TTL.
func (c *Cache) SetLanguage(ctx context.Context, telegramID int64, lang domain.Language) error {
	if c == nil {
		return nil
	}

	if err := c.client.Set(ctx, cacheKey(telegramID), string(lang), c.ttl); err != nil {
		return fmt.Errorf("set cached language: %w", err)
	}

	return nil
}

// FillLanguage caches a value read from storage unless a newer one is already cached.
func (c *Cache) FillLanguage(ctx context.Context, telegramID int64, lang domain.Language) (bool, error) {
	if c == nil {
		return false, nil
	}

	stored, err := c.client.SetNX(ctx, cacheKey(telegramID), string(lang), c.ttl)
	if err != nil {
		return false, fmt.Errorf("fill cached language: %w", err)
	}

	return stored, nil
}

// Invalidate removes the cached entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, telegramID int64) error {
	if c == nil {
		return nil
	}

	if err := c.client.Delete(ctx, cacheKey(telegramID)); err != nil {
		return fmt.Errorf("delete cached language: %w", err)
	}

	return nil
}

func cacheKey(telegramID int64) string {
	return fmt.Sprintf("user:%d:lang", telegramID)
}
