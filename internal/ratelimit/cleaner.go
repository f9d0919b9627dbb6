package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cleaner removes expired entries from Redis rate-limit windows and deletes empty keys.
type Cleaner struct {
	client *redis.Client
	maxAge time.Duration
	log    *slog.Logger
}

// NewCleaner constructs a Cleaner; entries older than maxAge are dropped.
func NewCleaner(client *redis.Client, maxAge time.Duration, log *slog.Logger) *Cleaner {
	return &Cleaner{
		client: client,
		maxAge: maxAge,
		log:    log,
	}
}

// Sweep scans all rate-limit keys once and returns the number of keys removed.
func (c *Cleaner) Sweep(ctx context.Context) (int, error) {
	if c.client == nil || c.maxAge <= 0 {
		return 0, nil
	}

	const scanCount = 100

	cutoff := time.Now().Add(-c.maxAge).UnixMilli()
	var cursor uint64
	removed := 0

	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("scan rate limit keys: %w", err)
		}

		for _, key := range keys {
			pipe := c.client.TxPipeline()
			pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
			cardCmd := pipe.ZCard(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				if c.log != nil {
					c.log.Warn("cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
				}
				continue
			}

			if cardCmd.Val() > 0 {
				continue
			}
			if err := c.client.Del(ctx, key).Err(); err != nil {
				if c.log != nil {
					c.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
				}
				continue
			}
			removed++
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	if removed > 0 && c.log != nil {
		c.log.Info("rate limit keys cleaned", slog.Int("keys_removed", removed))
	}
	return removed, nil
}
