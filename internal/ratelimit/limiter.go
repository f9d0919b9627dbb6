// Package ratelimit throttles incoming updates per user.
package ratelimit

import (
	"context"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter evaluates a sliding-window limit for key. A denied request is reported
// through Result.Allowed; errors mean the backend itself failed.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// UserKey is the limiter key for a Telegram user.
func UserKey(telegramID int64) string {
	return "user:" + formatID(telegramID)
}
