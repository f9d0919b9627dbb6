package ratelimit

import (
	"context"
	"log/slog"
)

// Guard applies Rules to a Limiter for one user at a time.
type Guard struct {
	limiter Limiter
	rules   *Rules
	log     *slog.Logger
}

// NewGuard returns a Guard. A nil limiter or disabled rules allow everything.
func NewGuard(limiter Limiter, rules *Rules, log *slog.Logger) *Guard {
	return &Guard{limiter: limiter, rules: rules, log: log}
}

// Allow reports whether the user may proceed. Backend failures fail open.
func (g *Guard) Allow(ctx context.Context, telegramID int64) bool {
	if g == nil || g.limiter == nil || !g.rules.Enabled() || g.rules.IsWhitelisted(telegramID) {
		return true
	}

	limit, window := g.rules.PerUser()
	result, err := g.limiter.Check(ctx, UserKey(telegramID), limit, window)
	if err != nil {
		if g.log != nil {
			g.log.Warn("rate limiter error", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
		return true
	}

	if !result.Allowed && g.log != nil {
		g.log.Warn("rate limit exceeded", slog.Int64("telegram_id", telegramID), slog.Time("reset_at", result.ResetAt))
	}
	return result.Allowed
}
