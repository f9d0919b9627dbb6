package middleware

import (
	"context"

	"github.com/Proton-105/cryptoassist-bot/internal/bot/handlers"
	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/pkg/metrics"
)

// Texts renders localized strings.
type Texts interface {
	Text(lang domain.Language, key string, args ...any) string
}

// Allower decides whether a user may proceed.
type Allower interface {
	Allow(ctx context.Context, telegramID int64) bool
}

// RateLimit answers throttled users with a localized notice instead of running the handler.
func RateLimit(guard Allower, texts Texts) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if guard == nil {
			return next
		}

		return func(ctx context.Context, req *handlers.Request) error {
			if guard.Allow(ctx, req.Update.UserID) {
				return next(ctx, req)
			}

			metrics.RecordRateLimited()
			if err := req.Reply.Send(ctx, handlers.Message{Text: texts.Text(req.Lang, i18n.KeyErrorRateLimited)}); err != nil {
				return err
			}
			return req.Reply.Ack(ctx)
		}
	}
}
