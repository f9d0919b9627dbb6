package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Proton-105/cryptoassist-bot/internal/activity"
	"github.com/Proton-105/cryptoassist-bot/internal/bot/handlers"
	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/pkg/logger"
)

// Texts renders localized strings.
type Texts interface {
	Text(lang domain.Language, key string, args ...any) string
}

// ActivityLog stores one record per handled update.
type ActivityLog interface {
	Append(r activity.Record) error
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler, texts Texts) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(ctx context.Context, req *handlers.Request) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log.Error("panic recovered in handler",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
					slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				)

				key := apperrors.GenericMessageKey
				if errHandler != nil {
					key = errHandler.Handle(ctx, fmt.Errorf("panic recovered: %v", r))
				}

				if sendErr := req.Reply.Send(ctx, handlers.Message{Text: texts.Text(req.Lang, key)}); sendErr != nil {
					log.Error("failed to notify user about panic", slog.Any("error", sendErr))
				}

				err = nil
			}()

			return next(ctx, req)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and answers with the localized message.
func ErrorHandlingMiddleware(log *slog.Logger, errHandler *apperrors.Handler, texts Texts) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(ctx context.Context, req *handlers.Request) error {
			err := next(ctx, req)
			if err == nil {
				return nil
			}

			key := apperrors.GenericMessageKey
			if errHandler != nil {
				key = errHandler.Handle(ctx, err)
			}

			if sendErr := req.Reply.Send(ctx, handlers.Message{Text: texts.Text(req.Lang, key)}); sendErr != nil {
				log.Error("failed to send error message",
					slog.Int64("telegram_id", req.Update.UserID),
					slog.Any("error", sendErr),
				)
			}
			if req.Update.Kind == handlers.UpdateCallback {
				_ = req.Reply.Ack(ctx)
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(ctx context.Context, req *handlers.Request) error {
			start := time.Now()
			attrs := []any{
				slog.Int64("telegram_id", req.Update.UserID),
				slog.String("kind", req.Update.Kind.String()),
				slog.String("route", req.Route),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			}

			log.Debug("handling update", attrs...)
			err := next(ctx, req)
			log.Info("handled update", append(attrs,
				slog.String("language", req.Lang.String()),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)...)

			return err
		}
	}
}

// AuthMiddleware ensures that each incoming update is associated with a user record.
// Storage failures are logged and the update is still handled.
func AuthMiddleware(prefs handlers.PreferenceStore, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(ctx context.Context, req *handlers.Request) error {
			if _, err := prefs.GetOrCreateUser(ctx, req.Update.Identity()); err != nil {
				log.Warn("failed to upsert user", slog.Int64("telegram_id", req.Update.UserID), slog.Any("error", err))
			}
			return next(ctx, req)
		}
	}
}

// LastActiveMiddleware records the user's activity timestamp.
func LastActiveMiddleware(prefs handlers.PreferenceStore, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(ctx context.Context, req *handlers.Request) error {
			if err := prefs.TouchActivity(ctx, req.Update.UserID); err != nil {
				log.Warn("failed to touch user activity", slog.Int64("telegram_id", req.Update.UserID), slog.Any("error", err))
			}
			return next(ctx, req)
		}
	}
}

// ActivityLogMiddleware appends one activity record per update.
func ActivityLogMiddleware(activityLog ActivityLog, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if activityLog == nil {
			return next
		}

		return func(ctx context.Context, req *handlers.Request) error {
			if err := activityLog.Append(activityRecord(req.Update, time.Now())); err != nil {
				log.Warn("failed to append activity record", slog.Int64("telegram_id", req.Update.UserID), slog.Any("error", err))
			}
			return next(ctx, req)
		}
	}
}

// LanguageMiddleware resolves the user's language, degrading to the default on storage failures.
func LanguageMiddleware(prefs handlers.PreferenceStore, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(ctx context.Context, req *handlers.Request) error {
			lang, err := prefs.GetLanguage(ctx, req.Update.UserID)
			if err != nil {
				log.Warn("failed to resolve language", slog.Int64("telegram_id", req.Update.UserID), slog.Any("error", err))
			}
			if !lang.IsSupported() {
				lang = prefs.DefaultLanguage()
			}
			req.Lang = lang

			return next(ctx, req)
		}
	}
}

func activityRecord(update handlers.Update, at time.Time) activity.Record {
	record := activity.Record{
		Time:     at,
		UserID:   update.UserID,
		Username: update.Username,
		FullName: update.FullName,
		Kind:     activity.KindMessage,
		Value:    update.Text,
	}

	switch update.Kind {
	case handlers.UpdateCommand:
		record.Kind = activity.KindCommand
	case handlers.UpdateCallback:
		record.Kind = activity.KindCallback
		record.Value = update.CallbackData
	}

	return record
}
