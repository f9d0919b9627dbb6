package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/preferences"
)

// NewLanguageHandler offers the supported interface languages.
func NewLanguageHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		return req.Reply.Send(ctx, Message{
			Text:    t.T(i18n.KeyLanguageSelect),
			Buttons: deps.Keyboard.Languages(t),
		})
	}
}

// NewLanguageCallback stores the selected language and confirms in that language.
// Unsupported codes are acknowledged and otherwise ignored.
func NewLanguageCallback(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		code := req.Update.Callback.Arg

		if err := deps.Prefs.SetLanguage(ctx, req.Update.UserID, code); err != nil {
			if errors.Is(err, preferences.ErrUnsupportedLanguage) {
				deps.logger().Warn("language callback: unsupported language",
					slog.Int64("telegram_id", req.Update.UserID),
					slog.String("language", code),
				)
				return req.Reply.Ack(ctx)
			}
			return err
		}

		selected, _ := domain.ParseLanguage(code)
		req.Lang = selected

		if err := req.Reply.Send(ctx, Message{Text: deps.Catalog.Text(selected, i18n.KeyLanguageChanged)}); err != nil {
			return err
		}
		return req.Reply.Ack(ctx)
	}
}
