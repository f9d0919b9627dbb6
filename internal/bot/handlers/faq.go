package handlers

import (
	"context"
	"errors"

	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
)

// NewFAQHandler offers one button per FAQ question.
func NewFAQHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		return req.Reply.Send(ctx, Message{
			Text:    t.T(i18n.KeyFAQSelect),
			Buttons: deps.Keyboard.FAQ(deps.Catalog.FAQ(req.Lang)),
		})
	}
}

// NewFAQCallback answers a faq_<id> button.
func NewFAQCallback(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)

		var msg Message
		entry, err := deps.Catalog.FAQEntry(req.Lang, req.Update.Callback.Arg)
		switch {
		case errors.Is(err, apperrors.ErrLookupMiss):
			msg = Message{Text: t.T(messageKey(err))}
		case err != nil:
			return err
		default:
			msg = Message{
				Text:      t.T(i18n.KeyFAQAnswer, entry.Question, entry.Answer),
				ParseMode: ParseModeMarkdown,
			}
		}

		if err := req.Reply.Send(ctx, msg); err != nil {
			return err
		}
		return req.Reply.Ack(ctx)
	}
}
