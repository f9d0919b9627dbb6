package handlers

import (
	"context"
	"strings"

	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
)

// NewStartHandler greets the user and offers the command menu.
func NewStartHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		return req.Reply.Send(ctx, Message{
			Text:    t.T(i18n.KeyWelcome),
			Buttons: deps.Keyboard.OpenMenu(t),
		})
	}
}

// NewMenuHandler lists the available commands.
func NewMenuHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		return req.Reply.Send(ctx, Message{Text: menuText(deps, req)})
	}
}

// NewOpenMenuCallback answers the open_menu button with the command list.
func NewOpenMenuCallback(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		if err := req.Reply.Send(ctx, Message{Text: menuText(deps, req)}); err != nil {
			return err
		}
		return req.Reply.Ack(ctx)
	}
}

// NewHelpHandler sends the about/why/calc help in HTML with a menu button.
func NewHelpHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		text := strings.Join([]string{
			t.T(i18n.KeyHelpAbout),
			t.T(i18n.KeyHelpWhy),
			t.T(i18n.KeyHelpCalc),
		}, "\n\n")

		return req.Reply.Send(ctx, Message{
			Text:      text,
			ParseMode: ParseModeHTML,
			Buttons:   deps.Keyboard.OpenMenu(t),
		})
	}
}

func menuText(deps Deps, req *Request) string {
	t := deps.translator(req.Lang)
	return strings.Join([]string{
		t.T(i18n.KeyMenuTitle),
		t.T(i18n.KeyMenuCrypto),
		t.T(i18n.KeyMenuCalc),
		t.T(i18n.KeyMenuChart),
		t.T(i18n.KeyMenuFAQ),
		t.T(i18n.KeyMenuHelp),
		t.T(i18n.KeyMenuLanguage),
	}, "\n")
}
