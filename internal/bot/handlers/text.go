package handlers

import (
	"context"
	"strings"

	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
)

var (
	greetings = map[string]struct{}{"привет": {}, "приветик": {}, "hello": {}, "hi": {}, "хэлоу": {}}
	farewells = map[string]struct{}{"пока": {}, "до свидания": {}, "bye": {}, "пакеда": {}}
)

// NewTextHandler answers free text and unknown commands.
func NewTextHandler(deps Deps) Handler {
	return func(ctx context.Context, req *Request) error {
		t := deps.translator(req.Lang)
		return req.Reply.Send(ctx, Message{Text: t.T(replyKey(req.Update.Text))})
	}
}

func replyKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if _, ok := greetings[normalized]; ok {
		return i18n.KeyTextHello
	}
	if _, ok := farewells[normalized]; ok {
		return i18n.KeyTextBye
	}
	return i18n.KeyTextUnknown
}
