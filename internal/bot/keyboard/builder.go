package keyboard

import (
	"log/slog"

	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/market"
)

// Builder creates the bot's inline keyboards.
type Builder struct {
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// OpenMenu is a single button that opens the command menu.
func (b *Builder) OpenMenu(t i18n.Translator) Markup {
	return b.build(NewInlineKeyboard().AddRow(CallbackButton{Text: t.T(i18n.KeyOpenMenu), Callback: OpenMenu()}))
}

// FAQ has one row per question.
func (b *Builder) FAQ(entries []i18n.FAQEntry) Markup {
	kb := NewInlineKeyboard()
	for _, entry := range entries {
		kb.AddRow(CallbackButton{Text: entry.Question, Callback: FAQ(entry.ID)})
	}
	return b.build(kb)
}

// Tokens has one row per token, labelled by ticker.
func (b *Builder) Tokens(tokens []market.Token) Markup {
	kb := NewInlineKeyboard()
	for _, token := range tokens {
		kb.AddRow(CallbackButton{Text: token.Symbol, Callback: Chart(token.ID)})
	}
	return b.build(kb)
}

// Languages has one row per supported language, labelled in the current language.
func (b *Builder) Languages(t i18n.Translator) Markup {
	kb := NewInlineKeyboard()
	for _, lang := range domain.SupportedLanguages {
		kb.AddRow(CallbackButton{Text: t.T(i18n.LanguageButtonKey(lang.String())), Callback: Language(lang.String())})
	}
	return b.build(kb)
}

func (b *Builder) build(kb *InlineKeyboardBuilder) Markup {
	markup, err := kb.Build()
	if err != nil {
		if b.log != nil {
			b.log.Error("failed to build keyboard", slog.Any("error", err))
		}
		return nil
	}
	return markup
}
