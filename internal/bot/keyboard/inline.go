package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// Button is a transport-neutral inline button.
type Button struct {
	Text string
	Data string
}

// Markup is a grid of inline buttons, one slice per row.
type Markup [][]Button

// InlineKeyboardBuilder accumulates rows of buttons.
type InlineKeyboardBuilder struct {
	rows Markup
	err  error
}

func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make(Markup, 0)}
}

// AddRow appends a row of buttons built from callbacks. The first encode error is kept for Build.
func (b *InlineKeyboardBuilder) AddRow(buttons ...CallbackButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 || b.err != nil {
		return b
	}

	row := make([]Button, 0, len(buttons))
	for _, btn := range buttons {
		data, err := Encode(btn.Callback)
		if err != nil {
			b.err = err
			return b
		}
		row = append(row, Button{Text: btn.Text, Data: data})
	}

	b.rows = append(b.rows, row)
	return b
}

// Build returns the accumulated markup.
func (b *InlineKeyboardBuilder) Build() (Markup, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.rows, nil
}

// CallbackButton pairs a label with its intent.
type CallbackButton struct {
	Text     string
	Callback Callback
}

// Telebot converts markup into telebot's inline reply markup. Empty markup yields nil.
func (m Markup) Telebot() *telebot.ReplyMarkup {
	if len(m) == 0 {
		return nil
	}

	inlineKeyboard := make([][]telebot.InlineButton, len(m))
	for i, row := range m {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			inlineKeyboard[i][j] = telebot.InlineButton{
				Text: btn.Text,
				Data: btn.Data,
			}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}
}
