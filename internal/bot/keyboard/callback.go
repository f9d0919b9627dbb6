package keyboard

import (
	"fmt"
	"strings"
)

// CallbackDataLimitBytes is Telegram's limit for callback payloads.
const CallbackDataLimitBytes = 64

// CallbackKind is the closed set of callback intents the bot understands.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackOpenMenu
	CallbackFAQ
	CallbackChart
	CallbackLanguage
)

const (
	openMenuToken  = "open_menu"
	faqPrefix      = "faq_"
	chartPrefix    = "chart_"
	languagePrefix = "lang_"
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackOpenMenu:
		return "open_menu"
	case CallbackFAQ:
		return "faq"
	case CallbackChart:
		return "chart"
	case CallbackLanguage:
		return "lang"
	default:
		return "unknown"
	}
}

// Callback is a decoded inline button payload.
type Callback struct {
	Kind CallbackKind
	Arg  string
}

func OpenMenu() Callback             { return Callback{Kind: CallbackOpenMenu} }
func FAQ(questionID string) Callback { return Callback{Kind: CallbackFAQ, Arg: questionID} }
func Chart(coinID string) Callback   { return Callback{Kind: CallbackChart, Arg: coinID} }
func Language(code string) Callback  { return Callback{Kind: CallbackLanguage, Arg: code} }

// Encode renders cb as the wire token, e.g. "faq_q1".
func Encode(cb Callback) (string, error) {
	var payload string
	switch cb.Kind {
	case CallbackOpenMenu:
		payload = openMenuToken
	case CallbackFAQ:
		payload = faqPrefix + cb.Arg
	case CallbackChart:
		payload = chartPrefix + cb.Arg
	case CallbackLanguage:
		payload = languagePrefix + cb.Arg
	default:
		return "", fmt.Errorf("cannot encode callback of kind %s", cb.Kind)
	}

	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// Decode parses a wire token. Anything unrecognised decodes to CallbackUnknown.
func Decode(data string) Callback {
	data = strings.TrimSpace(data)

	switch {
	case data == openMenuToken:
		return OpenMenu()
	case strings.HasPrefix(data, faqPrefix):
		return FAQ(strings.TrimPrefix(data, faqPrefix))
	case strings.HasPrefix(data, chartPrefix):
		return Chart(strings.TrimPrefix(data, chartPrefix))
	case strings.HasPrefix(data, languagePrefix):
		return Language(strings.TrimPrefix(data, languagePrefix))
	default:
		return Callback{Kind: CallbackUnknown, Arg: data}
	}
}
