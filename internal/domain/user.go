package domain

import (
	"strings"
	"time"
)

// Language is an interface language code.
type Language string

const (
	LangRU Language = "ru"
	LangEN Language = "en"

	// DefaultLanguage is used for users that never picked one.
	DefaultLanguage = LangRU
)

// SupportedLanguages lists languages in the order they are offered to users.
var SupportedLanguages = []Language{LangRU, LangEN}

// ParseLanguage normalizes raw and reports whether it is supported.
func ParseLanguage(raw string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	return lang, lang.IsSupported()
}

func (l Language) IsSupported() bool {
	for _, supported := range SupportedLanguages {
		if l == supported {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// User represents a chat user stored in the preference store.
type User struct {
	ID           int64
	TelegramID   int64
	Username     string
	FullName     string
	Language     Language
	IsActive     bool
	FirstSeen    time.Time
	LastActivity time.Time
}

// Identity is what the transport tells us about the sender of an event.
type Identity struct {
	TelegramID int64
	Username   string
	FullName   string
}
