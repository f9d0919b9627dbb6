package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/Proton-105/cryptoassist-bot/internal/bot/keyboard"
	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/market"
)

// Parse modes understood by the transport.
const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

// UpdateKind is the closed set of inbound event shapes.
type UpdateKind int

const (
	UpdateText UpdateKind = iota
	UpdateCommand
	UpdateCallback
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateCommand:
		return "command"
	case UpdateCallback:
		return "callback"
	default:
		return "message"
	}
}

// Update is an inbound event decoded once at the transport boundary.
type Update struct {
	ID       int
	Kind     UpdateKind
	UserID   int64
	Username string
	FullName string
	// Text is the raw message text, including the command and its arguments.
	Text string
	// Command is the normalised command ("/calc") for UpdateCommand.
	Command string
	Args    []string
	// Callback is the decoded payload for UpdateCallback; CallbackData keeps the raw token.
	Callback     keyboard.Callback
	CallbackData string
}

// Identity returns the user attributes carried by the update.
func (u Update) Identity() domain.Identity {
	return domain.Identity{
		TelegramID: u.UserID,
		Username:   u.Username,
		FullName:   u.FullName,
	}
}

// Message is an outbound text.
type Message struct {
	Text      string
	ParseMode string
	Buttons   keyboard.Markup
}

// Photo is an outbound image with a caption.
type Photo struct {
	Data    []byte
	Caption string
}

// Responder performs outbound actions for the update being handled.
type Responder interface {
	Send(ctx context.Context, msg Message) error
	SendPhoto(ctx context.Context, photo Photo) error
	// Ack acknowledges a callback query; it is a no-op for other updates.
	Ack(ctx context.Context) error
}

// Request is what a handler receives: the update, the resolved language and a way to answer.
type Request struct {
	Update Update
	// Route names the handler chosen by the router; it is a bounded metrics label.
	Route string
	Lang  domain.Language
	Reply Responder
}

// Handler processes a single update.
type Handler func(ctx context.Context, req *Request) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// PreferenceStore persists per-user preferences.
type PreferenceStore interface {
	GetOrCreateUser(ctx context.Context, identity domain.Identity) (*domain.User, error)
	TouchActivity(ctx context.Context, telegramID int64) error
	GetLanguage(ctx context.Context, telegramID int64) (domain.Language, error)
	SetLanguage(ctx context.Context, telegramID int64, code string) error
	DefaultLanguage() domain.Language
}

// MarketClient fetches price data.
type MarketClient interface {
	FetchPrices(ctx context.Context, symbols []string, currency string) (map[string]float64, error)
	FetchPriceHistory(ctx context.Context, symbol, currency string, days int) ([]market.PricePoint, error)
	FetchDescription(ctx context.Context, symbol, lang string) (string, error)
}

// ChartRenderer draws price history.
type ChartRenderer interface {
	Render(history []market.PricePoint, symbol, currency string, lang domain.Language) ([]byte, error)
	Caption(symbol string, lang domain.Language) string
	Days() int
}

// Deps is the application context shared by all handlers.
type Deps struct {
	Prefs          PreferenceStore
	Market         MarketClient
	Charts         ChartRenderer
	Catalog        *i18n.Catalog
	Keyboard       *keyboard.Builder
	Currency       string
	DefaultSymbols []string
	Log            *slog.Logger
}

func (d Deps) translator(lang domain.Language) i18n.Translator {
	return d.Catalog.Translator(lang)
}

func (d Deps) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

// errorDetail is the part of err that may be shown to a user inside "Error: %s".
func errorDetail(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Detail()
	}
	return err.Error()
}

// messageKey is the translation key an AppError asks to be answered with.
func messageKey(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr != nil && appErr.MessageKey != "" {
		return appErr.MessageKey
	}
	return apperrors.GenericMessageKey
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
