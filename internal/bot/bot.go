package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cryptoassist-bot/internal/bot/handlers"
	"github.com/Proton-105/cryptoassist-bot/internal/bot/keyboard"
	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/middleware"
	"github.com/Proton-105/cryptoassist-bot/pkg/config"
	"github.com/Proton-105/cryptoassist-bot/pkg/logger"
)

// Components are the collaborators the router is assembled from.
type Components struct {
	Deps       handlers.Deps
	Activity   ActivityLog
	Limiter    middleware.Allower
	ErrHandler *apperrors.Handler
}

// NewAppRouter wires every command, callback and middleware of the bot.
func NewAppRouter(c Components) *Router {
	deps := c.Deps
	router := NewRouter(deps.Log)

	router.Use(RecoveryMiddleware(deps.Log, c.ErrHandler, deps.Catalog))
	router.Use(LoggingMiddleware(deps.Log))
	router.Use(ErrorHandlingMiddleware(deps.Log, c.ErrHandler, deps.Catalog))
	router.Use(AuthMiddleware(deps.Prefs, deps.Log))
	router.Use(LastActiveMiddleware(deps.Prefs, deps.Log))
	router.Use(ActivityLogMiddleware(c.Activity, deps.Log))
	router.Use(LanguageMiddleware(deps.Prefs, deps.Log))
	router.Use(middleware.RateLimit(c.Limiter, deps.Catalog))
	router.Use(middleware.Metrics)

	router.RegisterCommand(CommandStart, handlers.NewStartHandler(deps))
	router.RegisterCommand(CommandMenu, handlers.NewMenuHandler(deps))
	router.RegisterCommand(CommandCrypto, handlers.NewCryptoHandler(deps))
	router.RegisterCommand(CommandCalc, handlers.NewCalcHandler(deps))
	router.RegisterCommand(CommandFAQ, handlers.NewFAQHandler(deps))
	router.RegisterCommand(CommandChart, handlers.NewChartHandler(deps))
	router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(deps))
	router.RegisterCommand(CommandLanguage, handlers.NewLanguageHandler(deps))

	router.RegisterCallback(keyboard.CallbackOpenMenu, handlers.NewOpenMenuCallback(deps))
	router.RegisterCallback(keyboard.CallbackFAQ, handlers.NewFAQCallback(deps))
	router.RegisterCallback(keyboard.CallbackChart, handlers.NewChartCallback(deps))
	router.RegisterCallback(keyboard.CallbackLanguage, handlers.NewLanguageCallback(deps))

	router.SetDefault(handlers.NewTextHandler(deps))

	return router
}

// Bot wraps telebot.Bot and feeds decoded updates into the Router.
type Bot struct {
	telebot        *telebot.Bot
	router         *Router
	log            *slog.Logger
	fallback       domain.Language
	handlerTimeout time.Duration
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, router *Router, fallback domain.Language, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		router:         router,
		log:            log,
		fallback:       fallback,
		handlerTimeout: cfg.Bot.HandlerTimeout,
	}

	settings := telebot.Settings{
		Token:   cfg.Bot.Token,
		OnError: b.onError,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   ":" + cfg.Server.WebhookPort,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}
	b.telebot = tb

	tb.Handle(telebot.OnText, b.handle)
	tb.Handle(telebot.OnCallback, b.handle)

	return b, nil
}

// Start publishes the command list and runs the telegram bot event loop until Stop.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	if err := b.telebot.SetCommands(menuCommands); err != nil {
		b.log.Warn("failed to publish bot commands", slog.Any("error", err))
	}

	b.log.Info("telegram bot started", slog.String("username", b.telebot.Me.Username))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// HealthCheck reports whether the bot has been authorized against the Bot API.
func (b *Bot) HealthCheck(context.Context) error {
	if b == nil || b.telebot == nil || b.telebot.Me == nil {
		return errors.New("telegram bot is not initialized")
	}
	return nil
}

func (b *Bot) handle(c telebot.Context) error {
	update, ok := decodeUpdate(c)
	if !ok {
		b.log.Debug("ignoring update without sender")
		return nil
	}

	ctx := logger.WithCorrelationID(context.Background(), "")
	if b.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.handlerTimeout)
		defer cancel()
	}

	req := &handlers.Request{
		Update: update,
		Lang:   b.fallback,
		Reply:  &telebotResponder{c: c},
	}

	return b.router.Route(ctx, req)
}

func (b *Bot) onError(err error, c telebot.Context) {
	attrs := []any{slog.Any("error", err)}
	if c != nil && c.Sender() != nil {
		attrs = append(attrs, slog.Int64("telegram_id", c.Sender().ID))
	}
	b.log.Error("telegram update failed", attrs...)
}

// decodeUpdate converts a telebot context into the bot's closed update shape.
func decodeUpdate(c telebot.Context) (handlers.Update, bool) {
	if c == nil || c.Sender() == nil {
		return handlers.Update{}, false
	}

	sender := c.Sender()
	update := handlers.Update{
		ID:       c.Update().ID,
		UserID:   sender.ID,
		Username: sender.Username,
		FullName: strings.TrimSpace(sender.FirstName + " " + sender.LastName),
	}

	if cb := c.Callback(); cb != nil {
		update.Kind = handlers.UpdateCallback
		update.CallbackData = cb.Data
		update.Callback = keyboard.Decode(cb.Data)
		return update, true
	}

	update.Text = c.Text()
	if cmd, args, ok := ParseCommand(update.Text); ok {
		update.Kind = handlers.UpdateCommand
		update.Command = cmd
		update.Args = args
		return update, true
	}

	update.Kind = handlers.UpdateText
	return update, true
}

// ParseCommand splits "/cmd@BotName arg1 arg2" into "/cmd" and its arguments.
func ParseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") || len(fields[0]) == 1 {
		return "", nil, false
	}

	cmd := fields[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	return strings.ToLower(cmd), fields[1:], true
}

// telebotResponder answers the update held by a telebot context.
type telebotResponder struct {
	c telebot.Context
}

func (r *telebotResponder) Send(_ context.Context, msg handlers.Message) error {
	opts := &telebot.SendOptions{ParseMode: telebot.ParseMode(msg.ParseMode)}
	if markup := msg.Buttons.Telebot(); markup != nil {
		opts.ReplyMarkup = markup
	}

	if err := r.c.Send(msg.Text, opts); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (r *telebotResponder) SendPhoto(_ context.Context, photo handlers.Photo) error {
	p := &telebot.Photo{
		File:    telebot.FromReader(bytes.NewReader(photo.Data)),
		Caption: photo.Caption,
	}
	if err := r.c.Send(p); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (r *telebotResponder) Ack(context.Context) error {
	if r.c.Callback() == nil {
		return nil
	}
	if err := r.c.Respond(); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}
