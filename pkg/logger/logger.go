// Package logger builds the application slog.Logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/Proton-105/cryptoassist-bot/pkg/config"
)

// Logger couples a slog.Logger with its adjustable level.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New builds a logger writing to stdout as configured.
func New(cfg config.LoggerConfig, sentryCfg config.SentryConfig) (*Logger, error) {
	return NewWithWriter(os.Stdout, cfg, sentryCfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LoggerConfig, sentryCfg config.SentryConfig) (*Logger, error) {
	level := new(slog.LevelVar)
	parsed, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level.Set(parsed)

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	handler := slog.Handler(NewMaskingHandler(base))
	if sentryCfg.Enabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
		handler = slogmulti.Fanout(handler, NewMaskingHandler(sentryHandler))
	}

	return &Logger{Logger: slog.New(handler), level: level}, nil
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(raw string) error {
	parsed, err := ParseLevel(raw)
	if err != nil {
		return err
	}

	l.level.Set(parsed)
	return nil
}

// Level reports the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}
