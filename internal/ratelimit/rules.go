package ratelimit

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Proton-105/cryptoassist-bot/pkg/config"
)

var errNoWindow = errors.New("window duration is not set")

// Rules encapsulates the configured per-user limit and whitelist.
type Rules struct {
	enabled   bool
	limit     int
	window    time.Duration
	whitelist map[int64]struct{}
}

// NewRules parses cfg. A disabled config yields rules that never limit.
func NewRules(cfg config.RateLimitConfig) (*Rules, error) {
	rules := &Rules{
		enabled:   cfg.Enabled,
		whitelist: make(map[int64]struct{}, len(cfg.Whitelist)),
	}
	for _, id := range cfg.Whitelist {
		rules.whitelist[id] = struct{}{}
	}

	if !cfg.Enabled {
		return rules, nil
	}

	limit, window, err := parseRule(cfg.PerUser)
	if err != nil {
		return nil, fmt.Errorf("parse per-user rate limit: %w", err)
	}
	rules.limit = limit
	rules.window = window

	return rules, nil
}

// Enabled reports whether limiting is switched on.
func (r *Rules) Enabled() bool {
	return r != nil && r.enabled
}

// IsWhitelisted returns true if the user bypasses rate limits.
func (r *Rules) IsWhitelisted(telegramID int64) bool {
	if r == nil {
		return false
	}
	_, ok := r.whitelist[telegramID]
	return ok
}

// PerUser returns the per-user limit and window.
func (r *Rules) PerUser() (int, time.Duration) {
	return r.limit, r.window
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return 0, 0, errNoWindow
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		return 0, 0, fmt.Errorf("window must be positive, got %s", rule.Window)
	}
	return rule.Limit, window, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
