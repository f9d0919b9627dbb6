package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the crypto assistant bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Market    MarketConfig    `mapstructure:"market" validate:"required"`
	Activity  ActivityConfig  `mapstructure:"activity" validate:"required"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// BotConfig describes the Telegram transport.
type BotConfig struct {
	Token          string        `mapstructure:"token" validate:"required"`
	Mode           string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout        time.Duration `mapstructure:"timeout"`
	WebhookURL     string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

// ServerConfig configures the operational HTTP server and the webhook listener.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	WebhookPort     string        `mapstructure:"webhook_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	Host     string `mapstructure:"host" validate:"required_if=Driver postgres"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user" validate:"required_if=Driver postgres"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required_if=Driver postgres"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path" validate:"required_if=Driver sqlite"`
}

// RedisConfig defines connection parameters for the optional Redis backend.
type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// SentryConfig toggles error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// RateLimitRule is a "limit per window" pair, window in time.ParseDuration form.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user throttling of incoming updates.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	PerUser         RateLimitRule `mapstructure:"per_user"`
	Whitelist       []int64       `mapstructure:"whitelist"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MarketConfig configures the CoinGecko client.
type MarketConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Currency          string        `mapstructure:"currency"`
	DefaultSymbols    []string      `mapstructure:"default_symbols"`
	HistoryDays       int           `mapstructure:"history_days" validate:"gte=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
}

// ActivityConfig configures the append-only activity log file.
// Rotated files are never pruned.
type ActivityConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	Compress  bool   `mapstructure:"compress"`
}

// I18nConfig selects the default interface language.
type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language" validate:"omitempty,oneof=ru en"`
}

// CacheConfig controls the Redis preference cache.
type CacheConfig struct {
	LanguageTTL time.Duration `mapstructure:"language_ttl"`
}

// SchedulerConfig holds cron specs (with seconds) for maintenance jobs.
type SchedulerConfig struct {
	ActivityRotate string `mapstructure:"activity_rotate"`
	UsersGauge     string `mapstructure:"users_gauge"`
}

// GetDBConnectionString returns the driver-specific DSN.
func (c *Config) GetDBConnectionString() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Bot.HandlerTimeout <= 0 {
		c.Bot.HandlerTimeout = 30 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.WebhookPort == "" {
		c.Server.WebhookPort = "8443"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 10 * time.Second
	}
	if c.Market.Currency == "" {
		c.Market.Currency = "usd"
	}
	if len(c.Market.DefaultSymbols) == 0 {
		c.Market.DefaultSymbols = []string{"bitcoin", "ethereum", "tether"}
	}
	if c.Market.HistoryDays == 0 {
		c.Market.HistoryDays = 7
	}
	if c.Market.BreakerCooldown <= 0 {
		c.Market.BreakerCooldown = 30 * time.Second
	}
	if c.Activity.MaxSizeMB <= 0 {
		c.Activity.MaxSizeMB = 50
	}
	if c.I18n.DefaultLanguage == "" {
		c.I18n.DefaultLanguage = "ru"
	}
	if c.Cache.LanguageTTL <= 0 {
		c.Cache.LanguageTTL = time.Hour
	}
	if c.RateLimit.CleanupInterval <= 0 {
		c.RateLimit.CleanupInterval = time.Minute
	}
	if c.Scheduler.ActivityRotate == "" {
		c.Scheduler.ActivityRotate = "0 0 0 * * *"
	}
	if c.Scheduler.UsersGauge == "" {
		c.Scheduler.UsersGauge = "0 */5 * * * *"
	}
}
