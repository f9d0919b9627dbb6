package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/Proton-105/cryptoassist-bot/internal/activity"
	"github.com/Proton-105/cryptoassist-bot/internal/bot"
	"github.com/Proton-105/cryptoassist-bot/internal/bot/handlers"
	"github.com/Proton-105/cryptoassist-bot/internal/bot/keyboard"
	"github.com/Proton-105/cryptoassist-bot/internal/chart"
	"github.com/Proton-105/cryptoassist-bot/internal/database"
	"github.com/Proton-105/cryptoassist-bot/internal/domain"
	apperrors "github.com/Proton-105/cryptoassist-bot/internal/errors"
	"github.com/Proton-105/cryptoassist-bot/internal/health"
	"github.com/Proton-105/cryptoassist-bot/internal/i18n"
	"github.com/Proton-105/cryptoassist-bot/internal/lifecycle"
	"github.com/Proton-105/cryptoassist-bot/internal/market"
	"github.com/Proton-105/cryptoassist-bot/internal/preferences"
	"github.com/Proton-105/cryptoassist-bot/internal/ratelimit"
	"github.com/Proton-105/cryptoassist-bot/internal/repository"
	"github.com/Proton-105/cryptoassist-bot/internal/scheduler"
	"github.com/Proton-105/cryptoassist-bot/internal/server"
	"github.com/Proton-105/cryptoassist-bot/internal/usercache"
	"github.com/Proton-105/cryptoassist-bot/pkg/config"
	"github.com/Proton-105/cryptoassist-bot/pkg/graceful"
	"github.com/Proton-105/cryptoassist-bot/pkg/logger"
	"github.com/Proton-105/cryptoassist-bot/pkg/metrics"
	redisclient "github.com/Proton-105/cryptoassist-bot/pkg/redis"
)

const healthCheckTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cryptoassist-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	appLog, err := logger.New(cfg.Logger, cfg.Sentry)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := appLog.Logger
	slog.SetDefault(log)

	log.Info("starting crypto assistant bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("db_driver", cfg.Database.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	config.Watch(v, func(next *config.Config) {
		if err := appLog.SetLevel(next.Logger.Level); err != nil {
			log.Warn("ignoring invalid log level", slog.String("level", next.Logger.Level), slog.Any("error", err))
			return
		}
		log.Info("log level reloaded", slog.String("level", next.Logger.Level))
	}, func(err error) {
		log.Warn("config reload rejected", slog.Any("error", err))
	})

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log, healthCheckTimeout)

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.GetDBConnectionString(), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	shutdown.Register("database", lifecycle.Closer(db))
	checker.AddCheck("database", db)

	if err := database.NewMigrator(db.DB, log).Migrate(ctx, db.Dialect); err != nil {
		_ = shutdown.Execute(context.Background())
		return fmt.Errorf("apply migrations: %w", err)
	}

	fallback, _ := domain.ParseLanguage(cfg.I18n.DefaultLanguage)

	rules, err := ratelimit.NewRules(cfg.RateLimit)
	if err != nil {
		_ = shutdown.Execute(context.Background())
		return err
	}

	memLimiter := ratelimit.NewMemoryLimiter()
	var (
		limiter ratelimit.Limiter = memLimiter
		cleaner *ratelimit.Cleaner
		cache   *usercache.Cache
	)

	if cfg.Redis.Enabled {
		rdb, err := redisclient.New(ctx, redisclient.ConfigFrom(cfg.Redis))
		if err != nil {
			_ = shutdown.Execute(context.Background())
			return err
		}
		shutdown.Register("redis", lifecycle.Closer(rdb))
		checker.AddCheck("redis", health.PingCheck(rdb))

		cache = usercache.NewCache(redisclient.NewMetricsClient(rdb), cfg.Cache.LanguageTTL)
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb.Client, log), memLimiter, log)
		if _, window := rules.PerUser(); window > 0 {
			cleaner = ratelimit.NewCleaner(rdb.Client, window, log)
		}
	}

	prefs := preferences.NewService(repository.NewUserRepository(db, log), cache, fallback, log)

	catalog, err := i18n.Load(fallback, log)
	if err != nil {
		_ = shutdown.Execute(context.Background())
		return fmt.Errorf("load translations: %w", err)
	}

	marketClient := market.NewClient(cfg.Market, log)
	checker.AddCheck("coingecko", marketClient)

	activityLog, err := activity.OpenFile(cfg.Activity, log)
	if err != nil {
		_ = shutdown.Execute(context.Background())
		return fmt.Errorf("open activity log: %w", err)
	}
	shutdown.Register("activity_log", lifecycle.Closer(activityLog))

	router := bot.NewAppRouter(bot.Components{
		Deps: handlers.Deps{
			Prefs:          prefs,
			Market:         marketClient,
			Charts:         chart.NewRenderer(catalog, cfg.Market.HistoryDays),
			Catalog:        catalog,
			Keyboard:       keyboard.NewBuilder(log),
			Currency:       cfg.Market.Currency,
			DefaultSymbols: cfg.Market.DefaultSymbols,
			Log:            log,
		},
		Activity:   activityLog,
		Limiter:    ratelimit.NewGuard(limiter, rules, log),
		ErrHandler: apperrors.NewHandler(log, cfg.Sentry.Enabled),
	})

	tgBot, err := bot.New(*cfg, router, fallback, log)
	if err != nil {
		_ = shutdown.Execute(context.Background())
		return err
	}
	checker.AddCheck("telegram", tgBot)

	users := metrics.NewUsersCollector(prefs, log)
	refreshUsers(ctx, users, log)

	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, activityLog, users, rules, memLimiter, cleaner); err != nil {
		_ = shutdown.Execute(context.Background())
		return err
	}
	sched.Start(ctx)
	shutdown.Register("scheduler", sched.Stop)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ops := graceful.NewServer(":"+cfg.Server.Port, server.New(checker, log).Router, cfg.Server.ShutdownTimeout, log)
	opsErr := make(chan error, 1)
	go func() { opsErr <- ops.ListenAndServe(ctx) }()

	go tgBot.Start()
	shutdown.Register("telegram_bot", lifecycle.Stopper(tgBot.Stop))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-opsErr:
		if err != nil {
			log.Error("ops server stopped", slog.Any("error", err))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

// refreshUsers fills the users gauge once before the first scheduled run.
func refreshUsers(ctx context.Context, users *metrics.UsersCollector, log *slog.Logger) {
	if err := users.Collect(ctx); err != nil {
		log.Warn("initial users gauge refresh failed", slog.Any("error", err))
	}
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	activityLog *activity.FileLog,
	users *metrics.UsersCollector,
	rules *ratelimit.Rules,
	memLimiter *ratelimit.MemoryLimiter,
	cleaner *ratelimit.Cleaner,
) error {
	if err := sched.Add("activity_rotate", cfg.Scheduler.ActivityRotate, func(context.Context) error {
		return activityLog.Rotate()
	}); err != nil {
		return err
	}

	if err := sched.Add("users_gauge", cfg.Scheduler.UsersGauge, users.Collect); err != nil {
		return err
	}

	if !rules.Enabled() {
		return nil
	}

	_, window := rules.PerUser()
	return sched.AddEvery("ratelimit_cleanup", cfg.RateLimit.CleanupInterval, func(ctx context.Context) error {
		memLimiter.Cleanup(window)
		if cleaner == nil {
			return nil
		}
		_, err := cleaner.Sweep(ctx)
		return err
	})
}
