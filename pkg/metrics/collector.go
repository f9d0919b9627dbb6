package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total number of bot events handled labeled by route and status",
		},
		[]string{"route", "status"},
	)
	eventDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_duration_seconds",
			Help:    "Duration of bot event handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of price API requests labeled by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	upstreamDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Price API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	registeredUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registered_users",
			Help: "Number of users in the preference store",
		},
	)
	languageCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "language_cache_lookups_total",
			Help: "Language cache lookups labeled by result",
		},
		[]string{"result"},
	)
	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_events_total",
			Help: "Events rejected by the per-user rate limiter",
		},
	)
	activityRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_records_total",
			Help: "Activity log lines written labeled by kind",
		},
		[]string{"kind"},
	)
)

// RecordEvent increments event counters and records duration.
func RecordEvent(route, status string, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botEventsTotal.WithLabelValues(route, status).Inc()
	eventDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordUpstream tracks a single price API call.
func RecordUpstream(endpoint, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}

	upstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	upstreamDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordCacheLookup counts language cache hits and misses.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	languageCacheTotal.WithLabelValues(result).Inc()
}

func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

func RecordActivity(kind string) {
	activityRecordsTotal.WithLabelValues(kind).Inc()
}

// SetRegisteredUsers updates the registered users gauge.
func SetRegisteredUsers(count int64) {
	registeredUsers.Set(float64(count))
}

// UserCounter reports the number of stored users.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// UsersCollector refreshes the registered users gauge from storage.
type UsersCollector struct {
	users UserCounter
	log   *slog.Logger
}

func NewUsersCollector(users UserCounter, log *slog.Logger) *UsersCollector {
	return &UsersCollector{users: users, log: log}
}

// Collect performs a single refresh; intended to be scheduled.
func (c *UsersCollector) Collect(ctx context.Context) error {
	if c == nil || c.users == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	count, err := c.users.Count(ctx)
	if err != nil {
		if c.log != nil {
			c.log.Warn("failed to count users", slog.Any("error", err))
		}
		return err
	}

	SetRegisteredUsers(count)
	return nil
}
