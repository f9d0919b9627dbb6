package redis

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_requests_total",
			Help: "Total number of Redis requests by method.",
		},
		[]string{"method"},
	)
	redisErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_errors_total",
			Help: "Total number of Redis errors by method.",
		},
		[]string{"method"},
	)
	redisRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_request_duration_seconds",
			Help:    "Redis request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// MetricsClient wraps Client to collect Prometheus metrics.
type MetricsClient struct {
	next *Client
}

// NewMetricsClient creates an instrumented Redis client.
func NewMetricsClient(next *Client) *MetricsClient {
	return &MetricsClient{next: next}
}

func (m *MetricsClient) Get(ctx context.Context, key string) (string, error) {
	var result string
	err := observe("get", func() error {
		var err error
		result, err = m.next.Get(ctx, key)
		return err
	})
	return result, err
}

func (m *MetricsClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return observe("set", func() error { return m.next.Set(ctx, key, value, ttl) })
}

func (m *MetricsClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	var stored bool
	err := observe("setnx", func() error {
		var err error
		stored, err = m.next.SetNX(ctx, key, value, ttl)
		return err
	})
	return stored, err
}

func (m *MetricsClient) Delete(ctx context.Context, key string) error {
	return observe("delete", func() error { return m.next.Delete(ctx, key) })
}

func (m *MetricsClient) Ping(ctx context.Context) error {
	return observe("ping", func() error { return m.next.Ping(ctx) })
}

// Unwrap exposes the underlying client for components that need raw commands.
func (m *MetricsClient) Unwrap() *Client {
	return m.next
}

func (m *MetricsClient) Close() error {
	return m.next.Close()
}

// observe records latency and counts; a missing key is not an error.
func observe(method string, fn func() error) error {
	timer := prometheus.NewTimer(redisRequestDuration.WithLabelValues(method))
	err := fn()
	timer.ObserveDuration()

	redisRequestsTotal.WithLabelValues(method).Inc()
	if err != nil && !errors.Is(err, Nil) {
		redisErrorsTotal.WithLabelValues(method).Inc()
	}
	return err
}
