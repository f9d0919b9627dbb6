package middleware

import (
	"context"
	"time"

	"github.com/Proton-105/cryptoassist-bot/internal/bot/handlers"
	"github.com/Proton-105/cryptoassist-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	return func(ctx context.Context, req *handlers.Request) error {
		start := time.Now()
		err := next(ctx, req)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordEvent(routeLabel(req), status, time.Since(start))

		return err
	}
}

func routeLabel(req *handlers.Request) string {
	if req == nil || req.Route == "" {
		return "unknown"
	}
	return req.Route
}
