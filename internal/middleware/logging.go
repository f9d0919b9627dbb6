// Package middleware holds cross-cutting wrappers for bot handlers and the ops HTTP server.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Proton-105/cryptoassist-bot/pkg/logger"
)

// CorrelationHeader carries the request correlation id in and out of the ops server.
const CorrelationHeader = "X-Correlation-ID"

// GinLogging tags each request with a correlation id and logs it once it completes.
func GinLogging(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		ctx := logger.WithCorrelationID(c.Request.Context(), c.GetHeader(CorrelationHeader))
		correlationID := logger.CorrelationIDFromContext(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationHeader, correlationID)

		c.Next()

		log.Debug(
			"handled http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("correlation_id", correlationID),
		)
	}
}
