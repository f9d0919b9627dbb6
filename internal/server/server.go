// Package server exposes the operational HTTP endpoints: liveness, readiness and metrics.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/cryptoassist-bot/internal/health"
	"github.com/Proton-105/cryptoassist-bot/internal/middleware"
)

// Server serves the ops endpoints.
type Server struct {
	Router  *gin.Engine
	checker *health.Checker
	log     *slog.Logger
}

func New(checker *health.Checker, log *slog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GinLogging(log))

	s := &Server{
		Router:  r,
		checker: checker,
		log:     log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/healthz", s.liveness)
	s.Router.GET("/readyz", s.readiness)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readiness(c *gin.Context) {
	if s.checker == nil {
		c.JSON(http.StatusOK, health.Report{Healthy: true, Components: map[string]string{}})
		return
	}

	report := s.checker.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
