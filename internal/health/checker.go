// Package health aggregates readiness checks for the bot's dependencies.
package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// StatusOK is reported for a passing check.
const StatusOK = "OK"

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Pinger is satisfied by the Redis and SQL clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck turns a Pinger into a Checkable.
func PingCheck(p Pinger) Checkable {
	return CheckFunc(p.Ping)
}

// Report is the outcome of one Check run.
type Report struct {
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	mu      sync.RWMutex
	log     *slog.Logger
	timeout time.Duration
	checks  map[string]Checkable
}

// NewChecker instantiates a Checker; each check is bounded by timeout when positive.
func NewChecker(log *slog.Logger, timeout time.Duration) *Checker {
	return &Checker{
		log:     log,
		timeout: timeout,
		checks:  make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names lists registered components in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all registered health checks concurrently.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{Healthy: true, Components: make(map[string]string, len(checks))}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Checkable) {
			defer wg.Done()

			status := StatusOK
			if err := c.run(ctx, check); err != nil {
				status = err.Error()
				if c.log != nil {
					c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
				}
			}

			mu.Lock()
			report.Components[name] = status
			if status != StatusOK {
				report.Healthy = false
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return report
}

func (c *Checker) run(ctx context.Context, check Checkable) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return check.HealthCheck(ctx)
}
