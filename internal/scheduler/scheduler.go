// Package scheduler runs periodic maintenance jobs on a cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages all cron tasks. Specs include a seconds field.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	mu   sync.RWMutex
	ctx  context.Context
	jobs map[string]cron.EntryID
}

// New creates a Scheduler whose jobs recover from panics and never overlap themselves.
func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}

	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:  log,
		ctx:  context.Background(),
		jobs: make(map[string]cron.EntryID),
	}
}

// Add registers fn under name on a cron spec such as "0 0 0 * * *".
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	id, err := s.cron.AddFunc(spec, s.wrap(name, fn))
	if err != nil {
		return fmt.Errorf("register %s job: %w", name, err)
	}
	s.remember(name, id)
	return nil
}

// AddEvery registers fn under name at a fixed interval (rounded down to whole seconds, minimum 1s).
func (s *Scheduler) AddEvery(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("register %s job: interval must be positive", name)
	}
	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.wrap(name, fn)))
	s.remember(name, id)
	return nil
}

// Jobs lists registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start starts the cron scheduler; jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("scheduler started", slog.Int("jobs", len(s.Jobs())))
}

// Stop stops scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()

	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running jobs: %w", ctx.Err())
	}
}

func (s *Scheduler) remember(name string, id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = id
}

func (s *Scheduler) wrap(name string, fn func(ctx context.Context) error) func() {
	return func() {
		s.mu.RLock()
		ctx := s.ctx
		s.mu.RUnlock()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.log.Error("scheduled job failed", slog.String("job", name), slog.Any("error", err))
			return
		}
		s.log.Debug("scheduled job finished", slog.String("job", name), slog.Duration("duration", time.Since(start)))
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
