// Package task runs fire-and-forget work that must not take the process down
// and must not be lost on shutdown.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Supervisor tracks background tasks. Failures and panics are logged and
// never propagate to the caller.
type Supervisor struct {
	wg      conc.WaitGroup
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	closed   bool
	failures int
}

type Option func(*Supervisor)

// WithTimeout bounds every task. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

func New(opts ...Option) *Supervisor {
	s := &Supervisor{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Go starts fn in the background. It reports false once the supervisor has
// been shut down, in which case fn never runs.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("task rejected after shutdown", "task", name)
		return false
	}

	// registered under mu so Shutdown cannot start waiting in between
	s.wg.Go(func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		var err error
		var pc panics.Catcher
		pc.Try(func() { err = fn(ctx) })
		if rec := pc.Recovered(); rec != nil {
			err = rec.AsError()
		}
		if err != nil {
			s.mu.Lock()
			s.failures++
			s.mu.Unlock()
			s.logger.Error("background task failed", "task", name, "error", err)
			return
		}
		s.logger.Debug("background task done", "task", name)
	})
	return true
}

// Wait blocks until every started task has returned
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Shutdown rejects new tasks and waits for the running ones
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// Failures counts tasks that returned an error or panicked
func (s *Supervisor) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}
