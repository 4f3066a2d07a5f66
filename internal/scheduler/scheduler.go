// Package scheduler runs the background photo sync on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrijs2005/photosync/internal/logging"
)

// Job is one scheduled run. It should return promptly once ctx is done.
type Job func(ctx context.Context) error

// Scheduler triggers Job on a standard five-field cron spec (descriptors
// such as "@every 15m" and "@hourly" work too). A run that would overlap
// the previous one is skipped.
type Scheduler struct {
	spec   string
	job    Job
	logger logging.Logger

	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	busy    atomic.Bool
	running atomic.Bool

	mu      sync.Mutex
	runs    int
	skipped int
	lastErr error
}

// New validates spec. An empty spec yields a disabled scheduler whose
// Start and Stop do nothing.
func New(spec string, job Job, logger logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Scheduler{spec: spec, job: job, logger: logger}
	if spec == "" {
		return s, nil
	}

	s.cron = cron.New(cron.WithLogger(cronLogger{logger}))
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	return s, nil
}

// Enabled reports whether a schedule was given.
func (s *Scheduler) Enabled() bool { return s.cron != nil }

func (s *Scheduler) Start() {
	if s.cron == nil || !s.running.CompareAndSwap(false, true) {
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.logger.Info(context.Background(), "sync scheduler started", "schedule", s.spec)
}

// Stop cancels a run in progress and waits for it, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil || !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info(context.Background(), "sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next is the time of the next scheduled run; zero when not running.
func (s *Scheduler) Next() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow runs the job immediately unless a run is already in progress, in
// which case it returns false.
func (s *Scheduler) RunNow(ctx context.Context) (bool, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		s.logger.Warn(ctx, "sync still running, skipping this run")
		return false, nil
	}
	defer s.busy.Store(false)

	start := time.Now()
	err := s.job(ctx)

	s.mu.Lock()
	s.runs++
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "sync run failed", "error", err.Error(), "took", time.Since(start).String())
	} else {
		s.logger.Info(ctx, "sync run finished", "took", time.Since(start).String())
	}
	return true, err
}

func (s *Scheduler) tick() {
	_, _ = s.RunNow(s.ctx)
}

// Stats reports completed and skipped runs and the last run's error.
func (s *Scheduler) Stats() (runs, skipped int, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.skipped, s.lastErr
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	l logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
