// Package scheduler re-runs the pipeline on a cron schedule while the map
// is being served, so the page tracks the published extract.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a standard five-field cron schedule. A run that is
// still in progress when the next one is due causes that tick to be skipped.
type Scheduler struct {
	spec   string
	cron   *cron.Cron
	job    Job
	logger *slog.Logger
	ctx    context.Context
}

// New validates spec and prepares a scheduler. Nothing runs until Start.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		spec:   spec,
		job:    job,
		logger: logger,
		ctx:    context.Background(),
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.runJob))
	return s, nil
}

// Start begins running jobs in the background. ctx is handed to every job.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)
}

// Stop prevents further runs and waits for a running job to finish, or for
// ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) runJob() {
	if s.ctx.Err() != nil {
		return
	}
	s.logger.Info("scheduled run starting")
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
