// Package scheduler runs the worker's periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"backoffice/internal/log"
)

const jobTimeout = 2 * time.Minute

// Jobs are the periodic tasks the worker exposes.
type Jobs interface {
	ExportAll(ctx context.Context) error
	SweepExpiry(ctx context.Context) error
}

// Schedules holds six-field cron expressions (seconds first).
type Schedules struct {
	Export      string
	ExpirySweep string
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

// New registers the export and expiry sweep jobs. A job that is still
// running when its next tick arrives is skipped.
func New(jobs Jobs, sched Schedules, loc *time.Location, logger *log.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentScheduler)
	cl := cronLogger{logger}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:   jobs,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	for _, j := range []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"export", sched.Export, jobs.ExportAll},
		{"expiry_sweep", sched.ExpirySweep, jobs.SweepExpiry},
	} {
		if _, err := s.cron.AddFunc(j.spec, s.job(j.name, j.run)); err != nil {
			cancel()
			return nil, fmt.Errorf("register %s job %q: %w", j.name, j.spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) job(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled job failed",
				"job", name,
				log.FieldError, err)
			return
		}
		s.logger.InfoContext(ctx, "Scheduled job finished",
			"job", name,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", log.FieldCount, len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.logger.Info("Scheduler stopped")
}

// Next reports when each job runs next, keyed by entry order.
func (s *Scheduler) Next() []time.Time {
	entries := s.cron.Entries()
	out := make([]time.Time, len(entries))
	for i, e := range entries {
		out[i] = e.Next
	}
	return out
}

// cronLogger adapts the structured logger to cron's logging interface.
type cronLogger struct{ l *log.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, log.FieldError, err)...)
}
