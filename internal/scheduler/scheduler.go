package scheduler

import (
	"context"
	"fmt"
	"time"

	"brainquest/internal/logger"

	"github.com/robfig/cron/v3"
)

// Jobs are the maintenance operations the scheduler triggers.
type Jobs interface {
	SelectNewDailySet(ctx context.Context, now time.Time) error
	RolloverAll(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    Jobs
	log     *logger.Logger
	timeout time.Duration
}

// New registers the daily rotation and the day rollover sweep. Overlapping
// runs of the same job are skipped.
func New(jobs Jobs, dailySpec, rolloverSpec string, loc *time.Location, timeout time.Duration, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{jobs: jobs, log: log.With("component", "scheduler"), timeout: timeout}
	cl := cronLogger{s.log}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(dailySpec, s.RunDaily); err != nil {
		return nil, fmt.Errorf("daily schedule %q: %w", dailySpec, err)
	}
	if _, err := s.cron.AddFunc(rolloverSpec, s.RunRollover); err != nil {
		return nil, fmt.Errorf("rollover schedule %q: %w", rolloverSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) RunDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.jobs.SelectNewDailySet(ctx, start); err != nil {
		s.log.Error("daily rotation failed", "error", err)
		return
	}
	s.log.Info("daily rotation finished", "took", time.Since(start).String())
}

func (s *Scheduler) RunRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.jobs.RolloverAll(ctx, time.Now()); err != nil {
		s.log.Error("day rollover failed", "error", err)
	}
}

// cronLogger adapts the zap wrapper to cron's logger interface.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
