// Package scheduler runs the daily digest on a cron timer.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"menu-app-go/pkg/logger"
)

// Job is one named unit of scheduled work.
type Job func(ctx context.Context) error

type Recorder interface {
	RecordJobRun(job string, duration time.Duration, err error)
}

type Scheduler struct {
	cron     *cron.Cron
	log      logger.Logger
	recorder Recorder
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(loc *time.Location, log logger.Logger, recorder Recorder) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cronLog := cronLogger{log: log.With("component", "scheduler")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log:      log.With("component", "scheduler"),
		recorder: recorder,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// DailySpec is the cron spec for hour:minute every day.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// AddDaily registers job to run once a day; runs never overlap.
func (s *Scheduler) AddDaily(name string, hour, minute int, job Job) error {
	spec := DailySpec(hour, minute)
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%s): %w", name, spec, err)
	}
	s.log.Info("scheduler: job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	err := job(s.ctx)
	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.RecordJobRun(name, elapsed, err)
	}
	if err != nil {
		s.log.InternalError("scheduler: job failed", err, "job", name, "elapsed", elapsed)
		return
	}
	s.log.Info("scheduler: job finished", "job", name, "elapsed", elapsed)
}

// Next reports the next run time of the first registered job.
func (s *Scheduler) Next() (time.Time, bool) {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the job context and waits for a running job to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.InternalError("cron: "+msg, err, keysAndValues...)
}
