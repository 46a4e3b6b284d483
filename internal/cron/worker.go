// Package cron drives periodic background jobs.
package cron

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/metrics"
)

// DefaultInterval applies when a schedule setting cannot be parsed.
const DefaultInterval = 5 * time.Minute

// Job is a named unit of periodic work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type options struct {
	clock clockwork.Clock
	poll  time.Duration
}

type Option func(*options)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithPollInterval sets how often the loop checks whether a run is due.
func WithPollInterval(d time.Duration) Option { return func(o *options) { o.poll = d } }

// NextRun returns when a job scheduled by setting should run after lastRun.
// setting is integer seconds or a standard five-field cron expression.
func NextRun(setting string, lastRun time.Time) time.Time {
	setting = strings.TrimSpace(setting)
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return lastRun.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(lastRun)
	}
	return lastRun.Add(DefaultInterval)
}

// ValidSetting reports whether setting parses as seconds or a cron expression.
func ValidSetting(setting string) bool {
	setting = strings.TrimSpace(setting)
	if v, err := strconv.Atoi(setting); err == nil {
		return v > 0
	}
	_, err := cron.ParseStandard(setting)
	return err == nil
}

// Run executes job on the first poll and then on the schedule given by
// setting until ctx is cancelled. Job errors are logged and counted; they do
// not stop the loop.
func Run(ctx context.Context, job Job, setting string, opts ...Option) error {
	o := options{clock: clockwork.NewRealClock(), poll: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.With(zap.String("job", job.Name))

	if !ValidSetting(setting) {
		log.Warn("cron: invalid schedule, using default",
			zap.String("setting", setting), zap.Duration("default", DefaultInterval))
	}

	ticker := o.clock.NewTicker(o.poll)
	defer ticker.Stop()

	nextRun := o.clock.Now()
	log.Info("cron: worker starting", zap.String("setting", setting))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if o.clock.Now().Before(nextRun) {
				continue
			}

			started := o.clock.Now()
			runErr := job.Run(ctx)
			metrics.UpdateJobMetrics(job.Name, started, runErr)
			dur := o.clock.Since(started)

			if runErr != nil {
				log.Error("cron: job completed with error", zap.Error(runErr), zap.Duration("duration", dur))
			} else {
				log.Debug("cron: job completed", zap.Duration("duration", dur))
			}

			nextRun = NextRun(setting, started)
		}
	}
}
