// Package scheduler fires the daily post job every workday at a fixed
// local wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/robfig/cron"
)

// Job is the work run at every firing. The context is the scheduler's
// run context; jobs must return promptly once it is cancelled.
type Job func(ctx context.Context)

// Scheduler triggers a job at the configured time on Monday through
// Friday, in the configured time zone. Weekends are skipped, matching
// the canteen's opening days.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	location *time.Location
	log      logr.Logger
}

// New creates a scheduler firing at hour:minute in loc on workdays.
func New(hour, minute int, loc *time.Location, log logr.Logger) (*Scheduler, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid post time %02d:%02d", hour, minute)
	}

	spec := workdaySpec(hour, minute)
	schedule, err := cron.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron spec %q: %w", spec, err)
	}

	return &Scheduler{
		cron:     cron.NewWithLocation(loc),
		schedule: schedule,
		location: loc,
		log:      log.WithName("scheduler"),
	}, nil
}

// workdaySpec builds the cron spec (with seconds field) for
// Monday-Friday at the given time.
func workdaySpec(hour, minute int) string {
	return fmt.Sprintf("0 %d %d * * 1-5", minute, hour)
}

// NextRun returns the next firing after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.location))
}

// Run schedules the job and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, job Job) {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		job(ctx)
		s.log.Info("Scheduling next post", "next", s.NextRun(time.Now()).Format(time.RFC3339))
	}))

	s.log.Info("Scheduler started",
		"next", s.NextRun(time.Now()).Format(time.RFC3339),
		"timezone", s.location.String())
	s.cron.Start()
	<-ctx.Done()
	s.cron.Stop()
	s.log.Info("Scheduler stopped")
}
