package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/weather-diary/internal/common"
	"github.com/i474232898/weather-diary/internal/weather"
)

// Refresher stores today's weather regardless of what is cached.
type Refresher interface {
	Refresh(ctx context.Context) (weather.Record, error)
}

// Scheduler pre-warms the weather cache on a cron schedule (daily at 01:00 by default).
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	spec      string
	timeout   time.Duration
}

// New creates a new Scheduler. spec is a six-field cron expression evaluated in loc.
func New(refresher Refresher, spec string, loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		spec:      spec,
		timeout:   timeout,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.CronWithSeconds(s.spec).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		// Failures are logged by RunNow; the next firing retries.
		_, _ = s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule weather refresh %q: %w", s.spec, err)
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler: weather refresh scheduled", "cron", s.spec, "next_run", s.NextRun())
	return nil
}

// RunNow performs one refresh immediately.
func (s *Scheduler) RunNow(ctx context.Context) (weather.Record, error) {
	runID := uuid.NewString()
	slog.Info("scheduler: running weather refresh job", "run_id", runID)

	rec, err := s.refresher.Refresh(ctx)
	if err != nil {
		slog.Error("scheduler: weather refresh failed", "run_id", runID, "err", err)
		return weather.Record{}, err
	}

	slog.Info("scheduler: completed weather refresh job",
		"run_id", runID,
		"date", common.FormatDate(rec.Date),
		"weather", rec.Condition,
		"temperature_k", rec.TemperatureKelvin,
	)
	return rec, nil
}

// NextRun reports when the refresh job fires next.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
