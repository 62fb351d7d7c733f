package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-legend/internal/audit"
)

// Runner is the job the scheduler triggers; audit.Service satisfies it.
type Runner interface {
	Run(ctx context.Context) ([]audit.Report, error)
}

// DefaultInterval is used when the configured interval is below a minute.
const DefaultInterval = 60 * time.Minute

// Scheduler periodically runs legend verification.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Each run gets timeout to finish.
func New(interval, timeout time.Duration, runner Runner) *Scheduler {
	if interval < time.Minute {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler: verification scheduled", "every", s.interval)
	return nil
}

func (s *Scheduler) run() {
	slog.Info("scheduler: running verification job")
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.runner.Run(ctx); err != nil {
		slog.Error("scheduler: verification failed", "error", err)
		return
	}
	slog.Info("scheduler: completed verification job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
