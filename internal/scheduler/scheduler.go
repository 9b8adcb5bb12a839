package scheduler

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/observability"
	"github.com/go-co-op/gocron"
)

// Scheduler periodically reloads the dataset from disk so an updated file
// is picked up without restarting the service. Reloads are cheap when the
// file is unchanged: the store compares fingerprints before parsing.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     *dataset.Store
	interval  time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Scheduler. An interval of zero disables periodic reloads;
// Reload can still be called directly for the startup load.
func New(store *dataset.Store, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
		metrics:   metrics,
		logger:    logger,
	}
}

// Reload runs one instrumented reload. Every reload outcome, periodic or
// startup, flows through here so the metrics agree with the log lines.
func (s *Scheduler) Reload() error {
	start := time.Now()
	replaced, err := s.store.Reload()
	s.metrics.DatasetLoadDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		s.metrics.DatasetLoads.WithLabelValues("error").Inc()
		s.logger.Error("dataset reload failed", "error", err)
		return err
	case replaced:
		s.metrics.DatasetLoads.WithLabelValues("replaced").Inc()
	default:
		s.metrics.DatasetLoads.WithLabelValues("unchanged").Inc()
	}
	return nil
}

// Start schedules the periodic reload job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("periodic dataset refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		// Errors are already logged and counted; a failed reload keeps
		// the previous snapshot serving.
		_ = s.Reload()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("periodic dataset refresh scheduled", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
