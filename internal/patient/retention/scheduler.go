// Package retention owns the periodic deletion of records older than the
// retention horizon.
package retention

import (
	"context"
	"log/slog"
	"time"

	"medrec/internal/platform/metrics"
)

// Sweeper is the slice of the record store the scheduler needs.
type Sweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs the retention sweep once per interval for the lifetime
// of the process. It is a single goroutine, so sweeps never overlap, and
// between sweeps it holds no locks and touches no storage.
type Scheduler struct {
	store    Sweeper
	horizon  time.Duration
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New builds a scheduler that deletes records created more than horizon
// ago, checking once per interval.
func New(store Sweeper, horizon, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		store:    store,
		horizon:  horizon,
		interval: interval,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then once per interval until ctx is
// cancelled. Sweep failures are logged and the loop keeps going; a
// transient storage fault must not end retention for the process.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Sweep(ctx); err != nil {
		s.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one retention pass: a single bulk delete of everything
// created before now minus the horizon. Re-running converges to the same
// state, so a failed or interrupted sweep is repaired by the next one.
func (s *Scheduler) Sweep(ctx context.Context) error {
	start := s.now()
	cutoff := start.Add(-s.horizon)

	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	s.metrics.PatientsExpired.Add(float64(removed))
	s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "retention sweep complete",
		"removed", removed,
		"cutoff", cutoff.Format(time.RFC3339),
	)
	return nil
}
