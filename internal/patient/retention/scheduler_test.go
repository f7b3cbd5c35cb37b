package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrec/internal/platform/metrics"
)

type fakeSweeper struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (f *fakeSweeper) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed, f.err
}

func (f *fakeSweeper) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepComputesCutoffFromHorizon(t *testing.T) {
	sweeper := &fakeSweeper{removed: 3}
	m := metrics.New(prometheus.NewRegistry())
	s := New(sweeper, 365*24*time.Hour, time.Hour, discardLogger(), m)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Sweep(context.Background()))

	require.Len(t, sweeper.cutoffs, 1)
	assert.Equal(t, now.Add(-365*24*time.Hour), sweeper.cutoffs[0])
	assert.Equal(t, float64(3), promtestutil.ToFloat64(m.PatientsExpired))
}

func TestRunSweepsImmediatelyThenPeriodically(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := New(sweeper, time.Hour, 10*time.Millisecond, discardLogger(), metrics.New(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return sweeper.calls() >= 3 },
		2*time.Second, 5*time.Millisecond, "expected the immediate sweep plus ticks")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
}

func TestRunKeepsGoingAfterSweepFailure(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("storage hiccup")}
	s := New(sweeper, time.Hour, 10*time.Millisecond, discardLogger(), metrics.New(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return sweeper.calls() >= 2 },
		2*time.Second, 5*time.Millisecond, "a failed sweep must not end the loop")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
