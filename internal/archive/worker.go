package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/salon-dashboard/internal/dashboard"
	"github.com/wolfman30/salon-dashboard/internal/observability/metrics"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

// ReportSource builds the figures for a closed month.
type ReportSource interface {
	MonthReport(ctx context.Context, month time.Time) (dashboard.MonthReport, error)
}

// Worker archives the previous month's report once it has closed.
type Worker struct {
	source   ReportSource
	store    *ReportStore
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	interval time.Duration
	now      func() time.Time
}

// NewWorker creates an archive worker checking every hour by default.
func NewWorker(source ReportSource, store *ReportStore, m *metrics.SchedulingMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		source:   source,
		store:    store,
		metrics:  m,
		logger:   logger,
		interval: time.Hour,
		now:      time.Now,
	}
}

// WithInterval sets the check interval.
func (w *Worker) WithInterval(interval time.Duration) *Worker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithClock replaces the wall clock, for tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Start runs the worker. Blocks until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	if !w.store.Enabled() {
		w.logger.Info("finance report archiver disabled: no bucket configured")
		return
	}
	w.logger.Info("starting finance report archiver", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("finance report archiver shutting down")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.ArchivePreviousMonth(ctx); err != nil {
		w.logger.Error("finance report archive failed", "error", err)
	}
}

// ArchivePreviousMonth writes the report for the month before now unless it
// already exists. It reports whether a new object was written.
func (w *Worker) ArchivePreviousMonth(ctx context.Context) (bool, error) {
	current, _ := scheduling.MonthBounds(w.now())
	previous := current.AddDate(0, -1, 0)

	_, err := w.store.Get(ctx, previous)
	switch {
	case err == nil:
		w.metrics.ObserveReport("skipped")
		return false, nil
	case !errors.Is(err, ErrReportNotFound):
		w.metrics.ObserveReport("error")
		return false, err
	}

	if err := w.ArchiveMonth(ctx, previous); err != nil {
		return false, err
	}
	return true, nil
}

// ArchiveMonth builds and writes the report for month, replacing any earlier copy.
func (w *Worker) ArchiveMonth(ctx context.Context, month time.Time) error {
	report, err := w.source.MonthReport(ctx, month)
	if err != nil {
		w.metrics.ObserveReport("error")
		return fmt.Errorf("archive: build report %s: %w", month.Format("2006-01"), err)
	}
	if err := w.store.Put(ctx, month, report); err != nil {
		w.metrics.ObserveReport("error")
		return err
	}
	w.metrics.ObserveReport("written")
	return nil
}
