package telemetry

import (
	"context"
	"sync"
	"time"

	documentapp "github.com/autodealer/backend/internal/application/document"
	"github.com/autodealer/backend/internal/domain/document"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var _ documentapp.Metrics = (*LedgerMetrics)(nil)

// StockStatusProvider reports how many vehicles sit in each lifecycle status.
type StockStatusProvider interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// LedgerMetrics tracks document issuance, numbering contention and stock levels.
type LedgerMetrics struct {
	logger *zap.Logger

	documentsIssued     *Counter
	documentsVoided     *Counter
	documentsCancelled  *Counter
	allocationConflicts *Counter
	renderFailures      *Counter
	issueDuration       *Histogram
	renderDuration      *Histogram
	vehiclesByStatus    *Gauge

	stockProvider StockStatusProvider
	stopChan      chan struct{}
	stopOnce      sync.Once
	collectOnce   sync.Once
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockStatusProvider
}

// NewLedgerMetrics creates the ledger instruments on the given meter.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		logger:        logger,
		stockProvider: cfg.StockProvider,
		stopChan:      make(chan struct{}),
	}

	var err error
	if lm.documentsIssued, err = NewCounter(cfg.Meter,
		"dealer_documents_issued_total", "Documents bound to a number", "{documents}"); err != nil {
		return nil, err
	}
	if lm.documentsVoided, err = NewCounter(cfg.Meter,
		"dealer_documents_voided_total", "Numbers burned by a failed save", "{documents}"); err != nil {
		return nil, err
	}
	if lm.documentsCancelled, err = NewCounter(cfg.Meter,
		"dealer_documents_cancelled_total", "Documents cancelled after issue", "{documents}"); err != nil {
		return nil, err
	}
	if lm.allocationConflicts, err = NewCounter(cfg.Meter,
		"dealer_allocation_conflicts_total", "Sequence allocation attempts lost to contention", "{attempts}"); err != nil {
		return nil, err
	}
	if lm.renderFailures, err = NewCounter(cfg.Meter,
		"dealer_render_failures_total", "Document renders that failed", "{renders}"); err != nil {
		return nil, err
	}
	if lm.issueDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "dealer_document_issue_duration_seconds",
		Description: "Time from allocation to persisted document",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.renderDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "dealer_document_render_duration_seconds",
		Description: "Time spent rendering a document artifact",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.vehiclesByStatus, err = NewGauge(cfg.Meter,
		"dealer_vehicles_by_status", "Vehicles currently in each lifecycle status", "{vehicles}"); err != nil {
		return nil, err
	}
	return lm, nil
}

// AllocationConflict counts one lost allocation race
func (lm *LedgerMetrics) AllocationConflict(ctx context.Context, prefix string) {
	lm.allocationConflicts.Inc(ctx, AttrPrefix.String(prefix))
}

// DocumentIssued counts a persisted document and records how long issuing took
func (lm *LedgerMetrics) DocumentIssued(ctx context.Context, prefix string, status document.Status, elapsed time.Duration) {
	lm.documentsIssued.Inc(ctx, AttrPrefix.String(prefix), AttrDocumentStatus.String(status.String()))
	lm.issueDuration.RecordDuration(ctx, elapsed, AttrPrefix.String(prefix))
}

// DocumentVoided counts a burned number
func (lm *LedgerMetrics) DocumentVoided(ctx context.Context, prefix string) {
	lm.documentsVoided.Inc(ctx, AttrPrefix.String(prefix))
}

// DocumentCancelled counts a cancellation
func (lm *LedgerMetrics) DocumentCancelled(ctx context.Context, prefix string) {
	lm.documentsCancelled.Inc(ctx, AttrPrefix.String(prefix))
}

// RenderCompleted records a render attempt and counts it as failed when err is set
func (lm *LedgerMetrics) RenderCompleted(ctx context.Context, prefix string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		lm.renderFailures.Inc(ctx, AttrPrefix.String(prefix))
	}
	lm.renderDuration.RecordDuration(ctx, elapsed, AttrPrefix.String(prefix), AttrOutcome.String(outcome))
}

// StartPeriodicCollection samples stock gauges every interval until Stop or ctx is done.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collectStockMetrics(ctx)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			lm.collectStockMetrics(ctx)
		}
	}
}

func (lm *LedgerMetrics) collectStockMetrics(ctx context.Context) {
	if lm.stockProvider == nil {
		return
	}
	counts, err := lm.stockProvider.CountByStatus(ctx)
	if err != nil {
		lm.logger.Warn("Failed to count vehicles by status", zap.Error(err))
		return
	}
	for status, n := range counts {
		lm.vehiclesByStatus.Record(ctx, n, AttrVehicleStatus.String(status))
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
