package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

type fixedStock map[string]int64

func (f fixedStock) CountByStatus(context.Context) (map[string]int64, error) {
	return f, nil
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestLedgerMetrics_Counters(t *testing.T) {
	ctx := context.Background()
	reader, mp := newTestMeter(t)
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  mp.Meter("ledger"),
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	lm.AllocationConflict(ctx, "FV")
	lm.AllocationConflict(ctx, "FV")
	lm.AllocationConflict(ctx, "BC")
	lm.DocumentIssued(ctx, "FV", document.StatusFinalized, 15*time.Millisecond)
	lm.DocumentVoided(ctx, "FV")
	lm.DocumentCancelled(ctx, "BC")
	lm.RenderCompleted(ctx, "FV", 80*time.Millisecond, nil)
	lm.RenderCompleted(ctx, "FV", 2*time.Second, errors.New("chrome gone"))

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "dealer_allocation_conflicts_total", telemetry.AttrPrefix.String("FV")))
	assert.Equal(t, int64(1), sumFor(t, rm, "dealer_allocation_conflicts_total", telemetry.AttrPrefix.String("BC")))
	assert.Equal(t, int64(1), sumFor(t, rm, "dealer_documents_issued_total", telemetry.AttrDocumentStatus.String("finalized")))
	assert.Equal(t, int64(1), sumFor(t, rm, "dealer_documents_voided_total", telemetry.AttrPrefix.String("FV")))
	assert.Equal(t, int64(1), sumFor(t, rm, "dealer_documents_cancelled_total", telemetry.AttrPrefix.String("BC")))
	assert.Equal(t, int64(1), sumFor(t, rm, "dealer_render_failures_total", telemetry.AttrPrefix.String("FV")))

	m, ok := findMetric(rm, "dealer_document_render_duration_seconds")
	require.True(t, ok)
	h := m.Data.(metricdata.Histogram[float64])
	assert.Len(t, h.DataPoints, 2, "ok and error outcomes are separate series")
}

func TestLedgerMetrics_PeriodicStockCollection(t *testing.T) {
	ctx := t.Context()
	reader, mp := newTestMeter(t)
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:         mp.Meter("ledger"),
		StockProvider: fixedStock{"in_stock": 12, "sold": 40},
	})
	require.NoError(t, err)

	lm.StartPeriodicCollection(ctx, time.Hour)
	defer lm.Stop()

	require.Eventually(t, func() bool {
		_, ok := findMetric(collect(t, reader), "dealer_vehicles_by_status")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	m, _ := findMetric(collect(t, reader), "dealer_vehicles_by_status")
	values := map[string]int64{}
	for _, dp := range m.Data.(metricdata.Gauge[int64]).DataPoints {
		status, _ := dp.Attributes.Value(telemetry.AttrVehicleStatus)
		values[status.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"in_stock": 12, "sold": 40}, values)

	lm.Stop()
}
