package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordOrderCreated(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordOrderCreated(ctx, nil, 0.02)
	m.RecordOrderCreated(ctx, nil, 0.03)
	m.RecordOrderCreated(ctx, errors.New("empty cart"), 0.01)

	got := collect(t, reader)
	assert.EqualValues(t, 2, sumFor(t, got["orders_created_total"], "status", "success"))
	assert.EqualValues(t, 1, sumFor(t, got["orders_created_total"], "status", "error"))

	hist, ok := got["order_creation_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.EqualValues(t, 3, hist.DataPoints[0].Count)
}

func TestRecordCartAndPayment(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCartMutation(ctx, "add_item", nil)
	m.RecordCartMutation(ctx, "remove_item", nil)
	m.RecordPaymentVerification(ctx, errors.New("bad signature"))
	m.RecordStatusTransition(ctx, "PENDING", "CANCELLED")
	m.RecordRestockFailure(ctx)

	got := collect(t, reader)
	assert.EqualValues(t, 1, sumFor(t, got["cart_mutations_total"], "operation", "add_item"))
	assert.EqualValues(t, 1, sumFor(t, got["payment_verifications_total"], "status", "error"))
	assert.EqualValues(t, 1, sumFor(t, got["order_status_transitions_total"], "to", "CANCELLED"))

	failures, ok := got["stock_restore_failures_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	assert.EqualValues(t, 1, failures.DataPoints[0].Value)
}

func TestNoopDoesNotPanic(t *testing.T) {
	m := Noop()
	m.RecordOrderCreated(context.Background(), nil, 1)
	m.RecordRestockFailure(context.Background())
}
