package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/mukeshkumar44/e-commerce-backend"

// Metrics holds the shop's business instruments.
type Metrics struct {
	ordersCreated         metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	statusTransitions     metric.Int64Counter
	restockFailures       metric.Int64Counter
	cartMutations         metric.Int64Counter
	paymentVerifications  metric.Int64Counter
}

func New(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)
	m := &Metrics{}

	var err error
	if m.ordersCreated, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of order creation attempts"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	if m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create order_creation_duration_seconds histogram: %w", err)
	}

	if m.statusTransitions, err = meter.Int64Counter(
		"order_status_transitions_total",
		metric.WithDescription("Order status changes by source and target status"),
	); err != nil {
		return nil, fmt.Errorf("create order_status_transitions_total counter: %w", err)
	}

	if m.restockFailures, err = meter.Int64Counter(
		"stock_restore_failures_total",
		metric.WithDescription("Order items whose stock could not be restored"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, fmt.Errorf("create stock_restore_failures_total counter: %w", err)
	}

	if m.cartMutations, err = meter.Int64Counter(
		"cart_mutations_total",
		metric.WithDescription("Cart mutations by operation and outcome"),
	); err != nil {
		return nil, fmt.Errorf("create cart_mutations_total counter: %w", err)
	}

	if m.paymentVerifications, err = meter.Int64Counter(
		"payment_verifications_total",
		metric.WithDescription("Payment callback verifications by result"),
	); err != nil {
		return nil, fmt.Errorf("create payment_verifications_total counter: %w", err)
	}

	return m, nil
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	m, _ := New(noop.NewMeterProvider())
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, err error, seconds float64) {
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("status", outcome(err))))
	m.orderCreationDuration.Record(ctx, seconds)
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordRestockFailure(ctx context.Context) {
	m.restockFailures.Add(ctx, 1)
}

func (m *Metrics) RecordCartMutation(ctx context.Context, operation string, err error) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", outcome(err)),
	))
}

func (m *Metrics) RecordPaymentVerification(ctx context.Context, err error) {
	m.paymentVerifications.Add(ctx, 1, metric.WithAttributes(attribute.String("status", outcome(err))))
}
