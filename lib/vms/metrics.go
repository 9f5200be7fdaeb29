package vms

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the metrics instruments for guest lifecycle operations.
type Metrics struct {
	actionsTotal   metric.Int64Counter
	actionDuration metric.Float64Histogram
	tracer         trace.Tracer
}

// NewMetrics creates and registers the lifecycle instruments.
func NewMetrics(meter metric.Meter, tracer trace.Tracer) (*Metrics, error) {
	actionsTotal, err := meter.Int64Counter(
		"pveman_vm_actions_total",
		metric.WithDescription("Total number of guest lifecycle requests by action and outcome"),
	)
	if err != nil {
		return nil, err
	}

	actionDuration, err := meter.Float64Histogram(
		"pveman_vm_action_duration_seconds",
		metric.WithDescription("End-to-end duration of guest lifecycle requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		actionsTotal:   actionsTotal,
		actionDuration: actionDuration,
		tracer:         tracer,
	}, nil
}

// recordAction records one lifecycle request with its outcome.
func (m *manager) recordAction(ctx context.Context, action, outcome string, start time.Time) {
	if m.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	)
	m.metrics.actionsTotal.Add(ctx, 1, attrs)
	m.metrics.actionDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

// startSpan opens a tracing span when a tracer is configured.
func (m *manager) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if m.metrics == nil || m.metrics.tracer == nil {
		return noop.NewTracerProvider().Tracer("vms").Start(ctx, name)
	}
	return m.metrics.tracer.Start(ctx, name)
}
