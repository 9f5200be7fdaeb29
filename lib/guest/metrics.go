package guest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metrics instruments for in-guest command execution.
type Metrics struct {
	execTotal       metric.Int64Counter
	execDuration    metric.Float64Histogram
	execPollsTotal  metric.Int64Counter
	execOutputBytes metric.Int64Counter
}

// NewMetrics creates and registers the guest exec instruments.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	execTotal, err := meter.Int64Counter(
		"pveman_guest_exec_total",
		metric.WithDescription("Total number of in-guest command executions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	execDuration, err := meter.Float64Histogram(
		"pveman_guest_exec_duration_seconds",
		metric.WithDescription("End-to-end duration of in-guest command executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	execPollsTotal, err := meter.Int64Counter(
		"pveman_guest_exec_polls_total",
		metric.WithDescription("Total number of exec-status polls issued to the guest agent"),
	)
	if err != nil {
		return nil, err
	}

	execOutputBytes, err := meter.Int64Counter(
		"pveman_guest_exec_output_bytes_total",
		metric.WithDescription("Total bytes of stdout and stderr captured from guest commands"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		execTotal:       execTotal,
		execDuration:    execDuration,
		execPollsTotal:  execPollsTotal,
		execOutputBytes: execOutputBytes,
	}, nil
}

// recordExec records one completed (or failed) execution.
func (m *manager) recordExec(ctx context.Context, outcome string, polls int, result *ExecResult, start time.Time) {
	if m.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.metrics.execTotal.Add(ctx, 1, attrs)
	m.metrics.execDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	m.metrics.execPollsTotal.Add(ctx, int64(polls))
	if result != nil {
		m.metrics.execOutputBytes.Add(ctx, int64(len(result.Output)+len(result.Stderr)))
	}
}
