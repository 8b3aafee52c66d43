package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records tool-call metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordCall(ctx context.Context, meta ToolMeta, duration time.Duration, outcome string, err error)
}

type metricsImpl struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the tool-call instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	calls, err := meter.Int64Counter(
		"tool.calls",
		metric.WithDescription("Tool calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"tool.failures",
		metric.WithDescription("Tool calls that failed at invocation level"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"tool.duration_ms",
		metric.WithDescription("Tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{calls: calls, failures: failures, duration: duration}, nil
}

func (m *metricsImpl) RecordCall(ctx context.Context, meta ToolMeta, d time.Duration, outcome string, err error) {
	if err != nil {
		outcome = OutcomeFailure
	}
	name := attribute.String("tool.name", meta.Name)

	m.calls.Add(ctx, 1, metric.WithAttributes(name, attribute.String("tool.outcome", outcome)))
	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(name))
	}
	m.duration.Record(ctx, float64(d.Microseconds())/1000, metric.WithAttributes(name))
}

type noopMetrics struct{}

func (noopMetrics) RecordCall(context.Context, ToolMeta, time.Duration, string, error) {}
