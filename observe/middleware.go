package observe

import (
	"context"
	"time"
)

// Outcome labels shared by results that implement Outcomer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcomer is implemented by results that classify themselves.
type Outcomer interface {
	Outcome() string
}

// ExecuteFunc runs one tool call.
type ExecuteFunc func(ctx context.Context, tool ToolMeta, input any) (any, error)

// Middleware wraps tool execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a goroutine-safe ExecuteFunc.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Ownership: inputs and results pass through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver builds a Middleware from an Observer's primitives.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap instruments fn.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, tool ToolMeta, input any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, tool)
		start := time.Now()

		result, err := fn(ctx, tool, input)

		duration := time.Since(start)
		var outcome string
		if o, ok := result.(Outcomer); ok && err == nil {
			outcome = o.Outcome()
		}

		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordCall(ctx, tool, duration, outcome, err)

		log := m.logger.With(F("tool", tool.Name))
		fields := []Field{F("duration_ms", float64(duration.Microseconds())/1000)}
		switch {
		case err != nil:
			log.Error(ctx, "tool call failed", append(fields, F("error", err.Error()))...)
		case outcome != "" && outcome != OutcomeSuccess:
			log.Warn(ctx, "tool call returned an error result", append(fields, F("outcome", outcome))...)
		default:
			if outcome != "" {
				fields = append(fields, F("outcome", outcome))
			}
			log.Info(ctx, "tool call completed", fields...)
		}
		return result, err
	}
}
