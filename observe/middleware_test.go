package observe

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeResult string

func (r fakeResult) Outcome() string { return string(r) }

type harness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
	mw     *Middleware
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	logs := &bytes.Buffer{}
	return &harness{
		spans:  spans,
		reader: reader,
		logs:   logs,
		mw:     NewMiddleware(NewTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("debug", logs)),
	}
}

func (h *harness) collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func sumByOutcome(t *testing.T, m *metricdata.Metrics) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is %T, want Sum[int64]", m.Name, m.Data)
	}
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("tool.outcome")
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestMiddleware_Success(t *testing.T) {
	h := newHarness(t)
	fn := h.mw.Wrap(func(context.Context, ToolMeta, any) (any, error) {
		return fakeResult(OutcomeSuccess), nil
	})

	ctx := WithRequestID(context.Background(), "req-42")
	got, err := fn(ctx, ToolMeta{Name: "get_profile", Tags: []string{"read"}}, nil)
	if err != nil || got != fakeResult(OutcomeSuccess) {
		t.Fatalf("Wrap() = %v, %v", got, err)
	}

	spans := h.spans.Ended()
	if len(spans) != 1 || spans[0].Name() != "tool.call.get_profile" {
		t.Fatalf("spans = %v", spans)
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[0].Status())
	}
	if v, _ := spanAttr(spans[0], "request.id"); v.AsString() != "req-42" {
		t.Errorf("request.id = %q", v.AsString())
	}
	if v, _ := spanAttr(spans[0], "tool.outcome"); v.AsString() != OutcomeSuccess {
		t.Errorf("tool.outcome = %q", v.AsString())
	}

	calls := findMetric(h.collect(t), "tool.calls")
	if calls == nil {
		t.Fatal("tool.calls not recorded")
	}
	if got := sumByOutcome(t, calls)[OutcomeSuccess]; got != 1 {
		t.Errorf("success calls = %d, want 1", got)
	}

	entry := decodeLines(t, h.logs)[0]
	if entry["msg"] != "tool call completed" || entry["tool"] != "get_profile" || entry["request_id"] != "req-42" {
		t.Errorf("log entry = %v", entry)
	}
}

func TestMiddleware_ErrorResult(t *testing.T) {
	h := newHarness(t)
	fn := h.mw.Wrap(func(context.Context, ToolMeta, any) (any, error) {
		return fakeResult("upstream_error"), nil
	})

	if _, err := fn(context.Background(), ToolMeta{Name: "get_projects"}, nil); err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	span := h.spans.Ended()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status())
	}
	if v, _ := spanAttr(span, "tool.error"); !v.AsBool() {
		t.Error("tool.error = false")
	}
	rm := h.collect(t)
	if got := sumByOutcome(t, findMetric(rm, "tool.calls"))["upstream_error"]; got != 1 {
		t.Errorf("upstream_error calls = %d, want 1", got)
	}
	if findMetric(rm, "tool.failures") != nil {
		if sum := findMetric(rm, "tool.failures").Data.(metricdata.Sum[int64]); len(sum.DataPoints) != 0 {
			t.Error("error result counted as invocation failure")
		}
	}
	if entry := decodeLines(t, h.logs)[0]; entry["level"] != "warn" || entry["outcome"] != "upstream_error" {
		t.Errorf("log entry = %v", entry)
	}
}

func TestMiddleware_HardError(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("authentication failed")
	fn := h.mw.Wrap(func(context.Context, ToolMeta, any) (any, error) {
		return nil, boom
	})

	if _, err := fn(context.Background(), ToolMeta{Name: "get_services"}, nil); !errors.Is(err, boom) {
		t.Fatalf("Wrap() error = %v, want boom", err)
	}

	span := h.spans.Ended()[0]
	if span.Status().Code != codes.Error || len(span.Events()) == 0 {
		t.Errorf("span status = %v, events = %d", span.Status(), len(span.Events()))
	}
	rm := h.collect(t)
	if got := sumByOutcome(t, findMetric(rm, "tool.calls"))[OutcomeFailure]; got != 1 {
		t.Errorf("failure calls = %d, want 1", got)
	}
	if findMetric(rm, "tool.failures") == nil {
		t.Error("tool.failures not recorded")
	}
	if entry := decodeLines(t, h.logs)[0]; entry["level"] != "error" || entry["error"] != "authentication failed" {
		t.Errorf("log entry = %v", entry)
	}
}

func TestMiddleware_DurationRecorded(t *testing.T) {
	h := newHarness(t)
	fn := h.mw.Wrap(func(context.Context, ToolMeta, any) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	})
	_, _ = fn(context.Background(), ToolMeta{Name: "slow"}, nil)

	m := findMetric(h.collect(t), "tool.duration_ms")
	if m == nil {
		t.Fatal("tool.duration_ms not recorded")
	}
	hist := m.Data.(metricdata.Histogram[float64])
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Sum < 5 {
		t.Errorf("histogram = %+v", hist.DataPoints)
	}
}

func TestMiddleware_Concurrent(t *testing.T) {
	h := newHarness(t)
	fn := h.mw.Wrap(func(context.Context, ToolMeta, any) (any, error) {
		return fakeResult(OutcomeSuccess), nil
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = fn(context.Background(), ToolMeta{Name: "get_profile"}, nil)
		}()
	}
	wg.Wait()

	if got := sumByOutcome(t, findMetric(h.collect(t), "tool.calls"))[OutcomeSuccess]; got != 20 {
		t.Errorf("success calls = %d, want 20", got)
	}
	if n := len(decodeLines(t, h.logs)); n != 20 {
		t.Errorf("log lines = %d, want 20", n)
	}
}

func TestMiddleware_NilComponents(t *testing.T) {
	fn := NewMiddleware(nil, nil, nil).Wrap(func(context.Context, ToolMeta, any) (any, error) {
		return "ok", nil
	})
	if got, err := fn(context.Background(), ToolMeta{Name: "x"}, nil); err != nil || got != "ok" {
		t.Fatalf("Wrap() = %v, %v", got, err)
	}
}

func TestToolMeta(t *testing.T) {
	if got := (ToolMeta{Name: "send_message"}).SpanName(); got != "tool.call.send_message" {
		t.Errorf("SpanName() = %q", got)
	}
	if err := (ToolMeta{}).Validate(); !errors.Is(err, ErrMissingToolName) {
		t.Errorf("Validate() error = %v", err)
	}
}
