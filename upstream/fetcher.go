package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/profilemcp/auth"
)

// Request describes one resource call.
type Request struct {
	// Method is GET or POST; empty means GET.
	Method string

	// Path is appended verbatim to the base URL.
	Path string

	// Body is JSON-encoded for POST requests and ignored otherwise.
	Body any

	// Label names the resource in error summaries, e.g. "profile".
	Label string
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r Request) label() string {
	if r.Label != "" {
		return r.Label
	}
	return strings.Trim(r.Path, "/")
}

// Fetcher performs authenticated upstream calls. It is safe for concurrent
// use; each call obtains its own token and its own client scope.
type Fetcher struct {
	baseURL   string
	tokens    auth.TokenProvider
	transport http.RoundTripper
	timeout   time.Duration

	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTransport sets the shared round tripper; the default is
// http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.transport = rt }
}

// WithTimeout bounds each resource call. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithTelemetry records a span and metrics for each resource call.
func WithTelemetry(tracer trace.Tracer, meter metric.Meter) Option {
	return func(f *Fetcher) {
		if tracer != nil {
			f.tracer = tracer
		}
		if meter != nil {
			f.instrument(meter)
		}
	}
}

// NewFetcher creates a Fetcher for baseURL, which should end with "/".
func NewFetcher(baseURL string, tokens auth.TokenProvider, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL:   baseURL,
		tokens:    tokens,
		transport: http.DefaultTransport,
		tracer:    tracenoop.NewTracerProvider().Tracer("upstream"),
	}
	f.instrument(metricnoop.NewMeterProvider().Meter("upstream"))
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) instrument(meter metric.Meter) {
	requests, err := meter.Int64Counter(
		"upstream.requests",
		metric.WithDescription("Upstream resource calls by outcome"),
		metric.WithUnit("{request}"),
	)
	if err == nil {
		f.requests = requests
	}
	latency, err := meter.Float64Histogram(
		"upstream.duration_ms",
		metric.WithDescription("Upstream resource call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err == nil {
		f.latency = latency
	}
}

// Do obtains a token and performs req. A token failure is returned as an
// error and no resource call is made. Every other failure is a Result.
func (f *Fetcher) Do(ctx context.Context, req Request) (Result, error) {
	token, err := f.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := f.tracer.Start(ctx, "upstream "+req.method()+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method()),
			attribute.String("url.path", req.Path),
		),
	)
	start := time.Now()

	result := f.send(ctx, req, token)

	f.record(ctx, span, req, result, time.Since(start))
	f.invalidateOnReject(ctx, result)
	return result, nil
}

func (f *Fetcher) send(ctx context.Context, req Request, token string) Result {
	summary := "error trying to fetch " + req.label()

	var body io.Reader
	if req.method() != http.MethodGet && req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return TransportError{Message: err.Error(), Summary: summary}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), f.baseURL+req.Path, body)
	if err != nil {
		return TransportError{Message: err.Error(), Summary: summary}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{
		Transport: auth.NewTokenTransport(token, f.transport),
		Timeout:   f.timeout,
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return TransportError{Message: err.Error(), Summary: summary}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportError{Message: err.Error(), Summary: summary}
	}

	if resp.StatusCode != http.StatusOK {
		return UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
			Token:      token,
			Summary:    "failed to fetch " + req.label(),
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return TransportError{Message: fmt.Sprintf("decode response: %v", err), Summary: summary}
	}
	return Success{Payload: payload}
}

func (f *Fetcher) record(ctx context.Context, span trace.Span, req Request, result Result, d time.Duration) {
	outcome := result.Outcome()
	switch r := result.(type) {
	case UpstreamError:
		span.SetAttributes(attribute.Int("http.response.status_code", r.StatusCode))
		span.SetStatus(codes.Error, outcome)
	case TransportError:
		span.SetStatus(codes.Error, r.Message)
	default:
		span.SetAttributes(attribute.Int("http.response.status_code", http.StatusOK))
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	attrs := metric.WithAttributes(
		attribute.String("upstream.resource", req.label()),
		attribute.String("upstream.outcome", outcome),
	)
	if f.requests != nil {
		f.requests.Add(ctx, 1, attrs)
	}
	if f.latency != nil {
		f.latency.Record(ctx, float64(d.Microseconds())/1000, attrs)
	}
}

// invalidateOnReject drops a reused token the API no longer accepts.
func (f *Fetcher) invalidateOnReject(ctx context.Context, result Result) {
	ue, ok := result.(UpstreamError)
	if !ok || (ue.StatusCode != http.StatusUnauthorized && ue.StatusCode != http.StatusForbidden) {
		return
	}
	if inv, ok := f.tokens.(auth.Invalidator); ok {
		inv.Invalidate(context.WithoutCancel(ctx))
	}
}
