package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for provider calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a completed call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordRetry records one retry attempt for a call.
	RecordRetry(ctx context.Context, meta CallMeta)

	// RecordStreamEvents records events consumed from a streamed response.
	RecordStreamEvents(ctx context.Context, meta CallMeta, n int64)

	// RecordTokens records prompt and completion token usage for a call.
	RecordTokens(ctx context.Context, meta CallMeta, input, output int64)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	retryCount   metric.Int64Counter
	streamEvents metric.Int64Counter
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	durationHist metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"llm.call.total",
		metric.WithDescription("Total number of provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"llm.call.errors",
		metric.WithDescription("Total number of failed provider calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"llm.call.retries",
		metric.WithDescription("Total number of retry attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	streamEvents, err := meter.Int64Counter(
		"llm.stream.events",
		metric.WithDescription("Total number of stream events consumed"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	inputTokens, err := meter.Int64Counter(
		"llm.tokens.input",
		metric.WithDescription("Total prompt tokens consumed"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	outputTokens, err := meter.Int64Counter(
		"llm.tokens.output",
		metric.WithDescription("Total completion tokens produced"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"llm.call.duration_ms",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		retryCount:   retryCount,
		streamEvents: streamEvents,
		inputTokens:  inputTokens,
		outputTokens: outputTokens,
		durationHist: durationHist,
	}, nil
}

func callAttrs(meta CallMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("llm.provider", meta.Provider),
		attribute.String("llm.operation", meta.Operation),
	}
	if meta.Model != "" {
		attrs = append(attrs, attribute.String("llm.model", meta.Model))
	}
	return metric.WithAttributes(attrs...)
}

// RecordCall records metrics for a completed call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := callAttrs(meta)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRetry increments the retry counter for the call.
func (m *metricsImpl) RecordRetry(ctx context.Context, meta CallMeta) {
	m.retryCount.Add(ctx, 1, callAttrs(meta))
}

// RecordStreamEvents adds consumed stream events for the call.
func (m *metricsImpl) RecordStreamEvents(ctx context.Context, meta CallMeta, n int64) {
	if n <= 0 {
		return
	}
	m.streamEvents.Add(ctx, n, callAttrs(meta))
}

// RecordTokens adds token usage for the call.
func (m *metricsImpl) RecordTokens(ctx context.Context, meta CallMeta, input, output int64) {
	opt := callAttrs(meta)
	if input > 0 {
		m.inputTokens.Add(ctx, input, opt)
	}
	if output > 0 {
		m.outputTokens.Add(ctx, output, opt)
	}
}

// RegisterBreakerGauge registers an observable gauge reporting circuit breaker
// state (0=closed, 1=open, 2=half-open) for the named breaker. The callback is
// invoked on every metrics collection.
func RegisterBreakerGauge(meter metric.Meter, name string, state func() int64) (metric.Registration, error) {
	gauge, err := meter.Int64ObservableGauge(
		"llm.breaker.state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=open, 2=half-open)"),
	)
	if err != nil {
		return nil, err
	}
	attrs := metric.WithAttributes(attribute.String("breaker", name))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, state(), attrs)
		return nil
	}, gauge)
}

// RegisterLimiterGauge registers an observable gauge reporting the current
// token count of the named rate limiter.
func RegisterLimiterGauge(meter metric.Meter, name string, tokens func() float64) (metric.Registration, error) {
	gauge, err := meter.Float64ObservableGauge(
		"llm.limiter.tokens",
		metric.WithDescription("Rate limiter tokens currently available"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}
	attrs := metric.WithAttributes(attribute.String("limiter", name))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveFloat64(gauge, tokens(), attrs)
		return nil
	}, gauge)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordRetry(ctx context.Context, meta CallMeta)                 {}
func (m *noopMetrics) RecordStreamEvents(ctx context.Context, meta CallMeta, n int64) {}
func (m *noopMetrics) RecordTokens(ctx context.Context, meta CallMeta, in, out int64) {}

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = (*noopMetrics)(nil)
)
