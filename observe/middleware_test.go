package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestMiddleware_WrapSuccess verifies the full wrap path: span, metrics, log.
func TestMiddleware_WrapSuccess(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	var buf bytes.Buffer
	mw := NewMiddleware(newTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("info", &buf))

	called := false
	fn := mw.Wrap(func(ctx context.Context, meta CallMeta, req any) (any, error) {
		called = true
		return "response", nil
	})

	meta := CallMeta{Provider: "anthropic", Operation: "messages"}
	result, err := fn(context.Background(), meta, "request")
	if err != nil {
		t.Fatalf("wrapped call failed: %v", err)
	}
	if !called {
		t.Fatal("wrapped function was not invoked")
	}
	if result != "response" {
		t.Errorf("result = %v, want response", result)
	}

	if spans := recorder.Ended(); len(spans) != 1 {
		t.Errorf("expected 1 span, got %d", len(spans))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if got := sumValue(t, rm, "llm.call.total"); got != 1 {
		t.Errorf("llm.call.total = %d, want 1", got)
	}

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if logEntry["msg"] != "provider call completed" {
		t.Errorf("log msg = %v", logEntry["msg"])
	}
}

// TestMiddleware_WrapError verifies error propagation and error-path telemetry.
func TestMiddleware_WrapError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	var buf bytes.Buffer
	mw := NewMiddleware(newTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("info", &buf))

	wantErr := errors.New("overloaded")
	fn := mw.Wrap(func(ctx context.Context, meta CallMeta, req any) (any, error) {
		return nil, wantErr
	})

	_, err = fn(context.Background(), CallMeta{Provider: "openai", Operation: "complete"}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v unchanged", err, wantErr)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if got := sumValue(t, rm, "llm.call.errors"); got != 1 {
		t.Errorf("llm.call.errors = %d, want 1", got)
	}

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if logEntry["level"] != "error" {
		t.Errorf("log level = %v, want error", logEntry["level"])
	}
}

// TestMiddlewareFromObserver verifies the convenience constructor.
func TestMiddlewareFromObserver(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "llmops-test"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver failed: %v", err)
	}

	fn := mw.Wrap(func(ctx context.Context, meta CallMeta, req any) (any, error) {
		return nil, nil
	})
	if _, err := fn(context.Background(), CallMeta{Provider: "p", Operation: "op"}, nil); err != nil {
		t.Errorf("wrapped call failed: %v", err)
	}
}

// TestMiddlewareFromObserver_Nil verifies nil observers are rejected.
func TestMiddlewareFromObserver_Nil(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("error = %v, want ErrNilObserver", err)
	}
	if _, _, err := InstrumentsFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("error = %v, want ErrNilObserver", err)
	}
}

// TestInstrumentsFromObserver verifies direct instrument access for streaming paths.
func TestInstrumentsFromObserver(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "llmops-test"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	tracer, metrics, err := InstrumentsFromObserver(obs)
	if err != nil {
		t.Fatalf("InstrumentsFromObserver failed: %v", err)
	}
	if tracer == nil || metrics == nil {
		t.Fatal("expected non-nil tracer and metrics")
	}

	meta := CallMeta{Provider: "p", Operation: "op", Streaming: true}
	_, span := tracer.StartSpan(context.Background(), meta)
	metrics.RecordStreamEvents(context.Background(), meta, 3)
	tracer.EndSpan(span, nil)
}
