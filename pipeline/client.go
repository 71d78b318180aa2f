package pipeline

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/llmops/cache"
	"github.com/jonwraymond/llmops/observe"
	"github.com/jonwraymond/llmops/resilience"
	"github.com/jonwraymond/llmops/stream"
)

// Operation describes one non-streaming provider call.
type Operation struct {
	// Provider is the upstream provider name, e.g. "anthropic".
	Provider string

	// Name is the logical operation, e.g. "messages".
	Name string

	// Model identifies the requested model (optional, telemetry only).
	Model string

	// Temperature of the request; sampled calls are not cached.
	Temperature float64

	// Request is the request payload, used for cache key derivation.
	Request any

	// Do performs the call and returns the raw response body.
	Do func(ctx context.Context) ([]byte, error)
}

// StreamOperation describes one streamed provider call.
type StreamOperation struct {
	Provider string
	Name     string
	Model    string

	// Open establishes the connection and returns the response byte
	// source. Resilience applies to this step only.
	Open func(ctx context.Context) (io.ReadCloser, error)

	// Decoder frames the byte source. Defaults to SSE when nil.
	Decoder stream.FrameDecoder
}

// Result is the outcome of a non-streaming call.
type Result struct {
	// Body is the raw response body.
	Body []byte
}

// Client runs provider calls through the resilience executor with optional
// caching and telemetry. The zero value works; all collaborators are
// injected, no globals.
type Client struct {
	exec    *resilience.Executor
	cache   *cache.Middleware
	tracer  observe.Tracer
	metrics observe.Metrics
	logger  observe.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithExecutor sets the resilience executor. Without one, calls run direct.
func WithExecutor(e *resilience.Executor) ClientOption {
	return func(c *Client) { c.exec = e }
}

// WithCache sets the response cache middleware.
func WithCache(m *cache.Middleware) ClientOption {
	return func(c *Client) { c.cache = m }
}

// WithObserver wires tracing, metrics and logging from the observer.
func WithObserver(obs observe.Observer) ClientOption {
	return func(c *Client) {
		tracer, metrics, err := observe.InstrumentsFromObserver(obs)
		if err != nil {
			return
		}
		c.tracer = tracer
		c.metrics = metrics
		c.logger = obs.Logger()
	}
}

// NewClient creates a new pipeline client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs a non-streaming call: cache and in-flight coalescing first
// (idempotent requests only), then the resilience executor, then the
// operation itself.
func (c *Client) Execute(ctx context.Context, op Operation) (*Result, error) {
	if op.Do == nil {
		return nil, ErrNilOperation
	}

	meta := observe.CallMeta{Provider: op.Provider, Operation: op.Name, Model: op.Model}

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.StartSpan(ctx, meta)
	}

	start := time.Now()
	attempts := 0

	resilient := func(ctx context.Context) ([]byte, error) {
		var body []byte
		err := c.run(ctx, func(ctx context.Context) error {
			attempts++
			b, err := op.Do(ctx)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
		return body, err
	}

	var body []byte
	var err error
	if c.cache != nil {
		info := cache.CallInfo{
			Provider:    op.Provider,
			Operation:   op.Name,
			Temperature: op.Temperature,
		}
		body, err = c.cache.Execute(ctx, info, op.Request, resilient)
	} else {
		body, err = resilient(ctx)
	}

	c.record(ctx, meta, span, time.Since(start), attempts, err)
	if err != nil {
		return nil, err
	}
	return &Result{Body: body}, nil
}

// OpenStream establishes a streamed call. The executor guards connection
// establishment; once the byte source is open, decode errors belong to the
// stream and never feed the circuit breaker.
func (c *Client) OpenStream(ctx context.Context, op StreamOperation) (*Stream, error) {
	if op.Open == nil {
		return nil, ErrNilOpen
	}

	meta := observe.CallMeta{Provider: op.Provider, Operation: op.Name, Model: op.Model, Streaming: true}

	var span trace.Span
	streamCtx := ctx
	if c.tracer != nil {
		streamCtx, span = c.tracer.StartSpan(ctx, meta)
	}

	start := time.Now()
	attempts := 0

	var body io.ReadCloser
	err := c.run(streamCtx, func(ctx context.Context) error {
		attempts++
		b, err := op.Open(ctx)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		c.record(ctx, meta, span, time.Since(start), attempts, err)
		return nil, err
	}

	c.recordRetries(streamCtx, meta, attempts)

	dec := op.Decoder
	if dec == nil {
		dec = stream.NewSSEDecoder()
	}

	return &Stream{
		inner:   stream.New(streamCtx, body, dec),
		ctx:     streamCtx,
		meta:    meta,
		client:  c,
		span:    span,
		started: start,
	}, nil
}

// run pushes the operation through the executor, or runs it direct when no
// executor is configured.
func (c *Client) run(ctx context.Context, op func(context.Context) error) error {
	if c.exec != nil {
		return c.exec.Execute(ctx, op)
	}
	return op(ctx)
}

func (c *Client) recordRetries(ctx context.Context, meta observe.CallMeta, attempts int) {
	if c.metrics == nil {
		return
	}
	for i := 1; i < attempts; i++ {
		c.metrics.RecordRetry(ctx, meta)
	}
}

// record emits telemetry for a completed call.
func (c *Client) record(ctx context.Context, meta observe.CallMeta, span trace.Span, elapsed time.Duration, attempts int, err error) {
	if span != nil && c.tracer != nil {
		c.tracer.EndSpan(span, err)
	}
	if c.metrics != nil {
		c.metrics.RecordCall(ctx, meta, elapsed, err)
	}
	c.recordRetries(ctx, meta, attempts)
	if c.logger != nil {
		log := c.logger.WithCall(meta)
		fields := []observe.Field{
			{Key: "duration_ms", Value: float64(elapsed.Milliseconds())},
			{Key: "attempts", Value: attempts},
		}
		if err != nil {
			fields = append(fields, observe.Field{Key: "error", Value: err.Error()})
			log.Warn(ctx, "provider call failed", fields...)
		} else {
			log.Debug(ctx, "provider call completed", fields...)
		}
	}
}
