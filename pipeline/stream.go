package pipeline

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/llmops/observe"
	"github.com/jonwraymond/llmops/stream"
)

// Stream is a telemetry-carrying wrapper around a decoded event stream.
// It delegates to the underlying stream and records the span, event count
// and token usage when the stream reaches a terminal state.
type Stream struct {
	inner   *stream.Stream
	ctx     context.Context
	meta    observe.CallMeta
	client  *Client
	span    trace.Span
	started time.Time

	events   int64
	finished bool
}

// Next returns the next event in decode order. io.EOF marks a clean end.
func (s *Stream) Next() (stream.Event, error) {
	ev, err := s.inner.Next()
	if err == nil {
		s.events++
		return ev, nil
	}

	if err == io.EOF {
		s.finish(nil)
	} else {
		s.finish(err)
	}
	return nil, err
}

// Message returns the response assembled from the events observed so far,
// or the finalized response once the stream has ended.
func (s *Stream) Message() *stream.Response {
	return s.inner.Message()
}

// State reports the underlying stream state.
func (s *Stream) State() stream.StreamState {
	return s.inner.State()
}

// Close releases the underlying byte source. Safe to call at any point;
// a stream closed before its terminal event records telemetry as cancelled.
func (s *Stream) Close() error {
	err := s.inner.Close()
	s.finish(nil)
	return err
}

// finish records terminal telemetry exactly once.
func (s *Stream) finish(err error) {
	if s.finished {
		return
	}
	s.finished = true

	c := s.client
	if c.tracer != nil && s.span != nil {
		c.tracer.EndSpan(s.span, err)
	}
	if c.metrics != nil {
		c.metrics.RecordCall(s.ctx, s.meta, time.Since(s.started), err)
		c.metrics.RecordStreamEvents(s.ctx, s.meta, s.events)
		if resp := s.inner.Message(); resp != nil {
			c.metrics.RecordTokens(s.ctx, s.meta,
				int64(resp.Usage.InputTokens), int64(resp.Usage.OutputTokens))
		}
	}
	if c.logger != nil {
		log := c.logger.WithCall(s.meta)
		fields := []observe.Field{
			{Key: "duration_ms", Value: float64(time.Since(s.started).Milliseconds())},
			{Key: "events", Value: s.events},
		}
		if err != nil {
			fields = append(fields, observe.Field{Key: "error", Value: err.Error()})
			log.Warn(s.ctx, "stream ended with error", fields...)
		} else {
			log.Debug(s.ctx, "stream completed", fields...)
		}
	}
}
