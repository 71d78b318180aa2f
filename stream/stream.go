package stream

import (
	"context"
	"io"

	"github.com/jonwraymond/llmops/apierr"
)

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StateNew       StreamState = iota // Before Next() is ever called.
	StateStreaming                    // Mid-stream, receiving events.
	StateComplete                     // Next() returned io.EOF.
	StateError                        // Next() returned a non-EOF error.
	StateClosed                       // Close() called before a terminal state.
)

// Stream is a live, forward-only, non-restartable sequence of events
// decoded from a transport byte stream. It uses a pull-based iterator:
// Next returns events in exactly the order their frames were decoded and
// io.EOF when the stream completes normally.
//
// A Stream belongs to one logical request; it is not safe for concurrent
// use.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	dec     FrameDecoder
	acc     *Accumulator
	pending []Frame
	readBuf []byte
	state   StreamState
	err     error
}

// New wraps a transport byte stream with a frame decoder. The caller must
// Close the stream when done.
func New(ctx context.Context, body io.ReadCloser, dec FrameDecoder) *Stream {
	return &Stream{
		ctx:     ctx,
		body:    body,
		dec:     dec,
		acc:     NewAccumulator(),
		readBuf: make([]byte, 4096),
		state:   StateNew,
	}
}

// Next returns the next event. It returns io.EOF when the stream completed
// normally (MessageStop or the [DONE] sentinel), a *FramingError when the
// byte stream is structurally broken, and the transport's error otherwise.
// In-band ErrorEvents are returned as events, not errors; the consumer may
// keep reading after one.
func (s *Stream) Next() (Event, error) {
	switch s.state {
	case StateComplete:
		return nil, io.EOF
	case StateError:
		return nil, s.err
	case StateClosed:
		return nil, ErrStreamClosed
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.state = StateError
			s.err = err
			return nil, err
		}

		if len(s.pending) > 0 {
			frame := s.pending[0]
			s.pending = s.pending[1:]

			ev, err := Parse(frame)
			if err != nil {
				s.state = StateError
				s.err = err
				return nil, err
			}

			if _, ok := ev.(Unknown); ok {
				// Ignorable; keep reading.
				continue
			}

			s.acc.Add(ev)
			s.state = StateStreaming

			if _, ok := ev.(MessageStop); ok {
				s.state = StateComplete
			}
			return ev, nil
		}

		if err := s.fill(); err != nil {
			return nil, err
		}
	}
}

// fill reads one chunk from the transport and decodes it into pending
// frames. It sets the terminal state on stream end or failure. fill is
// only called with an empty pending queue.
func (s *Stream) fill() error {
	if s.err != nil {
		// A deferred failure: its frames have drained, surface it now.
		s.state = StateError
		return s.err
	}
	if s.decoderDone() {
		// The [DONE] sentinel ends the logical stream even when the
		// server keeps the connection open.
		s.state = StateComplete
		return io.EOF
	}

	n, readErr := s.body.Read(s.readBuf)

	if n > 0 {
		frames, err := s.dec.Feed(s.readBuf[:n])
		s.pending = append(s.pending, frames...)
		if err != nil {
			return s.fail(err)
		}
		if len(s.pending) == 0 && s.decoderDone() {
			s.state = StateComplete
			return io.EOF
		}
	}

	if readErr == nil {
		return nil
	}

	if readErr == io.EOF {
		// Flush pending frames before ending; Next drains s.pending first,
		// so only flag the end when nothing is queued.
		if len(s.pending) > 0 {
			return nil
		}
		if err := s.dec.Finish(); err != nil {
			s.state = StateError
			s.err = err
			return err
		}
		s.state = StateComplete
		return io.EOF
	}

	return s.fail(apierr.NewTransient("stream read failed", readErr))
}

// fail records the terminal error. Frames decoded before the failure are
// still delivered in order; the error surfaces once the queue drains.
func (s *Stream) fail(err error) error {
	s.err = err
	if len(s.pending) > 0 {
		return nil
	}
	s.state = StateError
	return err
}

// decoderDone reports whether the decoder has consumed an end-of-stream
// sentinel. Decoders without sentinel semantics rely on transport EOF.
func (s *Stream) decoderDone() bool {
	d, ok := s.dec.(interface{ Done() bool })
	return ok && d.Done()
}

// State returns the current stream state.
func (s *Stream) State() StreamState {
	return s.state
}

// Message returns the response accumulated so far. After a normal
// completion it is the full logical response; mid-stream or after an error
// it reflects the events observed up to that point.
func (s *Stream) Message() *Response {
	if s.state == StateComplete || s.state == StateError || s.state == StateClosed {
		return s.acc.Finalize()
	}
	return s.acc.assemble()
}

// Close closes the underlying transport stream. Closing before a terminal
// state marks the stream closed; subsequent Next calls return
// ErrStreamClosed.
func (s *Stream) Close() error {
	if s.state != StateComplete && s.state != StateError {
		s.state = StateClosed
	}
	return s.body.Close()
}
