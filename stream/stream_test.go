package stream

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// chunkReader returns its chunks one Read at a time, then the final error.
type chunkReader struct {
	chunks []string
	err    error
	closed bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

const sampleSSE = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","model":"m-large","usage":{"input_tokens":3}}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":", world"}}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":9}}

event: message_stop
data: {"type":"message_stop"}

`

func drain(t *testing.T, s *Stream) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := s.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		events = append(events, ev)
	}
}

func TestStream_FullSSESequence(t *testing.T) {
	body := &chunkReader{chunks: []string{sampleSSE}}
	s := New(context.Background(), body, NewSSEDecoder())

	events := drain(t, s)

	wantKinds := []string{"MessageStart", "ContentDelta", "ContentDelta", "MessageDelta", "MessageStop"}
	if len(events) != len(wantKinds) {
		t.Fatalf("events = %d, want %d", len(events), len(wantKinds))
	}

	if s.State() != StateComplete {
		t.Errorf("State() = %v, want complete", s.State())
	}

	resp := s.Message()
	if resp.Text() != "Hello, world" {
		t.Errorf("Text() = %q, want \"Hello, world\"", resp.Text())
	}
	if resp.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q, want end_turn", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 3 || resp.Usage.OutputTokens != 9 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestStream_OrderPreservedAcrossChunkBoundaries(t *testing.T) {
	// Split the payload into many tiny chunks; event order must match the
	// unsplit stream exactly.
	var chunks []string
	for i := 0; i < len(sampleSSE); i += 7 {
		end := i + 7
		if end > len(sampleSSE) {
			end = len(sampleSSE)
		}
		chunks = append(chunks, sampleSSE[i:end])
	}

	whole := drain(t, New(context.Background(), &chunkReader{chunks: []string{sampleSSE}}, NewSSEDecoder()))
	split := drain(t, New(context.Background(), &chunkReader{chunks: chunks}, NewSSEDecoder()))

	if len(whole) != len(split) {
		t.Fatalf("split events = %d, want %d", len(split), len(whole))
	}
	for i := range whole {
		if whole[i] != split[i] {
			t.Errorf("event[%d] = %#v, want %#v", i, split[i], whole[i])
		}
	}
}

func TestStream_DoneSentinelEndsCleanly(t *testing.T) {
	payload := "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\ndata: [DONE]\n\n"
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewSSEDecoder())

	events := drain(t, s)

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if s.State() != StateComplete {
		t.Errorf("State() = %v, want complete", s.State())
	}
}

// blockingReader serves its payload on the first Read, then blocks until
// released, like a server that keeps the connection open after the
// logical stream ended.
type blockingReader struct {
	payload string
	served  bool
	release chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	if !r.served {
		r.served = true
		return copy(p, r.payload), nil
	}
	<-r.release
	return 0, io.EOF
}

func (r *blockingReader) Close() error { return nil }

func TestStream_DoneSentinelDoesNotWaitForTransportEOF(t *testing.T) {
	body := &blockingReader{
		payload: "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\ndata: [DONE]\n\n",
		release: make(chan struct{}),
	}
	defer close(body.release)

	s := New(context.Background(), body, NewSSEDecoder())

	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	// [DONE] has been consumed; the next call must end the stream without
	// touching the transport again.
	done := make(chan error, 1)
	go func() {
		_, err := s.Next()
		done <- err
	}()

	select {
	case err := <-done:
		if err != io.EOF {
			t.Fatalf("Next() after [DONE] error = %v, want io.EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next() blocked on the transport after [DONE]")
	}

	if s.State() != StateComplete {
		t.Errorf("State() = %v, want complete", s.State())
	}
}

func TestStream_JSONArrayFraming(t *testing.T) {
	payload := `[{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"one"}},` +
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" two"}},` +
		`{"type":"message_stop"}]`
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewJSONArrayDecoder())

	events := drain(t, s)

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if got := s.Message().Text(); got != "one two" {
		t.Errorf("Text() = %q, want \"one two\"", got)
	}
}

func TestStream_TruncatedStreamIsFramingError(t *testing.T) {
	payload := "data: {\"type\":\"ping\"}\n\ndata: {\"trunc" // ends mid-frame
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewSSEDecoder())

	var lastErr error
	for {
		_, err := s.Next()
		if err != nil {
			lastErr = err
			break
		}
	}

	if !IsFramingError(lastErr) {
		t.Errorf("terminal error = %v, want FramingError", lastErr)
	}
	if s.State() != StateError {
		t.Errorf("State() = %v, want error", s.State())
	}
}

func TestStream_FramesBeforeFramingErrorDelivered(t *testing.T) {
	// One complete object, then garbage in the same chunk: the decoded
	// frame must come out before the error.
	payload := `[{"type":"ping"} garbage`
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewJSONArrayDecoder())

	ev, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v, want the frame decoded before the break", err)
	}
	if _, ok := ev.(Heartbeat); !ok {
		t.Errorf("event = %T, want Heartbeat", ev)
	}

	_, err = s.Next()
	if !IsFramingError(err) {
		t.Errorf("Next() error = %v, want FramingError", err)
	}
	if s.State() != StateError {
		t.Errorf("State() = %v, want error", s.State())
	}
}

func TestStream_InBandErrorEventDoesNotEndStream(t *testing.T) {
	payload := "data: not json at all\n\n" +
		"data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"ok\"}}\n\n" +
		"data: [DONE]\n\n"
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewSSEDecoder())

	events := drain(t, s)

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (error event + delta)", len(events))
	}
	if _, ok := events[0].(ErrorEvent); !ok {
		t.Errorf("event[0] = %T, want ErrorEvent", events[0])
	}
	if _, ok := events[1].(ContentDelta); !ok {
		t.Errorf("event[1] = %T, want ContentDelta", events[1])
	}
}

func TestStream_UnknownEventsSkipped(t *testing.T) {
	payload := "data: {\"type\":\"future_thing\"}\n\n" +
		"data: {\"type\":\"message_stop\"}\n\n"
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewSSEDecoder())

	events := drain(t, s)

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (unknown skipped)", len(events))
	}
	if _, ok := events[0].(MessageStop); !ok {
		t.Errorf("event[0] = %T, want MessageStop", events[0])
	}
}

func TestStream_TransportErrorSurfaced(t *testing.T) {
	readErr := errors.New("connection reset by peer")
	s := New(context.Background(), &chunkReader{err: readErr}, NewSSEDecoder())

	_, err := s.Next()
	if err == nil || !errors.Is(err, readErr) {
		t.Errorf("Next() error = %v, want wrapped transport error", err)
	}
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(ctx, &chunkReader{chunks: []string{sampleSSE}}, NewSSEDecoder())

	_, err := s.Next()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestStream_CloseBeforeEnd(t *testing.T) {
	body := &chunkReader{chunks: []string{sampleSSE}}
	s := New(context.Background(), body, NewSSEDecoder())

	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !body.closed {
		t.Error("underlying body not closed")
	}

	if _, err := s.Next(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Next() after Close error = %v, want ErrStreamClosed", err)
	}

	// The partial message reflects events observed before closing.
	if s.Message() == nil {
		t.Error("Message() = nil after close, want partial response")
	}
}

func TestStream_NextAfterEOFStaysEOF(t *testing.T) {
	s := New(context.Background(), &chunkReader{chunks: []string{"data: [DONE]\n\n"}}, NewSSEDecoder())

	drain(t, s)
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next() after completion error = %v, want io.EOF", err)
	}
}

func TestStream_MessageMidStream(t *testing.T) {
	payload := "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n" +
		"data: {\"type\":\"message_stop\"}\n\n"
	s := New(context.Background(), &chunkReader{chunks: []string{payload}}, NewSSEDecoder())

	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got := s.Message().Text(); got != "partial" {
		t.Errorf("mid-stream Text() = %q, want \"partial\"", got)
	}

	drain(t, s)
	if got := s.Message().Text(); got != "partial" {
		t.Errorf("final Text() = %q, want \"partial\"", got)
	}
}

var _ io.ReadCloser = (*chunkReader)(nil)
