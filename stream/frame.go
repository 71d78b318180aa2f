package stream

// Frame is one complete, self-contained unit of streaming protocol data
// extracted from a byte buffer. For event-stream framing EventType and ID
// carry the optional `event:` and `id:` fields; for chunked-JSON-array
// framing Data holds one complete top-level object's raw text.
//
// A frame is only ever emitted once its content is structurally complete.
type Frame struct {
	EventType string
	ID        string
	Data      string
}

// FrameDecoder consumes raw byte chunks from a transport and emits discrete
// protocol frames.
//
// Feed appends a chunk and returns every frame the chunk completed, in
// order; a single chunk may complete zero, one, or many frames. Incomplete
// trailing bytes are retained across calls. Finish flags unterminated
// trailing data once the underlying stream has ended.
//
// Implementations are not safe for concurrent use; a decoder belongs to
// exactly one stream.
type FrameDecoder interface {
	Feed(p []byte) ([]Frame, error)
	Finish() error
}
