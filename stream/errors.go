package stream

import "errors"

// ErrStreamClosed is returned by Next after Close was called before the
// stream reached a terminal state.
var ErrStreamClosed = errors.New("stream: closed")

// FramingError reports a structurally broken byte stream: a malformed
// frame, a brace mismatch, or a stream that ended mid-frame. It is fatal
// for the stream it occurred on, but reflects a decoding problem rather
// than service health, so it never feeds circuit breaker failure counts.
type FramingError struct {
	Msg string
}

// Error implements the error interface.
func (e *FramingError) Error() string {
	return "stream: framing: " + e.Msg
}

// IsFramingError reports whether err is a FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}
