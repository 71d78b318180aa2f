package stream

import (
	"bytes"
	"fmt"
)

// JSONArrayDecoder implements chunked-JSON-array framing: the server emits
// one top-level JSON array incrementally, so the array brackets and item
// separators may arrive split anywhere across chunks. The decoder counts
// brace depth over `{`/`}` to find successive complete top-level objects,
// skipping braces inside quoted strings per RFC 8259 backslash escaping,
// and yields each object's raw text as a frame as soon as it is complete.
//
// The enclosing `[`, `]` and the `,` separators between top-level objects
// are consumed by the decoder and never appear in frames. The array need
// not close before objects are handed to the consumer.
type JSONArrayDecoder struct {
	obj      bytes.Buffer
	depth    int
	inString bool
	escaped  bool
	started  bool
	closed   bool
}

// NewJSONArrayDecoder creates a decoder for chunked-JSON-array framing.
func NewJSONArrayDecoder() *JSONArrayDecoder {
	return &JSONArrayDecoder{}
}

// Feed appends a chunk and returns the frames it completed.
func (d *JSONArrayDecoder) Feed(p []byte) ([]Frame, error) {
	var frames []Frame

	for _, c := range p {
		if d.depth > 0 {
			d.obj.WriteByte(c)

			if d.inString {
				switch {
				case d.escaped:
					d.escaped = false
				case c == '\\':
					d.escaped = true
				case c == '"':
					d.inString = false
				}
				continue
			}

			switch c {
			case '"':
				d.inString = true
			case '{':
				d.depth++
			case '}':
				d.depth--
				if d.depth == 0 {
					frames = append(frames, Frame{Data: d.obj.String()})
					d.obj.Reset()
				}
			}
			continue
		}

		// Between top-level objects.
		switch c {
		case '{':
			if d.closed {
				return frames, &FramingError{Msg: "object after array close"}
			}
			d.depth = 1
			d.obj.Reset()
			d.obj.WriteByte(c)
		case '[':
			if d.started {
				return frames, &FramingError{Msg: "unexpected '[' between objects"}
			}
			d.started = true
		case ']':
			if !d.started || d.closed {
				return frames, &FramingError{Msg: "unexpected ']'"}
			}
			d.closed = true
		case ',', ' ', '\t', '\r', '\n':
			// Separators and whitespace between objects.
		default:
			return frames, &FramingError{Msg: fmt.Sprintf("unexpected byte %q outside object", c)}
		}
	}

	return frames, nil
}

// Finish flags a stream that ended inside an object. A stream that ends
// with complete objects but an unclosed array is accepted; several servers
// drop the connection without the trailing bracket.
func (d *JSONArrayDecoder) Finish() error {
	if d.depth > 0 || d.inString {
		return &FramingError{Msg: "stream ended mid-object"}
	}
	return nil
}
