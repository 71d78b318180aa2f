package stream

import (
	"bytes"
	"strings"
)

// doneSentinel terminates the logical event sequence without being emitted
// as a frame or an error.
const doneSentinel = "[DONE]"

// SSEDecoder implements text/event-stream framing. A frame boundary is a
// blank line; within a frame, `event:`, `id:` and `data:` lines are parsed
// and multiple data lines are joined with a newline. Comment lines
// (starting with ':') and unknown fields are ignored.
type SSEDecoder struct {
	buf       []byte
	eventType string
	id        string
	dataLines []string
	done      bool
}

// NewSSEDecoder creates a decoder for event-stream framing.
func NewSSEDecoder() *SSEDecoder {
	return &SSEDecoder{}
}

// Feed appends a chunk and returns the frames it completed.
func (d *SSEDecoder) Feed(p []byte) ([]Frame, error) {
	if d.done {
		// Everything after [DONE] is ignored.
		return nil, nil
	}

	d.buf = append(d.buf, p...)

	var frames []Frame
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := string(d.buf[:i])
		d.buf = d.buf[i+1:]

		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			// Blank line ends the frame.
			if frame, ok := d.endFrame(); ok {
				frames = append(frames, frame)
			}
			if d.done {
				d.buf = nil
				break
			}
			continue
		}

		d.parseLine(line)
	}

	return frames, nil
}

// Finish flags a stream that ended with a partially buffered frame.
func (d *SSEDecoder) Finish() error {
	if d.done {
		return nil
	}
	if len(bytes.TrimSpace(d.buf)) > 0 || len(d.dataLines) > 0 || d.eventType != "" || d.id != "" {
		return &FramingError{Msg: "stream ended mid-frame"}
	}
	return nil
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *SSEDecoder) Done() bool {
	return d.done
}

func (d *SSEDecoder) parseLine(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}

	field, value, found := strings.Cut(line, ":")
	if !found {
		return
	}
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		d.eventType = value
	case "id":
		d.id = value
	case "data":
		d.dataLines = append(d.dataLines, value)
	}
}

func (d *SSEDecoder) endFrame() (Frame, bool) {
	if len(d.dataLines) == 0 {
		// An event with no data carries nothing; reset and move on.
		d.eventType = ""
		d.id = ""
		return Frame{}, false
	}

	data := strings.Join(d.dataLines, "\n")
	frame := Frame{
		EventType: d.eventType,
		ID:        d.id,
		Data:      data,
	}
	d.eventType = ""
	d.id = ""
	d.dataLines = nil

	if data == doneSentinel {
		d.done = true
		return Frame{}, false
	}
	return frame, true
}
