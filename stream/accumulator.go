package stream

import (
	"sort"
	"strings"
)

// ContentBlock is one assembled content entry of a completed response.
// Text holds the concatenated text for text and thinking blocks; ToolArgs
// holds the concatenated argument JSON for tool-call blocks.
type ContentBlock struct {
	Kind     ContentKind
	Text     string
	ToolID   string
	ToolName string
	ToolArgs string
}

// Response is the completed logical response, equivalent to what the
// non-streaming endpoint would have returned.
type Response struct {
	ID           string
	Model        string
	Content      []ContentBlock
	Usage        Usage
	FinishReason string
}

// Text returns the concatenation of all text blocks, in index order.
func (r *Response) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		if c.Kind == KindText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// Accumulator folds an ordered sequence of events into one Response.
// It belongs to exactly one stream and is not safe for concurrent use.
type Accumulator struct {
	id      string
	model   string
	blocks  map[int]*blockAccum
	usage   Usage
	finish  string
	final   *Response
}

type blockAccum struct {
	kind     ContentKind
	text     strings.Builder
	toolID   string
	toolName string
	toolArgs strings.Builder
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{blocks: make(map[int]*blockAccum)}
}

// Add folds one event into the working response. ContentDelta events append
// to the buffer at their index; MessageDelta events overwrite the working
// usage and finish reason with the latest values seen. Every other event
// kind either sets block metadata (MessageStart, ContentStart) or is a
// no-op for accumulation purposes.
func (a *Accumulator) Add(ev Event) {
	switch e := ev.(type) {
	case MessageStart:
		a.id = e.ID
		a.model = e.Model
		a.usage.InputTokens = e.InputTokens

	case ContentStart:
		b := a.block(e.Index)
		b.kind = e.Kind
		b.toolID = e.ToolID
		b.toolName = e.ToolName

	case ContentDelta:
		b := a.block(e.Index)
		if e.Kind == KindToolArgs {
			b.kind = KindToolArgs
			b.toolArgs.WriteString(e.Text)
		} else {
			b.text.WriteString(e.Text)
		}

	case MessageDelta:
		// Last write wins.
		if e.FinishReason != "" {
			a.finish = e.FinishReason
		}
		if e.Usage.InputTokens != 0 {
			a.usage.InputTokens = e.Usage.InputTokens
		}
		if e.Usage.OutputTokens != 0 {
			a.usage.OutputTokens = e.Usage.OutputTokens
		}
	}
	// ContentStop, MessageStop, Heartbeat, ErrorEvent and Unknown do not
	// contribute to the accumulated response.
}

// Finalize assembles the buffers, in index order, into the completed
// Response. It is idempotent; an accumulator that never received a chunk
// finalizes to an empty but valid Response.
func (a *Accumulator) Finalize() *Response {
	if a.final != nil {
		return a.final
	}
	a.final = a.assemble()
	return a.final
}

// assemble builds the response from the current buffers without freezing
// the accumulator, so a partial view can be taken mid-stream.
func (a *Accumulator) assemble() *Response {
	indexes := make([]int, 0, len(a.blocks))
	for i := range a.blocks {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	resp := &Response{
		ID:           a.id,
		Model:        a.model,
		Usage:        a.usage,
		FinishReason: a.finish,
	}
	for _, i := range indexes {
		b := a.blocks[i]
		resp.Content = append(resp.Content, ContentBlock{
			Kind:     b.kind,
			Text:     b.text.String(),
			ToolID:   b.toolID,
			ToolName: b.toolName,
			ToolArgs: b.toolArgs.String(),
		})
	}

	return resp
}

func (a *Accumulator) block(i int) *blockAccum {
	b, ok := a.blocks[i]
	if !ok {
		b = &blockAccum{}
		a.blocks[i] = b
	}
	return b
}
