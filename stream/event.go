package stream

// ContentKind identifies the kind of content a block carries.
type ContentKind int

const (
	// KindText is assistant-visible text content.
	KindText ContentKind = iota
	// KindToolArgs is a tool call's argument JSON, streamed in fragments.
	KindToolArgs
	// KindThinking is model reasoning content.
	KindThinking
)

// String returns the string representation of the content kind.
func (k ContentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindToolArgs:
		return "tool_args"
	case KindThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// Usage holds token accounting for one logical request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Event is a sealed interface representing one typed streaming event.
// Events are created per frame, consumed once by the caller or the
// accumulator, and not retained afterward. The unexported marker method
// prevents external implementations.
type Event interface {
	event()
}

// MessageStart opens a logical message and carries its identity and input
// token count.
type MessageStart struct {
	ID          string
	Model       string
	InputTokens int
}

func (MessageStart) event() {}

// ContentStart opens the content block at Index. For tool-call blocks it
// carries the tool identity; argument JSON follows in ContentDelta events.
type ContentStart struct {
	Index    int
	Kind     ContentKind
	ToolID   string
	ToolName string
}

func (ContentStart) event() {}

// ContentDelta appends a payload fragment to the content block at Index.
// For KindToolArgs the Text field carries a JSON fragment of the tool
// call's arguments.
type ContentDelta struct {
	Index int
	Kind  ContentKind
	Text  string
}

func (ContentDelta) event() {}

// ContentStop closes the content block at Index.
type ContentStop struct {
	Index int
}

func (ContentStop) event() {}

// MessageDelta updates the working usage and finish reason. The latest
// values seen win.
type MessageDelta struct {
	FinishReason string
	Usage        Usage
}

func (MessageDelta) event() {}

// MessageStop ends the logical message.
type MessageStop struct{}

func (MessageStop) event() {}

// Heartbeat is a server keepalive carrying no payload.
type Heartbeat struct{}

func (Heartbeat) event() {}

// ErrorEvent surfaces an in-band error: either an error payload sent by the
// server or a malformed frame the parser could not decode. The consumer may
// continue reading or abort; the stream itself keeps going.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) event() {}

// Unknown is an unrecognized event discriminator, preserved so new
// server-side protocol additions degrade gracefully instead of failing the
// stream. Consumers ignore it.
type Unknown struct {
	Type string
}

func (Unknown) event() {}

// Interface compliance checks.
var (
	_ Event = MessageStart{}
	_ Event = ContentStart{}
	_ Event = ContentDelta{}
	_ Event = ContentStop{}
	_ Event = MessageDelta{}
	_ Event = MessageStop{}
	_ Event = Heartbeat{}
	_ Event = ErrorEvent{}
	_ Event = Unknown{}
)
