package stream

import (
	"encoding/json"
	"fmt"
)

// ParseError reports a frame whose payload could not be decoded: invalid
// JSON or a missing required field. It is surfaced in-band as an
// [ErrorEvent], never as a stream-terminating error.
type ParseError struct {
	EventType string
	Msg       string
	Err       error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.EventType != "" {
		return fmt.Sprintf("stream: parse %s: %s", e.EventType, e.Msg)
	}
	return "stream: parse: " + e.Msg
}

// Unwrap returns the underlying decode error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// wireEvent is the superset shape of every event payload on the wire.
type wireEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Message *struct {
		ID    string    `json:"id"`
		Model string    `json:"model"`
		Usage wireUsage `json:"usage"`
	} `json:"message"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta *struct {
		Type        string  `json:"type"`
		Text        string  `json:"text"`
		PartialJSON string  `json:"partial_json"`
		Thinking    string  `json:"thinking"`
		StopReason  *string `json:"stop_reason"`
	} `json:"delta"`
	Usage *wireUsage `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Parse deserializes a frame's payload into a typed event.
//
// The discriminator is the frame's EventType when the framing carries one
// (SSE `event:` lines) and the payload's `type` field otherwise. An
// unrecognized discriminator maps to [Unknown] rather than an error,
// preserving forward compatibility. A malformed payload maps to an
// [ErrorEvent] carrying a [ParseError], surfaced in-band so the consumer
// decides whether to continue.
func Parse(f Frame) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal([]byte(f.Data), &wire); err != nil {
		return ErrorEvent{Err: &ParseError{EventType: f.EventType, Msg: "invalid JSON payload", Err: err}}, nil
	}

	discriminator := f.EventType
	if discriminator == "" {
		discriminator = wire.Type
	}

	switch discriminator {
	case "message_start":
		if wire.Message == nil {
			return ErrorEvent{Err: &ParseError{EventType: discriminator, Msg: "missing message field"}}, nil
		}
		return MessageStart{
			ID:          wire.Message.ID,
			Model:       wire.Message.Model,
			InputTokens: wire.Message.Usage.InputTokens,
		}, nil

	case "content_block_start":
		if wire.ContentBlock == nil {
			return ErrorEvent{Err: &ParseError{EventType: discriminator, Msg: "missing content_block field"}}, nil
		}
		ev := ContentStart{Index: wire.Index}
		switch wire.ContentBlock.Type {
		case "tool_use":
			ev.Kind = KindToolArgs
			ev.ToolID = wire.ContentBlock.ID
			ev.ToolName = wire.ContentBlock.Name
		case "thinking":
			ev.Kind = KindThinking
		default:
			ev.Kind = KindText
		}
		return ev, nil

	case "content_block_delta":
		if wire.Delta == nil {
			return ErrorEvent{Err: &ParseError{EventType: discriminator, Msg: "missing delta field"}}, nil
		}
		switch wire.Delta.Type {
		case "text_delta":
			return ContentDelta{Index: wire.Index, Kind: KindText, Text: wire.Delta.Text}, nil
		case "input_json_delta":
			return ContentDelta{Index: wire.Index, Kind: KindToolArgs, Text: wire.Delta.PartialJSON}, nil
		case "thinking_delta":
			return ContentDelta{Index: wire.Index, Kind: KindThinking, Text: wire.Delta.Thinking}, nil
		default:
			return Unknown{Type: discriminator + "." + wire.Delta.Type}, nil
		}

	case "content_block_stop":
		return ContentStop{Index: wire.Index}, nil

	case "message_delta":
		ev := MessageDelta{}
		if wire.Delta != nil && wire.Delta.StopReason != nil {
			ev.FinishReason = *wire.Delta.StopReason
		}
		if wire.Usage != nil {
			ev.Usage = Usage{
				InputTokens:  wire.Usage.InputTokens,
				OutputTokens: wire.Usage.OutputTokens,
			}
		}
		return ev, nil

	case "message_stop":
		return MessageStop{}, nil

	case "ping":
		return Heartbeat{}, nil

	case "error":
		if wire.Error == nil {
			return ErrorEvent{Err: &ParseError{EventType: discriminator, Msg: "missing error field"}}, nil
		}
		return ErrorEvent{Err: fmt.Errorf("stream: server error %s: %s", wire.Error.Type, wire.Error.Message)}, nil

	default:
		return Unknown{Type: discriminator}, nil
	}
}
