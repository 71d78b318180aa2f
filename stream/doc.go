// Package stream turns an incoming byte stream into typed, ordered events
// that can be consumed live or folded into one final response.
//
// The pipeline has three stages. A [FrameDecoder] consumes raw byte chunks
// and emits discrete protocol frames; two interchangeable framings are
// provided, [SSEDecoder] for text/event-stream payloads and
// [JSONArrayDecoder] for servers that stream one top-level JSON array
// incrementally. [Parse] deserializes a frame's payload into an [Event].
// An [Accumulator] folds an ordered event sequence into the [Response] the
// non-streaming endpoint would have returned.
//
// [Stream] wires the three stages over an io.ReadCloser supplied by the
// transport:
//
//	s := stream.New(ctx, body, stream.NewSSEDecoder())
//	defer s.Close()
//	for {
//	    ev, err := s.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // handle ev
//	}
//	resp, _ := s.Message()
//
// Events are delivered in exactly the order their frames were decoded.
// Unrecognized event kinds are skipped rather than surfaced as errors, so
// new server-side protocol additions degrade gracefully. Malformed payloads
// are surfaced in-band as [ErrorEvent], letting the consumer continue or
// abort; only framing problems (a structurally broken byte stream) end the
// stream with an error.
package stream
