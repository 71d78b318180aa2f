// Package pipeline composes the resilience, caching, streaming and
// observability layers into a single client for provider calls.
//
// A Client owns one resilience executor plus optional response cache and
// telemetry. Non-streaming calls go through Execute; streamed calls go
// through OpenStream, where resilience applies to connection establishment
// and decode errors after a successful open never feed the circuit breaker.
package pipeline
