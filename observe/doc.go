// Package observe provides observability primitives for provider calls.
//
// It is a pure instrumentation library: no transport, no retries, no I/O
// beyond exporter setup. Consumers wire the observer into the call pipeline
// or their own middleware.
package observe
