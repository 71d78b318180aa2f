// Package cache provides deterministic response caching for provider calls.
//
// It provides a Cache interface with a memory implementation, SHA-256-based
// key derivation from canonicalized requests, TTL policies, and a middleware
// that coalesces identical in-flight calls.
package cache
