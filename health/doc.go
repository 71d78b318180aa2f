// Package health provides health checking primitives for provider clients.
//
// This package implements a generic health checking framework used to monitor
// the resilience machinery around provider calls: circuit breakers, rate
// limiters, and anything else that can report a status. It provides interfaces
// for defining health checks, aggregating results from multiple checkers, and
// exposing health status via HTTP endpoints.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
//	check := health.NewBreakerChecker("anthropic", breaker)
//
//	result := check.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("breaker open: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("breaker.anthropic", breakerChecker)
//	agg.Register("limiter.anthropic", limiterChecker)
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
