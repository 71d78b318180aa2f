// Package resilience wraps network operations with rate limiting, circuit
// breaking and retry/backoff.
//
// Every provider client in this module issues its calls through one
// [Executor], which owns the shared mutable state (circuit breaker counters,
// rate limiter tokens) for that client instance. No global state is used;
// the executor is injected wherever calls are made.
//
// # Patterns
//
//   - Circuit Breaker: fails fast while a downstream service is unhealthy.
//     Failures are counted in a sliding window; the open circuit admits a
//     single half-open probe after a reset timeout.
//
//   - Rate Limiter: token bucket shared by all concurrent callers, with a
//     blocking acquire and a reject-on-limit policy.
//
//   - Retry: classifies errors as retryable (timeout, connection failure,
//     HTTP 429, HTTP 5xx) or fatal, and retries with bounded, jittered
//     exponential backoff. Server-supplied Retry-After hints override the
//     computed delay.
//
//   - Bulkhead: caps concurrent operations.
//
//   - Timeout: per-operation deadline.
//
// # Usage
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	        Rate:  5,
//	        Burst: 10,
//	    })),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        FailureThreshold: 5,
//	        ResetTimeout:     30 * time.Second,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxRetries: 3,
//	        BaseDelay:  200 * time.Millisecond,
//	    })),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callProvider(ctx)
//	})
//
// The breaker records one outcome per logical call, never one per retry
// attempt, and a call cancelled before completion records neither success
// nor failure.
package resilience
