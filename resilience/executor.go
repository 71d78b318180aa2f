package resilience

import (
	"context"
	"errors"
)

// Executor composes the rate limiter, circuit breaker and retry loop around
// a caller-supplied operation. It is the single entry point every service
// call goes through.
type Executor struct {
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	retry          *Retry
	bulkhead       *Bulkhead
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor. Components that are not
// configured are skipped.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds a rate limiter to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// CircuitBreaker returns the configured circuit breaker, if any.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// RateLimiter returns the configured rate limiter, if any.
func (e *Executor) RateLimiter() *RateLimiter {
	return e.rateLimiter
}

// Execute runs the operation through the configured resilience layers:
//
//  1. Rate limiter acquisition: suspend until budget is available (or fail
//     fast under the reject-on-limit policy).
//  2. Circuit breaker admission: if the breaker rejects the call, fail
//     immediately with ErrCircuitOpen. Neither the operation nor the retry
//     loop runs.
//  3. The retry loop drives the operation itself, one attempt at a time.
//  4. The breaker records success or failure exactly once per logical call,
//     from the final outcome, not once per attempt. A call cancelled before
//     its outcome was observed records neither.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e.rateLimiter != nil {
		if e.rateLimiter.config.RejectOnLimit {
			if !e.rateLimiter.TryAcquire() {
				return ErrRateLimitExceeded
			}
		} else if err := e.rateLimiter.Acquire(ctx); err != nil {
			return err
		}
	}

	if e.bulkhead != nil {
		if err := e.bulkhead.Acquire(ctx); err != nil {
			return err
		}
		defer e.bulkhead.Release()
	}

	if e.circuitBreaker != nil && !e.circuitBreaker.Allow() {
		return ErrCircuitOpen
	}

	var err error
	if e.retry != nil {
		err = e.retry.Execute(ctx, op)
	} else {
		err = op(ctx)
	}

	if e.circuitBreaker != nil {
		switch {
		case err != nil && errors.Is(err, ctx.Err()) && ctx.Err() != nil:
			// Cancelled before completion: no outcome was observed, so
			// the breaker counters stay untouched.
			e.circuitBreaker.CancelProbe()
		case err != nil:
			e.circuitBreaker.RecordFailure()
		default:
			e.circuitBreaker.RecordSuccess()
		}
	}

	return err
}
