package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/llmops/apierr"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt,
	// so at most MaxRetries+1 attempts are made.
	// Default: 3
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 200ms
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// AttemptTimeout is the per-attempt deadline. A timed-out attempt is
	// treated as a retryable transient failure and counts toward
	// MaxRetries. Zero means no per-attempt deadline.
	AttemptTimeout time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: apierr.Retryable.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry repeats an idempotent-safe operation with bounded, jittered
// exponential backoff. Errors are classified through apierr: timeouts,
// connection failures, HTTP 429 and 5xx are retried; other 4xx and
// unclassified errors fail immediately.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 200 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.RetryIf == nil {
		config.RetryIf = apierr.Retryable
	}

	return &Retry{config: config}
}

// Execute runs the operation with retry logic. On fatal error or retry
// exhaustion the last error is returned wrapped in an [AttemptError]
// carrying the total attempt count and elapsed time. Cancellation of ctx
// aborts the loop and returns ctx.Err() unwrapped.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	start := time.Now()
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		attempts++
		err := r.runAttempt(ctx, op)

		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			// Cancelled mid-call; the outcome was never observed.
			return ctx.Err()
		}

		lastErr = err

		if !r.config.RetryIf(err) || attempt >= r.config.MaxRetries {
			break
		}

		delay := r.backoff(attempt)
		if hint, ok := apierr.RetryAfterHint(err); ok {
			delay = hint
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Continue to next attempt.
		}
	}

	return &AttemptError{
		Attempts: attempts,
		Elapsed:  time.Since(start),
		Err:      lastErr,
	}
}

func (r *Retry) runAttempt(ctx context.Context, op func(context.Context) error) error {
	if r.config.AttemptTimeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.config.AttemptTimeout)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return apierr.NewTransient("attempt timed out", err)
	}
	return err
}

// backoff computes min(MaxDelay, BaseDelay*2^attempt) with symmetric
// +/-50% jitter.
func (r *Retry) backoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(r.config.BaseDelay) * math.Pow(2, float64(attempt)))
	if delay <= 0 || delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	// #nosec G404 -- jitter is non-cryptographic timing variance.
	jittered := time.Duration(float64(delay) * (0.5 + rand.Float64()))
	return jittered
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// AttemptError annotates a final retry outcome with the number of attempts
// made and the total time spent.
type AttemptError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Error implements the error interface.
func (e *AttemptError) Error() string {
	return fmt.Sprintf("after %d attempt(s) in %s: %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

// Unwrap returns the last attempt's error.
func (e *AttemptError) Unwrap() error {
	return e.Err
}
