package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/llmops/resilience"
)

// BreakerChecker reports the health of a circuit breaker guarding a provider.
//
// Mapping:
//   - Closed    -> Healthy
//   - HalfOpen  -> Degraded (probing recovery)
//   - Open      -> Unhealthy (calls are being rejected)
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for the given circuit breaker.
// The name identifies the guarded provider in aggregated output.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name returns the checker name.
func (c *BreakerChecker) Name() string {
	return "breaker." + c.name
}

// Check reports the breaker state.
func (c *BreakerChecker) Check(_ context.Context) Result {
	m := c.breaker.Metrics()

	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}

	switch m.State {
	case resilience.StateClosed:
		return Healthy(fmt.Sprintf("%s circuit closed", c.name)).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded(fmt.Sprintf("%s circuit probing recovery", c.name)).WithDetails(details)
	default:
		return Unhealthy(fmt.Sprintf("%s circuit open, calls rejected", c.name), ErrCheckFailed).WithDetails(details)
	}
}

// Ensure BreakerChecker implements Checker
var _ Checker = (*BreakerChecker)(nil)
