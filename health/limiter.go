package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/llmops/resilience"
)

// LimiterCheckerConfig configures the rate limiter checker.
type LimiterCheckerConfig struct {
	// DegradedBelow marks the limiter degraded when the available token
	// fraction of the burst capacity drops under this value.
	// Default: 0.1
	DegradedBelow float64

	// Burst is the limiter's bucket capacity, used to compute the
	// available fraction. Required.
	Burst int
}

// LimiterChecker reports the saturation of a provider rate limiter.
// An exhausted bucket is not a failure, so the worst it reports is Degraded.
type LimiterChecker struct {
	name    string
	limiter *resilience.RateLimiter
	config  LimiterCheckerConfig
}

// NewLimiterChecker creates a checker for the given rate limiter.
func NewLimiterChecker(name string, limiter *resilience.RateLimiter, config LimiterCheckerConfig) *LimiterChecker {
	if config.DegradedBelow <= 0 {
		config.DegradedBelow = 0.1
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &LimiterChecker{name: name, limiter: limiter, config: config}
}

// Name returns the checker name.
func (c *LimiterChecker) Name() string {
	return "limiter." + c.name
}

// Check reports limiter saturation.
func (c *LimiterChecker) Check(_ context.Context) Result {
	tokens := c.limiter.Tokens()
	fraction := tokens / float64(c.config.Burst)

	details := map[string]any{
		"tokens": tokens,
		"burst":  c.config.Burst,
	}

	if fraction < c.config.DegradedBelow {
		return Degraded(fmt.Sprintf("%s rate limiter near exhaustion", c.name)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%s rate limiter has capacity", c.name)).WithDetails(details)
}

// Ensure LimiterChecker implements Checker
var _ Checker = (*LimiterChecker)(nil)
