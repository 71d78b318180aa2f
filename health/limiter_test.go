package health

import (
	"context"
	"testing"

	"github.com/jonwraymond/llmops/resilience"
)

// TestLimiterChecker_FullBucket verifies a fresh limiter reports healthy.
func TestLimiterChecker_FullBucket(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 10, Burst: 10})
	c := NewLimiterChecker("anthropic", rl, LimiterCheckerConfig{Burst: 10})

	if c.Name() != "limiter.anthropic" {
		t.Errorf("Name() = %q", c.Name())
	}

	r := c.Check(context.Background())
	if r.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy for full bucket", r.Status)
	}
	if r.Details["burst"] != 10 {
		t.Errorf("burst detail = %v", r.Details["burst"])
	}
}

// TestLimiterChecker_Exhausted verifies an empty bucket reports degraded, not
// unhealthy: throttling is expected behavior.
func TestLimiterChecker_Exhausted(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 0.001, Burst: 2})
	rl.TryAcquire()
	rl.TryAcquire()

	c := NewLimiterChecker("anthropic", rl, LimiterCheckerConfig{Burst: 2})
	r := c.Check(context.Background())
	if r.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded for exhausted bucket", r.Status)
	}
}

// TestLimiterChecker_Defaults verifies zero config gets usable defaults.
func TestLimiterChecker_Defaults(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{})
	c := NewLimiterChecker("x", rl, LimiterCheckerConfig{})

	if c.config.DegradedBelow != 0.1 {
		t.Errorf("DegradedBelow = %v, want 0.1", c.config.DegradedBelow)
	}
	if c.config.Burst != 1 {
		t.Errorf("Burst = %v, want 1", c.config.Burst)
	}
}
