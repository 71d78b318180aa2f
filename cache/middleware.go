package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// CallFunc is the function signature for executing a provider call.
type CallFunc func(ctx context.Context) ([]byte, error)

// CallInfo describes the call being considered for caching.
type CallInfo struct {
	Provider    string
	Operation   string
	Streaming   bool
	Temperature float64
}

// SkipRule determines whether to skip caching for a given call.
// Returns true if caching should be skipped.
type SkipRule func(info CallInfo) bool

// DefaultSkipRule skips caching for streamed responses: the consumer reads
// events incrementally and a byte replay would change observable behavior.
func DefaultSkipRule(info CallInfo) bool {
	return info.Streaming
}

// Middleware wraps provider calls with caching and in-flight coalescing.
// Identical concurrent misses execute the underlying call once and share
// the result.
type Middleware struct {
	cache    Cache
	keyer    Keyer
	policy   Policy
	skipRule SkipRule
	group    singleflight.Group
}

// NewMiddleware creates a new cache middleware.
// If skipRule is nil, DefaultSkipRule is used.
func NewMiddleware(cache Cache, keyer Keyer, policy Policy, skipRule SkipRule) *Middleware {
	if skipRule == nil {
		skipRule = DefaultSkipRule
	}
	return &Middleware{
		cache:    cache,
		keyer:    keyer,
		policy:   policy,
		skipRule: skipRule,
	}
}

// Execute runs the call with caching.
// On cache hit, returns the cached result without calling the function.
// On cache miss, coalesces identical concurrent calls, executes once and
// caches the result. Errors are NOT cached.
func (m *Middleware) Execute(ctx context.Context, info CallInfo, request any, call CallFunc) ([]byte, error) {
	if m.skipRule(info) {
		return call(ctx)
	}
	if info.Temperature > m.policy.MaxCacheableTemperature {
		// Sampled output is not deterministic; serving a cached answer
		// would silently change semantics.
		return call(ctx)
	}
	if !m.policy.ShouldCache() {
		return call(ctx)
	}

	key, err := m.keyer.Key(info.Provider, info.Operation, request)
	if err != nil {
		// Key generation failed - execute without caching
		return call(ctx)
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, nil
	}

	ch := m.group.DoChan(key, func() (any, error) {
		result, err := call(ctx)
		if err != nil {
			return nil, err
		}
		if ttl := m.policy.EffectiveTTL(0); ttl > 0 {
			_ = m.cache.Set(ctx, key, result, ttl)
		}
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		// The leader keeps running for other waiters; this caller bails.
		return nil, ctx.Err()
	}
}
