package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures within FailureWindow
	// before opening the circuit.
	// Default: 5
	FailureThreshold int

	// FailureWindow is the sliding window over which failures are counted.
	// Default: 60 seconds
	FailureWindow time.Duration

	// ResetTimeout is how long the circuit stays open before allowing
	// a half-open probe.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)
}

// CircuitBreaker implements the circuit breaker pattern.
//
// Closed admits all calls and counts failures in a sliding window. Reaching
// FailureThreshold opens the circuit, which rejects every call without a
// network attempt until ResetTimeout elapses. The circuit then goes
// half-open and admits exactly one probe call; the probe's outcome decides
// whether the circuit closes again or re-opens.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	// probeInFlight guards the single half-open probe slot. Concurrent
	// callers racing Allow() during half-open contend on this CAS, so at
	// most one proceeds.
	probeInFlight atomic.Bool

	mu          sync.Mutex
	state       State
	failures    int
	windowStart time.Time
	openedAt    time.Time
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.FailureWindow <= 0 {
		config.FailureWindow = 60 * time.Second
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Allow reports whether a call may proceed. In the half-open state only a
// single probe is admitted; every other concurrent caller is rejected until
// that probe's outcome is recorded.
//
// A caller admitted by Allow must report its outcome with RecordSuccess or
// RecordFailure, or release the probe slot with CancelProbe if the call was
// cancelled before an outcome was observed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateClosed:
		return true
	case StateHalfOpen:
		return cb.probeInFlight.CompareAndSwap(false, true)
	default:
		return false
	}
}

// RecordSuccess records a successful call outcome.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		// A success resets the failure window.
		cb.failures = 0
	case StateHalfOpen:
		// Successful probe, close the circuit.
		cb.probeInFlight.Store(false)
		cb.failures = 0
		cb.setStateLocked(StateClosed)
	}
}

// RecordFailure records a failed call outcome.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failures == 0 || now.Sub(cb.windowStart) > cb.config.FailureWindow {
			cb.failures = 0
			cb.windowStart = now
		}
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.openedAt = now
			cb.setStateLocked(StateOpen)
		}
	case StateHalfOpen:
		// Failed probe, re-open and restart the reset timer.
		cb.probeInFlight.Store(false)
		cb.openedAt = now
		cb.setStateLocked(StateOpen)
	}
}

// CancelProbe releases the half-open probe slot without recording an
// outcome. Callers use it when an admitted call was cancelled before
// completing, so the cancelled attempt counts as neither success nor
// failure.
func (cb *CircuitBreaker) CancelProbe() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.probeInFlight.Store(false)
	}
}

// Execute runs the operation through the circuit breaker. It is a
// convenience for standalone use; composed pipelines call Allow and the
// record methods directly so the breaker sees one outcome per logical call.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := op(ctx)
	if ctx.Err() != nil && err == ctx.Err() {
		// Cancelled before an outcome was observed.
		cb.CancelProbe()
		return err
	}
	if err != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probeInFlight.Store(false)
	cb.failures = 0
	cb.setStateLocked(StateClosed)
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.ResetTimeout {
		cb.probeInFlight.Store(false)
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(state State) {
	if cb.state == state {
		return
	}
	old := cb.state
	cb.state = state
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(old, state)
	}
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:    cb.currentStateLocked(),
		Failures: cb.failures,
		OpenedAt: cb.openedAt,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State    State
	Failures int
	OpenedAt time.Time
}
