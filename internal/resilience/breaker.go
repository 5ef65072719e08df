package resilience

import (
	"sync"
	"time"
)

// BreakerState is one state in the closed/open/half-open machine.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a per-adapter CircuitBreaker.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultBreakerConfig is a conservative default for a background
// publish path: three consecutive failures trips it, one success in
// half-open closes it again.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, Timeout: 30 * time.Second}
}

// CircuitBreaker tracks the health of one transport adapter's publish
// path, tripping open after consecutive failures and probing for
// recovery after Timeout elapses.
type CircuitBreaker struct {
	mu              sync.RWMutex
	cfg             BreakerConfig
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// NewCircuitBreaker returns a breaker starting in the closed state.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: Closed}
}

// CanAttempt reports whether a publish attempt should be tried now.
func (cb *CircuitBreaker) CanAttempt() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	switch cb.state {
	case Closed, HalfOpen:
		return true
	case Open:
		return time.Since(cb.lastFailureTime) > cb.cfg.Timeout
	default:
		return false
	}
}

// RecordSuccess transitions the breaker toward closed.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		cb.failureCount = 0
	case HalfOpen:
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.state = Closed
			cb.failureCount = 0
			cb.successCount = 0
		}
	case Open:
		if time.Since(cb.lastFailureTime) > cb.cfg.Timeout {
			cb.state = HalfOpen
			cb.successCount = 1
			cb.failureCount = 0
			if cb.successCount >= cb.cfg.SuccessThreshold {
				cb.state = Closed
				cb.successCount = 0
			}
		}
	}
}

// RecordFailure transitions the breaker toward open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case Closed:
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.state = Open
		}
	case HalfOpen:
		cb.state = Open
		cb.successCount = 0
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
