package rtapi

import (
	"sync"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// BreakerState enumerates the circuit breaker states.
type BreakerState string

// Circuit breaker states.
const (
	// BreakerClosed admits every call. This is the initial state.
	BreakerClosed BreakerState = "closed"

	// BreakerOpen rejects every call until the cooldown elapses.
	BreakerOpen BreakerState = "open"

	// BreakerHalfOpen admits a single trial call after the cooldown.
	BreakerHalfOpen BreakerState = "half-open"
)

// CircuitBreakerConfig configures the breaker thresholds.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// breaker.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before admitting a
	// half-open trial.
	Cooldown time.Duration
}

// DefaultCircuitBreakerConfig returns the default breaker configuration.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		FailureThreshold: constants.CircuitBreakerFailureThreshold,
		Cooldown:         constants.CircuitBreakerCooldown,
	}
}

// BreakerSnapshot is a read-only view of the breaker state. Zero
// timestamps mean the breaker has not recorded a failure yet.
type BreakerSnapshot struct {
	State           BreakerState `json:"state"             yaml:"state"`
	FailureCount    int          `json:"failure_count"     yaml:"failure_count"`
	LastFailureTime time.Time    `json:"last_failure_time" yaml:"last_failure_time"`
	NextAttemptTime time.Time    `json:"next_attempt_time" yaml:"next_attempt_time"`
}

// CircuitBreaker gates outbound calls through a three state machine so
// a failing backend is not hammered while it recovers. State moves only
// through the transition rules below; the single external override is
// Reset.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      CircuitBreakerConfig
	state       BreakerState
	failures    int
	lastFailure time.Time
	nextAttempt time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}

	cfg := *config
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = constants.CircuitBreakerFailureThreshold
	}

	if cfg.Cooldown <= 0 {
		cfg.Cooldown = constants.CircuitBreakerCooldown
	}

	return &CircuitBreaker{
		config: cfg,
		state:  BreakerClosed,
	}
}

// Allow reports whether a call may proceed. While open it rejects until
// the cooldown has elapsed, then flips to half-open and admits exactly
// one trial call; further calls are rejected until the trial resolves
// through RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if !time.Now().Before(b.nextAttempt) {
			b.state = BreakerHalfOpen

			return true
		}

		return false
	case BreakerHalfOpen:
		// A trial call is already in flight.
		return false
	default:
		return false
	}
}

// RecordSuccess resets the breaker to closed after a successful call.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
	b.lastFailure = time.Time{}
	b.nextAttempt = time.Time{}
}

// RecordFailure counts a failed call. Reaching the failure threshold
// opens the breaker and re-arms the cooldown, also when it was already
// open or half-open.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.failures >= b.config.FailureThreshold {
		b.state = BreakerOpen
		b.nextAttempt = b.lastFailure.Add(b.config.Cooldown)
	}
}

// Reset unconditionally returns the breaker to the closed state. It is
// meant for operator recovery, not for regular control flow.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
	b.lastFailure = time.Time{}
	b.nextAttempt = time.Time{}
}

// State returns the current state without side effects. A breaker whose
// cooldown has elapsed still reports open here; the half-open transition
// happens on the next admitted call.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Snapshot returns a read-only view of the breaker.
func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerSnapshot{
		State:           b.state,
		FailureCount:    b.failures,
		LastFailureTime: b.lastFailure,
		NextAttemptTime: b.nextAttempt,
	}
}
