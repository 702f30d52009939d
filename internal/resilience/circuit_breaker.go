package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// ErrCircuitOpen is returned by Allow when the breaker is open and the
// cooldown window has not yet elapsed — the caller should mark the
// adapter degraded and fold this into a ProviderUnavailable Finding.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig configures the per-adapter degradation window from §7
// (ProviderRejected marks an adapter degraded for a cooldown window).
type BreakerConfig struct {
	MaxFailures int
	Cooldown    time.Duration
	HalfOpenMax int
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 5, Cooldown: 30 * time.Second, HalfOpenMax: 1}
}

// CircuitBreaker tracks one Provider Adapter's health across calls.
type CircuitBreaker struct {
	mu           sync.Mutex
	cfg          BreakerConfig
	state        State
	failures     int
	halfOpenReqs int
	openedAt     time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a call should proceed, transitioning open ->
// half-open once the cooldown has elapsed.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.openedAt) < b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.halfOpenReqs = 0
		return nil
	case StateHalfOpen:
		if b.halfOpenReqs >= b.cfg.HalfOpenMax {
			return ErrCircuitOpen
		}
		b.halfOpenReqs++
		return nil
	default:
		return nil
	}
}

// RecordSuccess resets failure tracking and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// RecordFailure opens the breaker once failures reach MaxFailures.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = time.Now()
		return
	}

	b.failures++
	if b.failures >= b.cfg.MaxFailures {
		b.state = StateOpen
		b.openedAt = time.Now()
	}
}

// Snapshot returns the current state for status endpoints and tests.
func (b *CircuitBreaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
