package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{MaxFailures: 2, Cooldown: time.Minute})

	if err := b.Allow(); err != nil {
		t.Fatalf("expected closed breaker to allow, got %v", err)
	}
	b.RecordFailure()
	b.RecordFailure()

	if b.Snapshot() != StateOpen {
		t.Fatalf("expected open after 2 failures, got %v", b.Snapshot())
	}
	if err := b.Allow(); err != ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenAfterCooldown(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{MaxFailures: 1, Cooldown: time.Millisecond, HalfOpenMax: 1})
	b.RecordFailure()
	if b.Snapshot() != StateOpen {
		t.Fatalf("expected open, got %v", b.Snapshot())
	}

	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open to allow one probe, got %v", err)
	}
	if b.Snapshot() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", b.Snapshot())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{MaxFailures: 1, Cooldown: time.Millisecond, HalfOpenMax: 1})
	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()

	b.RecordFailure()
	if b.Snapshot() != StateOpen {
		t.Fatalf("expected re-opened breaker after half-open failure, got %v", b.Snapshot())
	}
}

func TestCircuitBreakerSuccessClosesBreaker(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{MaxFailures: 1, Cooldown: time.Millisecond, HalfOpenMax: 1})
	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()

	b.RecordSuccess()
	if b.Snapshot() != StateClosed {
		t.Fatalf("expected closed after recorded success, got %v", b.Snapshot())
	}
}
