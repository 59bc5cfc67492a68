package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_ReportsTransitions(t *testing.T) {
	b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	if b == nil {
		t.Fatalf("expected breaker when enabled")
	}

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	var got []CircuitState
	b.OnStateChange(func(_, to CircuitState) { got = append(got, to) })

	b.RecordFailure()
	now = now.Add(DefaultCircuitBreakerConfig().OpenTimeout)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe after open timeout: %v", err)
	}
	b.RecordSuccess()

	want := []CircuitState{CircuitStateOpen, CircuitStateHalfOpen, CircuitStateClosed}
	if len(got) != len(want) {
		t.Fatalf("unexpected transitions: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", got)
		}
	}
}

func TestNewCircuitBreakerFromConfig_Disabled(t *testing.T) {
	if b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{}); b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
}

func TestCircuitBreaker_CanceledHalfOpenCallKeepsState(t *testing.T) {
	b := NewCircuitBreaker(1, 5*time.Second, 1)

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open call to pass, got %v", err)
	}

	b.RecordCanceled()
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after canceled call, got %s", state)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected released slot to admit another call, got %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after half-open failure, got %s", state)
	}
}
