package infra

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock, failures, successes int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: failures,
		SuccessThreshold: successes,
		Cooldown:         time.Second,
		Now:              clock.Now,
	})
}

func TestCircuitBreaker_AllowInClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	if !cb.Allow() {
		t.Error("Expected Allow() to return true in CLOSED state")
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected state CLOSED, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Unix(0, 0)}, 3, 2)

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Error("Should still be CLOSED after 2 failures")
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Errorf("Expected OPEN after 3 failures, got %s", cb.GetState())
	}
	if cb.Allow() {
		t.Error("Expected Allow() to return false in OPEN state")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Unix(0, 0)}, 2, 1)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Error("non-consecutive failures should not open the breaker")
	}
}

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock, 2, 1)

	cb.RecordFailure()
	cb.RecordFailure()

	clock.Advance(999 * time.Millisecond)
	if cb.Allow() {
		t.Fatal("Expected rejection before cooldown elapsed")
	}

	clock.Advance(time.Millisecond)
	if !cb.Allow() {
		t.Error("Expected Allow() to return true after cooldown (half-open)")
	}
	if cb.GetState() != StateHalfOpen {
		t.Errorf("Expected HALF_OPEN, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_ClosesOnSuccess(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock, 2, 2)

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()

	cb.RecordSuccess()
	if cb.GetState() != StateHalfOpen {
		t.Error("Should still be HALF_OPEN after 1 success")
	}
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Errorf("Expected CLOSED after 2 successes, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock, 1, 1)

	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()
	cb.RecordFailure()

	if cb.GetState() != StateOpen {
		t.Fatalf("Expected OPEN, got %s", cb.GetState())
	}
	if cb.Allow() {
		t.Error("cooldown should restart from the failed half-open request")
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	errBoom := errors.New("boom")
	errIgnored := errors.New("ignored")

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Cooldown:         time.Hour,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, errIgnored) },
	})

	if err := cb.Execute(func() error { return errIgnored }); !errors.Is(err, errIgnored) {
		t.Fatalf("got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatal("ignored errors must not trip the breaker")
	}

	if err := cb.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("got %v", err)
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open breaker: err=%v called=%v", err, called)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	if cb.GetState() != StateOpen {
		t.Fatal("Expected OPEN state")
	}

	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("Expected CLOSED after Reset, got %s", cb.GetState())
	}
	if !cb.Allow() {
		t.Error("Expected Allow() to return true after Reset")
	}
}
