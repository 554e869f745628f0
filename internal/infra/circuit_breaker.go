package infra

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, reject requests
	StateHalfOpen              // Testing recovery
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker fails fast after repeated transport failures. It never
// retries; a rejected call is returned to the caller immediately.
// Thread-safe for concurrent use.
type CircuitBreaker struct {
	name string
	mu   sync.Mutex
	now  func() time.Time

	state        State
	failureCount int
	successCount int
	openedAt     time.Time

	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	isFailure        func(error) bool
}

// CircuitBreakerConfig holds configuration for creating a circuit breaker.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration

	// IsFailure decides which errors count against the breaker. Nil
	// counts every non-nil error.
	IsFailure func(error) bool
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             cfg.Name,
		now:              cfg.Now,
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		cooldown:         cfg.Cooldown,
		isFailure:        cfg.IsFailure,
	}
	if cb.now == nil {
		cb.now = time.Now
	}
	if cb.isFailure == nil {
		cb.isFailure = func(err error) bool { return err != nil }
	}
	return cb
}

// Execute runs fn if the breaker allows it and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	if cb.isFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// Allow checks if a request should be allowed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cooldown {
			cb.state = StateHalfOpen
			cb.successCount = 0
			slog.Info("Circuit breaker transitioning to HALF_OPEN", slog.String("name", cb.name))
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful operation.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
			slog.Info("Circuit breaker CLOSED (recovered)", slog.String("name", cb.name))
		}
	}
}

// RecordFailure records a failed operation.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.trip()
			slog.Warn("Circuit breaker OPEN (failures exceeded threshold)",
				slog.String("name", cb.name),
				slog.Int("failures", cb.failureCount))
		}
	case StateHalfOpen:
		cb.trip()
		slog.Warn("Circuit breaker OPEN (half-open request failed)", slog.String("name", cb.name))
	case StateOpen:
		cb.openedAt = cb.now()
	}
}

// trip must be called with mu held.
func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.successCount = 0
	cb.openedAt = cb.now()
}

// GetState returns the current state (for monitoring).
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the circuit breaker to closed state (for testing/admin).
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	slog.Info("Circuit breaker RESET", slog.String("name", cb.name))
}
