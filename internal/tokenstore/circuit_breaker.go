package tokenstore

import (
	"errors"
	"sync"
	"time"
)

type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrCircuitBreakerOpen is returned without touching Redis while the breaker
// is open or while every half-open trial slot is taken.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures trip a closed breaker.
	MaxFailures int
	// Timeout is how long the breaker stays open before admitting trials.
	Timeout time.Duration
	// HalfOpenMaxCalls bounds the trial calls admitted after Timeout, and is
	// also the number of trial successes needed to close again.
	HalfOpenMaxCalls int
}

func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker stops calling Redis after repeated failures so that a dead
// store costs one fast error per request instead of a dial timeout.
//
// Each admitted call carries the generation it was admitted in. A state change
// bumps the generation, so results of calls that started before the change
// are ignored rather than being counted against the new state.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig
	now func() time.Time

	state      CircuitBreakerState
	generation uint64
	failures   int
	openedAt   time.Time

	// half-open bookkeeping
	trials    int
	successes int
}

func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	cfg := *config
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.HalfOpenMaxCalls < 1 {
		cfg.HalfOpenMaxCalls = 1
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute runs fn if the breaker admits it and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	gen, ok := cb.admit()
	if !ok {
		return ErrCircuitBreakerOpen
	}

	err := fn()
	cb.settle(gen, err == nil)
	return err
}

func (cb *CircuitBreaker) admit() (uint64, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitBreakerOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
		cb.transition(CircuitBreakerHalfOpen)
	}

	switch cb.state {
	case CircuitBreakerClosed:
		return cb.generation, true
	case CircuitBreakerHalfOpen:
		if cb.trials >= cb.cfg.HalfOpenMaxCalls {
			return 0, false
		}
		cb.trials++
		return cb.generation, true
	default:
		return 0, false
	}
}

func (cb *CircuitBreaker) settle(gen uint64, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if gen != cb.generation {
		return
	}

	switch cb.state {
	case CircuitBreakerClosed:
		if ok {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.transition(CircuitBreakerOpen)
		}
	case CircuitBreakerHalfOpen:
		if !ok {
			cb.transition(CircuitBreakerOpen)
			return
		}
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenMaxCalls {
			cb.transition(CircuitBreakerClosed)
		}
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to CircuitBreakerState) {
	cb.state = to
	cb.generation++
	cb.failures = 0
	cb.trials = 0
	cb.successes = 0
	if to == CircuitBreakerOpen {
		cb.openedAt = cb.now()
	}
}

func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats reports the breaker for the health endpoint.
func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":           cb.state.String(),
		"failure_count":   cb.failures,
		"trial_calls":     cb.trials,
		"trial_successes": cb.successes,
		"max_failures":    cb.cfg.MaxFailures,
		"timeout_seconds": cb.cfg.Timeout.Seconds(),
	}
}
