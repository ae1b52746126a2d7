// Package circuitbreaker gates venue polling. Each adapter worker owns one
// breaker: consecutive poll failures open it, polls are skipped while it is
// open, and after a reset timeout a single trial poll is allowed through.
// The breaker complements the worker's backoff; both reset on success.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the breaker's position.
type State int

const (
	// StateClosed lets every poll through.
	StateClosed State = iota

	// StateOpen rejects polls until the reset timeout elapses.
	StateOpen

	// StateHalfOpen lets one trial poll through.
	StateHalfOpen
)

// String returns the conventional lowercase state name.
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

// Breaker is a consecutive-failure circuit breaker for one exchange.
type Breaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration
	logger           *zap.Logger

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
}

// Config holds breaker construction parameters.
type Config struct {
	// Name labels the breaker in logs and metrics, typically the exchange.
	Name string

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before allowing a
	// trial poll.
	ResetTimeout time.Duration

	Logger *zap.Logger
}

// New creates a closed breaker.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	if cfg.FailureThreshold <= 0 {
		return nil, fmt.Errorf("failure threshold must be positive")
	}

	if cfg.ResetTimeout <= 0 {
		return nil, fmt.Errorf("reset timeout must be positive")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	StateGauge.WithLabelValues(cfg.Name).Set(float64(StateClosed))

	return &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		resetTimeout:     cfg.ResetTimeout,
		logger:           cfg.Logger.With(zap.String("breaker", cfg.Name)),
	}, nil
}

// Allow reports whether a poll may proceed. An open breaker transitions to
// half-open once the reset timeout has elapsed, admitting one trial.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		// One trial is already in flight; hold further polls.
		return false
	case StateOpen:
		if time.Since(b.openedAt) < b.resetTimeout {
			RejectionsTotal.WithLabelValues(b.name).Inc()

			return false
		}

		b.setState(StateHalfOpen)
		b.logger.Info("breaker-half-open")

		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker and clears the failure streak.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0

	if b.state != StateClosed {
		b.setState(StateClosed)
		b.logger.Info("breaker-closed")
	}
}

// RecordFailure notes a failed poll. Reaching the threshold, or failing the
// half-open trial, opens the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++

	if b.state == StateHalfOpen || (b.state == StateClosed && b.consecutiveFailures >= b.failureThreshold) {
		b.setState(StateOpen)
		b.openedAt = time.Now()
		OpensTotal.WithLabelValues(b.name).Inc()
		b.logger.Warn("breaker-opened",
			zap.Int("consecutive-failures", b.consecutiveFailures),
			zap.Duration("reset-timeout", b.resetTimeout))
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// ConsecutiveFailures returns the current failure streak.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.consecutiveFailures
}

// setState must be called with the mutex held.
func (b *Breaker) setState(s State) {
	b.state = s
	StateGauge.WithLabelValues(b.name).Set(float64(s))
}
