// Package backoff provides an exponential backoff policy with jitter, used
// wherever a failed operation is retried in a supervisor loop: venue poll
// restarts and stream reconnects.
package backoff

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Config holds the parameters for exponential backoff.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64 // 0.2 = up to +20% added to each delay
}

// DefaultConfig matches the venue-poll restart policy: 1s doubling to a 60s
// cap with 20% jitter.
func DefaultConfig() Config {
	return Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Policy tracks the current delay of one retried operation. Safe for
// concurrent use.
type Policy struct {
	config       Config
	currentDelay time.Duration
	attempts     int
	mu           sync.Mutex
}

// New creates a Policy starting at the configured initial delay.
func New(cfg Config) *Policy {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}

	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}

	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 2.0
	}

	return &Policy{
		config:       cfg,
		currentDelay: cfg.InitialDelay,
	}
}

// Next returns the delay to sleep before the next attempt, with jitter
// applied, and advances the policy.
func (p *Policy) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	delay := p.currentDelay
	p.attempts++

	// Advance: delay * multiplier, capped.
	next := time.Duration(float64(p.currentDelay) * p.config.Multiplier)
	if next > p.config.MaxDelay {
		next = p.config.MaxDelay
	}

	p.currentDelay = next

	// Jitter: delay * (1.0 + random(0, jitter)).
	jittered := float64(delay) * (1.0 + rand.Float64()*p.config.Jitter)

	return time.Duration(jittered)
}

// Reset returns the policy to the initial delay. Called after a success.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentDelay = p.config.InitialDelay
	p.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (p *Policy) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.attempts
}

// Sleep blocks for the next backoff delay or until ctx is cancelled.
// Returns ctx.Err() when cancelled, nil after a full sleep.
func (p *Policy) Sleep(ctx context.Context) error {
	timer := time.NewTimer(p.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
