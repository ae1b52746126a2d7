package arbitrage

import (
	"sync"
	"time"
)

// maxSamplesPerKey bounds the per-direction history regardless of tick
// cadence.
const maxSamplesPerKey = 1000

type stabilityKey struct {
	symbol       string
	buyExchange  string
	sellExchange string
}

type stabilitySample struct {
	timestampMS  int64
	netSpreadPct float64
}

// StabilityTracker keeps a rolling per-(symbol, buy, sell) history of net
// spread samples. A direction is stable when its history is net-positive
// continuously across the whole window: every retained sample positive and
// the oldest one old enough that the window is fully covered.
type StabilityTracker struct {
	mu             sync.Mutex
	window         time.Duration
	sampleInterval time.Duration
	history        map[stabilityKey][]stabilitySample
}

// NewStabilityTracker creates a tracker for the given window. The sample
// interval is the engine tick; it pads the coverage check so the oldest
// sample does not need to land exactly on the window edge.
func NewStabilityTracker(window, sampleInterval time.Duration) *StabilityTracker {
	return &StabilityTracker{
		window:         window,
		sampleInterval: sampleInterval,
		history:        make(map[stabilityKey][]stabilitySample),
	}
}

// Observe records one sample for a direction and reports whether the
// direction is stable as of this sample. Samples older than the window are
// evicted first.
func (t *StabilityTracker) Observe(symbol, buyExchange, sellExchange string, timestampMS int64, netSpreadPct float64) bool {
	key := stabilityKey{symbol: symbol, buyExchange: buyExchange, sellExchange: sellExchange}
	cutoff := timestampMS - t.window.Milliseconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	samples := t.history[key]
	samples = append(samples, stabilitySample{timestampMS: timestampMS, netSpreadPct: netSpreadPct})

	// Evict beyond-window samples from the front.
	start := 0
	for start < len(samples) && samples[start].timestampMS < cutoff {
		start++
	}

	samples = samples[start:]

	if len(samples) > maxSamplesPerKey {
		samples = samples[len(samples)-maxSamplesPerKey:]
	}

	t.history[key] = samples

	return t.stableLocked(samples, timestampMS)
}

// IsStable reports the direction's current stability without recording a
// new sample.
func (t *StabilityTracker) IsStable(symbol, buyExchange, sellExchange string, nowMS int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stableLocked(t.history[stabilityKey{symbol: symbol, buyExchange: buyExchange, sellExchange: sellExchange}], nowMS)
}

// stableLocked must be called with the mutex held.
func (t *StabilityTracker) stableLocked(samples []stabilitySample, nowMS int64) bool {
	if len(samples) == 0 {
		return false
	}

	for _, s := range samples {
		if s.netSpreadPct <= 0 {
			return false
		}
	}

	// Full coverage: the oldest retained sample reaches back at least
	// window minus one tick from the newest.
	required := t.window.Milliseconds() - t.sampleInterval.Milliseconds()

	return nowMS-samples[0].timestampMS >= required
}

// Len returns the number of tracked directions.
func (t *StabilityTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.history)
}
