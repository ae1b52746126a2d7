package quotes

import (
	"sync"

	"github.com/mselser95/cex-arb/pkg/types"
)

// StatusTracker keeps one health record per configured exchange. It has its
// own mutex, deliberately separate from the store's, so status reads never
// queue behind quote writes. Records exist for the process lifetime.
type StatusTracker struct {
	mu       sync.Mutex
	statuses map[string]*types.ExchangeStatus

	// onChange, when set, runs outside the lock with a snapshot after any
	// connected-flag transition. The publish hub hooks status pushes here.
	onChange func(map[string]types.ExchangeStatus)
}

// NewStatusTracker creates a tracker with an entry per exchange, all marked
// disconnected until their first successful poll.
func NewStatusTracker(exchanges []string) *StatusTracker {
	statuses := make(map[string]*types.ExchangeStatus, len(exchanges))
	for _, name := range exchanges {
		statuses[name] = &types.ExchangeStatus{Name: name}
	}

	return &StatusTracker{statuses: statuses}
}

// OnChange registers a callback invoked after every connected-flag
// transition. Must be called before the aggregator starts.
func (t *StatusTracker) OnChange(fn func(map[string]types.ExchangeStatus)) {
	t.onChange = fn
}

// MarkUpdated records a successful poll: the exchange is connected, its
// last-update timestamp moves forward and its fresh-symbol count is
// replaced. The error count is retained across recoveries.
func (t *StatusTracker) MarkUpdated(exchange string, lastUpdateMS int64, quoteCount int) {
	t.mu.Lock()

	status, ok := t.statuses[exchange]
	if !ok {
		status = &types.ExchangeStatus{Name: exchange}
		t.statuses[exchange] = status
	}

	changed := !status.Connected
	status.Connected = true
	status.LastUpdateMS = lastUpdateMS
	status.QuoteCount = quoteCount

	t.mu.Unlock()

	if changed {
		ConnectedGauge.WithLabelValues(exchange).Set(1)
		t.notify()
	}
}

// RecordError marks the exchange disconnected and bumps its error count.
func (t *StatusTracker) RecordError(exchange string, err error) {
	t.mu.Lock()

	status, ok := t.statuses[exchange]
	if !ok {
		status = &types.ExchangeStatus{Name: exchange}
		t.statuses[exchange] = status
	}

	changed := status.Connected
	status.Connected = false
	status.ErrorCount++

	if err != nil {
		status.LastError = err.Error()
	}

	t.mu.Unlock()

	StatusErrorsTotal.WithLabelValues(exchange).Inc()

	if changed {
		ConnectedGauge.WithLabelValues(exchange).Set(0)
		t.notify()
	}
}

// SetQuoteCount replaces the fresh-symbol count without touching the
// connected flag, used by the batch processor between polls.
func (t *StatusTracker) SetQuoteCount(exchange string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status, ok := t.statuses[exchange]; ok {
		status.QuoteCount = count
	}
}

// Snapshot returns a copy of every status record.
func (t *StatusTracker) Snapshot() map[string]types.ExchangeStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]types.ExchangeStatus, len(t.statuses))
	for name, status := range t.statuses {
		out[name] = *status
	}

	return out
}

// ConnectedCount returns how many exchanges are currently connected.
func (t *StatusTracker) ConnectedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0

	for _, status := range t.statuses {
		if status.Connected {
			count++
		}
	}

	return count
}

func (t *StatusTracker) notify() {
	if t.onChange != nil {
		t.onChange(t.Snapshot())
	}
}
