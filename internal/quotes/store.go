// Package quotes holds the shared in-memory quote state: the store keyed by
// (exchange, canonical symbol) and the per-exchange status tracker. Both are
// written by the aggregator's batch processor and read by the arbitrage
// engine and the HTTP surface.
package quotes

import (
	"sync"
	"time"

	"github.com/mselser95/cex-arb/pkg/types"
	"go.uber.org/zap"
)

// Key identifies one store entry.
type Key struct {
	Exchange string
	Symbol   string // canonical
}

// Store maps (exchange, canonical symbol) to the latest quote. A single
// mutex protects the map; all per-quote work happens before the lock is
// taken and the critical section only swaps map entries, so a batch of N
// items holds the lock for O(N) map writes and nothing else.
type Store struct {
	mu     sync.RWMutex
	quotes map[Key]types.Quote
	logger *zap.Logger
}

// NewStore creates an empty quote store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		quotes: make(map[Key]types.Quote),
		logger: logger.With(zap.String("component", "quote-store")),
	}
}

// UpsertBatch applies a batch of quotes under one lock acquisition and
// returns the number actually written. Writes are last-write-wins by
// timestamp: an incoming quote strictly older than the stored one is
// dropped, equal timestamps overwrite (reprocessing the same quote is a
// no-op in effect). Quotes without a canonical symbol or timestamp never
// reach the map.
func (s *Store) UpsertBatch(batch []types.Quote) int {
	if len(batch) == 0 {
		return 0
	}

	// Validate outside the lock.
	keys := make([]Key, len(batch))

	for i, q := range batch {
		if q.CanonicalSymbol == "" || q.TimestampMS <= 0 {
			keys[i] = Key{}
			continue
		}

		keys[i] = Key{Exchange: q.Exchange, Symbol: q.CanonicalSymbol}
	}

	applied := 0

	lockStart := time.Now()
	s.mu.Lock()
	LockWaitSeconds.Observe(time.Since(lockStart).Seconds())

	for i, q := range batch {
		key := keys[i]
		if key.Symbol == "" {
			continue
		}

		existing, ok := s.quotes[key]
		if ok && q.TimestampMS < existing.TimestampMS {
			QuotesDroppedTotal.WithLabelValues(q.Exchange, "older_timestamp").Inc()
			continue
		}

		s.quotes[key] = q
		applied++
	}

	size := len(s.quotes)
	s.mu.Unlock()

	StoreSize.Set(float64(size))
	BatchSize.Observe(float64(len(batch)))

	return applied
}

// Snapshot returns a copy of the store. The copy shares no mutable state
// with the store; quotes are values, so cloning the map is enough.
func (s *Store) Snapshot() map[Key]types.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]types.Quote, len(s.quotes))
	for key, q := range s.quotes {
		out[key] = q
	}

	return out
}

// Get returns the stored quote for one (exchange, canonical symbol).
func (s *Store) Get(exchange, symbol string) (types.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[Key{Exchange: exchange, Symbol: symbol}]

	return q, ok
}

// CountFresh returns the number of distinct canonical symbols for an
// exchange whose quote is not stale at nowMS.
func (s *Store) CountFresh(exchange string, nowMS, ttlMS int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0

	for key, q := range s.quotes {
		if key.Exchange != exchange {
			continue
		}

		if !q.IsStale(nowMS, ttlMS) {
			count++
		}
	}

	return count
}

// Size returns the total number of store entries across all exchanges.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}
