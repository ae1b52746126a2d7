package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// RistrettoCache backs the Cache interface with an in-process ristretto
// cache. Entries are counted as cost 1 each; MaxCost is an item budget.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds ristretto sizing knobs.
type RistrettoConfig struct {
	NumCounters int64 // keys tracked for admission frequency, ~10x max items
	MaxCost     int64 // maximum number of cached items
	BufferItems int64 // keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a ristretto-backed cache with internal metrics
// enabled.
func NewRistrettoCache(cfg *RistrettoConfig) (Cache, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{
		cache:  rc,
		logger: logger.With(zap.String("component", "cache")),
	}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.cache.Get(key)
	if found {
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}

	return value, found
}

// Set stores a value with a TTL at cost 1.
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	success := r.cache.SetWithTTL(key, value, 1, ttl)
	if success {
		CacheSetsTotal.Inc()
		r.logger.Debug("cache-set", zap.String("key", key), zap.Duration("ttl", ttl))
	}

	return success
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)
	CacheDeletesTotal.Inc()
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
	r.logger.Info("cache-cleared")
}

// Close releases the cache's resources.
func (r *RistrettoCache) Close() {
	r.cache.Close()
}

// Wait blocks until pending writes have been admitted. Useful in tests that
// read back a value right after Set.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
