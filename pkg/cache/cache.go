// Package cache provides a TTL cache for venue metadata. The scanner uses
// it for fee schedules, which change rarely but are read on every
// evaluation tick.
package cache

import "time"

// Cache is a string-keyed cache with per-entry TTLs. Writes may be
// admitted asynchronously; a Get immediately after Set can miss.
type Cache interface {
	// Get returns the cached value, or (nil, false) on a miss.
	Get(key string) (interface{}, bool)

	// Set stores a value for at most ttl. It reports whether the entry
	// was accepted.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a key if present.
	Delete(key string)

	// Clear drops every entry.
	Clear()

	// Close releases the cache's resources.
	Close()
}
