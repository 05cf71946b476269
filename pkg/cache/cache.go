// Package cache provides a small in-memory TTL cache used as a last-resort
// fallback when a read request fails after exhausting retries. A successful
// fetch always overwrites the cached value; a failed fetch consults the
// cache before propagating the error.
package cache

import (
	"sync"
	"time"

	"github.com/BernardUriza/aurity-sub000/pkg/metrics"
)

// DefaultTTL is the entry lifetime when the caller does not override it.
const DefaultTTL = 30 * time.Second

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a mutex-guarded key/value store with per-cache TTL. Each cache
// is logically owned by one producer; callers namespace their keys.
//
// A nil *Cache is a valid no-op cache: Get always misses and Set does
// nothing. Failure of the cache must never fail the feature using it.
type Cache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[T]
	now     func() time.Time
}

// New creates a cache with the given TTL. ttl <= 0 selects DefaultTTL.
func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the live value for key. Entries at or past their TTL are
// treated as absent and evicted.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.Default.CacheMisses.Inc()
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		metrics.Default.CacheMisses.Inc()
		return zero, false
	}

	metrics.Default.CacheHits.Inc()
	return e.value, true
}

// Set stores value under key with the cache TTL, overwriting any previous
// entry.
func (c *Cache[T]) Set(key string, value T) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes key if present.
func (c *Cache[T]) Delete(key string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, including any not yet evicted
// expired ones.
func (c *Cache[T]) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
