// Package ttlcache is a small key-value store with per-entry wall-clock
// expiry. Unlike github.com/patrickmn/go-cache it takes an injected time
// source, so tests can advance the clock and assert expiry deterministically.
package ttlcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache stores values with absolute expiry timestamps. All operations are
// synchronous and last-write-wins. An expired entry is treated as absent by
// Get but is retained internally until DeleteExpired or an overwrite;
// calling DeleteExpired is optional and never required for correctness.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	now     func() time.Time
}

// New creates a cache. A nil clock defaults to time.Now.
func New[K comparable, V any](now func() time.Time) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
		now:     now,
	}
}

// Set stores value under key with expiry now+ttl, overwriting any existing
// entry.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the value for key while the entry is fresh. At or after the
// expiry instant the entry is reported absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Peek returns the value for key even if it has expired. Callers use it to
// serve a stale-but-tagged value when every upstream is down; the second
// return reports whether any entry exists at all.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes an entry.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteExpired removes every entry whose expiry has passed and returns how
// many were dropped.
func (c *Cache[K, V]) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
