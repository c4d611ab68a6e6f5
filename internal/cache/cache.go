// Package cache provides a small generic TTL cache with an explicit
// lifecycle, so load-result caching never hides behind module-level state.
package cache

import (
	"sync"
	"time"
)

// TTL is a mutex-guarded time-to-live cache. The zero value is not usable;
// construct with NewTTL.
type TTL[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry[T]
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

func NewTTL[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry[T]),
	}
}

// Get retrieves a fresh value. Expired entries are removed on access.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return e.data, true
}

// Set stores a value with the configured TTL.
func (c *TTL[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[T]{data: data, expiresAt: c.now().Add(c.ttl)}
}

// Delete removes a key.
func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size returns the number of stored entries, expired or not.
func (c *TTL[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanExpired removes all expired entries and reports how many were dropped.
func (c *TTL[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// SetClock overrides the time source; tests use it to control expiry.
func (c *TTL[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
