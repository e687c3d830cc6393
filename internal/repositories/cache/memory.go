// Package cache provides the in-process cache implementations backing the
// cache ports: a TTL key-value store, typed response caches layered on it, the
// corrected-day index and the provider rate-limit tracker.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is a thread-safe in-memory TTL cache implementing ports.KVCache.
// Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
