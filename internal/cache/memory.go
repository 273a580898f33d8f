package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a thread-safe in-process counter with per-key
// expiry windows. Suitable for single-node deployments.
type MemoryCounter struct {
	mu         sync.Mutex
	maxEntries int
	counters   map[string]*counterEntry
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounter creates an in-memory counter holding at most
// maxEntries live keys.
func NewMemoryCounter(maxEntries int) *MemoryCounter {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryCounter{
		maxEntries: maxEntries,
		counters:   make(map[string]*counterEntry),
	}
}

// Increment atomically increments the counter for key.
func (c *MemoryCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry, ok := c.counters[key]

	if !ok || now.After(entry.expiresAt) {
		if len(c.counters) >= c.maxEntries {
			c.evictExpired(now)
		}
		c.counters[key] = &counterEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
		return 1, nil
	}

	entry.count++
	return entry.count, nil
}

// evictExpired drops expired windows. Called with the lock held.
func (c *MemoryCounter) evictExpired(now time.Time) {
	for key, entry := range c.counters {
		if now.After(entry.expiresAt) {
			delete(c.counters, key)
		}
	}
}

// Ping always succeeds for the in-memory backend.
func (c *MemoryCounter) Ping(ctx context.Context) error {
	return nil
}

// Close clears all counters.
func (c *MemoryCounter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[string]*counterEntry)
	return nil
}
