package stats

import (
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a read-through summary cache keyed by user ID. Entries live
// for a bounded TTL and are explicitly invalidated when a session is
// recorded, so the dashboard is at most a few minutes stale. Concurrent
// misses for the same user collapse into one recomputation.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[uint]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	summary   Summary
	expiresAt time.Time
}

// NewCache creates a summary cache. A non-positive ttl defaults to five
// minutes.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[uint]cacheEntry),
	}
}

// Get returns the cached summary for the user, or runs load to compute
// and cache a fresh one. Only one load runs per user at a time.
func (c *Cache) Get(userID uint, load func() (Summary, error)) (Summary, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.summary, nil
	}

	result, err, _ := c.group.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		// Re-check: another caller may have repopulated while we waited
		c.mu.RLock()
		entry, ok := c.entries[userID]
		c.mu.RUnlock()
		if ok && time.Now().Before(entry.expiresAt) {
			return entry.summary, nil
		}

		summary, err := load()
		if err != nil {
			return Summary{}, err
		}

		c.mu.Lock()
		c.entries[userID] = cacheEntry{summary: summary, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return summary, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Invalidate drops the user's cached summary so the next read recomputes.
func (c *Cache) Invalidate(userID uint) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
