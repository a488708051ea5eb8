package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Item is a cached value with its expiry.
type Item[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// IsExpired reports whether the item has expired at now.
func (i *Item[V]) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Cache is a thread-safe in-memory cache with a TTL and an entry bound.
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[uint64]*Item[V]
	ttl      time.Duration
	maxItems int
	now      func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a cache whose entries live for ttl. maxItems <= 0 means 1024.
func New[V any](ttl time.Duration, maxItems int) *Cache[V] {
	if maxItems <= 0 {
		maxItems = 1024
	}

	return &Cache[V]{
		items:    make(map[uint64]*Item[V]),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Key hashes a name and its fields into a cache key. Field order does not
// matter.
func Key(name string, fields map[string]string) uint64 {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	d := xxhash.New()
	_, _ = d.WriteString(name)
	for _, k := range names {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{'='})
		_, _ = d.WriteString(fields[k])
	}
	return d.Sum64()
}

// Get retrieves an unexpired item.
func (c *Cache[V]) Get(key uint64) (V, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || item.IsExpired(c.now()) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return item.Value, true
}

// Set stores a value, evicting the entry closest to expiry when full.
func (c *Cache[V]) Set(key uint64, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		if c.purgeExpiredLocked() == 0 {
			c.evictOldestLocked()
		}
	}

	c.items[key] = &Item[V]{
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes an item from the cache.
func (c *Cache[V]) Delete(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[uint64]*Item[V])
}

// Size returns the number of items in the cache, expired or not.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Cleanup purges expired items every interval until ctx is done.
func (c *Cache[V]) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.purgeExpired(); removed > 0 {
				slog.Debug("Purged expired cache entries", "removed", removed)
			}
		}
	}
}

func (c *Cache[V]) purgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.purgeExpiredLocked()
}

func (c *Cache[V]) purgeExpiredLocked() int {
	now := c.now()
	removed := 0
	for key, item := range c.items {
		if item.IsExpired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *Cache[V]) evictOldestLocked() {
	var (
		oldestKey uint64
		oldest    time.Time
		found     bool
	)
	for key, item := range c.items {
		if !found || item.ExpiresAt.Before(oldest) {
			oldestKey, oldest, found = key, item.ExpiresAt, true
		}
	}
	if found {
		delete(c.items, oldestKey)
		c.evictions.Add(1)
	}
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	totalItems := len(c.items)
	expiredItems := 0
	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"max_items":     c.maxItems,
		"ttl_seconds":   c.ttl.Seconds(),
		"hits":          c.hits.Load(),
		"misses":        c.misses.Load(),
		"evictions":     c.evictions.Load(),
	}
}
