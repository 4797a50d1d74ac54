package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCacheFactory creates TTL-bounded LRU cache instances.
type LRUCacheFactory struct {
	maxEntries int
	ttl        time.Duration
}

// NewLRUCacheFactory creates a factory producing LRU tiers with the
// given capacity and entry TTL.
func NewLRUCacheFactory(maxEntries int, ttl time.Duration) LocalCacheFactory {
	return &LRUCacheFactory{maxEntries: maxEntries, ttl: ttl}
}

// Create creates a new LRU cache instance.
func (f *LRUCacheFactory) Create() (LocalCache, error) {
	return NewLRUCache(f.maxEntries, f.ttl)
}

// LRUCache is a local tier backed by hashicorp's expirable LRU. Entries
// expire ttl after their last write; expired entries behave as absent.
type LRUCache struct {
	cache     *expirable.LRU[string, any]
	hits      int64
	misses    int64
	evictions int64
}

// NewLRUCache creates a bounded, TTL-expiring LRU local tier.
func NewLRUCache(maxEntries int, ttl time.Duration) (*LRUCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: LRU capacity must be > 0", ErrInvalidConfig)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: LRU TTL must be > 0", ErrInvalidConfig)
	}

	lc := &LRUCache{}
	lc.cache = expirable.NewLRU[string, any](maxEntries, func(string, any) {
		atomic.AddInt64(&lc.evictions, 1)
	}, ttl)
	return lc, nil
}

// Get retrieves a value from the local tier.
func (lc *LRUCache) Get(key string) (any, bool) {
	value, found := lc.cache.Get(key)
	if found {
		atomic.AddInt64(&lc.hits, 1)
	} else {
		atomic.AddInt64(&lc.misses, 1)
	}
	return value, found
}

// Set stores a value in the local tier. The cost argument is ignored by
// this implementation; capacity is counted in entries.
func (lc *LRUCache) Set(key string, value any, _ int64) bool {
	lc.cache.Add(key, value)
	return true
}

// Delete removes a value from the local tier.
func (lc *LRUCache) Delete(key string) {
	lc.cache.Remove(key)
}

// Clear removes all values from the local tier.
func (lc *LRUCache) Clear() {
	lc.cache.Purge()
}

// Close releases the tier. The expirable LRU owns a janitor goroutine
// that stops when the cache is garbage collected, so Close only empties
// it.
func (lc *LRUCache) Close() {
	lc.cache.Purge()
}

// Metrics returns tier metrics.
func (lc *LRUCache) Metrics() LocalCacheMetrics {
	return LocalCacheMetrics{
		Hits:      atomic.LoadInt64(&lc.hits),
		Misses:    atomic.LoadInt64(&lc.misses),
		Evictions: atomic.LoadInt64(&lc.evictions),
		Size:      int64(lc.cache.Len()),
	}
}
