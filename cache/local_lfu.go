package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
)

// LFUCacheFactory creates Ristretto (TinyLFU) cache instances.
type LFUCacheFactory struct {
	maxEntries int
	ttl        time.Duration
}

// NewLFUCacheFactory creates a factory producing Ristretto tiers with
// the given capacity and entry TTL.
func NewLFUCacheFactory(maxEntries int, ttl time.Duration) LocalCacheFactory {
	return &LFUCacheFactory{maxEntries: maxEntries, ttl: ttl}
}

// Create creates a new Ristretto cache instance.
func (f *LFUCacheFactory) Create() (LocalCache, error) {
	return NewLFUCache(f.maxEntries, f.ttl)
}

// LFUCache is a local tier backed by Ristretto. Admission is
// frequency-based; every entry carries the namespace's local TTL.
type LFUCache struct {
	cache     *ristretto.Cache
	ttl       time.Duration
	hits      int64
	misses    int64
	evictions int64
	size      int64
}

// NewLFUCache creates a bounded, TTL-expiring Ristretto local tier.
func NewLFUCache(maxEntries int, ttl time.Duration) (*LFUCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: LFU capacity must be > 0", ErrInvalidConfig)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: LFU TTL must be > 0", ErrInvalidConfig)
	}

	lc := &LFUCache{ttl: ttl}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(maxEntries) * 10,
		MaxCost:            int64(maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict: func(*ristretto.Item) {
			atomic.AddInt64(&lc.evictions, 1)
			atomic.AddInt64(&lc.size, -1)
		},
	})
	if err != nil {
		return nil, err
	}
	lc.cache = cache
	return lc, nil
}

// Get retrieves a value from the local tier.
func (lc *LFUCache) Get(key string) (any, bool) {
	value, found := lc.cache.Get(key)
	if found {
		atomic.AddInt64(&lc.hits, 1)
	} else {
		atomic.AddInt64(&lc.misses, 1)
	}
	return value, found
}

// Set stores a value in the local tier with the tier's TTL. The entry
// count is best effort: Ristretto applies writes asynchronously and may
// still reject a buffered write at admission.
func (lc *LFUCache) Set(key string, value any, cost int64) bool {
	if cost <= 0 {
		cost = 1
	}
	_, exists := lc.cache.Get(key)
	ok := lc.cache.SetWithTTL(key, value, cost, lc.ttl)
	if ok && !exists {
		atomic.AddInt64(&lc.size, 1)
	}
	return ok
}

// Wait blocks until buffered writes have been applied. Ristretto admits
// entries asynchronously; callers that need read-your-write visibility
// on this tier must call Wait after Set.
func (lc *LFUCache) Wait() {
	lc.cache.Wait()
}

// Delete removes a value from the local tier.
func (lc *LFUCache) Delete(key string) {
	if _, ok := lc.cache.Get(key); ok {
		atomic.AddInt64(&lc.size, -1)
	}
	lc.cache.Del(key)
}

// Clear removes all values from the local tier.
func (lc *LFUCache) Clear() {
	lc.cache.Clear()
	atomic.StoreInt64(&lc.size, 0)
}

// Close closes the local tier.
func (lc *LFUCache) Close() {
	lc.cache.Close()
}

// Metrics returns tier metrics. Size tracks live entries, not capacity.
func (lc *LFUCache) Metrics() LocalCacheMetrics {
	size := atomic.LoadInt64(&lc.size)
	if size < 0 {
		size = 0
	}
	return LocalCacheMetrics{
		Hits:      atomic.LoadInt64(&lc.hits),
		Misses:    atomic.LoadInt64(&lc.misses),
		Evictions: atomic.LoadInt64(&lc.evictions),
		Size:      size,
	}
}
