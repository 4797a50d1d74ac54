package cache

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// TieredCache presents one namespace's local and shared tiers as a
// single cache with read-through loading. It carries no cross-process
// coordination of its own; versioning, locking and event publishing live
// in the Coordinator.
type TieredCache struct {
	namespace  string
	local      LocalCache
	store      Store
	serializer Marshaller
	logger     Logger
	debug      bool
	onError    func(error)
	sharedTTL  time.Duration
	group      singleflight.Group
	stats      Stats
}

// NewTieredCache composes a local tier and the shared store for one
// namespace.
func NewTieredCache(namespace string, local LocalCache, store Store, serializer Marshaller, logger Logger, sharedTTL time.Duration) *TieredCache {
	if serializer == nil {
		serializer = NewJSONMarshaller()
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &TieredCache{
		namespace:  namespace,
		local:      local,
		store:      store,
		serializer: serializer,
		logger:     logger,
		sharedTTL:  sharedTTL,
	}
}

// SetDebug enables verbose logging.
func (tc *TieredCache) SetDebug(debug bool) { tc.debug = debug }

// SetOnError routes background failures to fn.
func (tc *TieredCache) SetOnError(fn func(error)) { tc.onError = fn }

// Get checks the local tier, then the shared tier. A shared-tier hit
// repopulates the local tier only; the shared entry's TTL is untouched.
// Shared-store failures degrade to a miss.
func (tc *TieredCache) Get(ctx context.Context, key string) (any, bool) {
	value, found := tc.local.Get(key)
	if found {
		atomic.AddInt64(&tc.stats.LocalHits, 1)
		return value, true
	}
	atomic.AddInt64(&tc.stats.LocalMisses, 1)

	data, err := tc.store.Get(ctx, key)
	if err != nil {
		atomic.AddInt64(&tc.stats.RemoteMisses, 1)
		if tc.debug {
			tc.logger.Debug("get: shared tier miss", "namespace", tc.namespace, "key", key, "error", err)
		}
		return nil, false
	}
	atomic.AddInt64(&tc.stats.RemoteHits, 1)

	var result any
	if err := tc.serializer.Unmarshal(data, &result); err != nil {
		tc.report(err)
		if tc.debug {
			tc.logger.Error("get: deserialization failed", "namespace", tc.namespace, "key", key, "error", err)
		}
		return nil, false
	}

	tc.local.Set(key, result, 1)
	return result, true
}

// GetOrLoad is Get with read-through loading: on a full miss the loader
// runs, the result is written to both tiers and returned. Concurrent
// callers on this process are coalesced so the loader runs once per
// in-flight key. A loader failure propagates unchanged and nothing is
// cached.
func (tc *TieredCache) GetOrLoad(ctx context.Context, key string, loader Loader) (any, error) {
	if value, found := tc.Get(ctx, key); found {
		return value, nil
	}

	value, err, _ := tc.group.Do(key, func() (any, error) {
		// A concurrent flight may have populated the local tier while
		// this call waited on the group.
		if value, found := tc.local.Get(key); found {
			return value, nil
		}

		atomic.AddInt64(&tc.stats.Loads, 1)
		value, err := loader()
		if err != nil {
			return nil, err
		}

		tc.local.Set(key, value, 1)
		if err := tc.writeShared(ctx, key, value); err != nil {
			// The caller still gets the loaded value; a lost shared
			// write only costs other processes a reload.
			tc.report(err)
			if tc.debug {
				tc.logger.Warn("getOrLoad: shared tier write failed", "namespace", tc.namespace, "key", key, "error", err)
			}
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set writes a value to both tiers synchronously. A reader on another
// process must be able to read the value back from the shared tier
// immediately after Set returns, so shared-tier failures propagate.
func (tc *TieredCache) Set(ctx context.Context, key string, value any) error {
	tc.local.Set(key, value, 1)
	return tc.writeShared(ctx, key, value)
}

// Evict removes the key from both tiers.
func (tc *TieredCache) Evict(ctx context.Context, key string) error {
	tc.local.Delete(key)
	return tc.store.Delete(ctx, key)
}

// Clear empties the local tier and actively deletes the namespace's
// shared-tier keys across all versions.
func (tc *TieredCache) Clear(ctx context.Context) error {
	tc.local.Clear()

	keys, err := tc.store.Keys(ctx, namespacePattern(tc.namespace))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := tc.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// ClearLocal empties only the local tier. Used when a remote process
// already bumped the namespace version and old shared entries are being
// left to TTL expiry.
func (tc *TieredCache) ClearLocal() {
	tc.local.Clear()
}

// DeleteLocal removes a single key from the local tier only.
func (tc *TieredCache) DeleteLocal(key string) {
	tc.local.Delete(key)
}

// RecordInvalidation bumps the invalidation counter.
func (tc *TieredCache) RecordInvalidation() {
	atomic.AddInt64(&tc.stats.Invalidations, 1)
}

// Stats returns a snapshot of the namespace's counters.
func (tc *TieredCache) Stats() Stats {
	return Stats{
		LocalHits:     atomic.LoadInt64(&tc.stats.LocalHits),
		LocalMisses:   atomic.LoadInt64(&tc.stats.LocalMisses),
		RemoteHits:    atomic.LoadInt64(&tc.stats.RemoteHits),
		RemoteMisses:  atomic.LoadInt64(&tc.stats.RemoteMisses),
		LocalSize:     tc.local.Metrics().Size,
		Loads:         atomic.LoadInt64(&tc.stats.Loads),
		Invalidations: atomic.LoadInt64(&tc.stats.Invalidations),
	}
}

// Close releases the local tier. The shared store is owned by the
// coordinator and closed there.
func (tc *TieredCache) Close() {
	tc.local.Close()
}

func (tc *TieredCache) writeShared(ctx context.Context, key string, value any) error {
	data, err := tc.serializer.Marshal(value)
	if err != nil {
		return err
	}
	return tc.store.Set(ctx, key, data, tc.sharedTTL)
}

func (tc *TieredCache) report(err error) {
	if tc.onError != nil {
		tc.onError(err)
	}
}
