package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edukit/versioned-cache/storage"
	"github.com/edukit/versioned-cache/types"
)

// eventHandleTimeout bounds the shared-store reads an inbound event may
// trigger.
const eventHandleTimeout = 5 * time.Second

// Coordinator is the public cache surface. It resolves versioned keys,
// delegates to the per-namespace two-level caches, serializes population
// races through the distributed lock and propagates invalidations over
// the bus. Construct one per process at startup and pass it by handle;
// there is no ambient global registry.
type Coordinator struct {
	opts     Options
	versions *VersionCounter
	lock     *DistributedLock
	mu       sync.RWMutex
	tiers    map[string]*TieredCache
	closed   int32
}

// NewCoordinator validates opts, wires the bus handler and starts the
// subscription loop.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Marshaller == nil {
		opts.Marshaller = NewJSONMarshaller()
	}
	if opts.Logger == nil {
		opts.Logger = NewNoOpLogger()
	}

	c := &Coordinator{
		opts:     opts,
		versions: NewVersionCounter(opts.Store),
		lock:     NewDistributedLock(opts.Store, opts.LockTTL),
		tiers:    make(map[string]*TieredCache),
	}

	opts.Bus.OnEvent(c.handleEvent)
	if err := opts.Bus.Subscribe(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Get resolves the namespace's current version, builds the composite key
// and reads through the two-level cache, invoking loader on a full miss.
// When the shared store is unreachable the read degrades to calling the
// loader directly instead of failing.
func (c *Coordinator) Get(ctx context.Context, namespace, subkey, locale string, loader Loader) (any, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, ErrCacheClosed
	}

	tc, err := c.tiered(namespace)
	if err != nil {
		return nil, err
	}

	version, err := c.versions.Current(ctx, namespace)
	if err != nil {
		c.report(err)
		c.opts.Logger.Warn("get: version unavailable, bypassing cache", "namespace", namespace, "error", err)
		return loader()
	}

	key := versionedKey(namespace, version, composeSubkey(subkey, locale))
	if value, found := tc.Get(ctx, key); found {
		return value, nil
	}

	// Full miss. The lock only dampens cross-process duplicate loading;
	// when it cannot be acquired the value is loaded anyway after a
	// bounded wait.
	acquired, err := c.lock.TryAcquire(ctx, key)
	if err != nil {
		c.report(err)
		return tc.GetOrLoad(ctx, key, loader)
	}
	if acquired {
		defer func() {
			if err := c.lock.Release(ctx, key); err != nil {
				c.report(err)
			}
		}()
		return tc.GetOrLoad(ctx, key, loader)
	}

	for i := 0; i < c.opts.LockRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.opts.LockRetryDelay):
		}
		if value, found := tc.Get(ctx, key); found {
			return value, nil
		}
	}
	return tc.GetOrLoad(ctx, key, loader)
}

// Put writes a value under the namespace's current version to both tiers
// and notifies other processes. Shared-tier write failures propagate so
// the caller knows the value may not be visible cluster-wide.
func (c *Coordinator) Put(ctx context.Context, namespace, subkey, locale string, value any) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrCacheClosed
	}

	tc, err := c.tiered(namespace)
	if err != nil {
		return err
	}
	version, err := c.versions.Current(ctx, namespace)
	if err != nil {
		return err
	}

	composed := composeSubkey(subkey, locale)
	key := versionedKey(namespace, version, composed)

	kind := types.Updated
	if _, err := c.opts.Store.Get(ctx, key); errors.Is(err, storage.ErrNotFound) {
		kind = types.Created
	}

	if err := tc.Set(ctx, key, value); err != nil {
		return err
	}

	c.publish(ctx, types.NewEvent(kind, namespace, composed, c.opts.ProcessID))
	return nil
}

// InvalidateEntry removes one entry from both tiers under the current
// version and publishes a targeted event so every other process drops
// its local copy. No version bump is needed for a single-key correction.
func (c *Coordinator) InvalidateEntry(ctx context.Context, namespace, subkey, locale string) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrCacheClosed
	}

	tc, err := c.tiered(namespace)
	if err != nil {
		return err
	}
	version, err := c.versions.Current(ctx, namespace)
	if err != nil {
		return err
	}

	composed := composeSubkey(subkey, locale)
	key := versionedKey(namespace, version, composed)

	if err := tc.Evict(ctx, key); err != nil {
		return err
	}
	tc.RecordInvalidation()

	c.publish(ctx, types.NewEvent(types.Deleted, namespace, composed, c.opts.ProcessID))
	return nil
}

// InvalidateNamespace bumps the namespace's version so all subsequent
// keys are new, clears this process's local slice and publishes a
// scope-wide event. Old shared-tier entries become unreachable and are
// left to expire via TTL.
func (c *Coordinator) InvalidateNamespace(ctx context.Context, namespace string) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrCacheClosed
	}

	tc, err := c.tiered(namespace)
	if err != nil {
		return err
	}
	if _, err := c.versions.Increment(ctx, namespace); err != nil {
		return err
	}

	tc.ClearLocal()
	tc.RecordInvalidation()

	c.publish(ctx, types.NewEvent(types.ClearScope, namespace, "", c.opts.ProcessID))
	return nil
}

// InvalidateAll applies a namespace invalidation to every namespace any
// process in the cluster has touched, then publishes a single
// cluster-wide clear. The version bump must cover namespaces populated
// only by other replicas: their shared-tier entries would otherwise
// survive the clear and repopulate remote local tiers with stale data.
func (c *Coordinator) InvalidateAll(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrCacheClosed
	}

	namespaces, err := c.allNamespaces(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, namespace := range namespaces {
		if _, err := c.versions.Increment(ctx, namespace); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if tc, ok := c.existingTier(namespace); ok {
			tc.ClearLocal()
			tc.RecordInvalidation()
		}
	}
	if firstErr != nil {
		return firstErr
	}

	c.publish(ctx, types.NewEvent(types.ClearAll, "", "", c.opts.ProcessID))
	return nil
}

// ResetNamespace forces the namespace's version back to 1. This orphans
// every existing key of the namespace, so a scope-wide event is always
// broadcast.
func (c *Coordinator) ResetNamespace(ctx context.Context, namespace string) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrCacheClosed
	}

	tc, err := c.tiered(namespace)
	if err != nil {
		return err
	}
	if err := c.versions.Reset(ctx, namespace); err != nil {
		return err
	}

	tc.ClearLocal()
	tc.RecordInvalidation()

	c.publish(ctx, types.NewEvent(types.ClearScope, namespace, "", c.opts.ProcessID))
	return nil
}

// CurrentVersion exposes the namespace's version for operator tooling.
func (c *Coordinator) CurrentVersion(ctx context.Context, namespace string) (int64, error) {
	return c.versions.Current(ctx, namespace)
}

// DumpKeys lists the namespace's shared-tier keys across all versions.
// Monitoring only; this walks the shared store.
func (c *Coordinator) DumpKeys(ctx context.Context, namespace string) ([]string, error) {
	return c.opts.Store.Keys(ctx, namespacePattern(namespace))
}

// Stats returns per-namespace counters for every instantiated namespace.
func (c *Coordinator) Stats() map[string]Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make(map[string]Stats, len(c.tiers))
	for name, tc := range c.tiers {
		stats[name] = tc.Stats()
	}
	return stats
}

// Close stops the bus, closes the shared store and releases every local
// tier.
func (c *Coordinator) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	var errs []error
	if err := c.opts.Bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.opts.Store.Close(); err != nil {
		errs = append(errs, err)
	}

	c.mu.Lock()
	for _, tc := range c.tiers {
		tc.Close()
	}
	c.tiers = make(map[string]*TieredCache)
	c.mu.Unlock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// tiered returns the namespace's two-level cache, creating it on first
// access with the namespace's explicit settings or the default.
func (c *Coordinator) tiered(namespace string) (*TieredCache, error) {
	c.mu.RLock()
	tc, ok := c.tiers[namespace]
	c.mu.RUnlock()
	if ok {
		return tc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tc, ok := c.tiers[namespace]; ok {
		return tc, nil
	}

	nc, ok := c.opts.Namespaces[namespace]
	if !ok {
		nc = c.opts.DefaultNamespace
	}

	local, err := factoryFor(nc).Create()
	if err != nil {
		return nil, err
	}

	tc = NewTieredCache(namespace, local, c.opts.Store, c.opts.Marshaller, c.opts.Logger, nc.SharedTTL)
	tc.SetDebug(c.opts.DebugMode)
	tc.SetOnError(c.opts.OnError)
	c.tiers[namespace] = tc
	return tc, nil
}

// existingTier returns the namespace's cache only if it was already
// instantiated. Inbound events for namespaces this process never touched
// have nothing to clear.
func (c *Coordinator) existingTier(namespace string) (*TieredCache, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.tiers[namespace]
	return tc, ok
}

// allNamespaces enumerates every namespace cluster-wide. The version
// counters in the shared store are the authoritative registry: every
// process that touched a namespace created its counter. Locally
// configured and instantiated namespaces are merged in so the result is
// complete even when the counter write has not happened yet.
func (c *Coordinator) allNamespaces(ctx context.Context) ([]string, error) {
	keys, err := c.opts.Store.Keys(ctx, versionKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		seen[strings.TrimPrefix(key, versionKeyPrefix)] = struct{}{}
	}
	for name := range c.opts.Namespaces {
		seen[name] = struct{}{}
	}
	c.mu.RLock()
	for name := range c.tiers {
		seen[name] = struct{}{}
	}
	c.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names, nil
}

// handleEvent applies one inbound invalidation event. The bus already
// filtered out this process's own broadcasts. Handlers stay idempotent:
// replaying or reordering events only re-clears already-clean entries.
func (c *Coordinator) handleEvent(event types.InvalidationEvent) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return
	}

	switch event.Type {
	case types.Created, types.Updated, types.Deleted:
		tc, ok := c.existingTier(event.Namespace)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventHandleTimeout)
		defer cancel()

		version, err := c.versions.Current(ctx, event.Namespace)
		if err != nil {
			// Without the version the exact key is unknown; clearing the
			// namespace slice keeps the local tier safe.
			c.report(err)
			tc.ClearLocal()
			tc.RecordInvalidation()
			return
		}
		tc.DeleteLocal(versionedKey(event.Namespace, version, event.Subkey))
		tc.RecordInvalidation()

	case types.ClearScope:
		tc, ok := c.existingTier(event.Namespace)
		if !ok {
			return
		}
		tc.ClearLocal()
		tc.RecordInvalidation()

	case types.ClearAll:
		c.mu.RLock()
		tiers := make([]*TieredCache, 0, len(c.tiers))
		for _, tc := range c.tiers {
			tiers = append(tiers, tc)
		}
		c.mu.RUnlock()
		for _, tc := range tiers {
			tc.ClearLocal()
			tc.RecordInvalidation()
		}

	default:
		c.opts.Logger.Warn("unknown invalidation event type",
			"type", string(event.Type), "namespace", event.Namespace, "origin", event.OriginProcessID)
	}
}

// publish broadcasts an event. Publish failures are reported, not
// retried: a missed invalidation is recovered by shared-tier TTL expiry.
func (c *Coordinator) publish(ctx context.Context, event types.InvalidationEvent) {
	if err := c.opts.Bus.Publish(ctx, event); err != nil {
		c.report(err)
		c.opts.Logger.Warn("failed to publish invalidation event",
			"type", string(event.Type), "namespace", event.Namespace, "error", err)
	}
}

func (c *Coordinator) report(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}
