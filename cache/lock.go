package cache

import (
	"context"
	"strconv"
	"time"
)

// lockKeyPrefix namespaces lock tokens inside the shared store.
const lockKeyPrefix = "cachelock:"

// DistributedLock is a short-lived, advisory mutual-exclusion token in
// the shared store, used to keep multiple processes from redundantly
// loading the same data. It is a performance mitigation, not a
// correctness primitive: Release carries no ownership token, so a slow
// holder can delete a successor's lock. Do not reuse it where mutual
// exclusion must be guaranteed.
type DistributedLock struct {
	store Store
	ttl   time.Duration
}

// NewDistributedLock creates a lock helper. Every acquired token expires
// after ttl, so a crashed holder self-heals instead of blocking others
// forever.
func NewDistributedLock(store Store, ttl time.Duration) *DistributedLock {
	return &DistributedLock{store: store, ttl: ttl}
}

// TryAcquire attempts to take the lock for scope. It never blocks: the
// result reports whether this call created the token. Callers that lose
// must fall back to a bounded wait or serve stale data, never an
// unbounded wait.
func (dl *DistributedLock) TryAcquire(ctx context.Context, scope string) (bool, error) {
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return dl.store.SetIfAbsent(ctx, lockKeyPrefix+scope, []byte(stamp), dl.ttl)
}

// Release deletes the lock token. Releasing a lock you do not hold is a
// no-op.
func (dl *DistributedLock) Release(ctx context.Context, scope string) error {
	return dl.store.Delete(ctx, lockKeyPrefix+scope)
}

// TTL returns the lock's configured lifetime.
func (dl *DistributedLock) TTL() time.Duration {
	return dl.ttl
}
