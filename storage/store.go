package storage

import (
	"context"
	"time"
)

// Store is the shared key/value store contract consumed by the cache
// tiers, the version counter and the distributed lock. All mutating
// operations that need atomicity (Increment, SetIfAbsent) must be atomic
// at the store level; application code never read-modify-writes.
type Store interface {
	// Get retrieves the value stored under key; ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Absent keys are a no-op.
	Delete(ctx context.Context, key string) error

	// Increment atomically adds 1 to the counter at key and returns the
	// new value, creating the counter at 1 when absent.
	Increment(ctx context.Context, key string) (int64, error)

	// SetIfAbsent atomically stores value only when key does not exist
	// and reports whether this call created it.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Keys returns all keys matching the glob pattern. Bulk/monitoring
	// use only.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close releases the store's resources.
	Close() error
}
