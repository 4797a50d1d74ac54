package cache

import (
	"context"

	"github.com/edukit/versioned-cache/storage"
	"github.com/edukit/versioned-cache/types"
)

// Logger defines the logging interface used throughout the cache.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)

	// Info logs an info message.
	Info(msg string, args ...any)

	// Warn logs a warning message.
	Warn(msg string, args ...any)

	// Error logs an error message.
	Error(msg string, args ...any)
}

// Marshaller defines how cached values are serialized for the shared
// tier.
type Marshaller interface {
	// Marshal serializes a value to bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes a value from bytes.
	Unmarshal(data []byte, v any) error
}

// LocalCache defines the per-process cache tier. Implementations are
// bounded and TTL-expiring; an expired entry must never be returned.
type LocalCache interface {
	// Get retrieves a value from the local tier.
	Get(key string) (any, bool)

	// Set stores a value in the local tier, resetting its TTL clock.
	Set(key string, value any, cost int64) bool

	// Delete removes a single entry; absent keys are a no-op.
	Delete(key string)

	// Clear removes all entries.
	Clear()

	// Close releases the tier's resources.
	Close()

	// Metrics returns tier metrics.
	Metrics() LocalCacheMetrics
}

// LocalCacheMetrics reports local-tier counters.
type LocalCacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// LocalCacheFactory creates local cache instances for a namespace.
type LocalCacheFactory interface {
	// Create creates a new local cache instance.
	Create() (LocalCache, error)
}

// Store is the shared key/value store all processes coordinate through.
type Store = storage.Store

// Bus broadcasts invalidation events between processes.
type Bus interface {
	// Subscribe starts the receive loop and begins dispatching events to
	// registered handlers.
	Subscribe(ctx context.Context) error

	// Publish sends an event to all processes. Fire-and-forget: a missed
	// event is recovered by shared-tier TTL expiry.
	Publish(ctx context.Context, event types.InvalidationEvent) error

	// OnEvent registers a handler invoked once per received event.
	// Handlers must be idempotent under replay and reordering.
	OnEvent(handler func(event types.InvalidationEvent))

	// Close stops the receive loop and releases resources.
	Close() error
}

// Loader produces a value on a full cache miss. It is supplied per call
// by the business layer and may block on external I/O.
type Loader func() (any, error)

// Stats reports counters for one namespace's two-level cache.
type Stats struct {
	LocalHits     int64
	LocalMisses   int64
	RemoteHits    int64
	RemoteMisses  int64
	LocalSize     int64
	Loads         int64
	Invalidations int64
}
