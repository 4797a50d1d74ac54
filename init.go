// Package versionedcache provides a cluster-coordinated two-level cache
// for multi-replica services: a per-process local tier in front of a
// shared Redis tier, versioned key namespaces, pub/sub invalidation with
// self-origin suppression and an advisory distributed lock that damps
// thundering-herd reloads.
package versionedcache

import (
	"time"

	"github.com/google/uuid"

	"github.com/edukit/versioned-cache/cache"
	"github.com/edukit/versioned-cache/storage"
	cachesync "github.com/edukit/versioned-cache/sync"
)

// Config configures a coordinator backed by Redis.
type Config struct {
	// ProcessID uniquely identifies this process on the invalidation
	// channel. Empty selects a random UUID.
	ProcessID string

	// RedisAddr is the Redis server address (e.g. "localhost:6379").
	RedisAddr string

	// RedisPassword is the optional Redis password.
	RedisPassword string

	// RedisDB is the Redis database number.
	RedisDB int

	// InvalidationChannel is the pub/sub channel for invalidation
	// events.
	InvalidationChannel string

	// Namespaces maps namespace names to explicit cache settings.
	// Namespaces absent from the map use DefaultNamespace on first
	// access.
	Namespaces map[string]NamespaceConfig

	// DefaultNamespace is applied to implicitly created namespaces.
	DefaultNamespace NamespaceConfig

	// SerializationFormat selects how values are stored in the shared
	// tier: "json" (default) or "msgpack".
	SerializationFormat string

	// Marshaller overrides SerializationFormat when non-nil.
	Marshaller Marshaller

	// Logger receives diagnostic output. Defaults to no-op; see
	// cache.NewZapLogger for a zap-backed implementation.
	Logger Logger

	// DebugMode enables verbose debug logging.
	DebugMode bool

	// LockTTL bounds how long a cache-population lock may be held.
	LockTTL time.Duration

	// LockRetries and LockRetryDelay control the bounded wait of a
	// process that lost the population lock.
	LockRetries    int
	LockRetryDelay time.Duration

	// BreakerEnabled wraps the Redis store in a circuit breaker so that
	// an unreachable Redis degrades reads to misses quickly.
	BreakerEnabled bool

	// OnError is called for failures on background paths. May be nil.
	OnError func(error)
}

// DefaultConfig returns a production-ready configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:           "localhost:6379",
		InvalidationChannel: "cache:invalidate",
		DefaultNamespace:    DefaultNamespaceConfig(),
		SerializationFormat: "json",
		LockTTL:             10 * time.Second,
		LockRetries:         3,
		LockRetryDelay:      50 * time.Millisecond,
		BreakerEnabled:      true,
	}
}

// New connects to Redis and builds a coordinator. Callers own the
// returned coordinator and must Close it.
func New(cfg Config) (*Coordinator, error) {
	if cfg.ProcessID == "" {
		cfg.ProcessID = uuid.NewString()
	}
	if cfg.InvalidationChannel == "" {
		return nil, ErrInvalidConfig
	}

	marshaller := cfg.Marshaller
	if marshaller == nil {
		var err error
		marshaller, err = cache.NewMarshaller(cfg.SerializationFormat)
		if err != nil {
			return nil, err
		}
	}

	redisStore, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	var store Store = redisStore
	if cfg.BreakerEnabled {
		store = storage.NewBreakerStore(redisStore, storage.BreakerSettings{})
	}

	var busLogger cachesync.Logger
	if cfg.Logger != nil {
		busLogger = cfg.Logger
	}
	bus := cachesync.NewPubSubBus(redisStore.Client(), cfg.InvalidationChannel, cfg.ProcessID, busLogger)

	opts := cache.DefaultOptions()
	opts.ProcessID = cfg.ProcessID
	opts.Store = store
	opts.Bus = bus
	opts.Namespaces = cfg.Namespaces
	if cfg.DefaultNamespace != (NamespaceConfig{}) {
		opts.DefaultNamespace = cfg.DefaultNamespace
	}
	opts.Marshaller = marshaller
	opts.Logger = cfg.Logger
	opts.DebugMode = cfg.DebugMode
	opts.OnError = cfg.OnError
	if cfg.LockTTL > 0 {
		opts.LockTTL = cfg.LockTTL
	}
	if cfg.LockRetries > 0 {
		opts.LockRetries = cfg.LockRetries
	}
	if cfg.LockRetryDelay > 0 {
		opts.LockRetryDelay = cfg.LockRetryDelay
	}

	coordinator, err := cache.NewCoordinator(opts)
	if err != nil {
		_ = bus.Close()
		_ = store.Close()
		return nil, err
	}
	return coordinator, nil
}
