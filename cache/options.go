package cache

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when coordinator options are invalid.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// ErrCacheClosed is returned when operations are performed on a closed
// coordinator.
var ErrCacheClosed = errors.New("cache is closed")

// EvictionPolicy selects the local-tier implementation for a namespace.
type EvictionPolicy string

const (
	// PolicyLRU uses a least-recently-used local tier with a per-tier TTL.
	PolicyLRU EvictionPolicy = "lru"

	// PolicyLFU uses a Ristretto (TinyLFU) local tier with per-entry TTL.
	PolicyLFU EvictionPolicy = "lfu"
)

// NamespaceConfig holds the explicit per-namespace cache settings. Every
// namespace carries its own capacity and TTLs; there are no hardcoded
// per-name special cases.
type NamespaceConfig struct {
	// MaxEntries bounds the local tier.
	MaxEntries int

	// LocalTTL is the local-tier entry lifetime.
	LocalTTL time.Duration

	// SharedTTL is the shared-tier entry lifetime. Must be >= LocalTTL so
	// the shared tier outlives the process-local cache and can repopulate
	// it.
	SharedTTL time.Duration

	// Policy selects the local-tier eviction policy. Empty means LRU.
	Policy EvictionPolicy
}

// Validate checks the namespace settings.
func (nc NamespaceConfig) Validate() error {
	if nc.MaxEntries <= 0 {
		return fmt.Errorf("%w: MaxEntries must be > 0", ErrInvalidConfig)
	}
	if nc.LocalTTL <= 0 {
		return fmt.Errorf("%w: LocalTTL must be > 0", ErrInvalidConfig)
	}
	if nc.SharedTTL < nc.LocalTTL {
		return fmt.Errorf("%w: SharedTTL must be >= LocalTTL", ErrInvalidConfig)
	}
	switch nc.Policy {
	case "", PolicyLRU, PolicyLFU:
	default:
		return fmt.Errorf("%w: unknown eviction policy %q", ErrInvalidConfig, nc.Policy)
	}
	return nil
}

// DefaultNamespaceConfig returns the settings applied to namespaces that
// have no explicit entry in Options.Namespaces.
func DefaultNamespaceConfig() NamespaceConfig {
	return NamespaceConfig{
		MaxEntries: 10000,
		LocalTTL:   5 * time.Minute,
		SharedTTL:  30 * time.Minute,
		Policy:     PolicyLRU,
	}
}

// Options configures a Coordinator.
type Options struct {
	// ProcessID uniquely identifies this process on the invalidation bus.
	// Used for self-origin suppression.
	ProcessID string

	// Store is the shared key/value store.
	Store Store

	// Bus is the invalidation bus.
	Bus Bus

	// Namespaces maps namespace names to their explicit settings.
	// Namespaces absent from the map are created on first access with
	// DefaultNamespace.
	Namespaces map[string]NamespaceConfig

	// DefaultNamespace is applied to implicitly created namespaces.
	DefaultNamespace NamespaceConfig

	// LockTTL bounds how long a population lock may be held before it
	// self-heals.
	LockTTL time.Duration

	// LockRetries is how many times a loser of the population lock
	// rechecks the shared tier before loading anyway.
	LockRetries int

	// LockRetryDelay is the pause between those rechecks.
	LockRetryDelay time.Duration

	// Marshaller serializes values for the shared tier. Defaults to JSON.
	Marshaller Marshaller

	// Logger receives diagnostic output. Defaults to no-op.
	Logger Logger

	// DebugMode enables verbose debug logging.
	DebugMode bool

	// OnError is called for failures in background paths (publish,
	// event handling). May be nil.
	OnError func(error)
}

// DefaultOptions returns coordinator options with production defaults.
// Store, Bus and ProcessID must still be supplied by the caller.
func DefaultOptions() Options {
	return Options{
		DefaultNamespace: DefaultNamespaceConfig(),
		LockTTL:          10 * time.Second,
		LockRetries:      3,
		LockRetryDelay:   50 * time.Millisecond,
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	if o.ProcessID == "" {
		return fmt.Errorf("%w: ProcessID is required", ErrInvalidConfig)
	}
	if o.Store == nil {
		return fmt.Errorf("%w: Store is required", ErrInvalidConfig)
	}
	if o.Bus == nil {
		return fmt.Errorf("%w: Bus is required", ErrInvalidConfig)
	}
	if o.LockTTL <= 0 {
		return fmt.Errorf("%w: LockTTL must be > 0", ErrInvalidConfig)
	}
	if o.LockRetries < 0 || o.LockRetryDelay < 0 {
		return fmt.Errorf("%w: lock retry settings must not be negative", ErrInvalidConfig)
	}
	if err := o.DefaultNamespace.Validate(); err != nil {
		return fmt.Errorf("default namespace: %w", err)
	}
	for name, nc := range o.Namespaces {
		if name == "" {
			return fmt.Errorf("%w: empty namespace name", ErrInvalidConfig)
		}
		if err := nc.Validate(); err != nil {
			return fmt.Errorf("namespace %q: %w", name, err)
		}
	}
	return nil
}
