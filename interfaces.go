package versionedcache

import (
	"github.com/edukit/versioned-cache/cache"
	"github.com/edukit/versioned-cache/types"
)

// Logger is an alias for cache.Logger.
type Logger = cache.Logger

// Marshaller is an alias for cache.Marshaller.
type Marshaller = cache.Marshaller

// LocalCache is an alias for cache.LocalCache.
type LocalCache = cache.LocalCache

// LocalCacheFactory is an alias for cache.LocalCacheFactory.
type LocalCacheFactory = cache.LocalCacheFactory

// Store is an alias for the shared store contract.
type Store = cache.Store

// Bus is an alias for cache.Bus.
type Bus = cache.Bus

// Loader is an alias for cache.Loader.
type Loader = cache.Loader

// Stats is an alias for cache.Stats.
type Stats = cache.Stats

// NamespaceConfig is an alias for cache.NamespaceConfig.
type NamespaceConfig = cache.NamespaceConfig

// Coordinator is an alias for cache.Coordinator.
type Coordinator = cache.Coordinator

// InvalidationEvent is an alias for types.InvalidationEvent.
type InvalidationEvent = types.InvalidationEvent

// DefaultNamespaceConfig returns the settings applied to namespaces
// without an explicit configuration entry.
func DefaultNamespaceConfig() NamespaceConfig {
	return cache.DefaultNamespaceConfig()
}
