package versionedcache

import (
	"github.com/edukit/versioned-cache/cache"
	"github.com/edukit/versioned-cache/storage"
)

// ErrNotFound is returned when a key is not present in the shared store.
var ErrNotFound = storage.ErrNotFound

// ErrCacheClosed is returned when operations are performed on a closed
// coordinator.
var ErrCacheClosed = cache.ErrCacheClosed

// ErrInvalidConfig is returned when the configuration is invalid.
var ErrInvalidConfig = cache.ErrInvalidConfig
