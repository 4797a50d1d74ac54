package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/edukit/versioned-cache/storage"
)

// versionKeyPrefix namespaces the counters inside the shared store.
const versionKeyPrefix = "cachever:"

// VersionCounter maintains one monotonically increasing integer per
// namespace in the shared store. The counter is the authoritative
// version for composing keys; store failures surface to the caller so
// readers never silently fall back to a stale version.
type VersionCounter struct {
	store Store
}

// NewVersionCounter creates a counter backed by store.
func NewVersionCounter(store Store) *VersionCounter {
	return &VersionCounter{store: store}
}

// Current returns the namespace's version, atomically initializing it to
// 1 on first access. Concurrent first calls race through SetIfAbsent and
// then re-read, so every process observes the same initial version.
func (vc *VersionCounter) Current(ctx context.Context, namespace string) (int64, error) {
	key := versionKeyPrefix + namespace

	raw, err := vc.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		if _, err := vc.store.SetIfAbsent(ctx, key, []byte("1"), 0); err != nil {
			return 0, err
		}
		raw, err = vc.store.Get(ctx, key)
		if err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	version, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed version for namespace %q: %w", namespace, err)
	}
	return version, nil
}

// Increment atomically bumps the namespace's version and returns the new
// value. The counter is initialized first so a bump on a fresh namespace
// never yields the initial version.
func (vc *VersionCounter) Increment(ctx context.Context, namespace string) (int64, error) {
	key := versionKeyPrefix + namespace

	if _, err := vc.store.SetIfAbsent(ctx, key, []byte("1"), 0); err != nil {
		return 0, err
	}
	return vc.store.Increment(ctx, key)
}

// Reset forces the namespace's version back to 1. This orphans every
// existing key of the namespace at once, so callers must broadcast a
// scope-wide invalidation afterwards.
func (vc *VersionCounter) Reset(ctx context.Context, namespace string) error {
	return vc.store.Set(ctx, versionKeyPrefix+namespace, []byte("1"), 0)
}
