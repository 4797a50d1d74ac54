package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edukit/versioned-cache/storage"
)

func TestDistributedLockMutualExclusion(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	// Two simulated processes against the same shared store.
	lockA := NewDistributedLock(store, time.Minute)
	lockB := NewDistributedLock(store, time.Minute)

	okA, err := lockA.TryAcquire(ctx, "translations:warmup")
	require.NoError(t, err)
	okB, err := lockB.TryAcquire(ctx, "translations:warmup")
	require.NoError(t, err)

	require.True(t, okA != okB, "exactly one process may hold the lock")
	require.True(t, okA, "the first caller should have won")
}

func TestDistributedLockRelease(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	lock := NewDistributedLock(store, time.Minute)

	ok, err := lock.TryAcquire(ctx, "scope")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "scope"))

	ok, err = lock.TryAcquire(ctx, "scope")
	require.NoError(t, err)
	require.True(t, ok, "released lock should be acquirable again")
}

func TestDistributedLockReleaseWithoutHoldingIsNoOp(t *testing.T) {
	store := storage.NewMemoryStore()
	lock := NewDistributedLock(store, time.Minute)

	require.NoError(t, lock.Release(context.Background(), "never-acquired"))
}

func TestDistributedLockSelfHealsAfterTTL(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	lock := NewDistributedLock(store, 50*time.Millisecond)

	ok, err := lock.TryAcquire(ctx, "scope")
	require.NoError(t, err)
	require.True(t, ok)

	// Holder crashes without releasing; within the TTL the lock stays
	// taken, after TTL plus a buffer it frees itself.
	ok, err = lock.TryAcquire(ctx, "scope")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(120 * time.Millisecond)

	ok, err = lock.TryAcquire(ctx, "scope")
	require.NoError(t, err)
	require.True(t, ok, "expired lock must become acquirable")
}

func TestDistributedLockScopesAreIndependent(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	lock := NewDistributedLock(store, time.Minute)

	ok, err := lock.TryAcquire(ctx, "scope-a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = lock.TryAcquire(ctx, "scope-b")
	require.NoError(t, err)
	require.True(t, ok, "different scopes must not contend")
}
