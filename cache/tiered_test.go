package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edukit/versioned-cache/storage"
)

func newTestTiered(t *testing.T, store Store) *TieredCache {
	t.Helper()
	local, err := NewLRUCache(100, time.Minute)
	require.NoError(t, err)
	tc := NewTieredCache("translations", local, store, nil, nil, time.Minute)
	t.Cleanup(tc.Close)
	return tc
}

func TestTieredGetOrLoadReadThrough(t *testing.T) {
	tc := newTestTiered(t, storage.NewMemoryStore())
	ctx := context.Background()

	calls := 0
	loader := func() (any, error) {
		calls++
		return "Hello", nil
	}

	value, err := tc.GetOrLoad(ctx, "translations:v1:greeting", loader)
	require.NoError(t, err)
	require.Equal(t, "Hello", value)
	require.Equal(t, 1, calls)

	// A subsequent read must serve from cache without the loader.
	value, found := tc.Get(ctx, "translations:v1:greeting")
	require.True(t, found)
	require.Equal(t, "Hello", value)
	require.Equal(t, 1, calls)
}

func TestTieredGetOrLoadLoaderFailure(t *testing.T) {
	tc := newTestTiered(t, storage.NewMemoryStore())
	ctx := context.Background()

	loadErr := errors.New("database down")
	_, err := tc.GetOrLoad(ctx, "translations:v1:greeting", func() (any, error) {
		return nil, loadErr
	})
	require.ErrorIs(t, err, loadErr, "loader failure must propagate unchanged")

	// Nothing was cached, so the next call retries the loader.
	value, err := tc.GetOrLoad(ctx, "translations:v1:greeting", func() (any, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, "recovered", value)
}

func TestTieredSharedHitRepopulatesLocal(t *testing.T) {
	store := storage.NewMemoryStore()
	tc := newTestTiered(t, store)
	ctx := context.Background()

	require.NoError(t, tc.Set(ctx, "translations:v1:greeting", "Hello"))
	tc.DeleteLocal("translations:v1:greeting")

	value, found := tc.Get(ctx, "translations:v1:greeting")
	require.True(t, found, "value must come back from the shared tier")
	require.Equal(t, "Hello", value)
	require.Equal(t, int64(1), tc.Stats().RemoteHits)

	// The local tier was repopulated: the next read is a local hit.
	_, found = tc.Get(ctx, "translations:v1:greeting")
	require.True(t, found)
	require.Equal(t, int64(1), tc.Stats().RemoteHits, "second read must not touch the shared tier")
}

func TestTieredSetWritesBothTiersSynchronously(t *testing.T) {
	store := storage.NewMemoryStore()
	tc := newTestTiered(t, store)
	ctx := context.Background()

	require.NoError(t, tc.Set(ctx, "translations:v1:greeting", "Hello"))

	// Another process must be able to read it back immediately.
	data, err := store.Get(ctx, "translations:v1:greeting")
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestTieredSetPropagatesSharedWriteFailure(t *testing.T) {
	tc := newTestTiered(t, failingStore{})

	err := tc.Set(context.Background(), "translations:v1:greeting", "Hello")
	require.ErrorIs(t, err, errStoreDown)
}

func TestTieredGetDegradesToMissOnStoreFailure(t *testing.T) {
	tc := newTestTiered(t, failingStore{})

	_, found := tc.Get(context.Background(), "translations:v1:greeting")
	require.False(t, found, "shared-store failure on reads must degrade to a miss")
}

func TestTieredGetOrLoadReturnsValueDespiteSharedWriteFailure(t *testing.T) {
	tc := newTestTiered(t, failingStore{})

	value, err := tc.GetOrLoad(context.Background(), "translations:v1:greeting", func() (any, error) {
		return "Hello", nil
	})
	require.NoError(t, err, "a lost shared write-back must not fail the read")
	require.Equal(t, "Hello", value)
}

func TestTieredEvictRemovesBothTiers(t *testing.T) {
	store := storage.NewMemoryStore()
	tc := newTestTiered(t, store)
	ctx := context.Background()

	require.NoError(t, tc.Set(ctx, "translations:v1:greeting", "Hello"))
	require.NoError(t, tc.Evict(ctx, "translations:v1:greeting"))

	_, found := tc.Get(ctx, "translations:v1:greeting")
	require.False(t, found)

	_, err := store.Get(ctx, "translations:v1:greeting")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTieredClearEmptiesNamespace(t *testing.T) {
	store := storage.NewMemoryStore()
	tc := newTestTiered(t, store)
	ctx := context.Background()

	require.NoError(t, tc.Set(ctx, "translations:v1:greeting", "Hello"))
	require.NoError(t, tc.Set(ctx, "translations:v2:greeting", "Hi"))
	require.NoError(t, tc.Clear(ctx))

	keys, err := store.Keys(ctx, "translations:v*")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestTieredGetOrLoadCoalescesConcurrentCallers(t *testing.T) {
	tc := newTestTiered(t, storage.NewMemoryStore())
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	started := make(chan struct{})
	release := make(chan struct{})
	loader := func() (any, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return "Hello", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := tc.GetOrLoad(ctx, "translations:v1:greeting", loader)
			require.NoError(t, err)
			results[i] = value
		}(i)
	}

	<-started
	// All callers are either queued on the flight or already done with a
	// local hit; let the loader finish.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, value := range results {
		require.Equal(t, "Hello", value)
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls, "concurrent misses on one process should coalesce to a single load")
}

func TestTieredStatsCounters(t *testing.T) {
	tc := newTestTiered(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, err := tc.GetOrLoad(ctx, "translations:v1:greeting", func() (any, error) {
		return "Hello", nil
	})
	require.NoError(t, err)
	tc.Get(ctx, "translations:v1:greeting")

	stats := tc.Stats()
	require.Equal(t, int64(1), stats.Loads)
	require.Equal(t, int64(1), stats.LocalHits)
	require.GreaterOrEqual(t, stats.LocalMisses, int64(1))
}
