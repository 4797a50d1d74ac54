package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key1", []byte("value1"), 0))

	value, err := store.Get(ctx, "key1")
	require.NoError(t, err)
	require.Equal(t, []byte("value1"), value)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key1", []byte("value1"), 50*time.Millisecond))
	time.Sleep(120 * time.Millisecond)

	_, err := store.Get(ctx, "key1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key1", []byte("value1"), 0))
	require.NoError(t, store.Delete(ctx, "key1"))

	_, err := store.Get(ctx, "key1")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete(ctx, "key1"))
}

func TestMemoryStoreIncrement(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value, err := store.Increment(ctx, "counter")
	require.NoError(t, err)
	require.Equal(t, int64(1), value)

	value, err = store.Increment(ctx, "counter")
	require.NoError(t, err)
	require.Equal(t, int64(2), value)
}

func TestMemoryStoreSetIfAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.SetIfAbsent(ctx, "key1", []byte("first"), 0)
	require.NoError(t, err)
	require.True(t, created)

	created, err = store.SetIfAbsent(ctx, "key1", []byte("second"), 0)
	require.NoError(t, err)
	require.False(t, created)

	value, err := store.Get(ctx, "key1")
	require.NoError(t, err)
	require.Equal(t, []byte("first"), value)
}

func TestMemoryStoreSetIfAbsentAfterExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.SetIfAbsent(ctx, "key1", []byte("first"), 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, created)

	time.Sleep(120 * time.Millisecond)

	created, err = store.SetIfAbsent(ctx, "key1", []byte("second"), 0)
	require.NoError(t, err)
	require.True(t, created, "an expired key counts as absent")
}

func TestMemoryStoreKeysPattern(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "translations:v1:greeting", []byte("a"), 0))
	require.NoError(t, store.Set(ctx, "translations:v2:greeting", []byte("b"), 0))
	require.NoError(t, store.Set(ctx, "menu:v1:root", []byte("c"), 0))

	keys, err := store.Keys(ctx, "translations:v*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"translations:v1:greeting", "translations:v2:greeting"}, keys)
}

func TestMemoryStoreKeysMatchSubkeysWithSlashes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Redis glob semantics: / is an ordinary byte, not a separator.
	require.NoError(t, store.Set(ctx, "pages:v1:path/to/page", []byte("a"), 0))
	require.NoError(t, store.Set(ctx, "pages:v1:plain", []byte("b"), 0))

	keys, err := store.Keys(ctx, "pages:v*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"pages:v1:path/to/page", "pages:v1:plain"}, keys)
}

func TestMemoryStoreKeysQuestionMarkWildcard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "menu:v1:a", []byte("a"), 0))
	require.NoError(t, store.Set(ctx, "menu:v12:a", []byte("b"), 0))

	keys, err := store.Keys(ctx, "menu:v?:a")
	require.NoError(t, err)
	require.Equal(t, []string{"menu:v1:a"}, keys)
}

func TestMemoryStoreValueIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("value1")
	require.NoError(t, store.Set(ctx, "key1", original, 0))
	original[0] = 'X'

	value, err := store.Get(ctx, "key1")
	require.NoError(t, err)
	require.Equal(t, []byte("value1"), value, "stored bytes must not alias the caller's slice")
}
