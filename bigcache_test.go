package statex

import (
	"context"
	"testing"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBigCacheStore(tb testing.TB) *BigCacheStore {
	store, err := NewBigCacheStore(context.Background(), BigCacheStoreConfig{
		Config: bigcache.DefaultConfig(10 * time.Minute),
	})
	require.NoError(tb, err)
	tb.Cleanup(func() { store.Close() })
	return store
}

func TestBigCacheStoreBasics(t *testing.T) {
	ctx := context.Background()
	store := newBigCacheStore(t)

	require.NoError(t, store.Set(ctx, "key1", []byte("value1")))

	value, err := store.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), value)

	require.NoError(t, store.Del(ctx, "key1"))

	_, err = store.Get(ctx, "key1")
	assert.True(t, IsErrEntryNotFound(err))
}

func TestBigCacheStoreBackedCache(t *testing.T) {
	ctx := context.Background()
	store := newBigCacheStore(t)

	// BigCache only holds bytes; JSONTransform gives it typed entries.
	cache := NewOperationCache[string](JSONTransform[Entry[string]](store))

	require.NoError(t, cache.Put(ctx, "dash", "v1"))

	entry, ok, err := cache.Get(ctx, "dash")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", entry.Data)
}
