package statex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationCacheBasics(t *testing.T) {
	ctx := context.Background()
	cache := NewOperationCache[string](nil)

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "dash")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "dash", "v1"))

		entry, ok, err := cache.Get(ctx, "dash")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v1", entry.Data)
		assert.False(t, entry.WrittenAt.IsZero())
	})

	t.Run("put replaces prior entry wholesale", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "dash", "v2"))

		entry, ok, err := cache.Get(ctx, "dash")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v2", entry.Data)
	})

	t.Run("invalidate removes entry", func(t *testing.T) {
		require.NoError(t, cache.Invalidate(ctx, "dash"))

		_, ok, err := cache.Get(ctx, "dash")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestOperationCacheFreshness(t *testing.T) {
	ctx := context.Background()
	clock := NewMockClock(time.Now())
	defer clock.Install()()

	cache := NewOperationCache[string](nil)
	threshold := 60 * time.Second

	t.Run("absent key is stale", func(t *testing.T) {
		assert.True(t, cache.IsStale(ctx, "dash", threshold))
	})

	t.Run("fresh within threshold", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "dash", "v1"))

		assert.False(t, cache.IsStale(ctx, "dash", threshold))

		clock.Advance(threshold)
		assert.False(t, cache.IsStale(ctx, "dash", threshold), "age == threshold is still fresh")
	})

	t.Run("stale past threshold", func(t *testing.T) {
		clock.Advance(1 * time.Millisecond)
		assert.True(t, cache.IsStale(ctx, "dash", threshold))
	})

	t.Run("refresh resets the clock", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "dash", "v2"))
		assert.False(t, cache.IsStale(ctx, "dash", threshold))
	})
}

func TestOperationCacheSharedAcrossScreens(t *testing.T) {
	ctx := context.Background()
	cache := NewOperationCache[string](nil)

	require.NoError(t, cache.Put(ctx, "conversation:42", "history"))

	// A second consumer of the same key observes the same entry.
	entry, ok, err := cache.Get(ctx, "conversation:42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "history", entry.Data)
}
