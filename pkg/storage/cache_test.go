package storage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStore_SetThenGetHitsCache(t *testing.T) {
	backing := newTestStore(t)
	cache := NewCachedStore(backing)

	require.NoError(t, cache.Set("FrameworkId", []byte("f1")))

	// Close the backing store's file handle so the read cannot use it: the
	// Get after the Set must be served from the mirror, not a fresh bolt
	// transaction.
	require.NoError(t, backing.Close())
	got, err := cache.Get("FrameworkId")
	require.NoError(t, err)
	assert.Equal(t, "f1", string(got))
}

func TestCachedStore_GetMissPopulatesCacheFromBacking(t *testing.T) {
	backing := newTestStore(t)
	require.NoError(t, backing.Set("Tasks/A/info", []byte("a")))

	cache := NewCachedStore(backing)
	got, err := cache.Get("Tasks/A/info")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestCachedStore_DeleteAllEvictsSubtree(t *testing.T) {
	backing := newTestStore(t)
	cache := NewCachedStore(backing)

	require.NoError(t, cache.Set("Tasks/A/info", []byte("a")))
	require.NoError(t, cache.Set("Tasks/A/status", []byte("s")))

	require.NoError(t, cache.DeleteAll("Tasks/A"))

	_, err := cache.Get("Tasks/A/info")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_ConcurrentReadsDoNotBlock(t *testing.T) {
	backing := newTestStore(t)
	cache := NewCachedStore(backing)
	require.NoError(t, cache.Set("FrameworkId", []byte("f1")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get("FrameworkId")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestCachedStore_SetManyAtomicMirror(t *testing.T) {
	backing := newTestStore(t)
	cache := NewCachedStore(backing)

	writes := map[string][]byte{
		"Tasks/A/info": []byte("a"),
		"Tasks/B/info": []byte("b"),
	}
	require.NoError(t, cache.SetMany(writes))

	for path, want := range writes {
		got, err := cache.Get(path)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}
