package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStore_SetGet(t *testing.T) {
	store := newTestStore(t)

	err := store.Set("FrameworkId", []byte("framework-1"))
	require.NoError(t, err)

	data, err := store.Get("FrameworkId")
	require.NoError(t, err)
	assert.Equal(t, "framework-1", string(data))
}

func TestBoltStore_GetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("Tasks/nope/info")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStore_NestedPathsAndChildren(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name string
		path string
		data string
	}{
		{"task A info", "Tasks/A/info", "info-a"},
		{"task A status", "Tasks/A/status", "status-a"},
		{"task B info", "Tasks/B/info", "info-b"},
	}
	for _, tt := range tests {
		require.NoError(t, store.Set(tt.path, []byte(tt.data)))
	}

	children, err := store.GetChildren("Tasks")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, children)

	children, err = store.GetChildren("Tasks/A")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"info", "status"}, children)

	data, err := store.Get("Tasks/A/info")
	require.NoError(t, err)
	assert.Equal(t, "info-a", string(data))
}

func TestBoltStore_SetManyIsAtomicAcrossPaths(t *testing.T) {
	store := newTestStore(t)

	writes := map[string][]byte{
		"Tasks/A/info":   []byte("a"),
		"Tasks/B/info":   []byte("b"),
		"FrameworkId":     []byte("f"),
	}
	require.NoError(t, store.SetMany(writes))

	for path, want := range writes {
		got, err := store.Get(path)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestBoltStore_DeleteAllRemovesSubtree(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("Tasks/A/info", []byte("a")))
	require.NoError(t, store.Set("Tasks/A/status", []byte("s")))
	require.NoError(t, store.Set("Tasks/B/info", []byte("b")))

	require.NoError(t, store.DeleteAll("Tasks/A"))

	_, err := store.Get("Tasks/A/info")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get("Tasks/A/status")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := store.Get("Tasks/B/info")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestBoltStore_DeleteAllOnLeafKey(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("FrameworkId", []byte("f")))
	require.NoError(t, store.DeleteAll("FrameworkId"))

	_, err := store.Get("FrameworkId")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStore_DeleteAllOnMissingPathIsNoop(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.DeleteAll("Tasks/ghost"))
}
