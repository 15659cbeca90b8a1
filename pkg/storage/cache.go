package storage

import (
	"strings"
	"sync"

	"github.com/cuemby/teardown/pkg/metrics"
)

// node is one entry of the in-memory mirror: either a leaf value or a set
// of named children (never both observed at once by a reader, mirroring
// how the backing store itself only ever holds one shape per key).
type node struct {
	value    []byte
	children map[string]bool
}

// CachedStore wraps a Store with a write-through in-memory mirror. Every
// mutating call writes the backing store first, then updates the mirror,
// while holding the write lock. Get is served from the mirror under the
// read lock once the path has been written or read; a Get miss is read
// from the backing store under the write lock. GetChildren is not served
// from the mirror: it always reads the backing store under the write lock.
// A single sync.RWMutex guards the whole tree: readers don't
// block readers, writers exclude everything, and compound operations
// (read-then-set-many) are covered by taking the lock for the whole
// operation rather than per backing call.
type CachedStore struct {
	mu      sync.RWMutex
	backing Store
	tree    map[string]*node
	loaded  bool
}

// NewCachedStore wraps backing with a write-through cache.
func NewCachedStore(backing Store) *CachedStore {
	return &CachedStore{
		backing: backing,
		tree:    make(map[string]*node),
	}
}

// Get returns the bytes at path, consulting the cache first.
func (c *CachedStore) Get(path string) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOpDuration, "get")

	c.mu.RLock()
	if n, ok := c.tree[path]; ok && n.value != nil {
		defer c.mu.RUnlock()
		return append([]byte(nil), n.value...), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.backing.Get(path)
	if err != nil {
		if err != ErrNotFound {
			metrics.StoreErrorsTotal.WithLabelValues("get").Inc()
		}
		return nil, err
	}
	c.tree[path] = &node{value: data}
	return data, nil
}

// GetChildren returns the children of path as read from the backing store,
// and records them in the mirror.
func (c *CachedStore) GetChildren(path string) ([]string, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOpDuration, "getChildren")

	c.mu.Lock()
	defer c.mu.Unlock()

	children, err := c.backing.GetChildren(path)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("getChildren").Inc()
		return nil, err
	}
	n, ok := c.tree[path]
	if !ok {
		n = &node{}
		c.tree[path] = n
	}
	n.children = make(map[string]bool, len(children))
	for _, child := range children {
		n.children[child] = true
	}
	return children, nil
}

// Set writes data at path, backing store first, then the mirror.
func (c *CachedStore) Set(path string, data []byte) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOpDuration, "set")

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backing.Set(path, data); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("set").Inc()
		return err
	}
	c.tree[path] = &node{value: append([]byte(nil), data...)}
	return nil
}

// SetMany writes every path atomically, backing store first, then the mirror.
func (c *CachedStore) SetMany(writes map[string][]byte) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOpDuration, "setMany")

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backing.SetMany(writes); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("setMany").Inc()
		return err
	}
	for path, data := range writes {
		c.tree[path] = &node{value: append([]byte(nil), data...)}
	}
	return nil
}

// DeleteAll removes path and everything beneath it, backing store first,
// then the mirror.
func (c *CachedStore) DeleteAll(path string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOpDuration, "deleteAll")

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backing.DeleteAll(path); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("deleteAll").Inc()
		return err
	}
	prefix := path + "/"
	for p := range c.tree {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(c.tree, p)
		}
	}
	return nil
}

// Close closes the backing store.
func (c *CachedStore) Close() error {
	return c.backing.Close()
}
