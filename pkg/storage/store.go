package storage

import "errors"

// ErrNotFound is returned by Get when the path has no value.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistent key-value contract the uninstall coordinator is
// built against. Paths are slash-separated, e.g. "Tasks/web-1/info". It
// exposes a tree-shaped get/getChildren model over a bucket storage
// engine (one nested bucket per path segment), so the same engine can back
// an arbitrary path hierarchy instead of a fixed set of types.
type Store interface {
	// Get returns the bytes stored at path, or ErrNotFound.
	Get(path string) ([]byte, error)

	// GetChildren returns the immediate child names under path (not
	// recursive), in no particular order.
	GetChildren(path string) ([]string, error)

	// Set writes bytes at path, creating parent buckets as needed.
	Set(path string, data []byte) error

	// SetMany writes every path→bytes pair atomically: either all writes
	// land or none do.
	SetMany(writes map[string][]byte) error

	// DeleteAll removes path and everything beneath it.
	DeleteAll(path string) error

	// Close releases the underlying database handle.
	Close() error
}
