package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"
)

// rootBucket holds single-segment paths (e.g. "FrameworkId"); every other
// path is represented as a chain of nested buckets, one per segment, with
// the final segment stored as a key (or, if it has children of its own, as
// a further nested bucket) inside its parent. This gives the coordinator's
// persisted layout (FrameworkId, Tasks/<name>/info, Tasks/<name>/status)
// an arbitrary get/getChildren path tree instead of one fixed bucket per
// entity type.
var rootBucket = []byte("__root__")

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) a BoltDB database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "teardown.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create root bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("storage: empty path")
	}
	return strings.Split(path, "/"), nil
}

// navigate walks from the root bucket through segments, optionally
// creating buckets along the way. It returns the bucket the last segment
// lives in directly.
func navigate(tx *bolt.Tx, segments []string, create bool) (*bolt.Bucket, error) {
	b := tx.Bucket(rootBucket)
	if b == nil {
		return nil, fmt.Errorf("storage: root bucket missing")
	}
	for _, seg := range segments {
		key := []byte(seg)
		if create {
			next, err := b.CreateBucketIfNotExists(key)
			if err != nil {
				return nil, fmt.Errorf("storage: creating bucket %q: %w", seg, err)
			}
			b = next
		} else {
			next := b.Bucket(key)
			if next == nil {
				return nil, ErrNotFound
			}
			b = next
		}
	}
	return b, nil
}

// Get returns the bytes stored at path.
func (s *BoltStore) Get(path string) ([]byte, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	parent, last := segments[:len(segments)-1], segments[len(segments)-1]

	var out []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		b, err := navigate(tx, parent, false)
		if err != nil {
			return err
		}
		v := b.Get([]byte(last))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetChildren lists the immediate children stored under path.
func (s *BoltStore) GetChildren(path string) ([]string, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	var children []string
	err = s.db.View(func(tx *bolt.Tx) error {
		b, err := navigate(tx, segments, false)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			children = append(children, string(k))
		}
		return nil
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return children, nil
}

// Set writes data at path.
func (s *BoltStore) Set(path string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putPath(tx, path, data)
	})
}

// SetMany writes every path in writes within a single transaction.
func (s *BoltStore) SetMany(writes map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for path, data := range writes {
			if err := putPath(tx, path, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func putPath(tx *bolt.Tx, path string, data []byte) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	parent, last := segments[:len(segments)-1], segments[len(segments)-1]

	b, err := navigate(tx, parent, true)
	if err != nil {
		return err
	}
	return b.Put([]byte(last), data)
}

// DeleteAll removes path and everything beneath it.
func (s *BoltStore) DeleteAll(path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	parent, last := segments[:len(segments)-1], segments[len(segments)-1]

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := navigate(tx, parent, false)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		key := []byte(last)
		if sub := b.Bucket(key); sub != nil {
			if err := b.DeleteBucket(key); err != nil {
				return fmt.Errorf("storage: deleting bucket %q: %w", last, err)
			}
		}
		if err := b.Delete(key); err != nil {
			return fmt.Errorf("storage: deleting key %q: %w", last, err)
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
