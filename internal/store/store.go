package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCache    = []byte("cache")
	bucketSession  = []byte("session")
	bucketProgress = []byte("progress")
)

var allBuckets = [][]byte{bucketCache, bucketSession, bucketProgress}

// Store is the bbolt file shared by the session cache, the cookie jar and
// reading progress. A Store opened with an empty directory keeps nothing on disk.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (or creates) cache.db under dir
func Open(dir string) (*Store, error) {
	if dir == "" {
		// Memory-only mode (no persistence)
		return &Store{}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: dbPath}, nil
}

// Persistent reports whether writes reach disk
func (s *Store) Persistent() bool {
	return s != nil && s.db != nil
}

// Path returns the database file, empty in memory-only mode
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) Close() error {
	if s.Persistent() {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// read returns a copy of the stored value, nil when absent
func (s *Store) read(bucket []byte, key string) ([]byte, error) {
	if !s.Persistent() {
		return nil, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, err
}

// readAll returns copies of every value in a bucket keyed by their key
func (s *Store) readAll(bucket []byte) (map[string][]byte, error) {
	out := make(map[string][]byte)
	if !s.Persistent() {
		return out, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			data := make([]byte, len(v))
			copy(data, v)
			out[string(k)] = data
			return nil
		})
	})
	return out, err
}

func (s *Store) write(bucket []byte, key string, data []byte) error {
	if !s.Persistent() {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *Store) remove(bucket []byte, key string) error {
	if !s.Persistent() {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// clearBucket deletes every key in a bucket
func (s *Store) clearBucket(bucket []byte) error {
	if !s.Persistent() {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucket) == nil {
			return nil
		}
		if err := tx.DeleteBucket(bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}
