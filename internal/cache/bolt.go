package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

const boltBucket = "validations"

// BoltStore keeps entries in a single-file BoltDB database so cached
// results survive restarts of the CLI or server.
type BoltStore struct {
	db       *bolt.DB
	filePath string
}

// NewBoltStore opens (creating if needed) the database at filePath.
func NewBoltStore(filePath string) (*BoltStore, error) {
	db, err := bolt.Open(filePath, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache db %s: %w", filePath, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache bucket: %w", err)
	}
	return &BoltStore{db: db, filePath: filePath}, nil
}

// FilePath returns the path to the database file.
func (s *BoltStore) FilePath() string {
	return s.filePath
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load returns the entry for key.
func (s *BoltStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(boltBucket)).Get([]byte(key)); v != nil {
			// v is only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	if data == nil {
		return Entry{}, false, nil
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return e, true, nil
}

// Save replaces the entry for e.Key.
func (s *BoltStore) Save(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", e.Key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(e.Key), data)
	})
}

// Len returns the number of stored entries.
func (s *BoltStore) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(boltBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
