package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/gyeh/npi-validator/internal/cloud"
)

// ObjectStore is the subset of *cloud.S3Client the S3 store needs.
type ObjectStore interface {
	DownloadBytes(ctx context.Context, key string) ([]byte, error)
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
}

// S3Store keeps one JSON object per NPI under a key prefix, so several
// servers can share cached results.
type S3Store struct {
	objects ObjectStore
	prefix  string
}

// NewS3Store stores entries as <prefix>/<npi>.json.
func NewS3Store(objects ObjectStore, prefix string) *S3Store {
	return &S3Store{objects: objects, prefix: prefix}
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key+".json")
}

// Load returns the entry for key.
func (s *S3Store) Load(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.objects.DownloadBytes(ctx, s.objectKey(key))
	if errors.Is(err, cloud.ErrObjectNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cache object %s: %w", s.objectKey(key), err)
	}
	return e, true, nil
}

// Save replaces the object for e.Key.
func (s *S3Store) Save(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", e.Key, err)
	}
	return s.objects.UploadBytes(ctx, s.objectKey(e.Key), data, "application/json")
}
