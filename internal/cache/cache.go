// Package cache stores validation results keyed by NPI with a freshness
// window. Storage is pluggable: memory, BoltDB file, or S3 objects.
package cache

import (
	"context"
	"math"
	"time"

	"github.com/gyeh/npi-validator/internal/npi"
)

// NoExpiry is a freshness window no entry can outlive.
const NoExpiry = time.Duration(math.MaxInt64)

// Entry is one stored validation result.
type Entry struct {
	Key      string               `json:"key"`
	Result   npi.ValidationResult `json:"result"`
	StoredAt time.Time            `json:"storedAt"`
}

// Store is a key/value backend for entries. Implementations must be safe
// for concurrent use across different keys.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, entry Entry) error
}

// ValidationCache applies a freshness window on top of a Store.
type ValidationCache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a ValidationCache.
type Option func(*ValidationCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ValidationCache) {
		c.now = now
	}
}

// New wraps store with a freshness window. A zero window serves nothing
// (writes still land in the store); NoExpiry serves entries forever.
// Negative windows are treated as zero.
func New(store Store, ttl time.Duration, opts ...Option) *ValidationCache {
	if ttl < 0 {
		ttl = 0
	}
	c := &ValidationCache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *ValidationCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the stored result for key if it is still fresh. The returned
// result has Cached set.
func (c *ValidationCache) Get(ctx context.Context, key string) (npi.ValidationResult, bool, error) {
	entry, ok, err := c.store.Load(ctx, key)
	if err != nil || !ok {
		return npi.ValidationResult{}, false, err
	}
	if !c.fresh(entry) {
		return npi.ValidationResult{}, false, nil
	}
	result := entry.Result
	result.Cached = true
	return result, true, nil
}

// Set stores result under key, superseding any earlier entry.
func (c *ValidationCache) Set(ctx context.Context, key string, result npi.ValidationResult) error {
	result.Cached = false
	return c.store.Save(ctx, Entry{
		Key:      key,
		Result:   result,
		StoredAt: c.now(),
	})
}

// fresh rejects entries stamped in the future, as written by a writer whose
// clock runs ahead of ours.
func (c *ValidationCache) fresh(e Entry) bool {
	age := c.now().Sub(e.StoredAt)
	return age >= 0 && age < c.ttl
}
