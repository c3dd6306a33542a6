package cache

import (
	"context"
	"sync"
)

// Compile-time interface compliance checks
var _ Store = (*MemoryStore)(nil)
var _ Store = (*BoltStore)(nil)
var _ Store = (*S3Store)(nil)

// MemoryStore is a thread-safe in-process store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Load returns the entry for key.
func (s *MemoryStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Save replaces the entry for e.Key.
func (s *MemoryStore) Save(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = e
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
