package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/npi-validator/internal/cloud"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, cloud.ErrObjectNotFound)
	}
	return data, nil
}

func (f *fakeObjects) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	objects := newFakeObjects()
	store := NewS3Store(objects, "npi-cache")
	clock := newTestClock()
	c := New(store, time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "1234567893")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "1234567893", sampleResult("1234567893")))
	assert.Contains(t, objects.objects, "npi-cache/1234567893.json")
	assert.Equal(t, "application/json", objects.types["npi-cache/1234567893.json"])

	got, ok, err := c.Get(ctx, "1234567893")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Cached)

	clock.Advance(2 * time.Hour)
	_, ok, err = c.Get(ctx, "1234567893")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Store_CorruptObject(t *testing.T) {
	objects := newFakeObjects()
	objects.objects["1234567893.json"] = []byte("not json")
	store := NewS3Store(objects, "")

	_, ok, err := store.Load(context.Background(), "1234567893")
	assert.Error(t, err)
	assert.False(t, ok)
}
