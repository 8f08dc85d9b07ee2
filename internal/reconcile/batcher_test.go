package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosync/internal/catalog"
)

func stagedImage(path, hash string) *catalog.Image {
	return &catalog.Image{
		Name:        path,
		Path:        path,
		SizeBytes:   int64(len(path)),
		ContentHash: hash,
	}
}

func TestBatcherFlushesWhenFull(t *testing.T) {
	store := newFakeStore()
	b := NewBatcher(store, 2, newFakeClock())
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, stagedImage("a.jpg", "hash-a")))
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 0, store.imageCount())

	require.NoError(t, b.Add(ctx, stagedImage("b.jpg", "hash-b")))
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, store.imageCount())
	assert.Equal(t, 1, store.flushes)
}

func TestBatcherFlushEmptyIsNoop(t *testing.T) {
	store := newFakeStore()
	b := NewBatcher(store, 10, newFakeClock())

	require.NoError(t, b.Flush(context.Background()))
	assert.Equal(t, 0, store.flushes)
}

func TestBatcherWritesMarkersAfterCommit(t *testing.T) {
	store := newFakeStore()
	clock := newFakeClock()
	b := NewBatcher(store, 10, clock)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, stagedImage("a.jpg", "hash-a")))
	require.NoError(t, b.Flush(ctx))

	m := store.marker("a.jpg")
	require.NotNil(t, m)
	assert.Equal(t, "hash-a", m.ContentHash)
	assert.Equal(t, clock.Now(), m.LastProcessed)
}

func TestBatcherStagedMarkersFlushWithBatch(t *testing.T) {
	store := newFakeStore()
	clock := newFakeClock()
	b := NewBatcher(store, 10, clock)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, stagedImage("copy/a.jpg", "hash-a")))
	b.StageMarker(&catalog.Marker{
		Path:          "a.jpg",
		ContentHash:   "hash-a",
		LastProcessed: clock.Now(),
	})

	// Nothing durable before flush
	assert.Nil(t, store.marker("a.jpg"))

	require.NoError(t, b.Flush(ctx))
	require.NotNil(t, store.marker("a.jpg"))
	require.NotNil(t, store.marker("copy/a.jpg"))

	// Staged markers are consumed by the flush
	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 1, store.flushes)
}

func TestBatcherFlushFailureLeavesNoMarkers(t *testing.T) {
	store := newFakeStore()
	store.failUpsertImages = errors.New("disk full")
	b := NewBatcher(store, 1, newFakeClock())

	err := b.Add(context.Background(), stagedImage("a.jpg", "hash-a"))
	require.Error(t, err)
	assert.Nil(t, store.marker("a.jpg"))
	assert.Equal(t, 0, store.imageCount())
}

func TestBatcherPendingByHash(t *testing.T) {
	store := newFakeStore()
	b := NewBatcher(store, 10, newFakeClock())
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, stagedImage("a.jpg", "hash-a")))

	staged, ok := b.PendingByHash("hash-a")
	require.True(t, ok)
	assert.Equal(t, "a.jpg", staged.Path)

	_, ok = b.PendingByHash("hash-b")
	assert.False(t, ok)

	// Flushed records are no longer pending
	require.NoError(t, b.Flush(ctx))
	_, ok = b.PendingByHash("hash-a")
	assert.False(t, ok)
}

func TestBatcherDefaultSize(t *testing.T) {
	b := NewBatcher(newFakeStore(), 0, nil)
	assert.Equal(t, 100, b.size)
}
