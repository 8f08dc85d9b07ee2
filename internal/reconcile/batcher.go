package reconcile

import (
	"context"

	"photosync/internal/catalog"
)

// Batcher accumulates staged catalog records and commits them in
// atomic batches. Records become durable only at flush; until then
// they are visible to the run through PendingByHash so duplicate
// content discovered within one batch still resolves to one record.
type Batcher struct {
	store   catalog.Store
	size    int
	clock   Clock
	pending []*catalog.Image
	byHash  map[string]*catalog.Image

	// markers staged for paths no staged record points at anymore,
	// such as the earlier sighting of duplicated content.
	markers []*catalog.Marker
}

// NewBatcher creates a Batcher that flushes every size records.
func NewBatcher(store catalog.Store, size int, clock Clock) *Batcher {
	if size <= 0 {
		size = 100
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Batcher{
		store:  store,
		size:   size,
		clock:  clock,
		byHash: make(map[string]*catalog.Image),
	}
}

// Add stages a record. When the batch is full it is flushed; a flush
// failure is returned and must abort the run.
func (b *Batcher) Add(ctx context.Context, img *catalog.Image) error {
	b.pending = append(b.pending, img)
	b.byHash[img.ContentHash] = img

	if len(b.pending) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// PendingByHash returns the staged record with the given content hash,
// if any.
func (b *Batcher) PendingByHash(hash string) (*catalog.Image, bool) {
	img, ok := b.byHash[hash]
	return img, ok
}

// StageMarker stages a processed marker that no staged record carries.
// It is written with the markers of the batch it was staged into.
func (b *Batcher) StageMarker(m *catalog.Marker) {
	b.markers = append(b.markers, m)
}

// Len returns the number of staged records.
func (b *Batcher) Len() int {
	return len(b.pending)
}

// Flush commits all staged records in one transaction and then records
// processed markers for them. Marker writes happen after the commit:
// a crash in between loses only markers, which re-verifies those files
// on the next run instead of corrupting the batch.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.pending) == 0 && len(b.markers) == 0 {
		return nil
	}

	if err := b.store.UpsertImages(ctx, b.pending); err != nil {
		return err
	}

	now := b.clock.Now()
	for _, img := range b.pending {
		marker := &catalog.Marker{
			Path:          img.Path,
			ContentHash:   img.ContentHash,
			LastProcessed: now,
		}
		if err := b.store.UpsertMarker(ctx, marker); err != nil {
			return err
		}
	}
	for _, marker := range b.markers {
		if err := b.store.UpsertMarker(ctx, marker); err != nil {
			return err
		}
	}

	b.pending = b.pending[:0]
	b.byHash = make(map[string]*catalog.Image)
	b.markers = b.markers[:0]
	return nil
}
