package reconcile

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"photosync/internal/catalog"
	"photosync/internal/metadata"
	"photosync/internal/scanner"
)

// Reconciler classifies hashed files against the catalog and stages
// the resulting writes. Resolution is stateful across one run: staged
// records and a per-run hash lookup cache take part in it, so Resolve
// must be called from a single goroutine.
type Reconciler struct {
	store   catalog.Store
	batcher *Batcher
	clock   Clock

	// cache holds hash -> record results from store lookups so a run
	// over many duplicates does not requery the catalog.
	cache *lru.Cache[string, *catalog.Image]
}

// NewReconciler creates a Reconciler.
func NewReconciler(store catalog.Store, batcher *Batcher, cacheSize int, clock Clock) (*Reconciler, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, *catalog.Image](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Reconciler{
		store:   store,
		batcher: batcher,
		clock:   clock,
		cache:   cache,
	}, nil
}

// FastPath checks the processed marker for a path. A marker whose hash
// matches means the file was fully handled by an earlier run; the
// marker timestamp is refreshed and the file needs no further work.
func (r *Reconciler) FastPath(ctx context.Context, path, hash string) (bool, error) {
	marker, err := r.store.MarkerByPath(ctx, path)
	if err != nil {
		return false, err
	}
	if marker == nil || marker.ContentHash != hash {
		return false, nil
	}

	marker.LastProcessed = r.clock.Now()
	if err := r.store.UpsertMarker(ctx, marker); err != nil {
		return false, err
	}
	return true, nil
}

// Resolve classifies a hashed file and stages any resulting write.
//
// Classification order:
//  1. A record at the same path with the same hash is Unchanged.
//  2. A record at the same path with a different hash is Modified.
//  3. Known content (staged, cached, or stored) at a different path is
//     Moved; the existing record is re-pointed at the new path.
//  4. Otherwise the file is New.
func (r *Reconciler) Resolve(ctx context.Context, file *scanner.FileInfo, hash string, meta *metadata.Metadata) (Outcome, error) {
	// Records and markers are keyed by absolute path: one catalog can
	// hold many roots, and equal-named files under different roots
	// must never collide.
	byPath, err := r.store.ImageByPath(ctx, file.AbsPath)
	if err != nil {
		return OutcomeError, err
	}

	if byPath != nil && byPath.ContentHash == hash {
		// Cataloged but the marker was missing or stale; restore it
		marker := &catalog.Marker{Path: file.AbsPath, ContentHash: hash, LastProcessed: r.clock.Now()}
		if err := r.store.UpsertMarker(ctx, marker); err != nil {
			return OutcomeError, err
		}
		return OutcomeUnchanged, nil
	}

	img := r.buildImage(file, hash, meta)

	if byPath != nil {
		// Same path, new content. The path-keyed upsert keeps the row id.
		if err := r.batcher.Add(ctx, img); err != nil {
			return OutcomeError, err
		}
		r.cache.Add(hash, img)
		return OutcomeModified, nil
	}

	// No record at this path; look for the content elsewhere.
	// Staged records are checked first so duplicates within one batch
	// collapse into a single record.
	if staged, ok := r.batcher.PendingByHash(hash); ok {
		// The earlier sighting was fully reconciled even though the
		// record moves on; it keeps a marker so the next run treats
		// both paths as unchanged.
		r.batcher.StageMarker(&catalog.Marker{
			Path:          staged.Path,
			ContentHash:   hash,
			LastProcessed: r.clock.Now(),
		})
		repointImage(staged, file, r.clock.Now())
		return OutcomeMoved, nil
	}

	existing, err := r.lookupByHash(ctx, hash)
	if err != nil {
		return OutcomeError, err
	}

	if existing != nil {
		img.ID = existing.ID
		if err := r.batcher.Add(ctx, img); err != nil {
			return OutcomeError, err
		}
		r.cache.Add(hash, img)
		return OutcomeMoved, nil
	}

	if err := r.batcher.Add(ctx, img); err != nil {
		return OutcomeError, err
	}
	r.cache.Add(hash, img)
	return OutcomeNew, nil
}

// lookupByHash consults the per-run cache before the store.
func (r *Reconciler) lookupByHash(ctx context.Context, hash string) (*catalog.Image, error) {
	if cached, ok := r.cache.Get(hash); ok {
		return cached, nil
	}

	existing, err := r.store.ImageByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		r.cache.Add(hash, existing)
	}
	return existing, nil
}

// buildImage assembles a catalog record from file info and metadata.
func (r *Reconciler) buildImage(file *scanner.FileInfo, hash string, meta *metadata.Metadata) *catalog.Image {
	img := &catalog.Image{
		Name:           file.Name,
		Path:           file.AbsPath,
		SizeBytes:      file.Size,
		ContentHash:    hash,
		FileCreatedAt:  file.CreatedAt,
		FileModifiedAt: file.ModTime,
		ScannedAt:      r.clock.Now(),
	}

	if meta != nil {
		img.Width = meta.Width
		img.Height = meta.Height
		img.DateTaken = meta.DateTaken
		img.CameraModel = meta.CameraModel
		img.Extra = meta.Extra
	}

	return img
}

// repointImage moves a staged record to a newly discovered location.
// The latest sighting of duplicated content wins the path.
func repointImage(img *catalog.Image, file *scanner.FileInfo, now time.Time) {
	img.Name = file.Name
	img.Path = file.AbsPath
	img.SizeBytes = file.Size
	img.FileCreatedAt = file.CreatedAt
	img.FileModifiedAt = file.ModTime
	img.ScannedAt = now
}
