package reconcile

import (
	"context"
	"sync"
	"time"

	"photosync/internal/catalog"
)

// fakeStore is an in-memory catalog.Store mirroring the commit
// semantics of the SQLite store: records with an assigned ID are
// updated in place, unassigned records upsert by path and keep the
// existing row ID on conflict.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	byPath  map[string]*catalog.Image
	markers map[string]*catalog.Marker
	scans   []*catalog.ScanRecord

	// flushes counts UpsertImages calls.
	flushes int

	// failUpsertImages, when set, is returned from UpsertImages.
	failUpsertImages error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byPath:  make(map[string]*catalog.Image),
		markers: make(map[string]*catalog.Marker),
	}
}

func (s *fakeStore) ImageByPath(_ context.Context, path string) (*catalog.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.byPath[path]
	if !ok {
		return nil, nil
	}
	cp := *img
	return &cp, nil
}

func (s *fakeStore) ImageByHash(_ context.Context, hash string) (*catalog.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *catalog.Image
	for _, img := range s.byPath {
		if img.ContentHash != hash {
			continue
		}
		if found == nil || img.ID.Int64() < found.ID.Int64() {
			found = img
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (s *fakeStore) MarkerByPath(_ context.Context, path string) (*catalog.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[path]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) UpsertImages(_ context.Context, images []*catalog.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	if s.failUpsertImages != nil {
		return s.failUpsertImages
	}
	for _, img := range images {
		cp := *img
		if cp.ID.Assigned() {
			// Re-point: drop any stale path entry for this row
			for path, existing := range s.byPath {
				if existing.ID == cp.ID && path != cp.Path {
					delete(s.byPath, path)
				}
			}
			s.byPath[cp.Path] = &cp
			continue
		}
		if existing, ok := s.byPath[cp.Path]; ok {
			cp.ID = existing.ID
		} else {
			s.nextID++
			cp.ID = catalog.NewImageID(s.nextID)
		}
		img.ID = cp.ID
		s.byPath[cp.Path] = &cp
	}
	return nil
}

func (s *fakeStore) UpsertMarker(_ context.Context, m *catalog.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.markers[cp.Path] = &cp
	return nil
}

func (s *fakeStore) SaveScan(_ context.Context, rec *catalog.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.scans = append(s.scans, &cp)
	return nil
}

func (s *fakeStore) RecentScans(_ context.Context, limit int) ([]*catalog.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*catalog.ScanRecord, 0, limit)
	for i := len(s.scans) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.scans[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) Stats(_ context.Context) (*catalog.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, img := range s.byPath {
		total += img.SizeBytes
	}
	return &catalog.Stats{
		Images:     int64(len(s.byPath)),
		TotalBytes: total,
	}, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) imageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPath)
}

func (s *fakeStore) image(path string) *catalog.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.byPath[path]
	if !ok {
		return nil
	}
	cp := *img
	return &cp
}

func (s *fakeStore) marker(path string) *catalog.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[path]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// fakeClock returns a fixed time, advanced manually.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
