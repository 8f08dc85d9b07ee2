// Package catalog defines the durable image catalog and its storage.
//
// A catalog record is identified by its content hash, not its path.
// Paths locate the current file on disk; the hash is the identity that
// survives renames and moves.
package catalog

import (
	"context"
	"fmt"
	"time"
)

// ImageID identifies a persisted catalog record.
// The zero value means "not yet assigned"; IDs are only handed out by
// the store when a record is committed.
type ImageID struct {
	n     int64
	valid bool
}

// NewImageID creates an assigned ImageID.
func NewImageID(n int64) ImageID {
	return ImageID{n: n, valid: true}
}

// Int64 returns the numeric value. Only meaningful when Assigned.
func (id ImageID) Int64() int64 {
	return id.n
}

// Assigned reports whether the store has assigned this ID.
func (id ImageID) Assigned() bool {
	return id.valid
}

func (id ImageID) String() string {
	if !id.valid {
		return "unassigned"
	}
	return fmt.Sprintf("%d", id.n)
}

// Image is a durable catalog record for one image.
type Image struct {
	ID             ImageID
	Name           string
	Path           string // Absolute; one catalog serves many roots
	SizeBytes      int64
	Width          int
	Height         int
	ContentHash    string // Lowercase hex SHA-256 of the file bytes
	FileCreatedAt  time.Time
	FileModifiedAt time.Time
	DateTaken      *time.Time        // EXIF capture time, nil when absent
	CameraModel    string            // EXIF camera model, empty when absent
	Extra          map[string]string // Additional EXIF tags
	ScannedAt      time.Time         // When this record was last committed
}

// Marker is the fast-path cache entry recording that a path was fully
// processed with a given content hash. A matching marker lets a later
// run skip the file entirely.
type Marker struct {
	Path          string // Absolute, matching Image.Path keying
	ContentHash   string
	LastProcessed time.Time
}

// ScanRecord summarizes one completed synchronization run.
type ScanRecord struct {
	ID             string // UUID
	Root           string
	StartedAt      time.Time
	FinishedAt     time.Time
	Found          int
	New            int
	Modified       int
	Moved          int
	Unchanged      int
	Skipped        int
	Errors         int
	BytesProcessed int64
	Cancelled      bool
}

// Stats summarizes catalog contents.
type Stats struct {
	Images     int64
	Markers    int64
	Scans      int64
	TotalBytes int64
	LastScan   *time.Time
}

// Store is the durable catalog storage.
//
// Lookups return (nil, nil) when no row matches; an error always means
// the store itself failed.
type Store interface {
	// ImageByPath returns the record at the given path.
	ImageByPath(ctx context.Context, path string) (*Image, error)

	// ImageByHash returns the oldest record with the given content
	// hash. Duplicate content yields the first committed record.
	ImageByHash(ctx context.Context, hash string) (*Image, error)

	// MarkerByPath returns the processed marker for a path.
	MarkerByPath(ctx context.Context, path string) (*Marker, error)

	// UpsertImages commits a batch of records in a single transaction.
	// Either every record lands or none does. Assigned IDs are written
	// back into the given records.
	UpsertImages(ctx context.Context, images []*Image) error

	// UpsertMarker records that a path was fully processed.
	UpsertMarker(ctx context.Context, m *Marker) error

	// SaveScan persists a run summary.
	SaveScan(ctx context.Context, rec *ScanRecord) error

	// RecentScans returns run summaries, newest first.
	RecentScans(ctx context.Context, limit int) ([]*ScanRecord, error)

	// Stats returns catalog-wide counts.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying storage.
	Close() error
}
