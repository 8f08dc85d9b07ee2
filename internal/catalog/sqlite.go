package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	syncerrors "photosync/internal/errors"
)

// schema is applied on every open. CREATE IF NOT EXISTS keeps opens
// idempotent across versions.
const schema = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	path TEXT NOT NULL UNIQUE,
	size_bytes INTEGER NOT NULL,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL,
	file_created_at TIMESTAMP NOT NULL,
	file_modified_at TIMESTAMP NOT NULL,
	date_taken TIMESTAMP,
	camera_model TEXT NOT NULL DEFAULT '',
	extra_metadata TEXT,
	scanned_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_images_content_hash ON images(content_hash);

CREATE TABLE IF NOT EXISTS processed (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	last_processed TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_content_hash ON processed(content_hash);

CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	found INTEGER NOT NULL DEFAULT 0,
	new_count INTEGER NOT NULL DEFAULT 0,
	modified_count INTEGER NOT NULL DEFAULT 0,
	moved_count INTEGER NOT NULL DEFAULT 0,
	unchanged_count INTEGER NOT NULL DEFAULT 0,
	skipped_count INTEGER NOT NULL DEFAULT 0,
	error_count INTEGER NOT NULL DEFAULT 0,
	bytes_processed INTEGER NOT NULL DEFAULT 0,
	cancelled INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore is the Store implementation backed by SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// Open opens or creates the catalog database at the given path.
// WAL mode allows a reader (status, history) alongside the writer.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogOpen, err).WithDetail("path", path)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogOpen, err).WithDetail("path", path)
	}

	// SQLite serializes writers; a single connection avoids busy errors
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogOpen, err).WithDetail("path", path)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogCorrupt, err).WithDetail("path", path)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

const imageColumns = `id, name, path, size_bytes, width, height, content_hash,
	file_created_at, file_modified_at, date_taken, camera_model, extra_metadata, scanned_at`

// ImageByPath returns the record at the given path, or nil when absent.
func (s *SQLiteStore) ImageByPath(ctx context.Context, path string) (*Image, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE path = ?`, path)
	return scanImage(row)
}

// ImageByHash returns the oldest record with the given content hash,
// or nil when absent.
func (s *SQLiteStore) ImageByHash(ctx context.Context, hash string) (*Image, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE content_hash = ? ORDER BY id LIMIT 1`, hash)
	return scanImage(row)
}

// scanImage maps a row onto an Image. sql.ErrNoRows becomes (nil, nil).
func scanImage(row *sql.Row) (*Image, error) {
	var (
		img       Image
		id        int64
		dateTaken sql.NullTime
		extra     sql.NullString
	)

	err := row.Scan(&id, &img.Name, &img.Path, &img.SizeBytes, &img.Width, &img.Height,
		&img.ContentHash, &img.FileCreatedAt, &img.FileModifiedAt, &dateTaken,
		&img.CameraModel, &extra, &img.ScannedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogCorrupt, err)
	}

	img.ID = NewImageID(id)
	if dateTaken.Valid {
		t := dateTaken.Time
		img.DateTaken = &t
	}
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &img.Extra); err != nil {
			return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogCorrupt, err).WithDetail("path", img.Path)
		}
	}

	return &img, nil
}

// MarkerByPath returns the processed marker for a path, or nil when absent.
func (s *SQLiteStore) MarkerByPath(ctx context.Context, path string) (*Marker, error) {
	var m Marker
	err := s.db.QueryRowContext(ctx,
		`SELECT path, content_hash, last_processed FROM processed WHERE path = ?`, path).
		Scan(&m.Path, &m.ContentHash, &m.LastProcessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogCorrupt, err)
	}
	return &m, nil
}

// UpsertImages commits a batch of records in a single transaction.
// Either every record lands or none does.
//
// Records without an assigned ID are inserted; a path conflict keeps
// the row id and replaces the rest of the row. Records with an
// assigned ID update that row in place, which re-points a moved
// record at its new path.
func (s *SQLiteStore) UpsertImages(ctx context.Context, images []*Image) error {
	if len(images) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err)
	}
	defer func() { _ = tx.Rollback() }()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO images (name, path, size_bytes, width, height, content_hash,
			file_created_at, file_modified_at, date_taken, camera_model, extra_metadata, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			size_bytes = excluded.size_bytes,
			width = excluded.width,
			height = excluded.height,
			content_hash = excluded.content_hash,
			file_created_at = excluded.file_created_at,
			file_modified_at = excluded.file_modified_at,
			date_taken = excluded.date_taken,
			camera_model = excluded.camera_model,
			extra_metadata = excluded.extra_metadata,
			scanned_at = excluded.scanned_at
		RETURNING id`)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err)
	}
	defer insert.Close()

	update, err := tx.PrepareContext(ctx, `
		UPDATE images SET
			name = ?, path = ?, size_bytes = ?, width = ?, height = ?,
			content_hash = ?, file_created_at = ?, file_modified_at = ?,
			date_taken = ?, camera_model = ?, extra_metadata = ?, scanned_at = ?
		WHERE id = ?`)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err)
	}
	defer update.Close()

	for _, img := range images {
		var extra any
		if len(img.Extra) > 0 {
			data, err := json.Marshal(img.Extra)
			if err != nil {
				return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err).WithDetail("path", img.Path)
			}
			extra = string(data)
		}

		var dateTaken any
		if img.DateTaken != nil {
			dateTaken = *img.DateTaken
		}

		if img.ID.Assigned() {
			_, err := update.ExecContext(ctx,
				img.Name, img.Path, img.SizeBytes, img.Width, img.Height, img.ContentHash,
				img.FileCreatedAt, img.FileModifiedAt, dateTaken, img.CameraModel, extra,
				img.ScannedAt, img.ID.Int64())
			if err != nil {
				return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err).WithDetail("path", img.Path)
			}
			continue
		}

		var id int64
		err := insert.QueryRowContext(ctx,
			img.Name, img.Path, img.SizeBytes, img.Width, img.Height, img.ContentHash,
			img.FileCreatedAt, img.FileModifiedAt, dateTaken, img.CameraModel, extra, img.ScannedAt).
			Scan(&id)
		if err != nil {
			return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err).WithDetail("path", img.Path)
		}
		img.ID = NewImageID(id)
	}

	if err := tx.Commit(); err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err)
	}

	return nil
}

// UpsertMarker records that a path was fully processed.
func (s *SQLiteStore) UpsertMarker(ctx context.Context, m *Marker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed (path, content_hash, last_processed)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			last_processed = excluded.last_processed`,
		m.Path, m.ContentHash, m.LastProcessed)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeBatchCommit, err).WithDetail("path", m.Path)
	}
	return nil
}

// SaveScan persists a run summary.
func (s *SQLiteStore) SaveScan(ctx context.Context, rec *ScanRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, root, started_at, finished_at, found, new_count,
			modified_count, moved_count, unchanged_count, skipped_count,
			error_count, bytes_processed, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Root, rec.StartedAt, rec.FinishedAt, rec.Found, rec.New,
		rec.Modified, rec.Moved, rec.Unchanged, rec.Skipped,
		rec.Errors, rec.BytesProcessed, boolToInt(rec.Cancelled))
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeInternal, err).WithDetail("scan_id", rec.ID)
	}
	return nil
}

// RecentScans returns run summaries, newest first.
func (s *SQLiteStore) RecentScans(ctx context.Context, limit int) ([]*ScanRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, started_at, finished_at, found, new_count,
			modified_count, moved_count, unchanged_count, skipped_count,
			error_count, bytes_processed, cancelled
		FROM scans ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeInternal, err)
	}
	defer rows.Close()

	var records []*ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var cancelled int
		err := rows.Scan(&rec.ID, &rec.Root, &rec.StartedAt, &rec.FinishedAt,
			&rec.Found, &rec.New, &rec.Modified, &rec.Moved, &rec.Unchanged,
			&rec.Skipped, &rec.Errors, &rec.BytesProcessed, &cancelled)
		if err != nil {
			return nil, syncerrors.Wrap(syncerrors.ErrCodeInternal, err)
		}
		rec.Cancelled = cancelled != 0
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Stats returns catalog-wide counts.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM images`).
		Scan(&st.Images, &st.TotalBytes)
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeInternal, err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed`).Scan(&st.Markers); err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeInternal, err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&st.Scans); err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeInternal, err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(finished_at) FROM scans`).Scan(&last); err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeInternal, err)
	}
	if last.Valid {
		t := last.Time
		st.LastScan = &t
	}

	return &st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
