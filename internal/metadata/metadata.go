// Package metadata extracts image properties and EXIF data.
//
// A file whose header cannot be decoded yields no metadata at all;
// callers treat that as "this file cannot be described" and skip it.
// Absent EXIF is normal and only leaves the optional fields empty.
package metadata

import (
	"image"
	"os"
	"strings"
	"time"

	// Registered decoders for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"

	syncerrors "photosync/internal/errors"
)

// Metadata holds the extracted properties of an image file.
type Metadata struct {
	// Width and Height are pixel dimensions.
	Width  int
	Height int

	// Format is the decoded image format name (jpeg, png, ...).
	Format string

	// DateTaken is the EXIF capture time, nil when absent.
	DateTaken *time.Time

	// CameraModel is the EXIF camera model, empty when absent.
	CameraModel string

	// Extra holds additional EXIF tags worth keeping.
	Extra map[string]string
}

// Extractor reads image metadata from files.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads dimensions and EXIF data from the file at path.
// A file that cannot be decoded returns nil metadata and the failure;
// it must not be cataloged with made-up dimensions.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	meta := &Metadata{}

	if err := e.extractDimensions(path, meta); err != nil {
		return nil, err
	}

	if err := e.extractExif(path, meta); err != nil {
		return nil, err
	}

	return meta, nil
}

// extractDimensions reads the image header only, never the full pixels.
func (e *Extractor) extractDimensions(path string, meta *Metadata) error {
	f, err := os.Open(path)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeDecodeFailed, err).WithDetail("path", path)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeDecodeFailed, err).WithDetail("path", path)
	}

	meta.Width = cfg.Width
	meta.Height = cfg.Height
	meta.Format = format
	return nil
}

// extractExif reads the EXIF block. Most PNGs and GIFs have none,
// which is not an error worth reporting.
func (e *Extractor) extractExif(path string, meta *Metadata) error {
	f, err := os.Open(path)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeExifInvalid, err).WithDetail("path", path)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block at all is the common case for non-JPEG files.
		// Non-critical errors still yield usable partial data.
		if exif.IsCriticalError(err) {
			return nil
		}
	}

	if taken, err := x.DateTime(); err == nil {
		meta.DateTaken = &taken
	}

	if model, err := x.Get(exif.Model); err == nil {
		if s, err := model.StringVal(); err == nil {
			meta.CameraModel = strings.TrimSpace(s)
		}
	}

	extra := make(map[string]string)
	for _, tag := range []exif.FieldName{exif.Make, exif.LensModel, exif.ISOSpeedRatings, exif.FNumber, exif.ExposureTime} {
		if v, err := x.Get(tag); err == nil {
			extra[string(tag)] = strings.Trim(v.String(), `"`)
		}
	}
	if len(extra) > 0 {
		meta.Extra = extra
	}

	return nil
}
