// Package reconcile drives incremental synchronization of an image
// directory into the catalog. Each discovered file is hashed and
// classified against prior state, and resulting writes are committed
// in atomic batches.
package reconcile

import "time"

// Outcome is the classification of one discovered file.
type Outcome int

const (
	// OutcomeUnchanged means the file is already cataloged with the
	// same content at the same path.
	OutcomeUnchanged Outcome = iota
	// OutcomeNew means the content has never been seen before.
	OutcomeNew
	// OutcomeModified means the path is known but its content changed.
	OutcomeModified
	// OutcomeMoved means known content appeared at a new path.
	OutcomeMoved
	// OutcomeSkipped means the file was filtered out before hashing.
	OutcomeSkipped
	// OutcomeError means the file could not be processed.
	OutcomeError
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNew:
		return "new"
	case OutcomeModified:
		return "modified"
	case OutcomeMoved:
		return "moved"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Summary reports the result of one synchronization run.
type Summary struct {
	ScanID         string
	Root           string
	Found          int
	New            int
	Modified       int
	Moved          int
	Unchanged      int
	Skipped        int
	Errors         int
	BytesProcessed int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Cancelled      bool
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
