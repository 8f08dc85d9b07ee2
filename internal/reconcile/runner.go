package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"photosync/internal/catalog"
	syncerrors "photosync/internal/errors"
	"photosync/internal/hasher"
	"photosync/internal/metadata"
	"photosync/internal/scanner"
	"photosync/internal/ui"
)

// RunnerConfig configures a synchronization run.
type RunnerConfig struct {
	// RootDir is the image directory to synchronize.
	RootDir string

	// BatchSize is the number of staged records per commit.
	BatchSize int

	// Workers is the number of concurrent hashing workers.
	// 1 processes files strictly in discovery order.
	Workers int

	// CacheSize is the per-run hash lookup cache capacity.
	CacheSize int

	// Extensions is the set of recognized extensions (lowercase, no dot).
	Extensions map[string]bool

	// ExcludePatterns specifies glob patterns to skip.
	ExcludePatterns []string

	// Recursive enables descending into subdirectories.
	Recursive bool

	// MinSizeBytes and MaxSizeBytes bound candidate file sizes.
	// Zero means unbounded on that side.
	MinSizeBytes int64
	MaxSizeBytes int64
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Store is the catalog storage (required).
	Store catalog.Store

	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Scanner defaults to scanner.New().
	Scanner *scanner.Scanner

	// Extractor defaults to metadata.NewExtractor().
	Extractor *metadata.Extractor

	// Clock defaults to the wall clock.
	Clock Clock

	// IDs defaults to random UUIDs.
	IDs IDGenerator
}

// Runner executes synchronization runs with progress reporting.
// It accepts injected dependencies for testability.
type Runner struct {
	cfg       RunnerConfig
	store     catalog.Store
	renderer  ui.Renderer
	logger    *slog.Logger
	scanner   *scanner.Scanner
	extractor *metadata.Extractor
	clock     Clock
	ids       IDGenerator
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(cfg RunnerConfig, deps RunnerDependencies) (*Runner, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scan := deps.Scanner
	if scan == nil {
		scan = scanner.New()
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = metadata.NewExtractor()
	}
	clock := deps.Clock
	if clock == nil {
		clock = NewClock()
	}
	ids := deps.IDs
	if ids == nil {
		ids = UUIDGenerator{}
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Runner{
		cfg:       cfg,
		store:     deps.Store,
		renderer:  deps.Renderer,
		logger:    logger,
		scanner:   scan,
		extractor: extractor,
		clock:     clock,
		ids:       ids,
	}, nil
}

// candidate is one discovered file after the hashing stage.
type candidate struct {
	file    *scanner.FileInfo
	hash    string
	skipped bool
	err     error
}

// Run executes one synchronization pass over the configured directory.
//
// Discovery and hashing run concurrently; classification and batching
// run on a single goroutine so identity resolution stays serialized.
// Per-file failures are tolerated and counted; a failed batch commit
// aborts the run. On cancellation the staged batch is still flushed
// and the summary is marked Cancelled.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	absRoot, err := filepath.Abs(r.cfg.RootDir)
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeInvalidPath, err)
	}

	// An aborted run must release the scanner and hash workers
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	summary := &Summary{
		ScanID:    r.ids.NewID(),
		Root:      absRoot,
		StartedAt: r.clock.Now(),
	}

	r.logger.Info("sync_start",
		slog.String("scan_id", summary.ScanID),
		slog.String("root", absRoot),
		slog.Int("workers", r.cfg.Workers),
		slog.Int("batch_size", r.cfg.BatchSize))

	if err := r.renderer.Start(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = r.renderer.Stop() }()

	scanResults, err := r.scanner.Scan(ctx, &scanner.ScanOptions{
		RootDir:         absRoot,
		Extensions:      r.cfg.Extensions,
		ExcludePatterns: r.cfg.ExcludePatterns,
		Recursive:       r.cfg.Recursive,
	})
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeScanFailed, err)
	}

	candidates := r.startHashers(ctx, scanResults)

	batcher := NewBatcher(r.store, r.cfg.BatchSize, r.clock)
	reconciler, err := NewReconciler(r.store, batcher, r.cfg.CacheSize, r.clock)
	if err != nil {
		return nil, err
	}

	processed := 0
	for c := range candidates {
		// Finish the file in flight, then stop taking new ones
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		processed++
		if err := r.handle(ctx, c, summary, reconciler, processed); err != nil {
			// Storage failure: flush cannot succeed, abort the run
			r.finalize(summary)
			r.logger.Error("sync_aborted",
				slog.String("scan_id", summary.ScanID),
				slog.String("error", err.Error()))
			return summary, err
		}
	}

	// Unblock hash workers if we broke out early
	for range candidates {
		summary.Cancelled = true
	}
	if ctx.Err() != nil {
		summary.Cancelled = true
	}

	// The final flush proceeds even when cancelled; work already
	// classified must not be lost.
	flushCtx := context.WithoutCancel(ctx)
	if err := batcher.Flush(flushCtx); err != nil {
		r.finalize(summary)
		return summary, err
	}

	r.finalize(summary)

	if err := r.saveScanRecord(flushCtx, summary); err != nil {
		r.logger.Warn("scan_record_save_failed",
			slog.String("scan_id", summary.ScanID),
			slog.String("error", err.Error()))
	}

	r.renderer.Complete(ui.CompletionStats{
		Found:     summary.Found,
		New:       summary.New,
		Modified:  summary.Modified,
		Moved:     summary.Moved,
		Unchanged: summary.Unchanged,
		Skipped:   summary.Skipped,
		Errors:    summary.Errors,
		Bytes:     summary.BytesProcessed,
		Duration:  summary.Duration(),
		Cancelled: summary.Cancelled,
	})

	event := "sync_complete"
	if summary.Cancelled {
		event = "sync_cancelled"
	}
	r.logger.Info(event,
		slog.String("scan_id", summary.ScanID),
		slog.Int("found", summary.Found),
		slog.Int("new", summary.New),
		slog.Int("modified", summary.Modified),
		slog.Int("moved", summary.Moved),
		slog.Int("unchanged", summary.Unchanged),
		slog.Int("skipped", summary.Skipped),
		slog.Int("errors", summary.Errors),
		slog.Int64("bytes", summary.BytesProcessed),
		slog.Duration("duration", summary.Duration()))

	return summary, nil
}

// startHashers fans discovered files out to hashing workers and
// returns the merged candidate stream.
func (r *Runner) startHashers(ctx context.Context, scanResults <-chan scanner.ScanResult) <-chan candidate {
	candidates := make(chan candidate, r.cfg.Workers*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Workers; i++ {
		g.Go(func() error {
			for res := range scanResults {
				if gctx.Err() != nil {
					continue // Drain so the scanner can close
				}

				c := r.buildCandidate(gctx, res)
				if c == nil {
					continue
				}

				select {
				case candidates <- *c:
				case <-gctx.Done():
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(candidates)
	}()

	return candidates
}

// buildCandidate filters and hashes one scan result.
// Returns nil for results swallowed by cancellation.
func (r *Runner) buildCandidate(ctx context.Context, res scanner.ScanResult) *candidate {
	if res.Error != nil {
		return &candidate{err: res.Error}
	}

	file := res.File
	if file.Size < r.cfg.MinSizeBytes {
		return &candidate{file: file, skipped: true}
	}
	if r.cfg.MaxSizeBytes > 0 && file.Size > r.cfg.MaxSizeBytes {
		return &candidate{file: file, skipped: true}
	}

	hash, err := hasher.HashFile(ctx, file.AbsPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &candidate{file: file, err: err}
	}

	return &candidate{file: file, hash: hash}
}

// handle classifies one candidate and updates the summary.
// Only storage failures are returned; file failures are counted.
func (r *Runner) handle(ctx context.Context, c candidate, summary *Summary, reconciler *Reconciler, processed int) error {
	if c.file != nil {
		summary.Found++
	}

	if c.err != nil {
		summary.Errors++
		path := ""
		if c.file != nil {
			path = c.file.Path
		}
		r.renderer.AddError(ui.ErrorEvent{File: path, Err: c.err})
		r.logger.Warn("file_error",
			slog.String("path", path),
			slog.Any("error", syncerrors.FormatForLog(c.err)))
		return nil
	}

	if c.skipped {
		summary.Skipped++
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Current: processed, Path: c.file.Path, Outcome: OutcomeSkipped.String(),
		})
		return nil
	}

	// Fast path: a matching marker means the file was fully handled before
	hit, err := reconciler.FastPath(ctx, c.file.AbsPath, c.hash)
	if err != nil {
		return err
	}
	if hit {
		summary.Unchanged++
		summary.BytesProcessed += c.file.Size
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Current: processed, Path: c.file.Path, Outcome: OutcomeUnchanged.String(),
		})
		return nil
	}

	// A file that cannot be described is skipped and counted; a record
	// with invented dimensions would be worse than no record.
	meta, metaErr := r.extractor.Extract(c.file.AbsPath)
	if metaErr != nil {
		summary.Errors++
		r.renderer.AddError(ui.ErrorEvent{File: c.file.Path, Err: metaErr})
		r.logger.Warn("metadata_unavailable",
			slog.String("path", c.file.Path),
			slog.Any("error", syncerrors.FormatForLog(metaErr)))
		return nil
	}

	outcome, err := reconciler.Resolve(ctx, c.file, c.hash, meta)
	if err != nil {
		return err
	}

	switch outcome {
	case OutcomeUnchanged:
		summary.Unchanged++
	case OutcomeNew:
		summary.New++
	case OutcomeModified:
		summary.Modified++
	case OutcomeMoved:
		summary.Moved++
	}
	summary.BytesProcessed += c.file.Size

	r.renderer.UpdateProgress(ui.ProgressEvent{
		Current: processed, Path: c.file.Path, Outcome: outcome.String(),
	})
	r.logger.Debug("file_classified",
		slog.String("path", c.file.Path),
		slog.String("outcome", outcome.String()),
		slog.String("hash", c.hash))

	return nil
}

// finalize stamps the end of the run.
func (r *Runner) finalize(summary *Summary) {
	summary.FinishedAt = r.clock.Now()
}

// saveScanRecord persists the run summary to scan history.
func (r *Runner) saveScanRecord(ctx context.Context, summary *Summary) error {
	return r.store.SaveScan(ctx, &catalog.ScanRecord{
		ID:             summary.ScanID,
		Root:           summary.Root,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		Found:          summary.Found,
		New:            summary.New,
		Modified:       summary.Modified,
		Moved:          summary.Moved,
		Unchanged:      summary.Unchanged,
		Skipped:        summary.Skipped,
		Errors:         summary.Errors,
		BytesProcessed: summary.BytesProcessed,
		Cancelled:      summary.Cancelled,
	})
}
