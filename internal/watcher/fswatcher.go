package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"photosync/internal/scanner"
)

// DirWatcher watches an image directory using fsnotify and emits
// debounced batches of file events.
type DirWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	opts      Options
	logger    *slog.Logger

	events  chan []FileEvent
	errors  chan error
	stopCh  chan struct{}
	root    string
	mu      sync.RWMutex
	stopped bool

	droppedBatches atomic.Uint64
}

// New creates a DirWatcher with the given options.
func New(opts Options, logger *slog.Logger) (*DirWatcher, error) {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &DirWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		opts:      opts,
		logger:    logger,
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start begins watching the given directory. It blocks until the
// context is cancelled or Stop is called.
func (w *DirWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.root = absPath

	if err := w.addRecursive(absPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	go w.forwardBatches(ctx)

	w.logger.Info("watch_started", slog.String("root", absPath))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handleEvent converts and filters one fsnotify event.
func (w *DirWatcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		relPath = event.Name
	}
	if relPath == "." || relPath == "" {
		return
	}

	// Deleted and renamed-away paths cannot be stated; their kind is
	// decided by the event filters below.
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	if scanner.Excluded(relPath, isDir, w.opts.ExcludePatterns) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir && w.opts.Recursive {
			if err := w.addRecursive(event.Name); err != nil {
				w.emitError(err)
			}
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and other noise
		return
	}

	if !isDir && !w.recognized(relPath) {
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      relPath,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// recognized reports whether a file path has a recognized image
// extension. An empty extension set recognizes everything.
func (w *DirWatcher) recognized(relPath string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := scanner.NormalizeExtension(filepath.Ext(relPath))
	return w.opts.Extensions[ext]
}

// forwardBatches forwards debounced batches to the output channel.
func (w *DirWatcher) forwardBatches(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			w.emitBatch(batch)
		}
	}
}

// addRecursive adds root and, when recursive, all directories under
// it to the fsnotify watch list.
func (w *DirWatcher) addRecursive(root string) error {
	if !w.opts.Recursive {
		return w.fsw.Add(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(w.root, path)
		if relErr == nil && relPath != "." && scanner.Excluded(relPath, true, w.opts.ExcludePatterns) {
			return filepath.SkipDir
		}

		return w.fsw.Add(path)
	})
}

// emitBatch sends a batch to the output channel without blocking the
// event loop.
func (w *DirWatcher) emitBatch(batch []FileEvent) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedBatches.Add(1)
		w.logger.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", count))
	}
}

// emitError sends a non-fatal error to the error channel.
func (w *DirWatcher) emitError(err error) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
// Safe to call multiple times.
func (w *DirWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	_ = w.fsw.Close()

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of debounced event batches.
// The channel is closed when the watcher stops.
func (w *DirWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *DirWatcher) Errors() <-chan error {
	return w.errors
}

// DroppedBatches returns the number of batches dropped because the
// consumer fell behind.
func (w *DirWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// Root returns the watched root path.
func (w *DirWatcher) Root() string {
	return w.root
}
