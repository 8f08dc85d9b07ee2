package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	rootDir string
	errors  []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		verbose: cfg.Verbose,
		rootDir: cfg.RootDir,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	if r.rootDir != "" {
		_, _ = fmt.Fprintf(r.out, "Syncing %s\n", r.rootDir)
	}
	return nil
}

// UpdateProgress implements Renderer.
// Per-file lines are emitted only in verbose mode; skips stay quiet
// either way to keep re-run output readable.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.verbose {
		return
	}
	if event.Outcome == "skipped" || event.Outcome == "unchanged" {
		return
	}

	_, _ = fmt.Fprintf(r.out, "%-9s %s\n", event.Outcome, event.Path)
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "ERROR: %s: %v\n", event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "ERROR: %v\n", event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	writeSummary(r.out, stats)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

// writeSummary prints the final run summary shared by both renderers.
func writeSummary(out io.Writer, stats CompletionStats) {
	status := "Complete"
	if stats.Cancelled {
		status = "Cancelled"
	}

	_, _ = fmt.Fprintf(out, "%s: %d found, %d new, %d modified, %d moved, %d unchanged",
		status, stats.Found, stats.New, stats.Modified, stats.Moved, stats.Unchanged)

	if stats.Skipped > 0 {
		_, _ = fmt.Fprintf(out, ", %d skipped", stats.Skipped)
	}
	if stats.Errors > 0 {
		_, _ = fmt.Fprintf(out, ", %d errors", stats.Errors)
	}

	_, _ = fmt.Fprintf(out, " (%s in %s)\n",
		humanize.Bytes(uint64(stats.Bytes)), stats.Duration.Round(100*time.Millisecond))
}
