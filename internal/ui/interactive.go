package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// InteractiveRenderer draws an in-place counter on a terminal.
type InteractiveRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	rootDir string
	lastLen int
}

// NewInteractiveRenderer creates a renderer for interactive terminals.
func NewInteractiveRenderer(cfg Config) *InteractiveRenderer {
	return &InteractiveRenderer{
		out:     cfg.Output,
		rootDir: cfg.RootDir,
	}
}

// Start implements Renderer.
func (r *InteractiveRenderer) Start(ctx context.Context) error {
	if r.rootDir != "" {
		_, _ = fmt.Fprintf(r.out, "Syncing %s\n", r.rootDir)
	}
	return nil
}

// UpdateProgress implements Renderer.
func (r *InteractiveRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("%d processed  %s", event.Current, truncatePath(event.Path, 60))
	r.redraw(line)
}

// AddError implements Renderer.
// The progress line is cleared first so the error lands on its own line.
func (r *InteractiveRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLine()

	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "ERROR: %s: %v\n", event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "ERROR: %v\n", event.Err)
	}
}

// Complete implements Renderer.
func (r *InteractiveRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLine()
	writeSummary(r.out, stats)
}

// Stop implements Renderer.
func (r *InteractiveRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLine()
	return nil
}

// redraw replaces the current progress line.
func (r *InteractiveRenderer) redraw(line string) {
	pad := ""
	if n := r.lastLen - len(line); n > 0 {
		for i := 0; i < n; i++ {
			pad += " "
		}
	}
	_, _ = fmt.Fprintf(r.out, "\r%s%s", line, pad)
	r.lastLen = len(line)
}

// clearLine erases the in-place progress line, if any.
func (r *InteractiveRenderer) clearLine() {
	if r.lastLen == 0 {
		return
	}
	blank := ""
	for i := 0; i < r.lastLen; i++ {
		blank += " "
	}
	_, _ = fmt.Fprintf(r.out, "\r%s\r", blank)
	r.lastLen = 0
}

// truncatePath shortens long paths from the left, keeping the tail.
func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-max+3:]
}
