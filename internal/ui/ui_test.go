package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendererPlainForNonTTY(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(NewConfig(&buf))
	assert.IsType(t, &PlainRenderer{}, r)
}

func TestNewRendererForcePlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(NewConfig(&buf, WithForcePlain(true)))
	assert.IsType(t, &PlainRenderer{}, r)
}

func TestIsTTYNilAndBuffer(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestPlainRendererVerboseOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf, WithVerbose(true), WithRootDir("/photos")))

	require.NoError(t, r.Start(context.Background()))
	r.UpdateProgress(ProgressEvent{Current: 1, Path: "a.jpg", Outcome: "new"})
	r.UpdateProgress(ProgressEvent{Current: 2, Path: "b.jpg", Outcome: "unchanged"})
	r.UpdateProgress(ProgressEvent{Current: 3, Path: "c.jpg", Outcome: "moved"})

	out := buf.String()
	assert.Contains(t, out, "Syncing /photos")
	assert.Contains(t, out, "new")
	assert.Contains(t, out, "a.jpg")
	assert.Contains(t, out, "moved")
	// Unchanged files stay quiet even in verbose mode
	assert.NotContains(t, out, "b.jpg")
}

func TestPlainRendererQuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.UpdateProgress(ProgressEvent{Current: 1, Path: "a.jpg", Outcome: "new"})
	assert.Empty(t, buf.String())
}

func TestPlainRendererErrors(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.AddError(ErrorEvent{File: "bad.jpg", Err: errors.New("permission denied")})
	r.AddError(ErrorEvent{File: "odd.jpg", Err: errors.New("cannot decode")})

	out := buf.String()
	assert.Contains(t, out, "ERROR: bad.jpg: permission denied")
	assert.Contains(t, out, "ERROR: odd.jpg: cannot decode")
}

func TestPlainRendererComplete(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.Complete(CompletionStats{
		Found: 3, New: 1, Moved: 1, Unchanged: 1,
		Bytes:    2048,
		Duration: 1230 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Complete: 3 found, 1 new, 0 modified, 1 moved, 1 unchanged")
	assert.Contains(t, out, "kB")
}

func TestPlainRendererCompleteCancelled(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.Complete(CompletionStats{Found: 5, New: 2, Cancelled: true})
	assert.Contains(t, buf.String(), "Cancelled:")
}

func TestInteractiveRendererClearsLineOnComplete(t *testing.T) {
	var buf bytes.Buffer
	r := NewInteractiveRenderer(NewConfig(&buf))

	r.UpdateProgress(ProgressEvent{Current: 1, Path: "a.jpg", Outcome: "new"})
	r.Complete(CompletionStats{Found: 1, New: 1})

	out := buf.String()
	assert.Contains(t, out, "1 processed")
	assert.Contains(t, out, "Complete:")
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.jpg", truncatePath("short.jpg", 20))
	long := "very/long/path/to/some/deeply/nested/image/file.jpg"
	got := truncatePath(long, 20)
	assert.Len(t, got, 20)
	assert.Contains(t, got, "file.jpg")
}
