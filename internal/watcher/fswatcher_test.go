package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, root string, opts Options) *DirWatcher {
	t.Helper()

	if opts.DebounceWindow == 0 {
		opts.DebounceWindow = 50 * time.Millisecond
	}
	w, err := New(opts, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { _ = w.Stop() })

	go func() { _ = w.Start(ctx, root) }()

	// Give the watch list time to register
	time.Sleep(100 * time.Millisecond)
	return w
}

func collectBatch(t *testing.T, w *DirWatcher) []FileEvent {
	t.Helper()
	select {
	case batch := <-w.Events():
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event batch")
		return nil
	}
}

func TestDirWatcherDetectsCreate(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{Recursive: true})

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.jpg"), []byte("x"), 0o644))

	batch := collectBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "new.jpg", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDirWatcherFiltersExtensions(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{
		Recursive:  true,
		Extensions: map[string]bool{"jpg": true},
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pic.jpg"), []byte("x"), 0o644))

	batch := collectBatch(t, w)
	for _, ev := range batch {
		assert.NotEqual(t, "notes.txt", ev.Path)
	}
}

func TestDirWatcherExcludesPatterns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".thumbnails"), 0o755))

	w := startWatcher(t, root, Options{
		Recursive:       true,
		ExcludePatterns: []string{"**/.thumbnails/**"},
	})

	require.NoError(t, os.WriteFile(
		filepath.Join(root, ".thumbnails", "thumb.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.jpg"), []byte("x"), 0o644))

	batch := collectBatch(t, w)
	for _, ev := range batch {
		assert.NotContains(t, ev.Path, ".thumbnails")
	}
}

func TestDirWatcherWatchesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{Recursive: true})

	sub := filepath.Join(root, "2025-06")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	// Consume the directory-create batch, then write inside it
	collectBatch(t, w)
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "img.jpg"), []byte("x"), 0o644))

	batch := collectBatch(t, w)
	found := false
	for _, ev := range batch {
		if ev.Path == filepath.Join("2025-06", "img.jpg") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDirWatcherStopClosesChannels(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{Recursive: true})

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, open := <-w.Events()
	assert.False(t, open)
}
