package hasher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncerrors "photosync/internal/errors"
)

func TestHashFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0o644))

	first, err := HashFile(context.Background(), path)
	require.NoError(t, err)
	second, err := HashFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Equal(t, strings.ToLower(first), first)
}

func TestHashFileIdenticalContentDifferentPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(b, 0o755))
	b = filepath.Join(b, "b.jpg")

	require.NoError(t, os.WriteFile(a, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same content"), 0o644))

	ha, err := HashFile(context.Background(), a)
	require.NoError(t, err)
	hb, err := HashFile(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHashFileDifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("two"), 0o644))

	ha, err := HashFile(context.Background(), a)
	require.NoError(t, err)
	hb, err := HashFile(context.Background(), b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
	assert.Equal(t, syncerrors.ErrCodeFileNotFound, syncerrors.GetCode(err))
}

func TestHashReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := HashReader(ctx, strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashBytesMatchesReader(t *testing.T) {
	data := []byte("known payload")
	fromReader, err := HashReader(context.Background(), strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, HashBytes(data), fromReader)
}

func TestHashFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	digest, err := HashFile(context.Background(), path)
	require.NoError(t, err)
	// SHA-256 of the empty string
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", digest)
}
