// Package hasher computes content digests for image files.
//
// Files with identical bytes always produce identical digests, so the
// digest serves as the identity of an image independent of its path.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	syncerrors "photosync/internal/errors"
)

// chunkSize is the read size per iteration. Cancellation is checked
// between chunks so large files do not block shutdown.
const chunkSize = 512 * 1024

// HashFile computes the lowercase hex SHA-256 digest of the file at path.
// The file is streamed, never loaded whole. On cancellation or read
// failure no digest is returned.
func HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", syncerrors.Wrap(syncerrors.ErrCodeFileNotFound, err).WithDetail("path", path)
		}
		if os.IsPermission(err) {
			return "", syncerrors.Wrap(syncerrors.ErrCodeFilePermission, err).WithDetail("path", path)
		}
		return "", syncerrors.Wrap(syncerrors.ErrCodeHashFailed, err).WithDetail("path", path)
	}
	defer f.Close()

	digest, err := HashReader(ctx, f)
	if err != nil {
		if se, ok := err.(*syncerrors.SyncError); ok {
			return "", se.WithDetail("path", path)
		}
		return "", err
	}
	return digest, nil
}

// HashReader computes the lowercase hex SHA-256 digest of r.
// Returns the context error unwrapped when cancelled mid-read.
func HashReader(ctx context.Context, r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := r.Read(buf)
		if n > 0 {
			// hash.Hash.Write never returns an error
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", syncerrors.Wrap(syncerrors.ErrCodeHashFailed, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the lowercase hex SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
