//go:build !linux && !darwin

package scanner

import (
	"io/fs"
	"time"
)

// fileCreatedAt has no portable source on this platform; use mtime.
func fileCreatedAt(info fs.FileInfo) time.Time {
	return info.ModTime()
}
