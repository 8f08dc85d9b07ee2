//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// fileCreatedAt extracts the birth time from stat data.
// Falls back to mtime when stat data is missing.
func fileCreatedAt(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}
