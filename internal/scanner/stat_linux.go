//go:build linux

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// fileCreatedAt extracts a creation timestamp from stat data.
// Most Unix filesystems do not expose birth time, so the inode change
// time stands in for it. Falls back to mtime when stat data is missing.
func fileCreatedAt(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
}
