// Package scanner discovers image files in a source directory.
// It streams candidates as they are found, respecting extension filters,
// exclusion patterns, and the recursive flag.
package scanner

import (
	"strings"
	"time"
)

// FileInfo contains metadata about a discovered image file.
type FileInfo struct {
	Path      string    // Relative path to the scan root
	AbsPath   string    // Absolute path
	Name      string    // Base file name
	Extension string    // Lowercased extension without the dot
	Size      int64     // File size in bytes
	ModTime   time.Time // Last modification time
	CreatedAt time.Time // Creation time, best effort per platform
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the directory to scan.
	RootDir string

	// Extensions is the set of recognized extensions (lowercase, no dot).
	// Empty means every file is a candidate.
	Extensions map[string]bool

	// ExcludePatterns specifies glob patterns to exclude.
	ExcludePatterns []string

	// Recursive enables descending into subdirectories.
	Recursive bool

	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool
}

// ScanResult is returned from the scanner channel.
// Exactly one of File or Error is set. An Error result reports a file
// that could not be read; the stream continues past it.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// NormalizeExtension lowercases an extension and strips the leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
