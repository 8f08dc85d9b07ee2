package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// resultBuffer is the scan channel capacity. Discovery runs ahead of
// hashing, so a modest buffer keeps the walk from stalling.
const resultBuffer = 64

// Scanner discovers image files in a source directory.
type Scanner struct{}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{}
}

// Scan discovers image files under the root directory.
// It returns a channel of ScanResult that streams files as they are
// discovered, in lexicographic walk order. The channel is closed when
// scanning is complete or the context is cancelled.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	results := make(chan ScanResult, resultBuffer)

	go func() {
		defer close(results)
		s.scan(ctx, absRoot, opts, results)
	}()

	return results, nil
}

// scan performs the actual directory traversal.
func (s *Scanner) scan(ctx context.Context, absRoot string, opts *ScanOptions, results chan<- ScanResult) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}

		if err != nil {
			// Report unreadable entries and keep walking
			if relPath != "." {
				sendResult(ctx, results, ScanResult{Error: fmt.Errorf("cannot read %s: %w", relPath, err)})
			}
			return nil
		}

		// Skip root directory itself
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			if s.shouldExcludeDir(relPath, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		ext := NormalizeExtension(filepath.Ext(d.Name()))
		if len(opts.Extensions) > 0 && !opts.Extensions[ext] {
			return nil
		}

		if s.shouldExcludeFile(relPath, opts) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			sendResult(ctx, results, ScanResult{Error: fmt.Errorf("cannot stat %s: %w", relPath, infoErr)})
			return nil
		}

		fileInfo := &FileInfo{
			Path:      relPath,
			AbsPath:   path,
			Name:      d.Name(),
			Extension: ext,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			CreatedAt: fileCreatedAt(info),
		}

		if !sendResult(ctx, results, ScanResult{File: fileInfo}) {
			return ctx.Err()
		}

		return nil
	})

	if err != nil && err != context.Canceled {
		sendResult(ctx, results, ScanResult{Error: err})
	}
}

// sendResult delivers a result unless the context is cancelled first.
func sendResult(ctx context.Context, results chan<- ScanResult, r ScanResult) bool {
	select {
	case results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// shouldExcludeDir checks if a directory should be excluded.
func (s *Scanner) shouldExcludeDir(relPath string, opts *ScanOptions) bool {
	return Excluded(relPath, true, opts.ExcludePatterns)
}

// shouldExcludeFile checks if a file should be excluded.
func (s *Scanner) shouldExcludeFile(relPath string, opts *ScanOptions) bool {
	return Excluded(relPath, false, opts.ExcludePatterns)
}

// Excluded reports whether a relative path matches any exclude
// pattern. The same matching is used for scanning and for watch-mode
// event filtering.
func Excluded(relPath string, isDir bool, patterns []string) bool {
	if isDir {
		for _, pattern := range patterns {
			if matchDirPattern(relPath, pattern) {
				return true
			}
		}
		return false
	}

	baseName := filepath.Base(relPath)
	for _, pattern := range patterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	return false
}

// matchDirPattern checks if a directory path matches a pattern.
func matchDirPattern(relPath, pattern string) bool {
	// Handle **/ prefix patterns (e.g., **/.thumbnails/**)
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		suffix = strings.TrimSuffix(suffix, "/**")
		for _, part := range strings.Split(relPath, string(filepath.Separator)) {
			if matched, err := filepath.Match(suffix, part); err == nil && matched {
				return true
			}
		}
		return false
	}

	// Handle dir/** patterns: match the directory itself or anything below it
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return relPath == prefix || strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}

	return relPath == pattern || strings.HasPrefix(relPath, pattern+string(filepath.Separator))
}

// matchFilePattern checks if a file matches a pattern.
func matchFilePattern(baseName, relPath, pattern string) bool {
	// Handle dir/** patterns
	if strings.HasSuffix(pattern, "/**") && !strings.HasPrefix(pattern, "**/") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}

	// Handle **/ prefix patterns
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		if strings.HasPrefix(suffix, "*.") {
			// Extension pattern like **/*.tmp
			ext := strings.TrimPrefix(suffix, "*")
			return strings.HasSuffix(strings.ToLower(baseName), strings.ToLower(ext))
		}
		return matchDirPattern(relPath, pattern)
	}

	// Plain glob against the base name
	if matched, err := filepath.Match(pattern, baseName); err == nil && matched {
		return true
	}

	return baseName == pattern
}
