// Package logging provides structured JSON logging with file rotation.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Option adjusts the logging setup built by Setup.
type Option func(*settings)

type settings struct {
	level     slog.Level
	filePath  string
	maxSizeMB int
	maxFiles  int
	mirror    io.Writer
}

// WithLevel sets the minimum level recorded.
func WithLevel(level slog.Level) Option {
	return func(s *settings) { s.level = level }
}

// WithFile directs log output to path instead of the default location.
func WithFile(path string) Option {
	return func(s *settings) {
		if path != "" {
			s.filePath = path
		}
	}
}

// WithRotation caps the log file at sizeMB megabytes and keeps at most
// keep rotated files alongside it.
func WithRotation(sizeMB, keep int) Option {
	return func(s *settings) {
		s.maxSizeMB = sizeMB
		s.maxFiles = keep
	}
}

// WithMirror duplicates every record to w in addition to the log file.
// The debug flag uses this to mirror records to stderr.
func WithMirror(w io.Writer) Option {
	return func(s *settings) { s.mirror = w }
}

// Setup opens the rotating log file and returns a JSON logger writing to
// it, along with a close function that flushes buffered records. Without
// options it logs at info level to DefaultLogPath, rotating past 10 MB
// and keeping 5 old files.
func Setup(opts ...Option) (*slog.Logger, func(), error) {
	s := settings{
		level:     slog.LevelInfo,
		filePath:  DefaultLogPath(),
		maxSizeMB: 10,
		maxFiles:  5,
	}
	for _, opt := range opts {
		opt(&s)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return nil, nil, err
	}

	writer, err := NewRotatingWriter(s.filePath, s.maxSizeMB, s.maxFiles)
	if err != nil {
		return nil, nil, err
	}

	out := io.Writer(writer)
	if s.mirror != nil {
		out = io.MultiWriter(writer, s.mirror)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: s.level}))
	closeFn := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return logger, closeFn, nil
}

// ParseLevel maps a configuration string to a slog level. Unrecognized
// values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
