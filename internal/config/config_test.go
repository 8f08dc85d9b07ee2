package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.True(t, cfg.Scan.Recursive)
	assert.Contains(t, cfg.Scan.Extensions, "jpg")
	assert.Contains(t, cfg.Scan.Extensions, "png")
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.Greater(t, cfg.Sync.Workers, 0)
	assert.Equal(t, "500ms", cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Catalog.Path)
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	content := `version: 1
scan:
  recursive: false
  min_size_bytes: 1024
  extensions: [jpg, heic]
sync:
  batch_size: 250
  workers: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".photosync.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, cfg.Scan.Recursive)
	assert.Equal(t, int64(1024), cfg.Scan.MinSizeBytes)
	assert.Equal(t, []string{"jpg", "heic"}, cfg.Scan.Extensions)
	assert.Equal(t, 250, cfg.Sync.BatchSize)
	assert.Equal(t, 2, cfg.Sync.Workers)
	// Untouched sections keep defaults
	assert.Equal(t, "500ms", cfg.Watch.Debounce)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("PHOTOSYNC_BATCH_SIZE", "42")
	t.Setenv("PHOTOSYNC_CATALOG_PATH", "/tmp/other.db")
	t.Setenv("PHOTOSYNC_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Sync.BatchSize)
	assert.Equal(t, "/tmp/other.db", cfg.Catalog.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverridesBeatProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("PHOTOSYNC_BATCH_SIZE", "7")

	content := "sync:\n  batch_size: 500\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".photosync.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Sync.BatchSize)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".photosync.yaml"), []byte("sync: [broken"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero batch size", func(c *Config) { c.Sync.BatchSize = 0 }, "batch_size"},
		{"negative workers", func(c *Config) { c.Sync.Workers = -1 }, "workers"},
		{"no extensions", func(c *Config) { c.Scan.Extensions = nil }, "extensions"},
		{"max below min", func(c *Config) {
			c.Scan.MinSizeBytes = 100
			c.Scan.MaxSizeBytes = 10
		}, "max_size_bytes"},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }, "debounce"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"empty catalog path", func(c *Config) { c.Catalog.Path = "" }, "catalog.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNormalizedExtensions(t *testing.T) {
	cfg := NewConfig()
	cfg.Scan.Extensions = []string{"JPG", ".png", " tiff ", ""}

	exts := cfg.NormalizedExtensions()
	assert.True(t, exts["jpg"])
	assert.True(t, exts["png"])
	assert.True(t, exts["tiff"])
	assert.Len(t, exts, 3)
}

func TestDebounceDuration(t *testing.T) {
	cfg := NewConfig()
	cfg.Watch.Debounce = "2s"
	assert.Equal(t, 2*time.Second, cfg.DebounceDuration())
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	cfg := NewConfig()
	cfg.Sync.BatchSize = 33
	path := filepath.Join(dir, ".photosync.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 33, loaded.Sync.BatchSize)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".photosync.yaml"), []byte("version: 1\n"), 0o644))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}
