// Package config loads and validates photosync configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/photosync/config.yaml)
//  3. Project config (.photosync.yaml in the scanned directory)
//  4. Environment variables (PHOTOSYNC_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete photosync configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Sync    SyncConfig    `yaml:"sync" json:"sync"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScanConfig configures directory discovery.
type ScanConfig struct {
	// Extensions lists recognized image extensions, without dots,
	// matched case-insensitively.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// Exclude lists glob patterns for paths to skip.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Recursive enables descending into subdirectories (default: true).
	Recursive bool `yaml:"recursive" json:"recursive"`

	// MinSizeBytes skips files smaller than this (0 = no minimum).
	MinSizeBytes int64 `yaml:"min_size_bytes" json:"min_size_bytes"`

	// MaxSizeBytes skips files larger than this (0 = no maximum).
	MaxSizeBytes int64 `yaml:"max_size_bytes" json:"max_size_bytes"`
}

// CatalogConfig configures catalog storage.
type CatalogConfig struct {
	// Path is the catalog database file.
	// Defaults to ~/.photosync/catalog.db
	Path string `yaml:"path" json:"path"`
}

// SyncConfig configures the synchronization run.
type SyncConfig struct {
	// BatchSize is the number of pending records per commit (default: 100).
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Workers is the number of concurrent hashing workers.
	// Defaults to the number of CPUs. 1 processes files strictly in order.
	Workers int `yaml:"workers" json:"workers"`

	// CacheSize is the per-run lookup cache capacity (default: 1024).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// WatchConfig configures continuous watch mode.
type WatchConfig struct {
	// Debounce is the settle window before a changed file is processed
	// (default: "500ms").
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// File is the log file path. Empty uses ~/.photosync/logs/photosync.log
	File string `yaml:"file" json:"file"`
}

// defaultExtensions are the image extensions recognized out of the box.
var defaultExtensions = []string{
	"jpg", "jpeg", "png", "gif", "bmp", "webp", "tif", "tiff",
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/@eaDir/**",
	"**/.thumbnails/**",
	"**/.Trash*/**",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			Extensions:   defaultExtensions,
			Exclude:      defaultExcludePatterns,
			Recursive:    true,
			MinSizeBytes: 0,
			MaxSizeBytes: 0,
		},
		Catalog: CatalogConfig{
			Path: DefaultCatalogPath(),
		},
		Sync: SyncConfig{
			BatchSize: 100,
			Workers:   runtime.NumCPU(),
			CacheSize: 1024,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// DefaultCatalogPath returns the default catalog database path.
func DefaultCatalogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".photosync", "catalog.db")
	}
	return filepath.Join(home, ".photosync", "catalog.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/photosync/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/photosync/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "photosync", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "photosync", "config.yaml")
	}
	return filepath.Join(home, ".config", "photosync", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration for the given directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .photosync.yaml or .photosync.yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".photosync.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".photosync.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// fileConfig mirrors Config for parsing, with pointer fields where a
// bare zero value cannot be told apart from "not set".
type fileConfig struct {
	Version int `yaml:"version"`
	Scan    struct {
		Extensions   []string `yaml:"extensions"`
		Exclude      []string `yaml:"exclude"`
		Recursive    *bool    `yaml:"recursive"`
		MinSizeBytes *int64   `yaml:"min_size_bytes"`
		MaxSizeBytes *int64   `yaml:"max_size_bytes"`
	} `yaml:"scan"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	Sync struct {
		BatchSize int `yaml:"batch_size"`
		Workers   int `yaml:"workers"`
		CacheSize int `yaml:"cache_size"`
	} `yaml:"sync"`
	Watch struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeFile(&parsed)
	return nil
}

// mergeFile merges parsed file values into c. Only set values override.
func (c *Config) mergeFile(other *fileConfig) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Scan.Extensions) > 0 {
		c.Scan.Extensions = other.Scan.Extensions
	}
	if len(other.Scan.Exclude) > 0 {
		// Merge with defaults rather than replace
		c.Scan.Exclude = append(c.Scan.Exclude, other.Scan.Exclude...)
	}
	if other.Scan.Recursive != nil {
		c.Scan.Recursive = *other.Scan.Recursive
	}
	if other.Scan.MinSizeBytes != nil {
		c.Scan.MinSizeBytes = *other.Scan.MinSizeBytes
	}
	if other.Scan.MaxSizeBytes != nil {
		c.Scan.MaxSizeBytes = *other.Scan.MaxSizeBytes
	}

	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}

	if other.Sync.BatchSize != 0 {
		c.Sync.BatchSize = other.Sync.BatchSize
	}
	if other.Sync.Workers != 0 {
		c.Sync.Workers = other.Sync.Workers
	}
	if other.Sync.CacheSize != 0 {
		c.Sync.CacheSize = other.Sync.CacheSize
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// mergeWith merges non-zero values from another resolved Config into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Scan.Extensions) > 0 {
		c.Scan.Extensions = other.Scan.Extensions
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}
	c.Scan.Recursive = other.Scan.Recursive
	c.Scan.MinSizeBytes = other.Scan.MinSizeBytes
	c.Scan.MaxSizeBytes = other.Scan.MaxSizeBytes
	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}
	if other.Sync.BatchSize != 0 {
		c.Sync.BatchSize = other.Sync.BatchSize
	}
	if other.Sync.Workers != 0 {
		c.Sync.Workers = other.Sync.Workers
	}
	if other.Sync.CacheSize != 0 {
		c.Sync.CacheSize = other.Sync.CacheSize
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies PHOTOSYNC_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PHOTOSYNC_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("PHOTOSYNC_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.BatchSize = n
		}
	}
	if v := os.Getenv("PHOTOSYNC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.Workers = n
		}
	}
	if v := os.Getenv("PHOTOSYNC_MIN_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.Scan.MinSizeBytes = n
		}
	}
	if v := os.Getenv("PHOTOSYNC_MAX_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.Scan.MaxSizeBytes = n
		}
	}
	if v := os.Getenv("PHOTOSYNC_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("PHOTOSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PHOTOSYNC_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	if c.Scan.MinSizeBytes < 0 {
		return fmt.Errorf("scan.min_size_bytes must be non-negative, got %d", c.Scan.MinSizeBytes)
	}
	if c.Scan.MaxSizeBytes < 0 {
		return fmt.Errorf("scan.max_size_bytes must be non-negative, got %d", c.Scan.MaxSizeBytes)
	}
	if c.Scan.MaxSizeBytes != 0 && c.Scan.MaxSizeBytes < c.Scan.MinSizeBytes {
		return fmt.Errorf("scan.max_size_bytes (%d) must not be below scan.min_size_bytes (%d)",
			c.Scan.MaxSizeBytes, c.Scan.MinSizeBytes)
	}

	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be positive, got %d", c.Sync.Workers)
	}
	if c.Sync.CacheSize <= 0 {
		return fmt.Errorf("sync.cache_size must be positive, got %d", c.Sync.CacheSize)
	}

	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path must not be empty")
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce must be a duration (e.g. \"500ms\"), got %q", c.Watch.Debounce)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// DebounceDuration returns the parsed watch debounce window.
// Validate must have accepted the config first.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// NormalizedExtensions returns the configured extensions lowercased,
// with any leading dots stripped.
func (c *Config) NormalizedExtensions() map[string]bool {
	exts := make(map[string]bool, len(c.Scan.Extensions))
	for _, e := range c.Scan.Extensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts[e] = true
		}
	}
	return exts
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindProjectRoot finds the directory whose config governs startDir.
// It looks for a .photosync.yaml/.yml file or a .git directory by
// walking up the directory tree. Falls back to startDir itself.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, ".photosync.yaml")) ||
			fileExists(filepath.Join(currentDir, ".photosync.yml")) {
			return currentDir, nil
		}
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, return original directory
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
