package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// maxBackups caps how many timestamped config backups are retained.
const maxBackups = 3

// backupName derives the backup path for the user config at a point in
// time. The timestamp format sorts lexically in chronological order, so
// backup listings never need to stat files.
func backupName(configPath string, at time.Time) string {
	return fmt.Sprintf("%s.bak.%s", configPath, at.Format("20060102-150405"))
}

// BackupUserConfig copies the user config to a timestamped .bak file and
// prunes backups beyond the retention cap. Returns the backup path, or
// empty string when no user config exists.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backupPath := backupName(configPath, time.Now())
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Pruning is best-effort, the backup itself succeeded
	if backups, err := ListUserConfigBackups(); err == nil {
		for _, stale := range backups[min(maxBackups, len(backups)):] {
			_ = os.Remove(stale)
		}
	}

	return backupPath, nil
}

// ListUserConfigBackups returns backup files for the user config, newest
// first.
func ListUserConfigBackups() ([]string, error) {
	matches, err := filepath.Glob(GetUserConfigPath() + ".bak.*")
	if err != nil {
		return nil, fmt.Errorf("failed to list config backups: %w", err)
	}

	// Timestamped names sort chronologically; reverse for newest first
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// RestoreUserConfig replaces the user config with the contents of a
// backup file. Any current config is backed up first.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("backup file not readable: %w", err)
	}

	if _, err := BackupUserConfig(); err != nil {
		return fmt.Errorf("failed to backup current config before restore: %w", err)
	}

	if err := os.MkdirAll(GetUserConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write restored config: %w", err)
	}
	return nil
}
