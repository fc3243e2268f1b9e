// Package config provides XDG path helpers and TOML parsing.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "editor-dojo", "config.toml")
}

// DefaultChallengesDir returns the default directory for challenge files.
func DefaultChallengesDir() string {
	return filepath.Join(XDGConfigHome(), "editor-dojo", "challenges")
}

// DefaultProgressPath returns the default path for the progress file.
func DefaultProgressPath() string {
	return filepath.Join(XDGDataHome(), "editor-dojo", "progress.json")
}

// DefaultRecordingsDir returns the default directory for session recordings.
func DefaultRecordingsDir() string {
	return filepath.Join(XDGDataHome(), "editor-dojo", "recordings")
}

// DefaultHistoryDBPath returns the default path for the attempt history database.
func DefaultHistoryDBPath() string {
	return filepath.Join(XDGDataHome(), "editor-dojo", "history.db")
}
