package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
}

// PracticeConfig maps practice-related settings. Pointer fields
// distinguish "unset" from an explicit zero so flags can layer on top.
type PracticeConfig struct {
	Editor         *string `toml:"editor"`
	Recorder       *string `toml:"recorder"`
	Recording      *bool   `toml:"recording"`
	PollIntervalMs *int    `toml:"poll-interval-ms"`
	ChallengesDir  *string `toml:"challenges-dir"`
	// SigningKey is a hex-encoded override for the built-in result
	// signing key. Shared setups can pin their own key with it.
	SigningKey *string `toml:"signing-key"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
