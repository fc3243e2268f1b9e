// Package challenge defines editing challenges and their TOML loader.
package challenge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Challenge is a named text-transformation task. Immutable once loaded.
type Challenge struct {
	ID          string
	Title       string
	Description string
	Starting    string
	Target      string
	Hint        string
	Difficulty  string
	Tags        []string
}

// ValidateID rejects identifiers that would be unsafe as file name
// components. IDs name recording files, so path separators and traversal
// must never pass.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("challenge id is empty")
	}
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("invalid challenge id %q: only alphanumerics, dashes, and underscores are allowed", id)
	}
	return nil
}

// fileChallenge maps the TOML challenge definition format.
type fileChallenge struct {
	Metadata fileMetadata `toml:"metadata"`
	Hints    fileHints    `toml:"hints"`
	Content  fileContent  `toml:"content"`
}

type fileMetadata struct {
	ID          string   `toml:"id"`
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Difficulty  *string  `toml:"difficulty"`
	Tags        []string `toml:"tags"`
}

type fileHints struct {
	Generic *string `toml:"generic"`
	Editor  *string `toml:"editor"`
}

type fileContent struct {
	Starting string `toml:"starting"`
	Target   string `toml:"target"`
}

func (fc fileChallenge) toDomain() (Challenge, error) {
	if err := ValidateID(fc.Metadata.ID); err != nil {
		return Challenge{}, err
	}
	if fc.Content.Target == "" {
		return Challenge{}, fmt.Errorf("challenge %q has no target content", fc.Metadata.ID)
	}

	// Editor-specific hint wins over the generic one.
	hint := "No hint available"
	if fc.Hints.Generic != nil {
		hint = *fc.Hints.Generic
	}
	if fc.Hints.Editor != nil {
		hint = *fc.Hints.Editor
	}

	ch := Challenge{
		ID:          fc.Metadata.ID,
		Title:       fc.Metadata.Title,
		Description: fc.Metadata.Description,
		Starting:    fc.Content.Starting,
		Target:      fc.Content.Target,
		Hint:        hint,
		Tags:        fc.Metadata.Tags,
	}
	if fc.Metadata.Difficulty != nil {
		ch.Difficulty = *fc.Metadata.Difficulty
	}
	return ch, nil
}

// LoadFile reads a single challenge definition.
func LoadFile(path string) (Challenge, error) {
	var fc fileChallenge
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Challenge{}, fmt.Errorf("failed to decode challenge %s: %w", path, err)
	}
	ch, err := fc.toDomain()
	if err != nil {
		return Challenge{}, fmt.Errorf("invalid challenge %s: %w", path, err)
	}
	return ch, nil
}

// LoadDir loads every .toml challenge in a directory, sorted by ID.
func LoadDir(dir string) ([]Challenge, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenges directory: %w", err)
	}
	var challenges []Challenge
	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ch, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[ch.ID]; ok {
			return nil, fmt.Errorf("duplicate challenge id %q in %s and %s", ch.ID, prev, path)
		}
		seen[ch.ID] = path
		challenges = append(challenges, ch)
	}
	sort.Slice(challenges, func(i, j int) bool { return challenges[i].ID < challenges[j].ID })
	return challenges, nil
}
