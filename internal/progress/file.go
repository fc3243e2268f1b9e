package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the Progress aggregate as a single JSON document.
// Writes go through an atomic temp-and-rename so a crash mid-write never
// leaves a half-written file observable to the next load.
type Store struct {
	path string
}

// NewStore builds a store for the given progress file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the progress file location.
func (s *Store) Path() string {
	return s.path
}

// BackupPath is where a corrupt progress file is preserved on load.
func (s *Store) BackupPath() string {
	return s.path + ".bak"
}

// Load reads the progress file. A missing file yields an empty aggregate.
// A file that fails to parse is preserved under BackupPath and an empty
// aggregate is returned, so corruption never blocks practice.
func (s *Store) Load() (*Progress, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		if berr := os.WriteFile(s.BackupPath(), data, 0o644); berr != nil {
			return nil, fmt.Errorf("failed to back up corrupt progress file: %w", berr)
		}
		return New(), nil
	}
	if p.Challenges == nil {
		p.Challenges = map[string]*ChallengeStats{}
	}
	for id, stats := range p.Challenges {
		stats.ChallengeID = id
	}
	return &p, nil
}

// Save atomically replaces the progress file with the given aggregate.
func (s *Store) Save(p *Progress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "progress-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp progress file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close progress: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}
