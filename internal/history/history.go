// Package history handles SQLite persistence of the per-attempt log.
//
// The JSON progress file is the durable aggregate; the history database is
// the queryable record of individual attempts behind the stats screen.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Attempt is one row of the attempt log.
type Attempt struct {
	ID            int64
	ChallengeID   string
	AttemptedAt   time.Time
	Completed     bool
	DurationMs    int64
	Keystrokes    *int
	RecordingPath string
}

// Filter narrows ListAttempts results.
type Filter struct {
	ChallengeID string
	Since       *time.Time
	Last        int
}

// Store wraps SQLite access for attempt history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			challenge_id TEXT NOT NULL,
			attempted_at TEXT NOT NULL,
			completed INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			keystrokes INTEGER,
			recording_path TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_challenge ON attempts(challenge_id);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_attempted_at ON attempts(attempted_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertAttempt appends one attempt to the log.
func (s *Store) InsertAttempt(ctx context.Context, a Attempt) (int64, error) {
	var keystrokes any
	if a.Keystrokes != nil {
		keystrokes = *a.Keystrokes
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (challenge_id, attempted_at, completed, duration_ms, keystrokes, recording_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ChallengeID,
		a.AttemptedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(a.Completed),
		a.DurationMs,
		keystrokes,
		a.RecordingPath,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAttempts returns attempts matching the filter, oldest first.
func (s *Store) ListAttempts(ctx context.Context, f Filter) ([]Attempt, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.ChallengeID != "" {
		clauses = append(clauses, "challenge_id = ?")
		args = append(args, f.ChallengeID)
	}
	if f.Since != nil {
		clauses = append(clauses, "attempted_at >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, challenge_id, attempted_at, completed, duration_ms, keystrokes, recording_path
		FROM attempts
		WHERE %s
		ORDER BY attempted_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var attemptedAt string
		var completed int
		var keystrokes sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ChallengeID, &attemptedAt, &completed, &a.DurationMs, &keystrokes, &a.RecordingPath); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, attemptedAt)
		if err != nil {
			return nil, err
		}
		a.AttemptedAt = parsed
		a.Completed = completed != 0
		if keystrokes.Valid {
			n := int(keystrokes.Int64)
			a.Keystrokes = &n
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if f.Last > 0 && len(attempts) > f.Last {
		attempts = attempts[len(attempts)-f.Last:]
	}
	return attempts, nil
}

// RecentRecordings returns the recording paths for a challenge, newest
// first, for re-verification against the stored hash.
func (s *Store) RecentRecordings(ctx context.Context, challengeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recording_path FROM attempts
		 WHERE challenge_id = ? AND recording_path != ''
		 ORDER BY attempted_at DESC, id DESC`,
		challengeID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
