package progress

import (
	"fmt"
	"time"

	"github.com/pro-xee/editor-dojo/internal/integrity"
)

// Attempt is the outcome of one practice session as seen by the tracker.
type Attempt struct {
	Completed     bool
	Elapsed       time.Duration
	Keystrokes    *int
	RecordingPath string
	AttemptedAt   time.Time
}

// Tracker owns the Progress aggregate: it folds attempts in, signs them
// best-effort, and persists after every attempt so a crash loses at most
// the in-flight one.
type Tracker struct {
	store    *Store
	signer   *integrity.Signer
	progress *Progress
	warnf    func(format string, args ...any)
}

// NewTracker loads existing progress from the store. A nil signer disables
// signing; results are then stored as legacy entries.
func NewTracker(store *Store, signer *integrity.Signer, warnf func(format string, args ...any)) (*Tracker, error) {
	p, err := store.Load()
	if err != nil {
		return nil, err
	}
	if warnf == nil {
		warnf = func(string, ...any) {}
	}
	return &Tracker{store: store, signer: signer, progress: p, warnf: warnf}, nil
}

// Progress exposes the in-memory aggregate for read-only presentation.
func (t *Tracker) Progress() *Progress {
	return t.progress
}

// IsNewRecord reports whether the attempt would set fresh personal bests.
// Must be called before RecordAttempt folds the attempt in.
func (t *Tracker) IsNewRecord(challengeID string, a Attempt) (newTime, newKeystrokes bool) {
	stats := t.progress.Stats(challengeID)
	if stats == nil {
		return a.Completed, a.Completed && a.Keystrokes != nil
	}
	return stats.IsNewRecord(a.Elapsed, a.Keystrokes)
}

// RecordAttempt updates the aggregate, attaches integrity data when a
// recording exists, and persists the whole aggregate atomically. Hashing
// and signing are best-effort: their failure degrades the entry to legacy
// status but never blocks recording the result.
func (t *Tracker) RecordAttempt(challengeID string, a Attempt) (*ChallengeStats, error) {
	at := a.AttemptedAt
	if at.IsZero() {
		at = time.Now()
	}
	stats := t.progress.RecordAttempt(challengeID, a.Completed, a.Elapsed, a.Keystrokes, at)

	if a.RecordingPath != "" {
		hash, err := integrity.HashFile(a.RecordingPath)
		if err != nil {
			t.warnf("failed to hash recording: %v", err)
		} else {
			stats.RecordingHash = hash
		}
	}
	t.resign(stats)

	if err := t.store.Save(t.progress); err != nil {
		return nil, fmt.Errorf("failed to persist progress: %w", err)
	}
	return stats, nil
}

// resign refreshes the signature over the stored fields. The signature
// always covers what is on disk, so verification can re-run it from the
// stats entry alone.
func (t *Tracker) resign(stats *ChallengeStats) {
	if t.signer == nil || stats.RecordingHash == "" || !stats.Completed {
		return
	}
	if stats.BestTimeSecs == nil || stats.LastAttemptedAt == nil {
		return
	}
	strokes := 0
	if stats.BestKeystrokes != nil {
		strokes = *stats.BestKeystrokes
	}
	timeMs := *stats.BestTimeSecs * 1000
	timestamp := stats.LastAttemptedAt.UTC().Format(time.RFC3339)
	stats.Signature = t.signer.Sign(stats.ChallengeID, strokes, timeMs, timestamp, stats.RecordingHash)
	stats.SignatureVersion = integrity.SignatureVersion
}

// Save persists the current aggregate without recording anything new.
func (t *Tracker) Save() error {
	return t.store.Save(t.progress)
}
