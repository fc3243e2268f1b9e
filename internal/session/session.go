// Package session runs one challenge attempt: it races an external editor
// process against a file-content watcher and reports the outcome.
package session

import (
	"fmt"
	"time"

	"github.com/pro-xee/editor-dojo/internal/keys"
)

// Outcome is the terminal state of an attempt. Exactly one is reached per
// invocation.
type Outcome int

const (
	// Succeeded means the watcher saw the file reach the target content.
	Succeeded Outcome = iota
	// Cancelled means the editor exited before the target was reached.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Solution is the result of one attempt.
type Solution struct {
	Outcome       Outcome
	Elapsed       time.Duration
	RecordingPath string
	Keys          keys.Sequence
	HasKeys       bool
}

// Completed reports whether the challenge was solved.
func (s Solution) Completed() bool {
	return s.Outcome == Succeeded
}

// KeystrokeCount returns the number of reconstructed keystrokes, or nil
// when no usable recording exists.
func (s Solution) KeystrokeCount() *int {
	if !s.HasKeys {
		return nil
	}
	n := s.Keys.Count()
	return &n
}

// LaunchError means the editor or recorder binary could not be started.
// Fatal to the attempt; nothing is recorded.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// WatchError means the target file could not be observed. Fatal to the
// attempt.
type WatchError struct {
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("failed to watch %s: %v", e.Path, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}
