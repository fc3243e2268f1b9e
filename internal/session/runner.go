package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pro-xee/editor-dojo/internal/cast"
	"github.com/pro-xee/editor-dojo/internal/challenge"
)

// Runner drives one challenge attempt end to end: seed the target file,
// launch the editor (wrapped by the recorder when available), and race the
// child process against the content watcher.
type Runner struct {
	// EditorCommand is the editor binary, e.g. "hx".
	EditorCommand string
	// RecorderCommand is the terminal recorder binary, e.g. "asciinema".
	// Empty disables recording.
	RecorderCommand string
	// RecordingsDir receives one cast file per recorded attempt.
	RecordingsDir string
	// PollInterval overrides the watcher's polling period when positive.
	PollInterval time.Duration
	// Warnf receives non-fatal degradation notices. Optional.
	Warnf func(format string, args ...any)
}

// EditorAvailable reports whether the configured editor resolves on PATH.
func (r *Runner) EditorAvailable() bool {
	argv := r.editorArgv()
	return len(argv) > 0 && binaryAvailable(argv[0])
}

// editorArgv splits EditorCommand into argv fields. Editors are often
// configured with flags attached, e.g. "code --wait".
func (r *Runner) editorArgv() []string {
	return strings.Fields(r.EditorCommand)
}

// RecorderAvailable reports whether recording is configured and possible.
func (r *Runner) RecorderAvailable() bool {
	return r.RecorderCommand != "" && binaryAvailable(r.RecorderCommand)
}

// Run executes one attempt. Exactly one terminal state is reached: a
// Solution with Outcome Succeeded or Cancelled, or an error (LaunchError,
// WatchError, or the context's error) with nothing recorded.
func (r *Runner) Run(ctx context.Context, ch challenge.Challenge) (Solution, error) {
	targetFile, err := writeWorkFile(ch.Starting)
	if err != nil {
		return Solution{}, err
	}
	defer func() {
		if rerr := os.Remove(targetFile); rerr != nil && !os.IsNotExist(rerr) {
			// Best-effort cleanup of the scratch file.
			_ = rerr
		}
	}()

	castPath := ""
	if r.RecorderAvailable() {
		castPath, err = r.recordingPath(ch.ID)
		if err != nil {
			r.warnf("recording disabled: %v", err)
			castPath = ""
		}
	}

	start := time.Now()
	proc, err := r.launch(targetFile, castPath)
	if err != nil {
		return Solution{}, err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	watch := watchFile(watchCtx, targetFile, ch.Target, r.PollInterval)

	select {
	case err := <-watch:
		if err != nil {
			// Watcher failure is fatal; still reap the child.
			_ = proc.Terminate()
			return Solution{}, err
		}
		// The watcher won the race: the challenge is solved even though
		// the editor is still running. Terminate waits for the recorder's
		// own exit so the cast trailer is on disk before parsing.
		elapsed := time.Since(start)
		stopWatch()
		_ = proc.Terminate()
		return r.finish(Succeeded, elapsed, castPath), nil

	case <-proc.Done():
		elapsed := time.Since(start)
		stopWatch()
		// The editor quit on its own. A save-and-quit may have written the
		// solution after the last poll, so check once more before calling
		// it abandoned.
		matched, err := checkFile(targetFile, ch.Target)
		if err != nil {
			return Solution{}, err
		}
		if matched {
			return r.finish(Succeeded, elapsed, castPath), nil
		}
		return r.finish(Cancelled, elapsed, castPath), nil

	case <-ctx.Done():
		stopWatch()
		_ = proc.Terminate()
		return Solution{}, ctx.Err()
	}
}

// launch starts the editor, wrapped by the recorder when castPath is set.
func (r *Runner) launch(targetFile, castPath string) (*process, error) {
	if castPath == "" {
		argv := r.editorArgv()
		if len(argv) == 0 {
			return nil, &LaunchError{Binary: r.EditorCommand, Err: errors.New("no editor command configured")}
		}
		proc, err := startProcess(argv[0], append(argv[1:], targetFile)...)
		if err != nil {
			return nil, &LaunchError{Binary: argv[0], Err: err}
		}
		return proc, nil
	}
	wrapped := r.EditorCommand + " " + shellQuote(targetFile)
	proc, err := startProcess(r.RecorderCommand, "rec", "--overwrite", castPath, "-c", wrapped)
	if err != nil {
		return nil, &LaunchError{Binary: r.RecorderCommand, Err: err}
	}
	return proc, nil
}

// finish assembles the Solution, extracting keystrokes when a recording
// was produced. An unparseable recording degrades to a keyless result.
func (r *Runner) finish(outcome Outcome, elapsed time.Duration, castPath string) Solution {
	sol := Solution{Outcome: outcome, Elapsed: elapsed}
	if castPath == "" || outcome != Succeeded {
		return sol
	}
	sol.RecordingPath = castPath
	seq, err := cast.ExtractKeystrokes(castPath)
	if err != nil {
		var perr *cast.ParseError
		if errors.As(err, &perr) {
			r.warnf("recording could not be parsed, keystrokes omitted: %v", perr)
		} else {
			r.warnf("recording unreadable, keystrokes omitted: %v", err)
		}
		return sol
	}
	sol.Keys = seq
	sol.HasKeys = true
	return sol
}

// recordingPath builds the per-challenge, per-attempt cast file path.
// Timestamped names keep every attempt individually replayable.
func (r *Runner) recordingPath(challengeID string) (string, error) {
	if err := challenge.ValidateID(challengeID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.RecordingsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}
	name := fmt.Sprintf("challenge-%s-%d.cast", challengeID, time.Now().Unix())
	return filepath.Join(r.RecordingsDir, name), nil
}

// writeWorkFile seeds a fresh scratch file with the starting content. Each
// attempt gets its own file, so setup is idempotent across attempts.
func writeWorkFile(content string) (string, error) {
	f, err := os.CreateTemp("", "editor-dojo-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create work file: %w", err)
	}
	path := f.Name()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to seed work file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to sync work file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close work file: %w", err)
	}
	return path, nil
}

// shellQuote wraps a path for use inside the recorder's -c command string.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (r *Runner) warnf(format string, args ...any) {
	if r.Warnf != nil {
		r.Warnf(format, args...)
	}
}
