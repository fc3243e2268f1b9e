package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pro-xee/editor-dojo/internal/challenge"
)

// fakeEditor writes a shell script that stands in for the editor binary.
func fakeEditor(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake editors are shell scripts")
	}
	path := filepath.Join(t.TempDir(), "fake-editor")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write fake editor: %v", err)
	}
	return path
}

// fakeRecorder writes a shell script that stands in for the recorder
// binary. It receives the real invocation: rec --overwrite <cast> -c <cmd>.
func fakeRecorder(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake recorders are shell scripts")
	}
	path := filepath.Join(t.TempDir(), "fake-recorder")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write fake recorder: %v", err)
	}
	return path
}

func testChallenge() challenge.Challenge {
	return challenge.Challenge{
		ID:       "test-01",
		Title:    "test",
		Starting: "before content\n",
		Target:   "after content\n",
	}
}

func TestRunSucceededWhileEditorRuns(t *testing.T) {
	// The editor writes the solution and keeps running; the watcher must
	// win the race and the runner must terminate the editor itself.
	editor := fakeEditor(t, `printf 'after content\n' > "$1"
sleep 30`)
	r := &Runner{EditorCommand: editor, PollInterval: 10 * time.Millisecond}

	start := time.Now()
	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Succeeded {
		t.Fatalf("expected Succeeded, got %v", sol.Outcome)
	}
	if !sol.Completed() {
		t.Fatal("solution should report completed")
	}
	if sol.Elapsed <= 0 {
		t.Fatalf("elapsed not measured: %v", sol.Elapsed)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("runner did not terminate the lingering editor")
	}
}

func TestRunSucceededOnSaveAndQuit(t *testing.T) {
	// The editor writes the solution and exits immediately. Whichever
	// side wins the race, the result must be success.
	editor := fakeEditor(t, `printf 'after content\n' > "$1"`)
	r := &Runner{EditorCommand: editor, PollInterval: 10 * time.Millisecond}

	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Succeeded {
		t.Fatalf("expected Succeeded, got %v", sol.Outcome)
	}
}

func TestRunRecordedSessionExtractsKeystrokes(t *testing.T) {
	// The recorder keeps running after the editor finishes and only writes
	// the cast, trailer included, once it is interrupted. The runner must
	// wait for the recorder's own exit before parsing, or the cast is not
	// on disk yet.
	editor := fakeEditor(t, `printf 'after content\n' > "$1"`)
	argsFile := filepath.Join(t.TempDir(), "args")
	recorder := fakeRecorder(t, `printf '%s %s %s' "$1" "$2" "$4" > `+shellQuote(argsFile)+`
cast="$3"
finish() {
	sleep 1
	{
		printf '{"version": 2, "width": 80, "height": 24}\n'
		printf '[0.10, "o", "dw"]\n'
		printf '[0.15, "i", "dw"]\n'
		printf '[0.32, "i", "x"]\n'
	} > "$cast"
	exit 0
}
trap finish INT TERM
sh -c "$5" &
while :; do sleep 1; done`)
	r := &Runner{
		EditorCommand:   editor,
		RecorderCommand: recorder,
		RecordingsDir:   t.TempDir(),
		PollInterval:    10 * time.Millisecond,
	}

	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Succeeded {
		t.Fatalf("expected Succeeded, got %v", sol.Outcome)
	}
	if sol.RecordingPath == "" {
		t.Fatal("recorded attempt must carry the cast path")
	}
	if !sol.HasKeys {
		t.Fatal("keystrokes were not extracted; cast parsed before the recorder exited?")
	}
	if got := sol.Keys.Count(); got != 3 {
		t.Fatalf("expected 3 keystrokes, got %d", got)
	}
	if n := sol.KeystrokeCount(); n == nil || *n != 3 {
		t.Fatalf("unexpected keystroke count: %v", n)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("fake recorder did not record its arguments: %v", err)
	}
	if got := string(args); got != "rec --overwrite -c" {
		t.Fatalf("unexpected recorder invocation: %s", got)
	}
}

func TestRunRecordedSessionDegradesOnBadCast(t *testing.T) {
	// A cast the parser cannot read loses the key sequence but never the
	// result.
	editor := fakeEditor(t, `printf 'after content\n' > "$1"`)
	recorder := fakeRecorder(t, `printf 'not a cast file\n' > "$3"
sh -c "$5" &
while :; do sleep 1; done`)
	var warned bool
	r := &Runner{
		EditorCommand:   editor,
		RecorderCommand: recorder,
		RecordingsDir:   t.TempDir(),
		PollInterval:    10 * time.Millisecond,
		Warnf:           func(string, ...any) { warned = true },
	}

	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Succeeded {
		t.Fatalf("expected Succeeded, got %v", sol.Outcome)
	}
	if sol.HasKeys {
		t.Fatal("garbage cast must not yield keystrokes")
	}
	if sol.KeystrokeCount() != nil {
		t.Fatal("keystroke count must be nil without a usable cast")
	}
	if sol.RecordingPath == "" {
		t.Fatal("cast path should still be reported for inspection")
	}
	if !warned {
		t.Fatal("degraded parse should emit a warning")
	}
}

func TestRunCancelledWhenEditorQuitsWithoutSolving(t *testing.T) {
	editor := fakeEditor(t, `exit 0`)
	r := &Runner{EditorCommand: editor, PollInterval: 10 * time.Millisecond}

	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Cancelled {
		t.Fatalf("expected Cancelled, got %v", sol.Outcome)
	}
	if sol.Completed() {
		t.Fatal("cancelled solution must not report completed")
	}
	if sol.HasKeys || sol.RecordingPath != "" {
		t.Fatal("cancelled attempt must not carry recording data")
	}
}

func TestRunCancelledWithWrongContent(t *testing.T) {
	editor := fakeEditor(t, `printf 'almost after content\n' > "$1"`)
	r := &Runner{EditorCommand: editor, PollInterval: 10 * time.Millisecond}

	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Cancelled {
		t.Fatalf("wrong content must never succeed, got %v", sol.Outcome)
	}
}

func TestRunEditorCommandWithFlags(t *testing.T) {
	// $EDITOR is often a command with flags attached, e.g. "code --wait".
	// The direct launch must split it into argv, not treat it as a binary
	// name.
	editor := fakeEditor(t, `[ "$1" = "--wide" ] || exit 1
printf 'after content\n' > "$2"`)
	r := &Runner{EditorCommand: editor + " --wide", PollInterval: 10 * time.Millisecond}

	if !r.EditorAvailable() {
		t.Fatal("editor with flags should resolve as available")
	}
	sol, err := r.Run(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Outcome != Succeeded {
		t.Fatalf("expected Succeeded, got %v", sol.Outcome)
	}
}

func TestRunLaunchError(t *testing.T) {
	r := &Runner{
		EditorCommand: filepath.Join(t.TempDir(), "no-such-editor"),
		PollInterval:  10 * time.Millisecond,
	}
	_, err := r.Run(context.Background(), testChallenge())
	var lerr *LaunchError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
}

func TestRunContextCancellation(t *testing.T) {
	editor := fakeEditor(t, `sleep 30`)
	r := &Runner{EditorCommand: editor, PollInterval: 10 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, testChallenge())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("runner did not terminate the editor on cancellation")
	}
}

func TestRunCleansUpWorkFile(t *testing.T) {
	var workFile string
	editor := fakeEditor(t, `exit 0`)
	r := &Runner{EditorCommand: editor, PollInterval: 10 * time.Millisecond}

	// Capture the scratch path via the editor's argument by echoing it to
	// a side channel file.
	side := filepath.Join(t.TempDir(), "arg")
	editor = fakeEditor(t, `printf '%s' "$1" > `+shellQuote(side)+`
exit 0`)
	r.EditorCommand = editor

	if _, err := r.Run(context.Background(), testChallenge()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arg, err := os.ReadFile(side)
	if err != nil {
		t.Fatalf("fake editor did not record its argument: %v", err)
	}
	workFile = string(arg)
	if _, err := os.Stat(workFile); !os.IsNotExist(err) {
		t.Fatalf("work file %s not cleaned up", workFile)
	}
}

func TestWatchFileDetectsMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.txt")
	if err := os.WriteFile(path, []byte("before"), 0o644); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := watchFile(ctx, path, "after", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if err := os.WriteFile(path, []byte("after\n"), 0o644); err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	select {
	case err := <-ch:
		if err != nil {
			t.Fatalf("unexpected watch error: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("watcher never reported the match")
	}
}

func TestWatchFileToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appears-later.txt")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := watchFile(ctx, path, "content", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	select {
	case err := <-ch:
		if err != nil {
			t.Fatalf("missing file should not be fatal: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("watcher never reported the match")
	}
}

func TestWatchFileReportsReadError(t *testing.T) {
	// A directory at the watched path is unreadable as a file.
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := watchFile(ctx, dir, "content", 10*time.Millisecond)

	select {
	case err := <-ch:
		var werr *WatchError
		if !errors.As(err, &werr) {
			t.Fatalf("expected WatchError, got %v", err)
		}
	case <-ctx.Done():
		t.Fatal("watcher never reported the error")
	}
}

func TestShellQuote(t *testing.T) {
	if got := shellQuote("/tmp/plain.txt"); got != "'/tmp/plain.txt'" {
		t.Fatalf("unexpected quoting: %s", got)
	}
	if got := shellQuote("/tmp/it's.txt"); got != `'/tmp/it'\''s.txt'` {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
