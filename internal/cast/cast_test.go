package cast

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCast(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attempt.cast")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write cast fixture: %v", err)
	}
	return path
}

func TestExtractKeystrokes(t *testing.T) {
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24, "timestamp": 1700000000}`,
		`[0.1, "o", "\u001b[2J"]`,
		`[0.5, "i", "w"]`,
		`[0.7, "i", "w"]`,
		`[0.9, "i", "d"]`,
		`[1.1, "i", "w"]`,
		`[1.3, "o", "echo"]`,
		`[1.5, "i", "\u001b"]`,
		`[1.8, "i", ":q"]`,
		`[2.0, "i", "\r"]`,
	)
	seq, err := ExtractKeystrokes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seq.String(); got != "w w d w Esc : q Enter" {
		t.Fatalf("unexpected sequence: %q", got)
	}
	if seq.Count() != 8 {
		t.Fatalf("expected 8 presses, got %d", seq.Count())
	}
}

func TestExtractKeystrokesSplitEscapeSequence(t *testing.T) {
	// An arrow key split across two input events still tokenizes as one
	// press because payloads are concatenated before tokenizing.
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24}`,
		`[0.1, "i", "\u001b["]`,
		`[0.2, "i", "A"]`,
	)
	seq, err := ExtractKeystrokes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seq.String(); got != "Up" {
		t.Fatalf("unexpected sequence: %q", got)
	}
}

func TestExtractKeystrokesOnlyOutput(t *testing.T) {
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24}`,
		`[0.1, "o", "boot noise"]`,
	)
	seq, err := ExtractKeystrokes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seq.IsEmpty() {
		t.Fatalf("expected empty sequence, got %v", seq.Presses())
	}
}

func TestExtractKeystrokesSkipsBlankLines(t *testing.T) {
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24}`,
		``,
		`[0.5, "i", "x"]`,
	)
	seq, err := ExtractKeystrokes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seq.String(); got != "x" {
		t.Fatalf("unexpected sequence: %q", got)
	}
}

func TestExtractKeystrokesCorruptEvent(t *testing.T) {
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24}`,
		`[0.5, "i", "w"]`,
		`not json at all`,
	)
	_, err := ExtractKeystrokes(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Line != 3 {
		t.Fatalf("expected error on line 3, got %d", perr.Line)
	}
}

func TestExtractKeystrokesCorruptHeader(t *testing.T) {
	path := writeCast(t,
		`version 2`,
		`[0.5, "i", "w"]`,
	)
	_, err := ExtractKeystrokes(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestExtractKeystrokesUnrecognizedInput(t *testing.T) {
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24}`,
		`[0.5, "i", "\u001b[Z"]`,
	)
	var perr *ParseError
	if _, err := ExtractKeystrokes(path); !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestExtractKeystrokesMissingFile(t *testing.T) {
	_, err := ExtractKeystrokes(filepath.Join(t.TempDir(), "missing.cast"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		t.Fatal("missing file should not be a ParseError")
	}
}

func TestExtractKeystrokesDeterministic(t *testing.T) {
	path := writeCast(t,
		`{"version": 2, "width": 80, "height": 24}`,
		`[0.5, "i", "gg"]`,
		`[0.9, "i", "dG"]`,
	)
	first, err := ExtractKeystrokes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ExtractKeystrokes(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("parsing twice differed: %q vs %q", first.String(), second.String())
	}
}
