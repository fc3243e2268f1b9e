package challenge

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleChallenge = `
[metadata]
id = "delete-line-01"
title = "Delete the middle line"
description = "Remove the REMOVE line."
difficulty = "easy"
tags = ["delete", "basics"]

[hints]
generic = "Find a way to delete a whole line."
editor = "Use dd on the line."

[content]
starting = """
keep one
REMOVE ME
keep two
"""
target = """
keep one
keep two
"""
`

func writeChallenge(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write challenge fixture: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeChallenge(t, t.TempDir(), "delete-line.toml", sampleChallenge)
	ch, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.ID != "delete-line-01" {
		t.Fatalf("unexpected id: %q", ch.ID)
	}
	if ch.Title != "Delete the middle line" {
		t.Fatalf("unexpected title: %q", ch.Title)
	}
	if ch.Hint != "Use dd on the line." {
		t.Fatalf("editor hint should win, got %q", ch.Hint)
	}
	if ch.Difficulty != "easy" {
		t.Fatalf("unexpected difficulty: %q", ch.Difficulty)
	}
	if len(ch.Tags) != 2 {
		t.Fatalf("unexpected tags: %v", ch.Tags)
	}
	if ch.Starting == "" || ch.Target == "" {
		t.Fatal("content not loaded")
	}
}

func TestLoadFileGenericHintFallback(t *testing.T) {
	content := `
[metadata]
id = "x-01"
title = "t"
description = "d"

[hints]
generic = "generic hint"

[content]
starting = "a"
target = "b"
`
	path := writeChallenge(t, t.TempDir(), "x.toml", content)
	ch, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Hint != "generic hint" {
		t.Fatalf("unexpected hint: %q", ch.Hint)
	}
}

func TestLoadFileRejectsBadID(t *testing.T) {
	content := `
[metadata]
id = "../escape"
title = "t"
description = "d"

[content]
starting = "a"
target = "b"
`
	path := writeChallenge(t, t.TempDir(), "bad.toml", content)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unsafe id")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeChallenge(t, dir, "b.toml", sampleChallenge)
	second := `
[metadata]
id = "append-01"
title = "Append"
description = "d"

[content]
starting = "a"
target = "ab"
`
	writeChallenge(t, dir, "a.toml", second)
	writeChallenge(t, dir, "notes.txt", "not a challenge")

	challenges, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(challenges) != 2 {
		t.Fatalf("expected 2 challenges, got %d", len(challenges))
	}
	if challenges[0].ID != "append-01" || challenges[1].ID != "delete-line-01" {
		t.Fatalf("expected sorted ids, got %q, %q", challenges[0].ID, challenges[1].ID)
	}
}

func TestLoadDirDuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeChallenge(t, dir, "a.toml", sampleChallenge)
	writeChallenge(t, dir, "b.toml", sampleChallenge)
	if _, err := LoadDir(dir); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
