package stats

import (
	"strings"
	"testing"
	"time"
)

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{0, 4, 0},
		{2, 4, 0.5},
		{4, 4, 1},
	}
	for _, c := range cases {
		if got := CompletionRate(c.completed, c.total); got != c.want {
			t.Errorf("CompletionRate(%d, %d) = %v, want %v", c.completed, c.total, got, c.want)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovingAverage[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageNoWindow(t *testing.T) {
	in := []float64{1, 2, 3}
	got := MovingAverage(in, 1)
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("window 1 must be identity, got %v", got)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("empty input must give empty sparkline, got %q", got)
	}
	got := Sparkline([]float64{1, 1, 1})
	if len(got) != 3 || strings.ContainsAny(got, " @") {
		t.Fatalf("flat input must use the middle glyph, got %q", got)
	}
	got = Sparkline([]float64{0, 10})
	if got[0] != ' ' || got[1] != '@' {
		t.Fatalf("range must map to extreme glyphs, got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{9 * time.Second, "9s"},
		{125 * time.Second, "2m05s"},
		{3723 * time.Second, "1h02m03s"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var b strings.Builder
	if err := RenderSummary(&b, Report{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(b.String(), "No attempts") {
		t.Fatalf("unexpected output: %q", b.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var b strings.Builder
	r := Report{
		TotalAttempts:     4,
		CompletedAttempts: 3,
		TotalPracticeTime: 95 * time.Second,
		CurrentStreak:     2,
		LongestStreak:     5,
	}
	if err := RenderSummary(&b, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Attempts: 4", "Completed: 3 (75%)", "1m35s", "Current streak: 2", "Longest streak: 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderChallengeTable(t *testing.T) {
	best := int64(9)
	keys := 23
	at := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	rows := []ChallengeRow{
		{ChallengeID: "swap-lines", AttemptCount: 1, Verification: "legacy"},
		{ChallengeID: "delete-word", BestTimeSecs: &best, BestKeystrokes: &keys, AttemptCount: 3, LastAttemptedAt: &at, Verification: "verified"},
	}
	var b strings.Builder
	if err := RenderChallengeTable(&b, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) < 4 {
		t.Fatalf("expected header plus two rows, got:\n%s", b.String())
	}
	// Sorted by ID, so delete-word comes first.
	if !strings.HasPrefix(lines[2], "delete-word") {
		t.Fatalf("rows not sorted by challenge ID:\n%s", b.String())
	}
	if !strings.Contains(lines[2], "9s") || !strings.Contains(lines[2], "23") {
		t.Fatalf("bests missing from row: %q", lines[2])
	}
	if !strings.Contains(lines[3], "-") {
		t.Fatalf("missing bests must render as dashes: %q", lines[3])
	}
}

func TestFormatTableAlignment(t *testing.T) {
	lines := formatTable(
		[]string{"Name", "Count"},
		[][]string{{"a", "1"}, {"longer", "100"}},
		map[int]bool{1: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1] != "a          1" {
		t.Fatalf("unexpected row formatting: %q", lines[1])
	}
	if lines[2] != "longer   100" {
		t.Fatalf("unexpected row formatting: %q", lines[2])
	}
}
