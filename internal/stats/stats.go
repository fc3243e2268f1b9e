// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"
)

const sparkChars = " .:-=+*#%@"

// CompletionRate returns the share of completed attempts, in [0, 1].
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints overall practice totals.
func RenderSummary(w io.Writer, r Report) error {
	if r.TotalAttempts == 0 {
		_, err := fmt.Fprintln(w, "No attempts recorded yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Attempts: %d\n", r.TotalAttempts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Completed: %d (%.0f%%)\n", r.CompletedAttempts, CompletionRate(r.CompletedAttempts, r.TotalAttempts)*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Practice time: %s\n", FormatDuration(r.TotalPracticeTime)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Current streak: %d days\n", r.CurrentStreak); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Longest streak: %d days\n", r.LongestStreak); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderChallengeTable prints per-challenge bests sorted by challenge ID.
func RenderChallengeTable(w io.Writer, rows []ChallengeRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No challenges attempted yet.")
		return err
	}
	sorted := make([]ChallengeRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ChallengeID < sorted[j].ChallengeID
	})

	if _, err := fmt.Fprintln(w, "Per-Challenge"); err != nil {
		return err
	}
	headers := []string{"Challenge", "Best Time", "Best Keys", "Attempts", "Last Attempt", "Trend", "Integrity"}
	tableRows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		tableRows = append(tableRows, []string{
			r.ChallengeID,
			formatBestTime(r.BestTimeSecs),
			formatBestKeys(r.BestKeystrokes),
			fmt.Sprintf("%d", r.AttemptCount),
			formatLastAttempt(r.LastAttemptedAt),
			r.Trend,
			r.Verification,
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	lines := formatTable(headers, tableRows, rightAlign)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func formatBestTime(secs *int64) string {
	if secs == nil {
		return "-"
	}
	return FormatDuration(time.Duration(*secs) * time.Second)
}

func formatBestKeys(keys *int) string {
	if keys == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *keys)
}

func formatLastAttempt(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatDuration renders a duration as 2m05s / 1h02m03s style text.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
