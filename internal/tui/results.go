package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pro-xee/editor-dojo/internal/session"
	"github.com/pro-xee/editor-dojo/internal/stats"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	recordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

// Result carries everything the post-attempt screen needs.
type Result struct {
	ChallengeID   string
	Title         string
	Solution      session.Solution
	NewBestTime   bool
	NewBestKeys   bool
	BestTimeSecs  *int64
	CurrentStreak int
	Hint          string
}

// RenderResult writes the post-attempt summary. The keystroke line is
// sized to the terminal; non-terminal writers get a generous default.
func RenderResult(w io.Writer, r Result) error {
	width := terminalWidth()
	var b strings.Builder

	if r.Solution.Completed() {
		b.WriteString(successStyle.Render("Challenge complete!"))
	} else {
		b.WriteString(failStyle.Render("Challenge not solved."))
	}
	b.WriteString("\n\n")

	writeField(&b, "Challenge", fmt.Sprintf("%s — %s", r.ChallengeID, r.Title))
	writeField(&b, "Time", stats.FormatDuration(r.Solution.Elapsed))

	if r.Solution.Completed() {
		if count := r.Solution.KeystrokeCount(); count != nil {
			writeField(&b, "Keystrokes", fmt.Sprintf("%d", *count))
			keyWidth := maxInt(20, width-4)
			writeField(&b, "Keys", r.Solution.Keys.FormatForDisplay(keyWidth))
		} else if r.Solution.RecordingPath != "" {
			writeField(&b, "Keystrokes", "unavailable (recording could not be parsed)")
		}
		if r.NewBestTime {
			b.WriteString(recordStyle.Render("★ New best time!"))
			b.WriteString("\n")
		}
		if r.NewBestKeys {
			b.WriteString(recordStyle.Render("★ New best keystroke count!"))
			b.WriteString("\n")
		}
		if !r.NewBestTime && r.BestTimeSecs != nil {
			writeField(&b, "Best", fmt.Sprintf("%ds", *r.BestTimeSecs))
		}
		if r.CurrentStreak > 1 {
			writeField(&b, "Streak", fmt.Sprintf("%d days", r.CurrentStreak))
		}
	} else if r.Hint != "" {
		writeField(&b, "Hint", r.Hint)
	}

	_, err := fmt.Fprintln(w, strings.TrimRight(b.String(), "\n"))
	return err
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label + ": "))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
