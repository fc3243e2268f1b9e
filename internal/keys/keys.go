// Package keys models keystrokes reconstructed from a terminal recording.
package keys

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Press is a single keystroke: a printable character, a named special key,
// or a modified key such as "Ctrl-c" or "Alt-f".
type Press string

// Named special keys.
const (
	Enter     Press = "Enter"
	Esc       Press = "Esc"
	Space     Press = "Space"
	Tab       Press = "Tab"
	Backspace Press = "Backspace"
	Up        Press = "Up"
	Down      Press = "Down"
	Left      Press = "Left"
	Right     Press = "Right"
	Home      Press = "Home"
	End       Press = "End"
	Insert    Press = "Insert"
	Delete    Press = "Delete"
	PageUp    Press = "PageUp"
	PageDown  Press = "PageDown"
)

// Ctrl returns the press for Ctrl+<letter>.
func Ctrl(c byte) Press {
	return Press(fmt.Sprintf("Ctrl-%c", c))
}

// Alt returns the press for Alt+<char>.
func Alt(c rune) Press {
	return Press(fmt.Sprintf("Alt-%c", c))
}

// Sequence is a completed, replayable log of keystrokes in the exact order
// they were sent to the editor.
type Sequence struct {
	presses []Press
}

// NewSequence builds a sequence from presses in temporal order.
func NewSequence(presses []Press) Sequence {
	return Sequence{presses: presses}
}

// Count returns the number of keystrokes.
func (s Sequence) Count() int {
	return len(s.presses)
}

// IsEmpty reports whether no keystrokes were recorded.
func (s Sequence) IsEmpty() bool {
	return len(s.presses) == 0
}

// Presses returns the keystrokes in order.
func (s Sequence) Presses() []Press {
	return s.presses
}

// String joins the keystrokes with spaces.
func (s Sequence) String() string {
	parts := make([]string, len(s.presses))
	for i, p := range s.presses {
		parts[i] = string(p)
	}
	return strings.Join(parts, " ")
}

// FormatForDisplay renders the sequence, truncating to maxWidth display
// cells with a trailing count of hidden keys.
func (s Sequence) FormatForDisplay(maxWidth int) string {
	if len(s.presses) == 0 {
		return "(no keystrokes recorded)"
	}
	full := s.String()
	if runewidth.StringWidth(full) <= maxWidth {
		return full
	}

	// Reserve room for the " ... (N more keys)" suffix.
	const reserve = 20
	budget := maxWidth - reserve
	if budget < 0 {
		budget = 0
	}
	var b strings.Builder
	visible := 0
	width := 0
	for _, p := range s.presses {
		w := runewidth.StringWidth(string(p))
		if visible > 0 {
			w++ // separating space
		}
		if width+w > budget {
			break
		}
		if visible > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(p))
		width += w
		visible++
	}
	remaining := len(s.presses) - visible
	if remaining == 0 {
		return full
	}
	return fmt.Sprintf("%s ... (%d more keys)", b.String(), remaining)
}
