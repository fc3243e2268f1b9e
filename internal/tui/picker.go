// Package tui provides the Bubble Tea challenge picker and result views.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/pro-xee/editor-dojo/internal/challenge"
	"github.com/pro-xee/editor-dojo/internal/progress"
)

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	normalStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	completedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	difficultyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// PickerModel implements the Bubble Tea challenge selection UI.
type PickerModel struct {
	challenges []challenge.Challenge
	prog       *progress.Progress

	filtered []int
	cursor   int

	filterMode bool
	filter     textinput.Model

	width  int
	height int

	choice   *challenge.Challenge
	quitting bool
}

// NewPickerModel constructs a picker over the loaded challenges. Progress
// is optional and only decorates rows with completion markers.
func NewPickerModel(challenges []challenge.Challenge, prog *progress.Progress) *PickerModel {
	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.CharLimit = 0
	filter.Cursor.SetMode(cursor.CursorBlink)
	m := &PickerModel{
		challenges: challenges,
		prog:       prog,
		filter:     filter,
	}
	m.applyFilter()
	return m
}

// Choice returns the selected challenge, or nil when the picker was quit.
func (m *PickerModel) Choice() *challenge.Challenge {
	return m.choice
}

// Init implements tea.Model.
func (m *PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
			return m, nil
		case "down", "j":
			m.moveCursor(1)
			return m, nil
		case "g", "home":
			m.cursor = 0
			return m, nil
		case "G", "end":
			m.cursor = maxInt(0, len(m.filtered)-1)
			return m, nil
		case "/":
			m.filterMode = true
			return m, m.filter.Focus()
		case "enter":
			if len(m.filtered) > 0 {
				ch := m.challenges[m.filtered[m.cursor]]
				m.choice = &ch
				return m, tea.Quit
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *PickerModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter rebuilds the visible index list from the filter text,
// matching against ID, title, and tags.
func (m *PickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.filtered = m.filtered[:0]
	for i, ch := range m.challenges {
		if query == "" || matchesQuery(ch, query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = maxInt(0, len(m.filtered)-1)
	}
}

func matchesQuery(ch challenge.Challenge, query string) bool {
	if strings.Contains(strings.ToLower(ch.ID), query) {
		return true
	}
	if strings.Contains(strings.ToLower(ch.Title), query) {
		return true
	}
	for _, tag := range ch.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func (m *PickerModel) moveCursor(delta int) {
	count := len(m.filtered)
	if count == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.cursor = next
}

// View implements tea.Model.
func (m *PickerModel) View() string {
	if m.quitting || m.choice != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick a challenge"))
	b.WriteString("\n\n")

	if m.filterMode || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.filtered) == 0 {
		b.WriteString(mutedStyle.Render("No challenges match."))
		b.WriteString("\n")
	}
	for pos, idx := range m.filtered {
		b.WriteString(m.renderRow(pos, m.challenges[idx]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("j/k: move  enter: start  /: filter  q: quit"))
	return b.String()
}

func (m *PickerModel) renderRow(pos int, ch challenge.Challenge) string {
	marker := "  "
	if stats := m.completedStats(ch.ID); stats != nil {
		marker = completedStyle.Render("✓ ")
	}
	label := fmt.Sprintf("%s — %s", ch.ID, ch.Title)
	if ch.Difficulty != "" {
		label += difficultyStyle.Render(" [" + ch.Difficulty + "]")
	}
	line := marker + label
	if m.width > 4 {
		line = runewidth.Truncate(line, m.width-2, "...")
	}
	if pos == m.cursor {
		return selectedStyle.Render("> ") + line
	}
	return "  " + normalStyle.Render(line)
}

func (m *PickerModel) completedStats(id string) *progress.ChallengeStats {
	if m.prog == nil {
		return nil
	}
	stats, ok := m.prog.Challenges[id]
	if !ok || !stats.Completed {
		return nil
	}
	return stats
}

// PickChallenge runs the picker and returns the chosen challenge, or
// false when the user quit without choosing.
func PickChallenge(challenges []challenge.Challenge, prog *progress.Progress) (challenge.Challenge, bool, error) {
	m := NewPickerModel(challenges, prog)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return challenge.Challenge{}, false, fmt.Errorf("picker failed: %w", err)
	}
	picked, ok := final.(*PickerModel)
	if !ok || picked.Choice() == nil {
		return challenge.Challenge{}, false, nil
	}
	return *picked.Choice(), true, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
