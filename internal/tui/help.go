package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Thresholds"},
		{"2 or s", "Sync screen"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	}))

	sections = append(sections, m.renderSection("Thresholds", []keyHelp{
		{"j / k", "Scroll"},
		{"r", "Recompute from stored activities"},
		{"t", "Switch between run and bike"},
	}))

	sections = append(sections, m.renderSection("Sync Screen", []keyHelp{
		{"s / enter", "Start sync"},
	}))

	sections = append(sections, m.renderGlossary())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderGlossary() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Estimates Explained"))
	lines = append(lines, "")

	terms := []struct {
		name string
		desc string
	}{
		{"HRmax", "Highest heart rate sustained for 30 seconds in recent hard sessions."},
		{"LT1", "Aerobic threshold: highest steady 20 min heart rate without cardiac drift."},
		{"LT2", "Lactate threshold: highest heart rate held flat over a 20-30 min effort."},
		{"Confidence", "low / med / high, grows with the number of sessions and distinct days."},
		{"Protocol", "Incremental test in 4 min stages, 6 bpm apart, from below LT1 to above LT2."},
	}

	for _, t := range terms {
		lines = append(lines, "  "+helpKeyStyle.Render(t.name))
		lines = append(lines, "  "+mutedStyle.Render(t.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
