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

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	// Navigation section
	navSection := m.renderSection("Navigation", []keyHelp{
		{"z", "Zones"},
		{"a", "Activities in the selected period"},
		{"s", "Settings"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	})
	sections = append(sections, navSection)

	zonesSection := m.renderSection("Zones", []keyHelp{
		{"1-5", "Today, 2 days, this week, 2 weeks, this month"},
		{"← / →", "Previous / next period"},
		{"r", "Fetch activities and recalculate"},
	})
	sections = append(sections, zonesSection)

	actSection := m.renderSection("Activities List", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"r", "Reload list"},
	})
	sections = append(sections, actSection)

	settingsSection := m.renderSection("Settings", []keyHelp{
		{"tab", "Next field"},
		{"← / →", "Change zone method"},
		{"enter", "Save and recalculate"},
		{"ctrl+r", "Reset the form"},
	})
	sections = append(sections, settingsSection)

	sections = append(sections, m.renderZonesHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderZonesHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("How Zones Work"))
	lines = append(lines, "")

	notes := []struct {
		name string
		desc string
	}{
		{"Samples", "Each heart-rate sample counts as one second in the zone it falls in."},
		{"Percentage of max HR", "Zones 1-4 end at 60/70/80/90% of max HR. Zone 5 runs to 220 bpm."},
		{"Percent column", "Zone time divided by the total moving time of the period's activities."},
		{"Unclassified", "Samples outside 0-220 bpm or not numeric."},
	}

	for _, n := range notes {
		lines = append(lines, "  "+helpKeyStyle.Render(n.name))
		lines = append(lines, "  "+helpDescStyle.Render(n.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
