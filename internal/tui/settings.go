package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hrzones/internal/analysis"
	"hrzones/internal/service"
)

// SaveSettingsFunc persists accepted settings, e.g. to the config file
type SaveSettingsFunc func(analysis.Settings) error

const (
	fieldResting = iota
	fieldMax
	fieldMethod
	fieldCount
)

// SettingsModel edits the athlete settings zones are derived from
type SettingsModel struct {
	registry  *service.ZoneRegistry
	save      SaveSettingsFunc
	inputs    []textinput.Model
	methodIdx int
	focus     int
	message   string
	failed    bool
}

// settingsSavedMsg tells the app to re-run the aggregation
type settingsSavedMsg struct {
	settings analysis.Settings
}

// NewSettingsModel creates the settings form from the registry's settings
func NewSettingsModel(registry *service.ZoneRegistry, save SaveSettingsFunc) SettingsModel {
	m := SettingsModel{
		registry: registry,
		save:     save,
		inputs:   make([]textinput.Model, 2),
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.CharLimit = 3
		ti.Width = 5
		ti.Prompt = ""
		m.inputs[i] = ti
	}
	m.inputs[fieldResting].Placeholder = "60"
	m.inputs[fieldMax].Placeholder = "200"
	m.reset()
	return m
}

// reset loads the current registry values into the form
func (m *SettingsModel) reset() {
	s := m.registry.Settings()
	m.inputs[fieldResting].SetValue(strconv.Itoa(s.RestingHR))
	m.inputs[fieldMax].SetValue(strconv.Itoa(s.MaxHR))
	m.methodIdx = 0
	for i, method := range analysis.Methods {
		if method == s.Method {
			m.methodIdx = i
		}
	}
	m.setFocus(fieldResting)
}

// Init focuses the first field
func (m SettingsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *SettingsModel) setFocus(field int) {
	m.focus = (field + fieldCount) % fieldCount
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// Update handles messages
func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		case "enter":
			return m.submit()
		case "ctrl+r":
			m.reset()
			m.message = ""
			return m, nil
		}

		if m.focus == fieldMethod {
			switch key.String() {
			case "left", "h":
				m.methodIdx = (m.methodIdx + len(analysis.Methods) - 1) % len(analysis.Methods)
			case "right", "l", " ":
				m.methodIdx = (m.methodIdx + 1) % len(analysis.Methods)
			}
			return m, nil
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// Settings parses the form into settings
func (m SettingsModel) Settings() (analysis.Settings, error) {
	resting, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldResting].Value()))
	if err != nil {
		return analysis.Settings{}, fmt.Errorf("resting HR must be a whole number")
	}
	maxHR, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldMax].Value()))
	if err != nil {
		return analysis.Settings{}, fmt.Errorf("max HR must be a whole number")
	}
	return analysis.Settings{
		RestingHR: resting,
		MaxHR:     maxHR,
		Method:    analysis.Methods[m.methodIdx],
	}, nil
}

func (m SettingsModel) submit() (SettingsModel, tea.Cmd) {
	s, err := m.Settings()
	if err != nil {
		m.message, m.failed = err.Error(), true
		return m, nil
	}

	if err := m.registry.SetSettings(s); err != nil {
		m.message, m.failed = strings.TrimPrefix(err.Error(), service.ErrInvalidSettings.Error()+": "), true
		return m, nil
	}

	m.message, m.failed = "Settings saved", false
	if m.save != nil {
		if err := m.save(m.registry.Settings()); err != nil {
			m.message, m.failed = "Applied for this session, but saving the config failed: "+err.Error(), true
		}
	}

	saved := m.registry.Settings()
	return m, func() tea.Msg { return settingsSavedMsg{settings: saved} }
}

// View renders the settings form
func (m SettingsModel) View() string {
	var lines []string
	lines = append(lines, cardTitleStyle.Render("Athlete Settings"))

	labels := []string{"Resting HR", "Max HR"}
	for i, label := range labels {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			m.label(i, label), m.inputs[i].View(), helpDescStyle.Render(" bpm")))
	}

	method := analysis.Methods[m.methodIdx]
	methodView := "< " + method.Label() + " >"
	if m.focus == fieldMethod {
		methodView = navActiveStyle.Render(methodView)
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, m.label(fieldMethod, "Zone method"), methodView))

	// Preview of the zones the form would produce
	lines = append(lines, "", m.renderPreview())

	if m.message != "" {
		style := successStyle
		if m.failed {
			style = errorStyle
		}
		lines = append(lines, "", style.Render(m.message))
	}

	lines = append(lines, statusStyle.Render("tab: next field  ←/→: change method  enter: save  ctrl+r: reset"))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m SettingsModel) label(field int, text string) string {
	if m.focus == field {
		return inputFocusedStyle.Render("> " + text)
	}
	return inputLabelStyle.Render("  " + text)
}

func (m SettingsModel) renderPreview() string {
	s, err := m.Settings()
	if err != nil {
		return helpDescStyle.Render("Enter heart rates to preview zones")
	}
	if err := service.ValidateSettings(s); err != nil {
		return helpDescStyle.Render("Zones preview unavailable for these values")
	}
	zones, err := analysis.DeriveZones(s)
	if err != nil {
		return warningStyle.Render(service.UserMessage(err))
	}

	rows := make([]string, len(zones))
	for i, z := range zones {
		rows[i] = zoneNameStyle(z.Color).Render(z.Name) + fmt.Sprintf(" %d-%d bpm", z.Min, z.Max)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
