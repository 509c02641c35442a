package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hrzones/internal/analysis"
	"hrzones/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenZones Screen = iota
	ScreenActivities
	ScreenSettings
	ScreenHelp
)

// Options wires the app's collaborators
type Options struct {
	Orchestrator  *service.Orchestrator
	LastRefresh   LastRefreshFunc
	SaveSettings  SaveSettingsFunc
	DefaultPeriod analysis.TimePeriod
	Offline       bool
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	zones      ZonesModel
	activities ActivitiesModel
	settings   SettingsModel
	help       HelpModel

	orch    *service.Orchestrator
	offline bool

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies
func NewApp(opts Options) *App {
	period := opts.DefaultPeriod
	if period.Days == 0 {
		period = analysis.DefaultPeriods[0]
	}
	pipeline := opts.Orchestrator.Pipeline()
	return &App{
		screen:     ScreenZones,
		orch:       opts.Orchestrator,
		offline:    opts.Offline,
		zones:      NewZonesModel(opts.Orchestrator, opts.LastRefresh, period),
		activities: NewActivitiesModel(pipeline, period),
		settings:   NewSettingsModel(pipeline.Registry(), opts.SaveSettings),
		help:       NewHelpModel(),
	}
}

// Init requests the first aggregation
func (a *App) Init() tea.Cmd {
	return a.zones.request()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case zonesMsg:
		// Results arrive regardless of the visible screen
		var cmd tea.Cmd
		a.zones, cmd = a.zones.Update(msg)
		return a, cmd

	case activitiesLoadedMsg:
		var cmd tea.Cmd
		a.activities, cmd = a.activities.Update(msg)
		return a, cmd

	case settingsSavedMsg:
		a.status = "Zones recalculated for " + msg.settings.Method.Label()
		return a, a.zones.request()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenZones:
		a.zones, cmd = a.zones.Update(msg)
	case ScreenActivities:
		a.activities, cmd = a.activities.Update(msg)
	case ScreenSettings:
		a.settings, cmd = a.settings.Update(msg)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit, true
	}

	// The settings form takes all other keys except esc
	if a.screen == ScreenSettings {
		if key == "esc" {
			a.screen = ScreenZones
			return nil, true
		}
		return nil, false
	}

	switch key {
	case "q":
		return tea.Quit, true
	case "z":
		a.screen = ScreenZones
		return nil, true
	case "a":
		a.screen = ScreenActivities
		a.activities = NewActivitiesModel(a.orch.Pipeline(), a.zones.Period())
		return a.activities.Init(), true
	case "s":
		a.screen = ScreenSettings
		a.settings.reset()
		a.status = ""
		return a.settings.Init(), true
	case "?":
		if a.screen != ScreenHelp {
			a.prevScreen = a.screen
		}
		a.screen = ScreenHelp
		return nil, true
	case "esc":
		if a.screen == ScreenHelp {
			a.screen = a.prevScreen
			return nil, true
		}
	}
	return nil, false
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenZones:
		content = a.zones.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenSettings:
		content = a.settings.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	title := "Heart Rate Zones"
	if a.offline {
		title += " (offline)"
	}
	return headerStyle.Render(title)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"z", "Zones", ScreenZones},
		{"a", "Activities", ScreenActivities},
		{"s", "Settings", ScreenSettings},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}
