package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hrzones/internal/analysis"
	"hrzones/internal/service"
	"hrzones/internal/store"
)

// ActivitiesModel lists the activities inside the selected period
type ActivitiesModel struct {
	pipeline   *service.Pipeline
	period     analysis.TimePeriod
	activities []store.Activity
	cursor     int
	offset     int
	pageSize   int
	loading    bool
	err        error
}

// NewActivitiesModel creates a new activities model
func NewActivitiesModel(p *service.Pipeline, period analysis.TimePeriod) ActivitiesModel {
	return ActivitiesModel{
		pipeline: p,
		period:   period,
		pageSize: 15,
		loading:  true,
	}
}

// Init initializes the activities screen
func (m ActivitiesModel) Init() tea.Cmd {
	return m.load
}

type activitiesLoadedMsg struct {
	period     analysis.TimePeriod
	activities []store.Activity
	err        error
}

func (m ActivitiesModel) load() tea.Msg {
	activities, err := m.pipeline.Activities(context.Background(), m.period)
	return activitiesLoadedMsg{period: m.period, activities: activities, err: err}
}

// Update handles messages
func (m ActivitiesModel) Update(msg tea.Msg) (ActivitiesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case activitiesLoadedMsg:
		if msg.period != m.period {
			return m, nil // stale load for a period no longer selected
		}
		m.loading = false
		m.err = msg.err
		m.activities = msg.activities
		m.cursor = 0
		m.offset = 0

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		case "down", "j":
			if m.cursor < len(m.activities)-1 {
				m.cursor++
			}
			if m.cursor >= m.offset+m.pageSize {
				m.offset = m.cursor - m.pageSize + 1
			}
		case "r":
			m.loading = true
			return m, m.load
		}
	}
	return m, nil
}

// View renders the activities list
func (m ActivitiesModel) View() string {
	if m.loading {
		return "\n  Loading activities..."
	}

	if m.err != nil {
		return errorStyle.Render("\n  " + service.UserMessage(m.err))
	}

	if len(m.activities) == 0 {
		return fmt.Sprintf("\n  No activities in %s.", m.period.Label)
	}

	var sections []string

	end := min(m.offset+m.pageSize, len(m.activities))
	title := cardTitleStyle.Render(fmt.Sprintf("%s: activities %d-%d of %d",
		m.period.Label, m.offset+1, end, len(m.activities)))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-12s  %-25s  %-8s  %8s  %9s  %7s",
		"Date", "Name", "Type", "Time", "Distance", "Samples"))
	sections = append(sections, header)

	for i := m.offset; i < end; i++ {
		a := m.activities[i]

		samples := "-"
		if a.HasHeartrate() {
			samples = fmt.Sprintf("%d", len(a.Heartrate))
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-12s  %-25s  %-8s  %8s  %9s  %7s",
			cursor,
			a.StartDate.Local().Format("Jan 02 15:04"),
			truncateName(a.Name, 25),
			truncateName(a.Type, 8),
			formatDuration(a.MovingTime),
			formatDistance(a.Distance),
			samples,
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  j/k: navigate  r: reload")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
