package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"hrzones/internal/analysis"
	"hrzones/internal/service"
)

// LastRefreshFunc reports when the activity cache was last refreshed
type LastRefreshFunc func(ctx context.Context) (time.Time, error)

// ZonesModel is the zone distribution screen
type ZonesModel struct {
	orch        *service.Orchestrator
	lastRefresh LastRefreshFunc
	periodIdx   int
	snap        service.Snapshot
	refreshedAt time.Time
}

// NewZonesModel creates the zones screen starting at the given period
func NewZonesModel(orch *service.Orchestrator, lastRefresh LastRefreshFunc, period analysis.TimePeriod) ZonesModel {
	idx := 0
	for i, p := range analysis.DefaultPeriods {
		if p.Label == period.Label {
			idx = i
		}
	}
	return ZonesModel{
		orch:        orch,
		lastRefresh: lastRefresh,
		periodIdx:   idx,
		snap:        orch.Snapshot(),
	}
}

// Period returns the selected period
func (m ZonesModel) Period() analysis.TimePeriod {
	return analysis.DefaultPeriods[m.periodIdx]
}

// zonesMsg carries the outcome of one orchestrator ticket
type zonesMsg struct {
	ticket      service.Ticket
	refreshedAt time.Time
}

// request issues a new ticket synchronously so issuance order matches key
// order, then runs it in a command
func (m *ZonesModel) request() tea.Cmd {
	ticket := m.orch.Begin(m.Period())
	m.snap = m.orch.Snapshot()

	orch, lastRefresh := m.orch, m.lastRefresh
	return func() tea.Msg {
		orch.Run(context.Background(), ticket)
		msg := zonesMsg{ticket: ticket}
		if lastRefresh != nil {
			if t, err := lastRefresh(context.Background()); err == nil {
				msg.refreshedAt = t
			}
		}
		return msg
	}
}

// Update handles messages
func (m ZonesModel) Update(msg tea.Msg) (ZonesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case zonesMsg:
		// The orchestrator already dropped superseded results
		m.snap = m.orch.Snapshot()
		if msg.ticket.Seq == m.snap.Seq && !msg.refreshedAt.IsZero() {
			m.refreshedAt = msg.refreshedAt
		}

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "1", "2", "3", "4", "5":
			idx := int(key[0] - '1')
			if idx < len(analysis.DefaultPeriods) {
				m.periodIdx = idx
				return m, m.request()
			}
		case "left", "h":
			m.periodIdx = (m.periodIdx + len(analysis.DefaultPeriods) - 1) % len(analysis.DefaultPeriods)
			return m, m.request()
		case "right", "l":
			m.periodIdx = (m.periodIdx + 1) % len(analysis.DefaultPeriods)
			return m, m.request()
		case "r":
			return m, m.request()
		}
	}
	return m, nil
}

// View renders the zones screen
func (m ZonesModel) View() string {
	var sections []string
	sections = append(sections, m.renderPeriods())

	switch {
	case m.snap.State == service.StateRejected:
		sections = append(sections, errorStyle.Render("\n  "+m.snap.Error),
			statusStyle.Render("  Press 'r' to try again"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	case m.snap.Report == nil:
		sections = append(sections, "\n  Loading zones...")
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	report := m.snap.Report
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderZonesCard(report), "  ", m.renderTotalsCard(report)))

	if len(report.DailyMinutes) > 1 {
		sections = append(sections, m.renderChart(report))
	}

	status := "1-5: period  ←/→: cycle  r: refresh"
	if m.snap.Loading {
		status = warningStyle.Render("Updating...") + "  " + status
	}
	sections = append(sections, statusStyle.Render(status))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ZonesModel) renderPeriods() string {
	var out string
	for i, p := range analysis.DefaultPeriods {
		if i > 0 {
			out += "  "
		}
		label := fmt.Sprintf("%d %s", i+1, p.Label)
		if i == m.periodIdx {
			out += navActiveStyle.Render("[" + label + "]")
		} else {
			out += navInactiveStyle.Render(" " + label + " ")
		}
	}
	return navStyle.Render(out)
}

func (m ZonesModel) renderZonesCard(report *service.ZoneReport) string {
	title := cardTitleStyle.Render("Time in Zones")

	if report.ActivityCount == 0 {
		return cardStyle.Width(64).Render(lipgloss.JoinVertical(lipgloss.Left, title,
			"No activities in "+report.Period.Label))
	}

	lines := make([]string, 0, len(report.Zones))
	for _, z := range report.Zones {
		line := lipgloss.JoinHorizontal(lipgloss.Left,
			zoneNameStyle(z.Zone.Color).Render(z.Zone.Name),
			fmt.Sprintf(" %3d-%-3d ", z.Zone.Min, z.Zone.Max),
			RenderZoneBar(z.Percent, z.Zone.Color, 20),
			fmt.Sprintf(" %5.1f%%  %s", z.Percent, formatSeconds(z.Seconds)),
		)
		lines = append(lines, line)
	}

	return cardStyle.Width(64).Render(lipgloss.JoinVertical(lipgloss.Left, title,
		lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m ZonesModel) renderTotalsCard(report *service.ZoneReport) string {
	title := cardTitleStyle.Render(report.Period.Label)

	lines := []string{
		RenderMetric("Activities", fmt.Sprintf("%d (%d with HR)", report.ActivityCount, report.ActivitiesWithHR)),
		RenderMetric("Moving time", formatDuration(report.TotalMovingTime)),
		RenderMetric("Classified", humanize.Comma(int64(report.ClassifiedSeconds))+" sec"),
		RenderMetric("Unclassified", humanize.Comma(int64(report.UnclassifiedSamples))),
	}
	if !m.refreshedAt.IsZero() {
		lines = append(lines, "", helpDescStyle.Render("Cache refreshed "+humanize.Time(m.refreshedAt)))
	}

	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title,
		lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m ZonesModel) renderChart(report *service.ZoneReport) string {
	title := cardTitleStyle.Render("Moving Minutes per Day")

	graph := asciigraph.Plot(report.DailyMinutes,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}
