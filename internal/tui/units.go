package tui

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const metersPerKm = 1000.0

// formatDistance formats a distance in meters as kilometres
func formatDistance(meters float64) string {
	if meters <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f km", meters/metersPerKm)
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", seconds)
}

// formatSeconds renders a zone time as seconds plus a readable duration
func formatSeconds(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d sec", seconds)
	}
	return fmt.Sprintf("%s sec (%s)", humanize.Comma(int64(seconds)), formatDuration(seconds))
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
