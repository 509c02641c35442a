package analysis

import (
	"fmt"
	"strings"
	"time"

	"hrzones/internal/store"
)

// TimePeriod is a trailing lookback window
type TimePeriod struct {
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// DefaultPeriods are the selectable lookback windows, shortest first
var DefaultPeriods = []TimePeriod{
	{Label: "Today", Days: 1},
	{Label: "2 Days", Days: 2},
	{Label: "This Week", Days: 7},
	{Label: "2 Weeks", Days: 14},
	{Label: "This Month", Days: 30},
}

// FindPeriod looks up a default period by label, ignoring case
func FindPeriod(label string) (TimePeriod, bool) {
	for _, p := range DefaultPeriods {
		if strings.EqualFold(p.Label, strings.TrimSpace(label)) {
			return p, true
		}
	}
	return TimePeriod{}, false
}

// PeriodForDays returns the default period with the given length, or an
// ad-hoc "Last N Days" period
func PeriodForDays(days int) TimePeriod {
	for _, p := range DefaultPeriods {
		if p.Days == days {
			return p
		}
	}
	return TimePeriod{Label: fmt.Sprintf("Last %d Days", days), Days: days}
}

// Cutoff returns the inclusive lower bound of the window ending at now
func (p TimePeriod) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Days)
}

// FilterByPeriod returns the activities that started at or after the
// period's cutoff. Future-dated activities are kept. Input order is preserved
// and the activities are not copied beyond the slice header.
func FilterByPeriod(activities []store.Activity, period TimePeriod, now time.Time) []store.Activity {
	cutoff := period.Cutoff(now)

	filtered := make([]store.Activity, 0, len(activities))
	for _, a := range activities {
		if !a.StartDate.Before(cutoff) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// TotalMovingTime sums moving time across activities, in seconds
func TotalMovingTime(activities []store.Activity) int {
	total := 0
	for _, a := range activities {
		total += a.MovingTime
	}
	return total
}
