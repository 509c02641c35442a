package analysis

import (
	"time"

	"hrzones/internal/store"
)

// ZoneSummary is the per-zone line shown to the user
type ZoneSummary struct {
	Zone    Zone    `json:"zone"`
	Seconds int     `json:"seconds"`
	Percent float64 `json:"percent"`
}

// Summarize turns an aggregation result into per-zone summaries.
//
// Percent is relative to totalMovingTime (the summed moving time of the
// filtered activities), not to the number of classified samples. The two
// differ whenever heart-rate data is sparse, so percentages need not add up
// to 100.
func Summarize(result AggregationResult, zones []Zone, totalMovingTime int) []ZoneSummary {
	summaries := make([]ZoneSummary, len(zones))
	for i, zt := range result.Ordered(zones) {
		summaries[i] = ZoneSummary{
			Zone:    zt.Zone,
			Seconds: zt.Seconds,
			Percent: percentOf(zt.Seconds, totalMovingTime),
		}
	}
	return summaries
}

func percentOf(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// DailyMinutes returns moving minutes per calendar day for the days-long
// window ending at now, oldest day first. Activities outside the window are
// ignored.
func DailyMinutes(activities []store.Activity, now time.Time, days int) []float64 {
	if days <= 0 {
		return nil
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(days - 1))

	minutes := make([]float64, days)
	for _, a := range activities {
		start := a.StartDate.In(loc)
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := daysBetween(first, day)
		if idx >= 0 && idx < days {
			minutes[idx] += float64(a.MovingTime) / 60
		}
	}
	return minutes
}

// daysBetween counts calendar days from a to b, both at local midnight
func daysBetween(a, b time.Time) int {
	n := 0
	for d := a; d.Before(b); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
