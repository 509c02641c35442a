package analysis

import "hrzones/internal/store"

// AggregationResult holds time-in-zone for one aggregation run.
// One sample counts as one unit of time.
type AggregationResult struct {
	Times            map[string]int `json:"times"`        // zone name -> samples
	Unclassified     int            `json:"unclassified"` // samples outside [0, 220] or every zone
	Samples          int            `json:"samples"`      // all samples seen
	ActivitiesWithHR int            `json:"activities_with_hr"`
}

// Classified returns the number of samples assigned to a zone
func (r AggregationResult) Classified() int {
	return r.Samples - r.Unclassified
}

// ZoneTime pairs a zone with its accumulated time
type ZoneTime struct {
	Zone    Zone
	Seconds int
}

// Ordered returns the result in zone order
func (r AggregationResult) Ordered(zones []Zone) []ZoneTime {
	out := make([]ZoneTime, len(zones))
	for i, z := range zones {
		out[i] = ZoneTime{Zone: z, Seconds: r.Times[z.Name]}
	}
	return out
}

// zoneLookup maps every valid bpm value to an index into the zone slice,
// -1 meaning no zone claims it
type zoneLookup [MaxValidHeartrate + 1]int8

func newZoneLookup(zones []Zone) *zoneLookup {
	var lut zoneLookup
	for i := range lut {
		lut[i] = -1
	}
	for i, z := range zones {
		for hr := max(z.Min, MinValidHeartrate); hr <= min(z.Max, MaxValidHeartrate); hr++ {
			lut[hr] = int8(i)
		}
	}
	return &lut
}

func (l *zoneLookup) find(hr int) int {
	if hr < MinValidHeartrate || hr > MaxValidHeartrate {
		return -1
	}
	return int(l[hr])
}

// Aggregate classifies every heart-rate sample of the activities into zones.
// Activities without heart-rate data contribute nothing. The zones are read,
// never modified, and the result is freshly allocated on each call.
func Aggregate(activities []store.Activity, zones []Zone) (AggregationResult, error) {
	if err := ValidateZones(zones); err != nil {
		return AggregationResult{}, err
	}

	result := AggregationResult{
		Times: make(map[string]int, len(zones)),
	}
	for _, z := range zones {
		result.Times[z.Name] = 0
	}

	lut := newZoneLookup(zones)
	counts := make([]int, len(zones))

	for _, a := range activities {
		if !a.HasHeartrate() {
			continue
		}
		result.ActivitiesWithHR++

		for _, hr := range a.Heartrate {
			result.Samples++
			idx := lut.find(hr)
			if idx < 0 {
				result.Unclassified++
				continue
			}
			counts[idx]++
		}
	}

	for i, z := range zones {
		result.Times[z.Name] = counts[i]
	}
	return result, nil
}
