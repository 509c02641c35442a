// Package fitfile converts Garmin FIT activity files into cached activities.
package fitfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tormoder/fit"

	"hrzones/internal/store"
)

// invalidHR is the FIT sentinel for a missing uint8 heart rate
const invalidHR = 0xFF

// ErrNoSession is returned for FIT activity files without a session message
var ErrNoSession = errors.New("no sessions found in FIT file")

// ParseFile decodes the FIT file at path
func ParseFile(path string) (store.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.Activity{}, fmt.Errorf("opening FIT file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a FIT activity file from r
func Parse(r io.Reader) (store.Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return store.Activity{}, fmt.Errorf("decoding FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return store.Activity{}, fmt.Errorf("reading FIT activity: %w", err)
	}

	return FromActivityFile(activity)
}

// FromActivityFile converts a decoded activity. Each record contributes one
// heart-rate sample; records without heart rate become store.InvalidHeartrate.
// Files where no record carries heart rate get a nil sample slice.
func FromActivityFile(af *fit.ActivityFile) (store.Activity, error) {
	if af == nil || len(af.Sessions) == 0 {
		return store.Activity{}, ErrNoSession
	}
	session := af.Sessions[0]

	sport := session.Sport.String()
	start := session.StartTime.UTC()

	a := store.Activity{
		// Start time is unique enough per athlete and stable across re-imports
		ID:         start.Unix(),
		Name:       fmt.Sprintf("%s %s", sport, start.Format("2006-01-02 15:04")),
		Type:       sport,
		StartDate:  start,
		MovingTime: scaledSeconds(session.GetTotalTimerTimeScaled()),
		Distance:   finiteOrZero(session.GetTotalDistanceScaled()),
		Source:     store.SourceFIT,
	}

	if session.AvgHeartRate != invalidHR {
		v := float64(session.AvgHeartRate)
		a.AverageHeartrate = &v
	}
	if session.MaxHeartRate != invalidHR {
		v := float64(session.MaxHeartRate)
		a.MaxHeartrate = &v
	}

	a.Heartrate = heartrateSamples(af.Records)
	return a, nil
}

func heartrateSamples(records []*fit.RecordMsg) []int {
	samples := make([]int, 0, len(records))
	valid := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if rec.HeartRate == invalidHR {
			samples = append(samples, store.InvalidHeartrate)
			continue
		}
		samples = append(samples, int(rec.HeartRate))
		valid++
	}
	if valid == 0 {
		return nil
	}
	return samples
}

func scaledSeconds(v float64) int {
	return int(math.Round(finiteOrZero(v)))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
