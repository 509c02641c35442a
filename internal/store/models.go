package store

import "time"

// InvalidHeartrate marks a heart-rate sample that could not be decoded.
// It lies outside every zone, so aggregation counts it as unclassified.
const InvalidHeartrate = -1

// Activity sources
const (
	SourceRemote = "remote" // fetched from the activity endpoint
	SourceFIT    = "fit"    // imported from a FIT file
)

// Activity represents an exercise activity with its heart-rate samples
type Activity struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Type             string    `db:"type"`
	StartDate        time.Time `db:"start_date"`
	MovingTime       int       `db:"moving_time"` // seconds
	Distance         float64   `db:"distance"`    // meters
	AverageHeartrate *float64  `db:"average_heartrate"` // nullable
	MaxHeartrate     *float64  `db:"max_heartrate"`     // nullable
	Source           string    `db:"source"`

	// Heartrate holds one bpm value per sample. nil means the activity was
	// recorded without heart-rate data.
	Heartrate []int `db:"-"`
}

// HasHeartrate reports whether the activity carries any heart-rate samples
func (a Activity) HasHeartrate() bool {
	return len(a.Heartrate) > 0
}
