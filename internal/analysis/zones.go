package analysis

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ZoneCount is the number of training zones in every zone set
	ZoneCount = 5

	// MinValidHeartrate and MaxValidHeartrate bound the physiologically
	// valid bpm range. Samples outside it are never classified.
	MinValidHeartrate = 0
	MaxValidHeartrate = 220
)

// ErrUnsupportedZoneMethod is returned when a zone method has no boundary derivation
var ErrUnsupportedZoneMethod = errors.New("unsupported zone method")

// MethodError reports the zone method that could not be derived
type MethodError struct {
	Method Method
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedZoneMethod, string(e.Method))
}

func (e *MethodError) Unwrap() error { return ErrUnsupportedZoneMethod }

// ErrInvalidZones is returned when a zone set is not a contiguous partition
var ErrInvalidZones = errors.New("invalid zone definitions")

// Method identifies the physiological model used to derive zone boundaries
type Method string

const (
	MethodPercentage Method = "percentage" // percentage of max HR
	MethodLactate    Method = "lactate"    // lactate threshold
	MethodPower      Method = "power"      // power zones
)

// Methods lists the zone methods in display order
var Methods = []Method{MethodPercentage, MethodLactate, MethodPower}

// Label returns the human-readable name of the method
func (m Method) Label() string {
	switch m {
	case MethodPercentage:
		return "Percentage of Max HR"
	case MethodLactate:
		return "Lactate Threshold"
	case MethodPower:
		return "Power Zones"
	default:
		return string(m)
	}
}

// ParseMethod converts a config or request value into a Method
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedZoneMethod, s)
}

// Settings holds the athlete inputs zone boundaries are derived from
type Settings struct {
	RestingHR int    `json:"resting_hr"`
	MaxHR     int    `json:"max_hr"`
	Method    Method `json:"zone_method"`
}

// DefaultSettings derive the stock zone table (0-120, 121-140, 141-160,
// 161-180, 181+)
var DefaultSettings = Settings{
	RestingHR: 60,
	MaxHR:     200,
	Method:    MethodPercentage,
}

// Zone is one contiguous, inclusive bpm interval
type Zone struct {
	Index int    `json:"index"` // 1-based
	Name  string `json:"name"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Color string `json:"color"`
}

// Contains reports whether hr falls within the zone bounds
func (z Zone) Contains(hr int) bool {
	return hr >= z.Min && hr <= z.Max
}

// ZoneColors is the only zone colour table; index 0 is Zone 1
var ZoneColors = [ZoneCount]string{
	"#4CAF50", // green
	"#2196F3", // blue
	"#FFC107", // amber
	"#FF9800", // orange
	"#F44336", // red
}

// UnknownZoneColor is used for indexes outside 1..ZoneCount
const UnknownZoneColor = "#9E9E9E"

// ZoneColor returns the colour token for a 1-based zone index
func ZoneColor(index int) string {
	if index < 1 || index > ZoneCount {
		return UnknownZoneColor
	}
	return ZoneColors[index-1]
}

// ZoneName returns the label for a 1-based zone index
func ZoneName(index int) string {
	return fmt.Sprintf("Zone %d", index)
}

// percentOfMax holds the upper bound of zones 1-4 as a percentage of max HR.
// Zone 5 is open-ended up to MaxValidHeartrate.
var percentOfMax = [ZoneCount - 1]int{60, 70, 80, 90}

// DeriveZones computes the five zone definitions for the given settings
func DeriveZones(s Settings) ([]Zone, error) {
	switch s.Method {
	case MethodPercentage:
		return percentageZones(s.MaxHR)
	default:
		// lactate and power have no derivation yet
		return nil, &MethodError{Method: s.Method}
	}
}

// DefaultZones returns the zones derived from DefaultSettings
func DefaultZones() []Zone {
	zones, err := DeriveZones(DefaultSettings)
	if err != nil {
		panic(err) // DefaultSettings always use the percentage method
	}
	return zones
}

func percentageZones(maxHR int) ([]Zone, error) {
	if maxHR <= 0 || maxHR > MaxValidHeartrate {
		return nil, fmt.Errorf("%w: max HR %d outside 1-%d", ErrInvalidZones, maxHR, MaxValidHeartrate)
	}

	zones := make([]Zone, ZoneCount)
	lower := MinValidHeartrate
	for i := range zones {
		upper := MaxValidHeartrate
		if i < len(percentOfMax) {
			// Half-up rounding in integer arithmetic
			upper = (maxHR*percentOfMax[i] + 50) / 100
		}
		zones[i] = Zone{
			Index: i + 1,
			Name:  ZoneName(i + 1),
			Min:   lower,
			Max:   upper,
			Color: ZoneColor(i + 1),
		}
		lower = upper + 1
	}

	if err := ValidateZones(zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// ValidateZones checks that zones form an ordered, non-overlapping partition
// of [0, last.Max]: five zones, zone 1 starts at 0 and each zone starts one
// bpm above the previous zone's max.
func ValidateZones(zones []Zone) error {
	if len(zones) != ZoneCount {
		return fmt.Errorf("%w: got %d zones, want %d", ErrInvalidZones, len(zones), ZoneCount)
	}
	if zones[0].Min != MinValidHeartrate {
		return fmt.Errorf("%w: %s starts at %d, want %d", ErrInvalidZones, zones[0].Name, zones[0].Min, MinValidHeartrate)
	}

	seen := make(map[string]bool, len(zones))
	for i, z := range zones {
		if z.Name == "" {
			return fmt.Errorf("%w: zone %d has no name", ErrInvalidZones, i+1)
		}
		if seen[z.Name] {
			return fmt.Errorf("%w: duplicate zone name %q", ErrInvalidZones, z.Name)
		}
		seen[z.Name] = true

		if z.Min > z.Max {
			return fmt.Errorf("%w: %s min %d > max %d", ErrInvalidZones, z.Name, z.Min, z.Max)
		}
		if i > 0 && zones[i-1].Max+1 != z.Min {
			return fmt.Errorf("%w: %s starts at %d, want %d", ErrInvalidZones, z.Name, z.Min, zones[i-1].Max+1)
		}
	}

	if last := zones[len(zones)-1]; last.Max > MaxValidHeartrate {
		return fmt.Errorf("%w: %s ends at %d, above %d", ErrInvalidZones, last.Name, last.Max, MaxValidHeartrate)
	}
	return nil
}

// ZoneFor returns the zone containing hr, or false when none does
func ZoneFor(zones []Zone, hr int) (Zone, bool) {
	for _, z := range zones {
		if z.Contains(hr) {
			return z, true
		}
	}
	return Zone{}, false
}
