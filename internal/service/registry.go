package service

import (
	"errors"
	"fmt"
	"sync"

	"hrzones/internal/analysis"
)

// ErrInvalidSettings is returned when athlete settings are out of range
var ErrInvalidSettings = errors.New("invalid zone settings")

// ZoneRegistry holds the athlete settings of the running session and derives
// the zone table from them. Safe for concurrent use.
type ZoneRegistry struct {
	mu       sync.RWMutex
	settings analysis.Settings
}

// NewZoneRegistry creates a registry seeded with settings.
// Invalid settings fall back to analysis.DefaultSettings.
func NewZoneRegistry(settings analysis.Settings) *ZoneRegistry {
	if err := ValidateSettings(settings); err != nil {
		settings = analysis.DefaultSettings
	}
	return &ZoneRegistry{settings: settings}
}

// Settings returns the current athlete settings
func (r *ZoneRegistry) Settings() analysis.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// SetSettings replaces the athlete settings. Methods without a derivation
// (lactate, power) are accepted here and fail when zones are derived.
func (r *ZoneRegistry) SetSettings(s analysis.Settings) error {
	method, err := analysis.ParseMethod(string(s.Method))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	s.Method = method

	if err := ValidateSettings(s); err != nil {
		return err
	}

	r.mu.Lock()
	r.settings = s
	r.mu.Unlock()
	return nil
}

// Zones derives the zone table for the current settings
func (r *ZoneRegistry) Zones() ([]analysis.Zone, error) {
	return analysis.DeriveZones(r.Settings())
}

// ValidateSettings checks heart-rate bounds and the zone method name
func ValidateSettings(s analysis.Settings) error {
	if _, err := analysis.ParseMethod(string(s.Method)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.RestingHR < MinRestingHR || s.RestingHR > MaxRestingHR {
		return fmt.Errorf("%w: resting HR must be between %d and %d, got %d",
			ErrInvalidSettings, MinRestingHR, MaxRestingHR, s.RestingHR)
	}
	if s.MaxHR < MinMaxHR || s.MaxHR > MaxMaxHR {
		return fmt.Errorf("%w: max HR must be between %d and %d, got %d",
			ErrInvalidSettings, MinMaxHR, MaxMaxHR, s.MaxHR)
	}
	if s.RestingHR >= s.MaxHR {
		return fmt.Errorf("%w: resting HR %d must be below max HR %d",
			ErrInvalidSettings, s.RestingHR, s.MaxHR)
	}
	return nil
}
