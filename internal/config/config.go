package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"hrzones/internal/analysis"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `json:"source"`
	Athlete AthleteConfig `json:"athlete"`
	Server  ServerConfig  `json:"server"`
	Display DisplayConfig `json:"display"`
}

// SourceConfig describes the activity endpoint
type SourceConfig struct {
	URL            string `json:"url"`
	Token          string `json:"token,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Offline        bool   `json:"offline"` // read cached activities only
}

// AthleteConfig holds the inputs zone boundaries are derived from
type AthleteConfig struct {
	RestingHR  int    `json:"resting_hr"`
	MaxHR      int    `json:"max_hr"`
	ZoneMethod string `json:"zone_method"`
}

// ServerConfig holds settings for `hrzones serve`
type ServerConfig struct {
	Address         string `json:"address"`
	RefreshSchedule string `json:"refresh_schedule"` // cron spec, empty disables
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DefaultPeriod string `json:"default_period"`
}

// Environment overrides, also read from a .env file in the working directory
const (
	EnvHome          = "HRZONES_HOME"
	EnvSourceURL     = "HRZONES_SOURCE_URL"
	EnvSourceToken   = "HRZONES_SOURCE_TOKEN"
	EnvServerAddress = "HRZONES_SERVER_ADDRESS"
)

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			URL:            "http://localhost:5000",
			TimeoutSeconds: 15,
		},
		Athlete: AthleteConfig{
			RestingHR:  analysis.DefaultSettings.RestingHR,
			MaxHR:      analysis.DefaultSettings.MaxHR,
			ZoneMethod: string(analysis.DefaultSettings.Method),
		},
		Server: ServerConfig{
			Address:         ":8080",
			RefreshSchedule: "@every 15m",
		},
		Display: DisplayConfig{
			DefaultPeriod: analysis.DefaultPeriods[0].Label,
		},
	}
}

// Load reads the configuration from ~/.hrzones/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path, fills in defaults and applies
// environment overrides
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Source.URL == "" {
		c.Source.URL = defaults.Source.URL
	}
	if c.Source.TimeoutSeconds == 0 {
		c.Source.TimeoutSeconds = defaults.Source.TimeoutSeconds
	}
	if c.Athlete.RestingHR == 0 {
		c.Athlete.RestingHR = defaults.Athlete.RestingHR
	}
	if c.Athlete.MaxHR == 0 {
		c.Athlete.MaxHR = defaults.Athlete.MaxHR
	}
	if c.Athlete.ZoneMethod == "" {
		c.Athlete.ZoneMethod = defaults.Athlete.ZoneMethod
	}
	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Display.DefaultPeriod == "" {
		c.Display.DefaultPeriod = defaults.Display.DefaultPeriod
	}
}

func (c *Config) applyEnv() {
	// A missing .env file is fine
	_ = godotenv.Load()

	if v := os.Getenv(EnvSourceURL); v != "" {
		c.Source.URL = v
	}
	if v := os.Getenv(EnvSourceToken); v != "" {
		c.Source.Token = v
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		c.Server.Address = v
	}
}

// Save writes the configuration to ~/.hrzones/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path
func SaveTo(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return SaveTo(path, &example)
}

// Validate checks that the config values are usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source.url must be an absolute http(s) URL, got %q", c.Source.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source.url must use http or https, got %q", u.Scheme)
	}
	if c.Source.TimeoutSeconds < 0 {
		return fmt.Errorf("source.timeout_seconds must not be negative, got %d", c.Source.TimeoutSeconds)
	}

	if _, err := analysis.ParseMethod(c.Athlete.ZoneMethod); err != nil {
		return fmt.Errorf("athlete.zone_method: %w", err)
	}
	if c.Athlete.RestingHR < 30 || c.Athlete.RestingHR > 100 {
		return fmt.Errorf("athlete.resting_hr must be between 30 and 100, got %d", c.Athlete.RestingHR)
	}
	if c.Athlete.MaxHR < 120 || c.Athlete.MaxHR > analysis.MaxValidHeartrate {
		return fmt.Errorf("athlete.max_hr must be between 120 and %d, got %d", analysis.MaxValidHeartrate, c.Athlete.MaxHR)
	}
	if c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%d) must be less than athlete.max_hr (%d)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}

	if _, ok := analysis.FindPeriod(c.Display.DefaultPeriod); !ok {
		return fmt.Errorf("display.default_period %q is not a known period", c.Display.DefaultPeriod)
	}

	return nil
}

// Timeout returns the activity fetch timeout, zero meaning none
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Settings converts the athlete section into zone settings.
// The method is assumed valid; call Validate first.
func (c AthleteConfig) Settings() analysis.Settings {
	method, err := analysis.ParseMethod(c.ZoneMethod)
	if err != nil {
		method = analysis.Method(c.ZoneMethod)
	}
	return analysis.Settings{
		RestingHR: c.RestingHR,
		MaxHR:     c.MaxHR,
		Method:    method,
	}
}

// FromSettings builds an athlete section from zone settings
func FromSettings(s analysis.Settings) AthleteConfig {
	return AthleteConfig{
		RestingHR:  s.RestingHR,
		MaxHR:      s.MaxHR,
		ZoneMethod: string(s.Method),
	}
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory.
// HRZONES_HOME overrides the default of ~/.hrzones
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".hrzones"), nil
}
