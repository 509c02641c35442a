package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hrzones/internal/analysis"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvSourceURL, EnvSourceToken, EnvServerAddress} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Athlete.RestingHR != 60 {
		t.Errorf("Athlete.RestingHR = %v, want 60", cfg.Athlete.RestingHR)
	}
	if cfg.Athlete.MaxHR != 200 {
		t.Errorf("Athlete.MaxHR = %v, want 200", cfg.Athlete.MaxHR)
	}
	if cfg.Athlete.ZoneMethod != "percentage" {
		t.Errorf("Athlete.ZoneMethod = %q, want %q", cfg.Athlete.ZoneMethod, "percentage")
	}
	if cfg.Source.URL != "http://localhost:5000" {
		t.Errorf("Source.URL = %q, want %q", cfg.Source.URL, "http://localhost:5000")
	}
	if cfg.Source.Timeout() != 15*time.Second {
		t.Errorf("Source.Timeout() = %v, want 15s", cfg.Source.Timeout())
	}
	if cfg.Display.DefaultPeriod != "Today" {
		t.Errorf("Display.DefaultPeriod = %q, want %q", cfg.Display.DefaultPeriod, "Today")
	}

	// Defaults must pass validation
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		expectError bool
		errContains string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:        "relative source url",
			modify:      func(c *Config) { c.Source.URL = "localhost:5000" },
			expectError: true,
			errContains: "source.url",
		},
		{
			name:        "non http scheme",
			modify:      func(c *Config) { c.Source.URL = "ftp://example.com" },
			expectError: true,
			errContains: "source.url",
		},
		{
			name:        "unknown zone method",
			modify:      func(c *Config) { c.Athlete.ZoneMethod = "karvonen" },
			expectError: true,
			errContains: "zone_method",
		},
		{
			name:   "lactate accepted",
			modify: func(c *Config) { c.Athlete.ZoneMethod = "lactate" },
		},
		{
			name:        "resting hr too low",
			modify:      func(c *Config) { c.Athlete.RestingHR = 20 },
			expectError: true,
			errContains: "resting_hr",
		},
		{
			name:        "max hr too high",
			modify:      func(c *Config) { c.Athlete.MaxHR = 230 },
			expectError: true,
			errContains: "max_hr",
		},
		{
			name: "resting above max",
			modify: func(c *Config) {
				c.Athlete.RestingHR = 100
				c.Athlete.MaxHR = 100
			},
			expectError: true,
			errContains: "max_hr",
		},
		{
			name:        "unknown period",
			modify:      func(c *Config) { c.Display.DefaultPeriod = "Forever" },
			expectError: true,
			errContains: "default_period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFrom_Missing(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("error = %v, want ErrNoConfig", err)
	}
}

func TestLoadFrom_FillsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"athlete": {"max_hr": 190}, "source": {"url": "http://zones.local:9000"}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Athlete.MaxHR != 190 {
		t.Errorf("MaxHR = %d, want 190", cfg.Athlete.MaxHR)
	}
	if cfg.Athlete.RestingHR != 60 {
		t.Errorf("RestingHR = %d, want default 60", cfg.Athlete.RestingHR)
	}
	if cfg.Source.URL != "http://zones.local:9000" {
		t.Errorf("Source.URL = %q", cfg.Source.URL)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want :8080", cfg.Server.Address)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSourceURL, "https://override.example")
	t.Setenv(EnvSourceToken, "secret")

	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	if err := SaveTo(path, &cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Source.URL != "https://override.example" {
		t.Errorf("Source.URL = %q, want env override", loaded.Source.URL)
	}
	if loaded.Source.Token != "secret" {
		t.Errorf("Source.Token = %q, want env override", loaded.Source.Token)
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFrom(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing error", err)
	}
}

func TestCreateExample(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)

	if err := CreateExample(); err != nil {
		t.Fatalf("CreateExample failed: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Athlete.MaxHR != 200 {
		t.Errorf("MaxHR = %d, want 200", cfg.Athlete.MaxHR)
	}

	// An existing config is left alone
	cfg.Athlete.MaxHR = 187
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := CreateExample(); err != nil {
		t.Fatalf("CreateExample failed: %v", err)
	}
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Athlete.MaxHR != 187 {
		t.Errorf("MaxHR = %d after CreateExample, want 187", cfg.Athlete.MaxHR)
	}
}

func TestAthleteSettings(t *testing.T) {
	a := AthleteConfig{RestingHR: 55, MaxHR: 190, ZoneMethod: " Percentage "}
	s := a.Settings()
	want := analysis.Settings{RestingHR: 55, MaxHR: 190, Method: analysis.MethodPercentage}
	if s != want {
		t.Errorf("Settings() = %+v, want %+v", s, want)
	}
	if back := FromSettings(s); back.ZoneMethod != "percentage" || back.MaxHR != 190 {
		t.Errorf("FromSettings = %+v", back)
	}
}
