package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"strava-thresholds/internal/threshold"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	Athlete AthleteConfig `json:"athlete"`
	Engine  EngineConfig  `json:"engine"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	Sport string `json:"sport"` // sport the plan is built for: run or bike
}

// EngineConfig tunes threshold estimation
type EngineConfig struct {
	LookbackDays         int     `json:"lookback_days"`
	ExpandedLookbackDays int     `json:"expanded_lookback_days"`
	ResampleSeconds      float64 `json:"resample_seconds"`
	Workers              int     `json:"workers"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

const dirName = ".thresholds"

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			Sport: string(threshold.SportRun),
		},
		Engine: EngineConfig{
			LookbackDays:         threshold.DefaultLookbackDays,
			ExpandedLookbackDays: threshold.DefaultExpandedLookbackDays,
			ResampleSeconds:      threshold.DefaultIntervalSeconds,
		},
	}
}

// Load reads the configuration from ~/.thresholds/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path and fills in defaults
func LoadFile(path string) (*Config, error) {
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
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Athlete.Sport == "" {
		c.Athlete.Sport = defaults.Athlete.Sport
	}
	if c.Engine.LookbackDays == 0 {
		c.Engine.LookbackDays = defaults.Engine.LookbackDays
	}
	if c.Engine.ExpandedLookbackDays == 0 {
		c.Engine.ExpandedLookbackDays = defaults.Engine.ExpandedLookbackDays
	}
	if c.Engine.ResampleSeconds == 0 {
		c.Engine.ResampleSeconds = defaults.Engine.ResampleSeconds
	}
}

// Save writes the configuration to ~/.thresholds/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path, creating its directory
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

	if _, err := os.Stat(path); err == nil {
		return nil // don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	return SaveFile(path, &example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return c.ValidateEngine()
}

// ValidateEngine checks the settings used for offline estimation, which need
// no Strava credentials
func (c *Config) ValidateEngine() error {
	switch threshold.Sport(c.Athlete.Sport) {
	case "", threshold.SportRun, threshold.SportBike:
	default:
		return fmt.Errorf("athlete.sport must be \"run\" or \"bike\", got %q", c.Athlete.Sport)
	}

	e := c.Engine
	if e.LookbackDays < 0 || e.ExpandedLookbackDays < 0 || e.Workers < 0 {
		return errors.New("engine settings must not be negative")
	}
	if e.ResampleSeconds != 0 && (e.ResampleSeconds < 1 || e.ResampleSeconds > 60) {
		return fmt.Errorf("engine.resample_seconds must be between 1 and 60, got %v", e.ResampleSeconds)
	}
	if e.ExpandedLookbackDays > 0 && e.ExpandedLookbackDays < e.LookbackDays {
		return fmt.Errorf("engine.expanded_lookback_days (%d) must be at least engine.lookback_days (%d)",
			e.ExpandedLookbackDays, e.LookbackDays)
	}
	return nil
}

// Sport returns the configured sport family
func (c *Config) Sport() threshold.Sport {
	return threshold.ParseSport(c.Athlete.Sport)
}

// EngineOptions converts the engine settings to estimator options
func (c *Config) EngineOptions() threshold.Options {
	return threshold.Options{
		LookbackDays:         c.Engine.LookbackDays,
		ExpandedLookbackDays: c.Engine.ExpandedLookbackDays,
		IntervalSeconds:      c.Engine.ResampleSeconds,
		Workers:              c.Engine.Workers,
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

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
