package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the user-tunable parts of the sync loop, read from
// ~/.ambient/config.yaml. Missing file or fields fall back to defaults.
type Settings struct {
	// Sample resolution the screen is downscaled to before averaging.
	SampleWidth  int `yaml:"sample_width"`
	SampleHeight int `yaml:"sample_height"`

	// Interval between samples, as a Go duration string ("100ms").
	Interval string `yaml:"interval"`
}

// settingsDir overrides the default settings directory for testing.
var settingsDir string

func defaultSettings() Settings {
	return Settings{
		SampleWidth:  64,
		SampleHeight: 36,
		Interval:     "100ms",
	}
}

func settingsPath() (string, error) {
	if settingsDir != "" {
		return filepath.Join(settingsDir, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ambient", "config.yaml"), nil
}

// LoadSettings reads the settings file, applies defaults for anything
// unset and validates the result.
func LoadSettings() (Settings, error) {
	s := defaultSettings()

	path, err := settingsPath()
	if err != nil {
		return Settings{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.SampleWidth <= 0 || s.SampleHeight <= 0 {
		return fmt.Errorf("sample resolution must be positive, got %dx%d", s.SampleWidth, s.SampleHeight)
	}
	if _, err := s.ParseInterval(); err != nil {
		return fmt.Errorf("invalid interval %q: %w", s.Interval, err)
	}
	return nil
}

// ParseInterval parses the interval string into a duration.
func (s Settings) ParseInterval() (time.Duration, error) {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	return d, nil
}
