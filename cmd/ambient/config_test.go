package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupSettingsDir(t *testing.T) string {
	t.Helper()
	settingsDir = t.TempDir()
	t.Cleanup(func() { settingsDir = "" })
	return settingsDir
}

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	setupSettingsDir(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.SampleWidth != 64 || s.SampleHeight != 36 {
		t.Errorf("sample resolution = %dx%d, want 64x36", s.SampleWidth, s.SampleHeight)
	}
	d, err := s.ParseInterval()
	if err != nil {
		t.Fatalf("ParseInterval: %v", err)
	}
	if d != 100*time.Millisecond {
		t.Errorf("interval = %v, want 100ms", d)
	}
}

func TestLoadSettings_FileOverridesDefaults(t *testing.T) {
	dir := setupSettingsDir(t)
	writeSettings(t, dir, "sample_width: 32\ninterval: 250ms\n")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.SampleWidth != 32 {
		t.Errorf("sample_width = %d, want 32", s.SampleWidth)
	}
	if s.SampleHeight != 36 {
		t.Errorf("sample_height = %d, want default 36", s.SampleHeight)
	}
	d, err := s.ParseInterval()
	if err != nil {
		t.Fatalf("ParseInterval: %v", err)
	}
	if d != 250*time.Millisecond {
		t.Errorf("interval = %v, want 250ms", d)
	}
}

func TestLoadSettings_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero sample width", "sample_width: 0\n"},
		{"negative sample height", "sample_height: -5\n"},
		{"bad interval", "interval: soon\n"},
		{"negative interval", "interval: -10ms\n"},
	}

	for _, tt := range tests {
		dir := setupSettingsDir(t)
		writeSettings(t, dir, tt.content)
		if _, err := LoadSettings(); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}
