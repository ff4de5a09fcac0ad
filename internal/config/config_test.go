package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.ClipLengthSeconds != 120 {
		t.Fatalf("unexpected default clip length: %d", cfg.ClipLengthSeconds)
	}
	if cfg.TranscodeTimeout() != 10*time.Minute {
		t.Fatalf("unexpected transcode timeout: %v", cfg.TranscodeTimeout())
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + filepath.Join(dir, "library") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[pipeline]
clip_length_seconds = 60
min_clip_bytes = 4096

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.ClipLengthSeconds != 60 {
		t.Fatalf("override not applied: %d", cfg.ClipLengthSeconds)
	}
	if cfg.MinClipBytes != 4096 {
		t.Fatalf("override not applied: %d", cfg.MinClipBytes)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("override not applied: %q", cfg.LogLevel)
	}
	if cfg.APIBind == "" {
		t.Fatalf("defaults should fill unset fields")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clip length", func(c *Config) { c.ClipLengthSeconds = 0 }},
		{"negative min bytes", func(c *Config) { c.MinClipBytes = -1 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"missing library", func(c *Config) { c.LibraryDir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ExpandPath("~/clips")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("expected %q under home %q", expanded, home)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Fatalf("expected error on existing file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "clip_length_seconds") {
		t.Fatalf("sample missing pipeline settings")
	}
}
