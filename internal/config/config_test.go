package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogDir != ".ethocode/logs" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, ".ethocode/logs")
	}
	if cfg.TimeFormat != TimeFormatHHMMSS {
		t.Errorf("TimeFormat = %q, want %q", cfg.TimeFormat, TimeFormatHHMMSS)
	}
	if cfg.BehaviorSeparator != "|" || cfg.StateSeparator != "+" {
		t.Errorf("separators = %q/%q, want |/+", cfg.BehaviorSeparator, cfg.StateSeparator)
	}
	if cfg.Probe.Timeout != 30*time.Second {
		t.Errorf("Probe.Timeout = %v, want 30s", cfg.Probe.Timeout)
	}
	if !cfg.TimeBudget.ExcludeEmpty {
		t.Error("TimeBudget.ExcludeEmpty should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

// TestLoadConfigValidFile tests loading a complete YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	path := writeConfig(t, `log_level: debug
log_dir: /tmp/logs
time_format: s
close_states_between_media: true
behavior_separator: ";"
state_separator: "&"
probe:
  ffprobe_path: /usr/local/bin/ffprobe
  cache_db: ":memory:"
  timeout: 5s
timebudget:
  include_modifiers: true
  exclude_empty: false
  use_last_event_when_length_unavailable: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogDir != "/tmp/logs" {
		t.Errorf("LogDir = %q, want /tmp/logs", cfg.LogDir)
	}
	if cfg.TimeFormat != TimeFormatSeconds {
		t.Errorf("TimeFormat = %q, want s", cfg.TimeFormat)
	}
	if !cfg.CloseStatesBetweenMedia {
		t.Error("CloseStatesBetweenMedia = false, want true")
	}
	if cfg.BehaviorSeparator != ";" || cfg.StateSeparator != "&" {
		t.Errorf("separators = %q/%q", cfg.BehaviorSeparator, cfg.StateSeparator)
	}
	if cfg.Probe.FFProbePath != "/usr/local/bin/ffprobe" {
		t.Errorf("Probe.FFProbePath = %q", cfg.Probe.FFProbePath)
	}
	if cfg.Probe.CacheDB != ":memory:" {
		t.Errorf("Probe.CacheDB = %q", cfg.Probe.CacheDB)
	}
	if cfg.Probe.Timeout != 5*time.Second {
		t.Errorf("Probe.Timeout = %v, want 5s", cfg.Probe.Timeout)
	}
	tb := cfg.TimeBudget
	if !tb.IncludeModifiers || tb.ExcludeEmpty || !tb.UseLastEventWhenLengthUnavailable {
		t.Errorf("TimeBudget = %+v", tb)
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info (default)", cfg.LogLevel)
	}
}

// TestLoadConfigInvalidYAML tests error handling for malformed YAML
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
probe: [this is not valid
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() expected error for invalid YAML, got nil")
	}
}

func TestLoadConfigInvalidTimeout(t *testing.T) {
	path := writeConfig(t, "probe:\n  timeout: soon\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "probe.timeout") {
		t.Errorf("expected probe.timeout error, got %v", err)
	}
}

// TestLoadConfigPartialValues tests that partial config merges with defaults
func TestLoadConfigPartialValues(t *testing.T) {
	path := writeConfig(t, `log_level: warn
probe:
  cache_db: ""
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Probe.CacheDB != "" {
		t.Errorf("explicit empty cache_db should disable persistence, got %q", cfg.Probe.CacheDB)
	}
	if cfg.Probe.FFProbePath != "ffprobe" {
		t.Errorf("Probe.FFProbePath = %q, want ffprobe (default)", cfg.Probe.FFProbePath)
	}
	if !cfg.TimeBudget.ExcludeEmpty {
		t.Error("TimeBudget.ExcludeEmpty should keep its default")
	}
}

// TestLoadConfigFromDir tests loading config from .ethocode/config.yaml
func TestLoadConfigFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ethocode")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("time_format: s\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFromDir(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.TimeFormat != TimeFormatSeconds {
		t.Errorf("TimeFormat = %q, want s", cfg.TimeFormat)
	}

	cfg, err = LoadConfigFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFromDir() should not error on missing config, got: %v", err)
	}
	if cfg.TimeFormat != TimeFormatHHMMSS {
		t.Errorf("TimeFormat = %q, want default", cfg.TimeFormat)
	}
}

// TestMergeWithFlags tests CLI flag precedence over config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	logLevel := "trace"
	logDir := "/custom/logs"
	timeFormat := TimeFormatSeconds
	closeStates := true
	cfg.MergeWithFlags(&logLevel, &logDir, &timeFormat, &closeStates)

	if cfg.LogLevel != "trace" || cfg.LogDir != "/custom/logs" || cfg.TimeFormat != "s" || !cfg.CloseStatesBetweenMedia {
		t.Errorf("flags not applied: %+v", cfg)
	}

	// nil flags keep the current values
	cfg.MergeWithFlags(nil, nil, nil, nil)
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %q, want trace", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad time format", func(c *Config) { c.TimeFormat = "frames" }, "time_format"},
		{"empty behavior separator", func(c *Config) { c.BehaviorSeparator = "" }, "behavior_separator"},
		{"same separators", func(c *Config) { c.StateSeparator = "|" }, "must differ"},
		{"empty ffprobe", func(c *Config) { c.Probe.FFProbePath = "" }, "ffprobe_path"},
		{"negative timeout", func(c *Config) { c.Probe.Timeout = -time.Second }, "probe.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
