package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Time formats accepted by time_format
const (
	TimeFormatHHMMSS  = "hh:mm:ss"
	TimeFormatSeconds = "s"
)

// ProbeConfig represents media probing configuration
type ProbeConfig struct {
	// FFProbePath is the ffprobe executable
	FFProbePath string `yaml:"ffprobe_path"`

	// CacheDB is the SQLite probe cache ("" disables persistence)
	CacheDB string `yaml:"cache_db"`

	// Timeout bounds a single probe
	Timeout time.Duration `yaml:"timeout"`
}

// TimeBudgetConfig represents time-budget defaults
type TimeBudgetConfig struct {
	// IncludeModifiers splits rows per modifier
	IncludeModifiers bool `yaml:"include_modifiers"`

	// ExcludeEmpty drops rows of behaviors with no events
	ExcludeEmpty bool `yaml:"exclude_empty"`

	// UseLastEventWhenLengthUnavailable substitutes the last event time for
	// an unknown media length
	UseLastEventWhenLengthUnavailable bool `yaml:"use_last_event_when_length_unavailable"`
}

// Config represents ethocode configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// TimeFormat is the display format of times (hh:mm:ss or s)
	TimeFormat string `yaml:"time_format"`

	// CloseStatesBetweenMedia stops open states at every segment boundary
	CloseStatesBetweenMedia bool `yaml:"close_states_between_media"`

	// BehaviorSeparator joins tokens of a behavioral string
	BehaviorSeparator string `yaml:"behavior_separator"`

	// StateSeparator joins simultaneously open states inside a token
	StateSeparator string `yaml:"state_separator"`

	Probe      ProbeConfig      `yaml:"probe"`
	TimeBudget TimeBudgetConfig `yaml:"timebudget"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:                "info",
		LogDir:                  ".ethocode/logs",
		TimeFormat:              TimeFormatHHMMSS,
		CloseStatesBetweenMedia: false,
		BehaviorSeparator:       "|",
		StateSeparator:          "+",
		Probe: ProbeConfig{
			FFProbePath: "ffprobe",
			CacheDB:     ".ethocode/probe.db",
			Timeout:     30 * time.Second,
		},
		TimeBudget: TimeBudgetConfig{
			IncludeModifiers:                  false,
			ExcludeEmpty:                      true,
			UseLastEventWhenLengthUnavailable: false,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are plain strings in YAML
	type yamlProbe struct {
		FFProbePath string `yaml:"ffprobe_path"`
		CacheDB     string `yaml:"cache_db"`
		Timeout     string `yaml:"timeout"`
	}
	type yamlConfig struct {
		LogLevel                string           `yaml:"log_level"`
		LogDir                  string           `yaml:"log_dir"`
		TimeFormat              string           `yaml:"time_format"`
		CloseStatesBetweenMedia bool             `yaml:"close_states_between_media"`
		BehaviorSeparator       string           `yaml:"behavior_separator"`
		StateSeparator          string           `yaml:"state_separator"`
		Probe                   yamlProbe        `yaml:"probe"`
		TimeBudget              TimeBudgetConfig `yaml:"timebudget"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Presence map so explicit false and "" values override defaults
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	has := func(m map[string]interface{}, key string) bool {
		_, ok := m[key]
		return ok
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.TimeFormat != "" {
		cfg.TimeFormat = yamlCfg.TimeFormat
	}
	if has(rawMap, "close_states_between_media") {
		cfg.CloseStatesBetweenMedia = yamlCfg.CloseStatesBetweenMedia
	}
	if yamlCfg.BehaviorSeparator != "" {
		cfg.BehaviorSeparator = yamlCfg.BehaviorSeparator
	}
	if yamlCfg.StateSeparator != "" {
		cfg.StateSeparator = yamlCfg.StateSeparator
	}

	if probeMap, ok := rawMap["probe"].(map[string]interface{}); ok {
		if yamlCfg.Probe.FFProbePath != "" {
			cfg.Probe.FFProbePath = yamlCfg.Probe.FFProbePath
		}
		// Explicitly set cache_db, even if empty string
		if has(probeMap, "cache_db") {
			cfg.Probe.CacheDB = yamlCfg.Probe.CacheDB
		}
		if yamlCfg.Probe.Timeout != "" {
			timeout, err := time.ParseDuration(yamlCfg.Probe.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid probe.timeout format %q: %w", yamlCfg.Probe.Timeout, err)
			}
			cfg.Probe.Timeout = timeout
		}
	}

	if tbMap, ok := rawMap["timebudget"].(map[string]interface{}); ok {
		tb := yamlCfg.TimeBudget
		if has(tbMap, "include_modifiers") {
			cfg.TimeBudget.IncludeModifiers = tb.IncludeModifiers
		}
		if has(tbMap, "exclude_empty") {
			cfg.TimeBudget.ExcludeEmpty = tb.ExcludeEmpty
		}
		if has(tbMap, "use_last_event_when_length_unavailable") {
			cfg.TimeBudget.UseLastEventWhenLengthUnavailable = tb.UseLastEventWhenLengthUnavailable
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .ethocode/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".ethocode", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, logDir *string, timeFormat *string, closeStatesBetweenMedia *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if timeFormat != nil {
		c.TimeFormat = *timeFormat
	}
	if closeStatesBetweenMedia != nil {
		c.CloseStatesBetweenMedia = *closeStatesBetweenMedia
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.TimeFormat != TimeFormatHHMMSS && c.TimeFormat != TimeFormatSeconds {
		return fmt.Errorf("invalid time_format %q, must be one of: %s, %s", c.TimeFormat, TimeFormatHHMMSS, TimeFormatSeconds)
	}

	if c.BehaviorSeparator == "" {
		return fmt.Errorf("behavior_separator cannot be empty")
	}
	if c.StateSeparator == "" {
		return fmt.Errorf("state_separator cannot be empty")
	}
	if c.BehaviorSeparator == c.StateSeparator {
		return fmt.Errorf("behavior_separator and state_separator must differ, both are %q", c.StateSeparator)
	}

	if c.Probe.FFProbePath == "" {
		return fmt.Errorf("probe.ffprobe_path cannot be empty")
	}
	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.Probe.Timeout < 0 {
		return fmt.Errorf("probe.timeout must be >= 0, got %v", c.Probe.Timeout)
	}

	return nil
}
