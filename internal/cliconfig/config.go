package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultAPIAddr is the default listen address for the control API.
const DefaultAPIAddr = "127.0.0.1:8344"

// Config holds CLI configuration for cwtlogger.
type Config struct {
	DataDir        string
	ArtifactPrefix string

	Port         string
	Baud         int
	SetVoltage   float64
	CurrentLimit float64
	Simulate     bool

	SampleInterval time.Duration
	ExportInterval time.Duration
	WindowSpan     time.Duration
	CachePoints    int

	APIAddr  string
	LogLevel string

	Retention        bool
	ArchiveSchedule  string
	ArchiveCheck     time.Duration
	ArchiveHighWater int64
	ArchiveLowWater  int64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ArtifactPrefix: "gpp_",
		Port:           "/dev/ttyUSB0",
		Baud:           115200,
		SetVoltage:     5.0,
		CurrentLimit:   0.100,
		SampleInterval: 5 * time.Second,
		ExportInterval: time.Hour,
		WindowSpan:     48 * time.Hour,
		CachePoints:    20000,
		APIAddr:        DefaultAPIAddr,
		LogLevel:       "info",

		Retention:        true,
		ArchiveCheck:     24 * time.Hour,
		ArchiveHighWater: 512 << 20, // 512MB
		ArchiveLowWater:  384 << 20, // 384MB
	}
}

// DefaultDataDir returns the default data directory (~/cwt_logs).
// Returns "" if the user home directory is not accessible.
func DefaultDataDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, "cwt_logs")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
		if c.DataDir == "" {
			return fmt.Errorf("data-dir is required")
		}
	}

	if c.ArtifactPrefix == "" {
		c.ArtifactPrefix = "gpp_"
	}

	if !c.Simulate && c.Port == "" {
		return fmt.Errorf("port is required (or --simulate)")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive")
	}
	if c.SetVoltage <= 0 {
		return fmt.Errorf("set-voltage must be positive")
	}
	if c.CurrentLimit <= 0 {
		return fmt.Errorf("current-limit must be positive")
	}

	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if c.ExportInterval <= 0 {
		return fmt.Errorf("export interval must be positive")
	}
	if c.WindowSpan <= 0 {
		return fmt.Errorf("window span must be positive")
	}
	if c.CachePoints <= 0 {
		return fmt.Errorf("cache points must be positive")
	}

	if c.APIAddr == "" {
		c.APIAddr = DefaultAPIAddr
	}

	if c.Retention && c.ArchiveLowWater >= c.ArchiveHighWater {
		return fmt.Errorf("archive low watermark must be below the high watermark")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 sets an int64 value if positive and flag not changed.
func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt64FromString parses a string to int64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
