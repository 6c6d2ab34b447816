package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir        string  `toml:"data_dir"`
	ArtifactPrefix string  `toml:"artifact_prefix"`
	Port           string  `toml:"port"`
	Baud           int     `toml:"baud"`
	SetVoltage     float64 `toml:"set_voltage"`
	CurrentLimit   float64 `toml:"current_limit"`
	Simulate       *bool   `toml:"simulate"`
	SampleInterval string  `toml:"sample_interval"`
	ExportInterval string  `toml:"export_interval"`
	WindowSpan     string  `toml:"window_span"`
	CachePoints    int     `toml:"cache_points"`
	APIAddr        string  `toml:"api_addr"`
	LogLevel       string  `toml:"log_level"`

	Retention        *bool  `toml:"retention"`
	ArchiveSchedule  string `toml:"archive_schedule"`
	ArchiveCheck     string `toml:"archive_check"`
	ArchiveHighWater int64  `toml:"archive_high_water"`
	ArchiveLowWater  int64  `toml:"archive_low_water"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.cwtlogger/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cwtlogger", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("artifact-prefix", fc.ArtifactPrefix, &cfg.ArtifactPrefix)
	s.setString("port", fc.Port, &cfg.Port)
	s.setString("api-addr", fc.APIAddr, &cfg.APIAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("archive-schedule", fc.ArchiveSchedule, &cfg.ArchiveSchedule)

	if err := s.setDuration("interval", fc.SampleInterval, &cfg.SampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("export-interval", fc.ExportInterval, &cfg.ExportInterval); err != nil {
		return err
	}
	if err := s.setDuration("window", fc.WindowSpan, &cfg.WindowSpan); err != nil {
		return err
	}
	if err := s.setDuration("archive-check", fc.ArchiveCheck, &cfg.ArchiveCheck); err != nil {
		return err
	}

	s.setFloat("set-voltage", fc.SetVoltage, &cfg.SetVoltage)
	s.setFloat("current-limit", fc.CurrentLimit, &cfg.CurrentLimit)

	s.setInt("baud", fc.Baud, &cfg.Baud)
	s.setInt("cache-points", fc.CachePoints, &cfg.CachePoints)
	s.setInt64("archive-high-water", fc.ArchiveHighWater, &cfg.ArchiveHighWater)
	s.setInt64("archive-low-water", fc.ArchiveLowWater, &cfg.ArchiveLowWater)

	s.setBool("simulate", fc.Simulate, &cfg.Simulate)
	s.setBool("retention", fc.Retention, &cfg.Retention)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
