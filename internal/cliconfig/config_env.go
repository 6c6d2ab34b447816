package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CWTLOGGER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv("CWTLOGGER_DATA_DIR"), &cfg.DataDir)
	s.setString("artifact-prefix", os.Getenv("CWTLOGGER_ARTIFACT_PREFIX"), &cfg.ArtifactPrefix)
	s.setString("port", os.Getenv("CWTLOGGER_PORT"), &cfg.Port)
	s.setString("api-addr", os.Getenv("CWTLOGGER_API_ADDR"), &cfg.APIAddr)
	s.setString("log-level", os.Getenv("CWTLOGGER_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("archive-schedule", os.Getenv("CWTLOGGER_ARCHIVE_SCHEDULE"), &cfg.ArchiveSchedule)

	if err := s.setDuration("interval", os.Getenv("CWTLOGGER_SAMPLE_INTERVAL"), &cfg.SampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("export-interval", os.Getenv("CWTLOGGER_EXPORT_INTERVAL"), &cfg.ExportInterval); err != nil {
		return err
	}
	if err := s.setDuration("window", os.Getenv("CWTLOGGER_WINDOW_SPAN"), &cfg.WindowSpan); err != nil {
		return err
	}
	if err := s.setDuration("archive-check", os.Getenv("CWTLOGGER_ARCHIVE_CHECK"), &cfg.ArchiveCheck); err != nil {
		return err
	}

	if err := s.setFloatFromString("set-voltage", os.Getenv("CWTLOGGER_SET_VOLTAGE"), &cfg.SetVoltage); err != nil {
		return err
	}
	if err := s.setFloatFromString("current-limit", os.Getenv("CWTLOGGER_CURRENT_LIMIT"), &cfg.CurrentLimit); err != nil {
		return err
	}

	if err := s.setIntFromString("baud", os.Getenv("CWTLOGGER_BAUD"), &cfg.Baud); err != nil {
		return err
	}
	if err := s.setIntFromString("cache-points", os.Getenv("CWTLOGGER_CACHE_POINTS"), &cfg.CachePoints); err != nil {
		return err
	}
	if err := s.setInt64FromString("archive-high-water", os.Getenv("CWTLOGGER_ARCHIVE_HIGH_WATER"), &cfg.ArchiveHighWater); err != nil {
		return err
	}
	if err := s.setInt64FromString("archive-low-water", os.Getenv("CWTLOGGER_ARCHIVE_LOW_WATER"), &cfg.ArchiveLowWater); err != nil {
		return err
	}

	s.setBoolFromString("simulate", os.Getenv("CWTLOGGER_SIMULATE"), &cfg.Simulate)
	s.setBoolFromString("retention", os.Getenv("CWTLOGGER_RETENTION"), &cfg.Retention)

	return nil
}
