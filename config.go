package cwtlogger

import (
	"fmt"
	"time"

	"github.com/ramorimdias/cwtlogger/internal/domain"
)

// Default configuration values applied by Config.SetDefaults.
const (
	// DefaultArtifactPrefix is prepended to minted spreadsheet names.
	DefaultArtifactPrefix = "gpp_"

	// DefaultBaud is the factory line rate of the GPP-4323.
	DefaultBaud = 115200

	// DefaultSetVoltage is the source voltage applied to enabled channels.
	DefaultSetVoltage = 5.0

	// DefaultCurrentLimit is the per-channel current limit in amps.
	DefaultCurrentLimit = 0.100

	// DefaultSampleInterval is the initial sampling cadence.
	DefaultSampleInterval = 5 * time.Second

	// DefaultMinSampleInterval is the floor enforced on cadence changes.
	DefaultMinSampleInterval = 1 * time.Second

	// DefaultExportInterval is the cadence of periodic spreadsheet
	// refreshes during a run.
	DefaultExportInterval = time.Hour

	// DefaultCachePoints is the capacity of the in-memory sample cache.
	DefaultCachePoints = 20000
)

// Config holds the configuration for a Recorder.
// Use SetDefaults to fill unset fields, then Validate before New.
type Config struct {
	// DataDir is where the append log, spreadsheet artifacts, and archives
	// live. Required.
	DataDir string

	// ArtifactPrefix is prepended to minted spreadsheet names.
	// Default: "gpp_"
	ArtifactPrefix string

	// Port is the serial device of the instrument, e.g. /dev/ttyUSB0.
	// Required unless a custom power source is injected via WithPowerSource.
	Port string

	// Baud is the serial line rate. Default: 115200
	Baud int

	// SetVoltage is the source voltage in volts applied to every enabled
	// channel. Default: 5.0
	SetVoltage float64

	// CurrentLimit is the per-channel current limit in amps applied when a
	// start call does not specify its own. Default: 0.100
	CurrentLimit float64

	// SampleInterval is the initial sampling cadence. Default: 5s
	SampleInterval time.Duration

	// MinSampleInterval is the floor enforced by SetInterval. Default: 1s
	MinSampleInterval time.Duration

	// ExportInterval is the cadence of periodic spreadsheet refreshes
	// during a run. Default: 1h
	ExportInterval time.Duration

	// CachePoints is the capacity of the in-memory cache serving window
	// queries. Older points fall out of the cache but stay in the append
	// log. Default: 20000
	CachePoints int
}

// SetDefaults fills unset fields with default values. DataDir and Port have
// no defaults; they identify the deployment and must be set by the caller.
func (c *Config) SetDefaults() {
	if c.ArtifactPrefix == "" {
		c.ArtifactPrefix = DefaultArtifactPrefix
	}
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.SetVoltage == 0 {
		c.SetVoltage = DefaultSetVoltage
	}
	if c.CurrentLimit == 0 {
		c.CurrentLimit = DefaultCurrentLimit
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	if c.MinSampleInterval == 0 {
		c.MinSampleInterval = DefaultMinSampleInterval
	}
	if c.ExportInterval == 0 {
		c.ExportInterval = DefaultExportInterval
	}
	if c.CachePoints == 0 {
		c.CachePoints = DefaultCachePoints
	}
}

// Validate checks the configuration for errors. Port is validated by New
// rather than here, since an injected power source makes it unnecessary.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is required", domain.ErrInvalidConfig)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive", domain.ErrInvalidConfig)
	}
	if c.SetVoltage <= 0 {
		return fmt.Errorf("%w: set voltage must be positive", domain.ErrInvalidConfig)
	}
	if c.CurrentLimit <= 0 {
		return fmt.Errorf("%w: current limit must be positive", domain.ErrInvalidConfig)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("%w: sample interval must be positive", domain.ErrInvalidConfig)
	}
	if c.MinSampleInterval <= 0 {
		return fmt.Errorf("%w: min sample interval must be positive", domain.ErrInvalidConfig)
	}
	if c.SampleInterval < c.MinSampleInterval {
		return fmt.Errorf("%w: sample interval %s is below the %s floor",
			domain.ErrInvalidConfig, c.SampleInterval, c.MinSampleInterval)
	}
	if c.ExportInterval <= 0 {
		return fmt.Errorf("%w: export interval must be positive", domain.ErrInvalidConfig)
	}
	if c.CachePoints <= 0 {
		return fmt.Errorf("%w: cache points must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
