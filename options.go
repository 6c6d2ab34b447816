package cwtlogger

import (
	"github.com/ramorimdias/cwtlogger/internal/app"
	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/ports"
	"github.com/ramorimdias/cwtlogger/pkg/log"
)

// Logger is the interface for structured logging.
// It is the Logger interface from pkg/log; adapters for zerolog live there.
type Logger = log.Logger

// Field represents a structured log field.
type Field = log.Field

// PowerSource is the instrument abstraction the recorder drives. The
// default implementation speaks SCPI to a GPP-4323 over a serial port;
// inject a custom one via WithPowerSource for tests or other instruments.
type PowerSource = ports.PowerSource

// RetentionConfig holds configuration for automatic archive retention.
type RetentionConfig = app.RetentionConfig

// DefaultRetentionConfig returns a RetentionConfig with sensible defaults.
func DefaultRetentionConfig() RetentionConfig {
	return app.DefaultRetentionConfig()
}

// Re-export the sample model for convenient access.
type (
	// Sample is one sampling cycle across all channels.
	Sample = domain.Sample

	// Window is a time-ordered slice of cached samples in column form.
	Window = domain.Window

	// SessionInfo is a snapshot of the current session.
	SessionInfo = domain.SessionInfo

	// Mode identifies what kind of run is active.
	Mode = domain.Mode
)

// Session modes.
const (
	ModeIdle     = domain.ModeIdle
	ModeLogging  = domain.ModeLogging
	ModeChecking = domain.ModeChecking
)

// NumChannels is the channel count of the instrument.
const NumChannels = domain.NumChannels

// Option configures optional behavior of a Recorder.
type Option func(*options)

// options holds the optional configuration for a Recorder instance.
type options struct {
	logger       ports.Logger
	eventHandler EventHandler
	source       ports.PowerSource
	retention    *RetentionConfig
}

func defaultOptions() options {
	return options{}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for recorder events.
// Events are called synchronously from recorder goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPowerSource injects a custom power source in place of the serial
// GPP-4323 adapter. Config.Port and Config.Baud are ignored when set.
func WithPowerSource(source PowerSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithRetentionConfig enables automatic archive retention with the given
// configuration. The sweep runs for the lifetime of the Recorder.
func WithRetentionConfig(cfg RetentionConfig) Option {
	return func(o *options) {
		o.retention = &cfg
	}
}
