package cwtlogger

import "github.com/ramorimdias/cwtlogger/internal/domain"

// Sentinel errors returned by Recorder operations. Match with errors.Is;
// most are wrapped with call-specific detail.
var (
	// ErrAlreadyRunning is returned by start calls while a run is active.
	ErrAlreadyRunning = domain.ErrAlreadyRunning

	// ErrNotRunning is returned by operations that require an active run.
	ErrNotRunning = domain.ErrNotRunning

	// ErrBusy is returned when an operation conflicts with an active run,
	// such as clearing history while sampling.
	ErrBusy = domain.ErrBusy

	// ErrNoChannels is returned by start calls with an empty channel set.
	ErrNoChannels = domain.ErrNoChannels

	// ErrInvalidChannel is returned for channel ids outside 1..NumChannels.
	ErrInvalidChannel = domain.ErrInvalidChannel

	// ErrDeviceUnavailable is returned when the instrument cannot be
	// reached or armed.
	ErrDeviceUnavailable = domain.ErrDeviceUnavailable

	// ErrShutdownTimeout is returned by Stop when the sampler fails to
	// drain within the shutdown window.
	ErrShutdownTimeout = domain.ErrShutdownTimeout

	// ErrInvalidConfig is returned by New when configuration validation
	// fails.
	ErrInvalidConfig = domain.ErrInvalidConfig

	// ErrIntervalTooShort is returned by SetInterval for cadences below
	// the configured floor.
	ErrIntervalTooShort = domain.ErrIntervalTooShort
)
