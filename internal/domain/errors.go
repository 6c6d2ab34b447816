package domain

import "errors"

// Domain errors represent error conditions in the cwtlogger domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when a session start is requested while a
	// session is already running.
	ErrAlreadyRunning = errors.New("cwtlogger: already running")

	// ErrNotRunning is returned by operations that require an active session.
	ErrNotRunning = errors.New("cwtlogger: not running")

	// ErrBusy is returned when ClearCache is requested while a session is running.
	ErrBusy = errors.New("cwtlogger: busy")

	// ErrNoChannels is returned when a session start is requested with no
	// channels selected.
	ErrNoChannels = errors.New("cwtlogger: no channels selected")

	// ErrInvalidChannel is returned when a channel id is outside 1..NumChannels.
	ErrInvalidChannel = errors.New("cwtlogger: invalid channel")

	// ErrDeviceUnavailable is returned when the power source cannot be acquired
	// or a channel cannot be enabled. The underlying cause is wrapped.
	ErrDeviceUnavailable = errors.New("cwtlogger: device unavailable")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("cwtlogger: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("cwtlogger: invalid configuration")

	// ErrIntervalTooShort is returned when a sampling interval below the
	// supported minimum is requested.
	ErrIntervalTooShort = errors.New("cwtlogger: sampling interval too short")
)
