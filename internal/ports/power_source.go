package ports

import "context"

// PowerSource provides access to the bench power supply that drives the
// measured channels. Implementations speak whatever wire protocol the
// instrument requires; the application core only sees this surface.
//
// Measure takes no context: a sampling cycle is never canceled
// mid-measurement, and implementations bound the call with their own I/O
// timeout. DisableChannel and Close likewise take none so the best-effort
// shutdown path still runs under an already-canceled context.
type PowerSource interface {
	// Connect acquires the instrument. It must be called before any other
	// method and may be canceled via ctx while waiting for the device.
	Connect(ctx context.Context) error

	// EnableChannel powers a 1-based channel at the configured test voltage
	// with the given current limit in amps.
	EnableChannel(ch int, limitAmps float64) error

	// DisableChannel powers a 1-based channel down.
	DisableChannel(ch int) error

	// Measure reads one resistance in ohms from a 1-based channel.
	// An open circuit reads as +Inf. Errors mean the reading is unusable;
	// the caller records it as absent and continues.
	Measure(ch int) (float64, error)

	// Close releases the instrument connection.
	Close() error
}
