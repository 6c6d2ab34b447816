package cwtlogger

import "github.com/ramorimdias/cwtlogger/internal/app"

// State represents the lifecycle state of a Recorder's acquisition run.
type State int

const (
	// StateStopped means no run is active.
	StateStopped State = iota
	// StateArmed means the instrument is being acquired and configured.
	StateArmed
	// StateRunning means the sampling loop is cycling.
	StateRunning
	// StateDraining means a stop was requested and the sampler is finishing
	// its current cycle.
	StateDraining
	// StateCrashed means the run ended on a fatal error. A new run may be
	// started from this state.
	StateCrashed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateArmed:
		return "Armed"
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateArmed:
		return StateArmed
	case app.StateRunning:
		return StateRunning
	case app.StateDraining:
		return StateDraining
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
