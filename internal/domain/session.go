package domain

import "time"

// Mode identifies what kind of session, if any, is currently running.
// Logging and check sessions behave identically on the sampling path; the
// distinction exists so operators can tell a long-term record from a quick
// connection check.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeLogging  Mode = "logging"
	ModeChecking Mode = "checking"
)

// Running reports whether a session is active in this mode.
func (m Mode) Running() bool { return m == ModeLogging || m == ModeChecking }

// SessionInfo is a point-in-time snapshot of the session controller, suitable
// for status displays and the HTTP API.
type SessionInfo struct {
	// Mode is the session kind (idle, logging, checking).
	Mode Mode `json:"mode"`

	// State is the sampler run state (stopped, armed, running, draining, crashed).
	State string `json:"state"`

	// Channels are the 1-based ids selected for the current or last session.
	Channels []int `json:"channels,omitempty"`

	// CurrentLimit is the per-channel current limit in amps.
	CurrentLimit float64 `json:"current_limit_a"`

	// StartedAt is the session start time; zero when no session has run.
	StartedAt time.Time `json:"started_at,omitempty"`

	// Elapsed is time since StartedAt for a running session, else zero.
	Elapsed time.Duration `json:"elapsed,omitempty"`

	// Interval is the sampling cadence currently in effect.
	Interval time.Duration `json:"interval"`

	// Rows is the number of samples persisted in the append log.
	Rows int `json:"rows"`

	// ExportTarget is the spreadsheet path the log is bound to, if any.
	ExportTarget string `json:"export_target,omitempty"`

	// LastError describes the most recent run-fatal failure, if any.
	LastError string `json:"last_error,omitempty"`
}

// Window is an aligned snapshot of cached samples: Times[i] pairs with
// Series[ch-1][i] for every channel. Values keep the full three-state reading
// encoding; see Sample.
type Window struct {
	Times  []time.Time
	Series [NumChannels][]float64
}

// Len returns the number of points in the window.
func (w Window) Len() int { return len(w.Times) }
