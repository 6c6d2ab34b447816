package cwtlogger

import (
	"time"

	"github.com/ramorimdias/cwtlogger/internal/app"
	"github.com/ramorimdias/cwtlogger/internal/domain"
)

// EventHandler receives notifications about recorder operations.
// All methods are called synchronously from recorder goroutines;
// implementations should return quickly to avoid stalling acquisition.
type EventHandler interface {
	// OnStateChange is called when the run transitions between lifecycle
	// states.
	OnStateChange(event StateChangeEvent)

	// OnSample is called after each sampling cycle has been persisted.
	OnSample(event SampleEvent)

	// OnExportSuccess is called after a spreadsheet refresh completes.
	OnExportSuccess(event ExportSuccessEvent)

	// OnExportError is called when a spreadsheet refresh fails. Exports are
	// retried on the next cadence tick; the append log is unaffected.
	OnExportError(event ExportErrorEvent)
}

// StateChangeEvent describes a lifecycle state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SampleEvent carries one persisted sampling cycle.
type SampleEvent struct {
	Sample Sample
}

// ExportSuccessEvent describes a completed spreadsheet refresh.
type ExportSuccessEvent struct {
	Path     string
	Rows     int
	Duration time.Duration
}

// ExportErrorEvent describes a failed spreadsheet refresh.
type ExportErrorEvent struct {
	Error error
	Path  string
}

// BaseEventHandler provides no-op implementations of every EventHandler
// method. Embed it to implement only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

func (BaseEventHandler) OnSample(SampleEvent) {}

func (BaseEventHandler) OnExportSuccess(ExportSuccessEvent) {}

func (BaseEventHandler) OnExportError(ExportErrorEvent) {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSample(s domain.Sample) {
	if e.handler == nil {
		return
	}
	e.handler.OnSample(SampleEvent{Sample: s})
}

func (e *eventEmitterWrapper) OnExportSuccess(path string, rows int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnExportSuccess(ExportSuccessEvent{
		Path:     path,
		Rows:     rows,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) OnExportError(err error, path string) {
	if e.handler == nil {
		return
	}
	e.handler.OnExportError(ExportErrorEvent{
		Error: err,
		Path:  path,
	})
}
