package ports

import "github.com/ramorimdias/cwtlogger/internal/domain"

// SampleLog is the append-only system of record for samples. It survives
// process restarts; everything else (cache, spreadsheets) is derived from it.
type SampleLog interface {
	// Append persists one sample. The record is flushed and synced before
	// Append returns; an error here is fatal to the running session.
	Append(s domain.Sample) error

	// Rows returns the number of well-formed samples currently persisted.
	Rows() int

	// HasData reports whether any samples are persisted.
	HasData() bool

	// Scan streams persisted samples in append order. A non-negative max
	// bounds the scan to the first max rows, giving callers a consistent
	// snapshot under concurrent appends; max < 0 streams all current rows.
	// Malformed lines are skipped, never fatal. fn returning an error stops
	// the scan and propagates the error.
	Scan(max int, fn func(domain.Sample) error) error

	// ExportTarget returns the spreadsheet path this log is bound to, or ""
	// when none has been minted yet.
	ExportTarget() string

	// SetExportTarget durably binds the log to a spreadsheet path. The
	// rewrite is atomic: a crash leaves either the old pointer or the new
	// one, never a torn line.
	SetExportTarget(path string) error

	// Truncate resets the log to an empty skeleton with a blank export
	// pointer, archiving the previous contents first when configured.
	Truncate() error

	// Path returns the log file location.
	Path() string

	// Close releases the append handle. The log must not be used afterwards.
	Close() error
}
