package ports

import "github.com/ramorimdias/cwtlogger/pkg/log"

// Logger re-exports the logging abstraction so application code depends on
// ports only. See pkg/log for implementations.
type Logger = log.Logger

// Field re-exports the structured logging field type.
type Field = log.Field

// Field constructors, re-exported for convenience.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Ints     = log.Ints
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
	Any      = log.Any
)
