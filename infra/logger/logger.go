package logger

import corelogger "github.com/kilianp07/ridedispatch/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger tagged with the given component. The output format is
// selected by the APP_ENV variable and the level by SetLevel.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger { return corelogger.OrNop(l) }
