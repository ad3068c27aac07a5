// Package logger defines the structured logging contract used by the SQL builder
// and the database helpers, with a zerolog-backed implementation.
package logger

import "fmt"

// Logger creates log events at different severity levels. Builders log each
// built statement at debug level; executors log every round trip.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	WithFields(fields map[string]any) Logger
}

// LogEvent collects fields until Msg or Msgf sends it. Field values pass through
// the sensitive data filter of the logger that created the event.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Stringer(key string, value fmt.Stringer) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Interface(key string, i any) LogEvent
}
