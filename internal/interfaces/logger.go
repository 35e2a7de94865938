// Package interfaces holds the small contracts shared across primeseek's
// packages: structured logging and guess advisors. Keeping them here lets
// the session, store, and server layers depend on behavior instead of on
// each other.
package interfaces

// Logger is the structured logging contract every component receives.
// internal/logging provides the stdout/file implementation; sessions derive
// child loggers carrying their id through With.
type Logger interface {
	// Debug logs a debug-level message, typically per-instruction VM traces.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a recoverable problem, such as a failed persistence write.
	Warn(msg string, fields ...Field)

	// Error logs a failure.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}
