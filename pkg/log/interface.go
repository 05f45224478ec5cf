// Package log provides the structured logging interface used across mlcv.
//
// The interface is slog-shaped so call sites stay backend agnostic; the
// default implementation is backed by zerolog. Fields are passed as
// alternating key/value pairs, and an error passed as a bare field is
// logged under "error" together with its cockroachdb/errors stack trace.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("model_selection").With(
//	    log.RunIDKey, runID,
//	    log.SplitterKey, "StratifiedKFold",
//	)
//	logger.Info("fold evaluated",
//	    log.FoldKey, 3,
//	    log.TrainSizeKey, 90,
//	    log.TestSizeKey, 10,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If an error value is provided as the first field, its stack trace
	// is attached.
	//
	// Example:
	//   logger.Error("fold failed",
	//       err,
	//       log.FoldKey, 4,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. The package-level
// GetLogger and GetLoggerWithName delegate to the active provider.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
