package tagdex

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with tagdex-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithOp adds an op field to the logger.
func (l *Logger) WithOp(op string) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op),
	}
}

// LogMutation logs a public mutation.
func (l *Logger) LogMutation(op string, err error, attrs ...any) {
	if err != nil {
		l.Error("mutation failed", append([]any{"op", op, "error", err}, attrs...)...)
	} else {
		l.Debug("mutation completed", append([]any{"op", op}, attrs...)...)
	}
}

// LogRollback logs a mutation that was undone after a primitive failed.
func (l *Logger) LogRollback(op string, undone int, cause error) {
	l.Warn("mutation rolled back",
		"op", op,
		"primitives_undone", undone,
		"cause", cause,
	)
}

// LogQuery logs a query.
func (l *Logger) LogQuery(shape Shape, filters, matches int, err error) {
	if err != nil {
		l.Error("query failed",
			"shape", shape.String(),
			"filters", filters,
			"error", err,
		)
	} else {
		l.Debug("query completed",
			"shape", shape.String(),
			"filters", filters,
			"matches", matches,
		)
	}
}
