/*
Package logx provides a structured logging wrapper based on zerolog.

It initializes the process-wide logger (console output in development, JSON otherwise),
hands out component-scoped child loggers to sessions, bridge clients and broker adapters,
and offers key/value helpers for code that has no logger of its own.
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a logger writing to out. Development loggers are human-readable and
// log at debug level; everything else is JSON at info level. Both carry timestamps.
func New(out io.Writer, isDevelopment bool) zerolog.Logger {
	if isDevelopment {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	return zerolog.New(out).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

// InitGlobalLogger installs the global logger. Development logs go to stderr, production
// logs to stdout; caller information is attached to every entry.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	out := io.Writer(os.Stdout)
	if isDevelopment {
		out = os.Stderr
	}

	log.Logger = New(out, isDevelopment).With().Caller().Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// pairs drops an odd-length field list, which zerolog would otherwise misread.
func pairs(level zerolog.Level, fields []any) []any {
	if len(fields)%2 == 0 {
		return fields
	}

	Logger().Warn().
		Int("fields_count", len(fields)).
		Stringer("log_level", level).
		Msg("Odd number of log fields, fields ignored.")
	return nil
}

// emit writes msg at level with err (may be nil) and the key/value fields.
func emit(level zerolog.Level, err error, msg string, fields []any) {
	event := Logger().WithLevel(level)
	if err != nil {
		event = event.Err(err)
	}

	event.Fields(pairs(level, fields)).CallerSkipFrame(2).Msg(msg)
}

// Debug logs diagnostics that production drops, such as rejected inbound payloads.
func Debug(msg string, fields ...any) {
	emit(zerolog.DebugLevel, nil, msg, fields)
}

// Info logs msg with optional key/value fields.
func Info(msg string, fields ...any) {
	emit(zerolog.InfoLevel, nil, msg, fields)
}

// Warn logs msg with optional key/value fields.
func Warn(msg string, fields ...any) {
	emit(zerolog.WarnLevel, nil, msg, fields)
}

// Error logs err and msg with optional key/value fields.
func Error(err error, msg string, fields ...any) {
	emit(zerolog.ErrorLevel, err, msg, fields)
}

// Fatal logs err and msg, then exits the process with status 1.
func Fatal(err error, msg string, fields ...any) {
	emit(zerolog.FatalLevel, err, msg, fields)
	os.Exit(1)
}
