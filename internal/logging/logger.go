// Package logging provides the structured logging facade shared by the
// server, the service layer and the CLI. Everything is backed by zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the logging interface components depend on.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning, e.g. a degenerate evaluation.
	Warn(msg string, fields ...Field)

	// Error logs an error message with the associated error.
	Error(msg string, err error, fields ...Field)

	// Debug logs a debug message.
	Debug(msg string, fields ...Field)

	// Printf logs a formatted informational message.
	Printf(format string, args ...any)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// ZerologAdapter adapts a zerolog.Logger to the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a new Logger backed by zerolog.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewDefaultLogger returns a Logger bound to the global zerolog logger, so
// it follows the level and format chosen by Setup.
func NewDefaultLogger() *ZerologAdapter {
	return NewZerologAdapter(log.Logger)
}

// NewLogger creates a Logger writing JSON lines to w, tagged with a
// component name.
func NewLogger(w io.Writer, component string) *ZerologAdapter {
	return NewZerologAdapter(
		zerolog.New(w).With().Str("component", component).Timestamp().Logger(),
	)
}

// Zerolog exposes the underlying logger for callers that need the event API.
func (z *ZerologAdapter) Zerolog() zerolog.Logger { return z.logger }

func (z *ZerologAdapter) applyFields(event *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event = event.Str(f.Key, v)
		case int:
			event = event.Int(f.Key, v)
		case int64:
			event = event.Int64(f.Key, v)
		case float64:
			event = event.Float64(f.Key, v)
		case time.Duration:
			event = event.Dur(f.Key, v)
		case error:
			event = event.AnErr(f.Key, v)
		case bool:
			event = event.Bool(f.Key, v)
		default:
			event = event.Interface(f.Key, v)
		}
	}
	return event
}

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	z.applyFields(z.logger.Info(), fields).Msg(msg)
}

// Warn logs a warning.
func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	z.applyFields(z.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	z.applyFields(z.logger.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	z.applyFields(z.logger.Debug(), fields).Msg(msg)
}

// Printf logs a formatted informational message.
func (z *ZerologAdapter) Printf(format string, args ...any) {
	z.logger.Info().Msgf(format, args...)
}

// Options configures the global logger.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// JSON selects JSON lines instead of the human console format.
	JSON bool
	// NoColor disables colors in the console format.
	NoColor bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Setup configures the global zerolog logger and level. An unknown level
// name falls back to info and is reported in the returned error.
func Setup(opts Options) error {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, NoColor: opts.NoColor, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return err
}
