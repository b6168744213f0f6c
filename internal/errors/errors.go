// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (invalid arguments,
// unavailable backends, configuration, evaluation, server) and for carrying
// the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types implement the Unwrap() method to support errors.Is() and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates a result mismatch between backends.
	ExitErrorConfig   = 4   // Indicates a configuration error or invalid argument.
	ExitErrorBackend  = 5   // Indicates the requested numeric backend is unavailable.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

var (
	// ErrInvalidArgument matches every InvalidArgumentError through errors.Is.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBackendUnavailable matches every BackendUnavailableError through errors.Is.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// InvalidArgumentError reports a malformed input detected before any numeric
// work starts: wrong polarization, rank or length mismatches, an empty layer
// list.
type InvalidArgumentError struct {
	// Field names the offending input.
	Field string
	// Message describes the violated precondition.
	Message string
	// Value is the rejected value (optional, may be nil).
	Value any
}

// Error returns the error message for an InvalidArgumentError.
func (e InvalidArgumentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid argument '%s': %s", e.Field, e.Message)
	}
	return "invalid argument: " + e.Message
}

// Is makes errors.Is(err, ErrInvalidArgument) hold for every InvalidArgumentError.
func (e InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NewInvalidArgument creates an InvalidArgumentError with a formatted message.
//
// Parameters:
//   - field: The name of the rejected input.
//   - value: The rejected value (optional).
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new InvalidArgumentError.
func NewInvalidArgument(field string, value any, format string, a ...any) error {
	return InvalidArgumentError{Field: field, Message: fmt.Sprintf(format, a...), Value: value}
}

// BackendUnavailableError is returned when a numeric backend is requested by
// a name that is not registered in this build.
type BackendUnavailableError struct {
	// Name is the requested backend.
	Name string
	// Available lists the registered backends.
	Available []string
}

// Error returns the error message for a BackendUnavailableError.
func (e BackendUnavailableError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("backend '%s' is not available", e.Name)
	}
	return fmt.Sprintf("backend '%s' is not available (registered: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrBackendUnavailable) hold for every BackendUnavailableError.
func (e BackendUnavailableError) Is(target error) bool { return target == ErrBackendUnavailable }

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
//
// Returns:
//   - string: The error message string.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
// It allows for the creation of configuration-specific errors with dynamic
// content.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// EvaluationError ties a failed stack evaluation to the backend that ran it
// while preserving the original cause.
type EvaluationError struct {
	// Backend is the name of the numeric backend that was in use.
	Backend string
	// Cause is the underlying error that triggered this evaluation error.
	Cause error
}

// Error returns the error message prefixed with the backend name.
//
// Returns:
//   - string: The error message string.
func (e EvaluationError) Error() string {
	if e.Backend == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
//
// Returns:
//   - error: The underlying cause of the EvaluationError.
func (e EvaluationError) Unwrap() error { return e.Cause }

// ServerError represents errors that occur in the HTTP server component.
// It wraps an underlying error with additional context specific to the server operation.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
// It combines the descriptive message and the underlying cause if present.
//
// Returns:
//   - string: The complete error message.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
//
// Returns:
//   - error: The cause of the ServerError, or nil if there is none.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
//
// Parameters:
//   - message: A description of the error context.
//   - cause: The underlying error that occurred (can be nil).
//
// Returns:
//   - error: A new ServerError instance.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error is a context error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
