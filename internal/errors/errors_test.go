// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 42, "-threshold"),
			expected: "invalid value 42 for flag -threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			var configErr ConfigError
			if !errors.As(tt.err, &configErr) {
				t.Error("expected error to be ConfigError type")
			}
		})
	}
}

func TestInvalidArgumentError(t *testing.T) {
	t.Parallel()

	err := NewInvalidArgument("pol", "x", "must be 's' or 'p', got %q", "x")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatal("expected errors.Is(err, ErrInvalidArgument)")
	}
	if errors.Is(err, ErrBackendUnavailable) {
		t.Error("invalid argument must not match ErrBackendUnavailable")
	}
	want := `invalid argument 'pol': must be 's' or 'p', got "x"`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	var iae InvalidArgumentError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &iae) {
		t.Fatal("expected errors.As to find InvalidArgumentError through wrapping")
	}
	if iae.Value != "x" {
		t.Errorf("expected value %q, got %v", "x", iae.Value)
	}

	noField := InvalidArgumentError{Message: "empty"}
	if noField.Error() != "invalid argument: empty" {
		t.Errorf("unexpected message %q", noField.Error())
	}
}

func TestBackendUnavailableError(t *testing.T) {
	t.Parallel()

	err := error(BackendUnavailableError{Name: "cuda", Available: []string{"gonum", "serial"}})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatal("expected errors.Is(err, ErrBackendUnavailable)")
	}
	if !strings.Contains(err.Error(), "cuda") || !strings.Contains(err.Error(), "gonum, serial") {
		t.Errorf("message should name the backend and the alternatives, got %q", err.Error())
	}
	bare := BackendUnavailableError{Name: "cuda"}
	if bare.Error() != "backend 'cuda' is not available" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestEvaluationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         EvaluationError
		expectedMsg string
		checkIs     error
	}{
		{
			name:        "Error carries backend prefix",
			err:         EvaluationError{Backend: "gonum", Cause: errors.New("boom")},
			expectedMsg: "gonum: boom",
		},
		{
			name:        "Error without backend returns cause message",
			err:         EvaluationError{Cause: errors.New("boom")},
			expectedMsg: "boom",
		},
		{
			name:        "errors.Is sees through to the cause",
			err:         EvaluationError{Backend: "serial", Cause: context.Canceled},
			expectedMsg: "serial: context canceled",
			checkIs:     context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, tt.err.Error())
			}
			if tt.err.Unwrap() != tt.err.Cause {
				t.Error("Unwrap should return the cause")
			}
			if tt.checkIs != nil && !errors.Is(tt.err, tt.checkIs) {
				t.Errorf("expected errors.Is to match %v", tt.checkIs)
			}
		})
	}
}

func TestServerError(t *testing.T) {
	t.Parallel()

	cause := errors.New("address in use")
	err := NewServerError("listen failed", cause)
	if err.Error() != "listen failed: address in use" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	if NewServerError("no cause", nil).Error() != "no cause" {
		t.Error("message without cause should be returned verbatim")
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	if WrapError(nil, "context") != nil {
		t.Error("wrapping nil should return nil")
	}
	base := NewInvalidArgument("d", nil, "empty")
	wrapped := WrapError(base, "evaluating %s", "stack")
	if !errors.Is(wrapped, ErrInvalidArgument) {
		t.Error("wrapped error should still match ErrInvalidArgument")
	}
	if !strings.HasPrefix(wrapped.Error(), "evaluating stack: ") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("op: %w", context.DeadlineExceeded), true},
		{"other", errors.New("other"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsContextError(tt.err); got != tt.want {
				t.Errorf("IsContextError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
