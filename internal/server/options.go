package server

import (
	"time"

	"github.com/agbru/tmmcalc/internal/logging"
)

// Option defines a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the server logger. A nil logger keeps the default.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeouts sets custom timeout configuration for the server.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

// WithRateLimiter sets a custom rate limiter for the server.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}

// WithSecurityConfig sets a custom security configuration for the server.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) {
		s.securityConfig = config
	}
}

// Timeouts holds timeout configuration for the HTTP server.
type Timeouts struct {
	// RequestTimeout is the maximum duration of one evaluation.
	RequestTimeout time.Duration
	// ShutdownTimeout is the maximum duration allowed for graceful shutdown.
	ShutdownTimeout time.Duration
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
}

// DefaultServerTimeouts returns the production timeouts.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}
