// Package server provides the HTTP API for transfer-matrix evaluations.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/tmmcalc/internal/config"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/logging"
	"github.com/agbru/tmmcalc/internal/service"
)

// Server wraps an http.Server with the evaluation routes, the middleware
// chain and graceful shutdown.
type Server struct {
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer creates a Server for svc.
//
// Parameters:
//   - svc: The evaluation service handling /evaluate and /backends.
//   - cfg: The application configuration (port).
//   - opts: Optional functional options (e.g., WithLogger).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(svc service.Service, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		service:        svc,
		cfg:            cfg,
		logger:         logging.NewDefaultLogger(),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/evaluate", s.wrapWithMiddleware("/evaluate", s.handleEvaluate))
	mux.HandleFunc("/health", s.wrapWithMiddleware("/health", s.handleHealth))
	mux.HandleFunc("/backends", s.wrapWithMiddleware("/backends", s.handleBackends))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware("/metrics", s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// wrapWithMiddleware applies Security -> RateLimit -> Logging -> Metrics.
func (s *Server) wrapWithMiddleware(route string, handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(route, handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start listens on the configured port and blocks until SIGINT/SIGTERM or a
// listener failure, then shuts down gracefully.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ln)
}

// Serve runs the server on an existing listener. See Start.
func (s *Server) Serve(ln net.Listener) error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", ln.Addr().String()),
			logging.Int("max_body_bytes", int(s.securityConfig.MaxBodyBytes)),
		)
		s.logger.Info("endpoints: POST /evaluate, GET /health, GET /backends, GET /metrics")

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-errCh:
		return apperrors.NewServerError("server stopped unexpectedly", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// Shutdown triggers the same graceful shutdown as SIGTERM.
func (s *Server) Shutdown() {
	select {
	case s.shutdownSignal <- syscall.SIGTERM:
	default:
	}
}
