package server

import (
	"net/http"
	"time"

	"github.com/agbru/tmmcalc/internal/logging"
)

// loggingMiddleware logs each request with its method, path, client and
// duration.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Debug("request received",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("client", getClientIP(r)),
		)

		next(w, r)

		s.logger.Info("request completed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("duration", time.Since(start)),
		)
	}
}
