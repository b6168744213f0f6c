package server

import (
	"net/http"
	"strings"
)

// SecurityConfig holds configuration for security headers and request
// limits.
type SecurityConfig struct {
	// EnableCORS enables Cross-Origin Resource Sharing headers.
	EnableCORS bool
	// AllowedOrigins specifies allowed CORS origins. Use "*" for all origins.
	AllowedOrigins []string
	// AllowedMethods specifies allowed HTTP methods for CORS.
	AllowedMethods []string
	// MaxBodyBytes caps the size of an /evaluate request body.
	MaxBodyBytes int64
}

// DefaultSecurityConfig returns the default security configuration.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		MaxBodyBytes:   1 << 20,
	}
}

// SecurityMiddleware adds security headers, CORS headers and answers
// preflight requests.
//
// Parameters:
//   - config: The security configuration.
//   - next: The next handler in the chain.
//
// Returns:
//   - http.HandlerFunc: A new handler with security headers.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			origin := r.Header.Get("Origin")
			allowedOrigin := ""
			for _, allowed := range config.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					allowedOrigin = allowed
					break
				}
			}

			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		if config.MaxBodyBytes > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes)
		}

		next(w, r)
	}
}
