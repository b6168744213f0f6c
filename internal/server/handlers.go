package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	json5 "github.com/KevinWang15/go-json5"

	"github.com/agbru/tmmcalc/internal/backend"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/logging"
	"github.com/agbru/tmmcalc/internal/service"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	})
}

// handleBackends lists the numeric backends a request may select.
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, BackendsResponse{
		Backends:    s.service.Backends(),
		Environment: backend.Environment(),
	})
}

// handleEvaluate decodes a JSON5 request body, runs it through the service
// and returns the amplitudes and intensities.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := decodeRequest(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	resp, err := s.service.Evaluate(ctx, req)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("evaluation failed", err, logging.String("backend", req.Backend))
		}
		s.writeErrorResponse(w, status, err.Error())
		return
	}
	if resp.NonFinite > 0 {
		s.logger.Warn("degenerate configuration",
			logging.String("backend", resp.Backend),
			logging.Int("non_finite", resp.NonFinite),
		)
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

func decodeRequest(body io.Reader) (service.Request, error) {
	var req service.Request
	if body == nil {
		return req, errors.New("missing request body")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return req, err
	}
	if len(data) == 0 {
		return req, errors.New("missing request body")
	}
	// json5 fills plain values only, so the document goes through a generic
	// tree first and the typed request is decoded from its canonical JSON.
	var tree map[string]any
	if err := json5.Unmarshal(data, &tree); err != nil {
		return req, apperrors.WrapError(err, "malformed request body")
	}
	canonical, err := json.Marshal(tree)
	if err != nil {
		return req, apperrors.WrapError(err, "malformed request body")
	}
	if err := json.Unmarshal(canonical, &req); err != nil {
		return req, apperrors.WrapError(err, "malformed request body")
	}
	return req, nil
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrGridTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
