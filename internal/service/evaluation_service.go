package service

//go:generate mockgen -source=evaluation_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/tmm"
)

var (
	// ErrGridTooLarge is returned when a request exceeds the configured
	// number of (kx, omega) points.
	ErrGridTooLarge = errors.New("grid size exceeds the configured maximum")
)

// Service defines the evaluation entry point used by the HTTP server.
type Service interface {
	// Evaluate resolves and runs one request.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - req: The request to evaluate.
	//
	// Returns:
	//   - *Response: The amplitudes and intensities.
	//   - error: An InvalidArgumentError, ErrGridTooLarge, a
	//     BackendUnavailableError, or an evaluation error.
	Evaluate(ctx context.Context, req Request) (*Response, error)

	// Backends lists the backends a request may select.
	Backends() []string
}

// EvaluationService validates requests, enforces the grid limit and runs
// them on the evaluator of the requested backend.
type EvaluationService struct {
	factory        *tmm.EvaluatorFactory
	defaultBackend string
	maxGrid        int
}

// Ensure EvaluationService implements Service interface.
var _ Service = (*EvaluationService)(nil)

// NewEvaluationService creates a new EvaluationService.
//
// Parameters:
//   - factory: The evaluator factory.
//   - defaultBackend: The backend used when a request names none.
//   - maxGrid: The largest accepted Nk*Nw (0 for no limit).
func NewEvaluationService(factory *tmm.EvaluatorFactory, defaultBackend string, maxGrid int) *EvaluationService {
	return &EvaluationService{
		factory:        factory,
		defaultBackend: defaultBackend,
		maxGrid:        maxGrid,
	}
}

// Backends implements Service.
func (s *EvaluationService) Backends() []string {
	return s.factory.List()
}

// Evaluate implements Service.
func (s *EvaluationService) Evaluate(ctx context.Context, req Request) (*Response, error) {
	nk, nw := req.Dims()
	// An empty axis still counts as one point so the other axis stays bounded.
	// a > maxGrid/b is a*b > maxGrid without overflow.
	if s.maxGrid > 0 && max(nw, 1) > s.maxGrid/max(nk, 1) {
		return nil, apperrors.WrapError(ErrGridTooLarge, "%d x %d points requested, limit is %d", nk, nw, s.maxGrid)
	}

	name := req.Backend
	if name == "" {
		name = s.defaultBackend
	}
	if name == "all" {
		return nil, apperrors.NewInvalidArgument("backend", name, "a request runs on a single backend")
	}
	ev, err := s.factory.Get(name)
	if err != nil {
		return nil, err
	}

	prob, err := req.Problem()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := ev.Evaluate(ctx, nil, 0, prob)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	pw, err := tmm.PowerOf(prob, res)
	if err != nil {
		return nil, err
	}
	return NewResponse(ev.Name(), prob, res, pw, elapsed), nil
}
