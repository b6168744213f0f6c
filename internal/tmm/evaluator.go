package tmm

//go:generate mockgen -source=evaluator.go -destination=mocks/mock_evaluator.go -package=mocks

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/tmmcalc/internal/backend"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
)

var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmm_evaluations_total",
			Help: "The total number of transfer-matrix evaluations processed",
		},
		[]string{"backend", "status"},
	)
	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tmm_evaluation_duration_seconds",
			Help: "The duration of transfer-matrix evaluations in seconds",
		},
		[]string{"backend"},
	)
	gridPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmm_grid_points_total",
			Help: "The total number of (kx, omega) grid points evaluated",
		},
		[]string{"backend"},
	)
)

// Evaluator is the interface the orchestration and service layers use to run
// evaluations. Implementations are safe for concurrent use.
type Evaluator interface {
	// Evaluate runs one evaluation. Progress updates are sent to progressChan
	// without blocking; a nil channel disables them.
	//
	// Parameters:
	//   - ctx: The context for cancellation between layer products.
	//   - progressChan: The channel for progress updates (may be nil).
	//   - evalIndex: An identifier echoed in progress updates.
	//   - prob: The stack and grids to evaluate.
	//
	// Returns:
	//   - *Result: The amplitudes.
	//   - error: An error if the problem is invalid or the context ends.
	Evaluate(ctx context.Context, progressChan chan<- ProgressUpdate, evalIndex int, prob Problem) (*Result, error)

	// Name returns the name of the backend the evaluator runs on.
	Name() string
}

// InstrumentedEvaluator decorates an Engine with tracing, metrics, debug
// logging and observer-based progress reporting.
type InstrumentedEvaluator struct {
	engine *Engine
}

// NewEvaluator wraps an engine bound to b.
func NewEvaluator(b backend.Backend) *InstrumentedEvaluator {
	return &InstrumentedEvaluator{engine: NewEngine(b)}
}

// Name returns the backend name.
func (e *InstrumentedEvaluator) Name() string {
	return e.engine.Backend().Name()
}

// Evaluate implements Evaluator using a channel observer.
func (e *InstrumentedEvaluator) Evaluate(ctx context.Context, progressChan chan<- ProgressUpdate, evalIndex int, prob Problem) (*Result, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return e.EvaluateWithObservers(ctx, subject, evalIndex, prob)
}

// EvaluateWithObservers runs one evaluation, notifying every observer of
// subject. A nil subject disables progress reporting.
//
// Each call opens a "tmm.Evaluate" span, counts the outcome in
// tmm_evaluations_total with status success, degenerate (finished with
// non-finite cells) or error, and emits a debug log line.
func (e *InstrumentedEvaluator) EvaluateWithObservers(ctx context.Context, subject *ProgressSubject, evalIndex int, prob Problem) (result *Result, err error) {
	name := e.Name()
	ctx, span := otel.Tracer("tmm").Start(ctx, "tmm.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("tmm.backend", name),
		attribute.String("tmm.polarization", prob.Polarization.String()),
		attribute.Int("tmm.layers", prob.Layers()),
		attribute.Int("tmm.grid_points", prob.GridSize()),
	)

	start := time.Now()
	nonFinite := 0
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		switch {
		case err != nil:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case nonFinite > 0:
			status = "degenerate"
			span.SetAttributes(attribute.Int("tmm.non_finite", nonFinite))
		}
		evaluationsTotal.WithLabelValues(name, status).Inc()
		evaluationDuration.WithLabelValues(name).Observe(duration)
		if err == nil {
			gridPointsTotal.WithLabelValues(name).Add(float64(prob.GridSize()))
		}

		log.Debug().
			Str("backend", name).
			Str("pol", prob.Polarization.String()).
			Int("nk", len(prob.Kx)).
			Int("nw", len(prob.Omega)).
			Int("layers", prob.Layers()).
			Int("non_finite", nonFinite).
			Float64("duration", duration).
			Str("status", status).
			Msg("evaluation completed")
	}()

	var reporter ProgressReporter
	if subject != nil {
		reporter = subject.AsProgressReporter(evalIndex)
	}

	result, err = e.engine.Solve(ctx, prob, reporter)
	if err != nil {
		return nil, apperrors.EvaluationError{Backend: name, Cause: err}
	}
	nonFinite = result.NonFinite()
	if reporter != nil {
		reporter(1.0)
	}
	return result, nil
}
