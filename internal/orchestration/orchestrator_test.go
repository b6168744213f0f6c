package orchestration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/cmplx"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/config"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
	"github.com/agbru/tmmcalc/internal/tmm"
	"github.com/agbru/tmmcalc/internal/tmm/mocks"
	"github.com/agbru/tmmcalc/internal/ui"
)

func testProblem() tmm.Problem {
	return tmm.Problem{
		Polarization: fresnel.S,
		Omega:        []float64{2 * math.Pi * 150e12, 2 * math.Pi * 200e12, 2 * math.Pi * 250e12},
		Kx:           []float64{0, 1e6, 2e6},
		Index:        []complex128{1, 1.5, 3.5, 1},
		Thickness:    []float64{1e-6, 1.33e-6},
	}
}

func solve(t *testing.T, prob tmm.Problem) *tmm.Result {
	t.Helper()
	res, err := tmm.NewEngine(backend.NewSerial()).Solve(context.Background(), prob, nil)
	require.NoError(t, err)
	return res
}

// perturbed returns a copy of res with t scaled by (1 + eps).
func perturbed(res *tmm.Result, eps float64) *tmm.Result {
	out := &tmm.Result{T: res.T.Clone(), R: res.R.Clone()}
	data := out.T.Data()
	for i := range data {
		data[i] *= complex(1+eps, 0)
	}
	return out
}

// mockEvaluator returns an evaluator that reports progress once and yields
// res or err after delay.
func mockEvaluator(ctrl *gomock.Controller, name string, res *tmm.Result, err error, delay time.Duration) *mocks.MockEvaluator {
	ev := mocks.NewMockEvaluator(ctrl)
	ev.EXPECT().Name().Return(name).AnyTimes()
	ev.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, ch chan<- tmm.ProgressUpdate, idx int, _ tmm.Problem) (*tmm.Result, error) {
			select {
			case ch <- tmm.ProgressUpdate{EvaluatorIndex: idx, Value: 1}:
			default:
			}
			time.Sleep(delay)
			return res, err
		})
	return ev
}

func TestExecuteEvaluations(t *testing.T) {
	t.Parallel()
	prob := testProblem()
	res := solve(t, prob)
	ctrl := gomock.NewController(t)

	evaluators := []tmm.Evaluator{
		mockEvaluator(ctrl, "ok", res, nil, 0),
		mockEvaluator(ctrl, "broken", nil, errors.New("mock error"), 0),
	}
	results := ExecuteEvaluations(context.Background(), evaluators, prob, io.Discard)

	require.Len(t, results, 2)
	assert.Equal(t, "ok", results[0].Name)
	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Power)
	assert.Len(t, results[0].Power.Reflectance, 3)

	assert.Equal(t, "broken", results[1].Name)
	assert.EqualError(t, results[1].Err, "mock error")
	assert.Nil(t, results[1].Power)
}

func TestExecuteEvaluations_RealBackends(t *testing.T) {
	t.Parallel()
	factory := tmm.NewEvaluatorFactory(backend.NewRegistry())
	evaluators, err := factory.Select("all")
	require.NoError(t, err)

	prob := testProblem()
	results := ExecuteEvaluations(context.Background(), evaluators, prob, io.Discard)
	ref, err := CheckConsistency(results)
	require.NoError(t, err)
	require.NotNil(t, ref)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Name)
		assert.LessOrEqual(t, Distance(r.Result, ref.Result), ConsistencyTolerance, r.Name)
	}
}

func TestDistance(t *testing.T) {
	t.Parallel()
	prob := testProblem()
	res := solve(t, prob)

	assert.Zero(t, Distance(res, res))
	assert.InDelta(t, 1e-6, Distance(perturbed(res, 1e-6), res), 1e-9)

	t.Run("Shape mismatch", func(t *testing.T) {
		small := prob
		small.Kx = small.Kx[:1]
		assert.True(t, math.IsInf(Distance(solve(t, small), res), 1))
	})

	t.Run("Shared non-finite points are ignored", func(t *testing.T) {
		a, b := perturbed(res, 0), perturbed(res, 0)
		a.T.Data()[0] = cmplx.NaN()
		b.T.Data()[0] = cmplx.Inf()
		assert.Zero(t, Distance(a, b))
	})

	t.Run("Non-finite in one result only", func(t *testing.T) {
		a := perturbed(res, 0)
		a.R.Data()[1] = cmplx.Inf()
		assert.True(t, math.IsInf(Distance(a, res), 1))
	})
}

func TestCheckConsistency(t *testing.T) {
	t.Parallel()
	res := solve(t, testProblem())

	tests := []struct {
		name     string
		results  []EvaluationResult
		wantRef  string
		wantErr  error
		mismatch bool
	}{
		{
			name: "Agreement picks the fastest",
			results: []EvaluationResult{
				{Name: "slow", Result: res, Duration: 2 * time.Millisecond},
				{Name: "fast", Result: perturbed(res, 1e-12), Duration: time.Millisecond},
			},
			wantRef: "fast",
		},
		{
			name: "Failures are skipped",
			results: []EvaluationResult{
				{Name: "broken", Err: errors.New("boom")},
				{Name: "ok", Result: res, Duration: time.Second},
			},
			wantRef: "ok",
		},
		{
			name: "Mismatch",
			results: []EvaluationResult{
				{Name: "a", Result: res, Duration: time.Millisecond},
				{Name: "b", Result: perturbed(res, 1e-6), Duration: 2 * time.Millisecond},
			},
			wantRef:  "a",
			mismatch: true,
		},
		{
			name: "All failed",
			results: []EvaluationResult{
				{Name: "a", Err: context.DeadlineExceeded},
			},
			wantErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := CheckConsistency(tt.results)
			switch {
			case tt.mismatch:
				assert.ErrorIs(t, err, ErrMismatch)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			if tt.wantRef == "" {
				assert.Nil(t, ref)
			} else {
				require.NotNil(t, ref)
				assert.Equal(t, tt.wantRef, ref.Name)
			}
		})
	}

	_, err := CheckConsistency(nil)
	assert.Error(t, err)
}

func TestAnalyzeComparisonResults(t *testing.T) {
	ui.InitTheme(true)
	prob := testProblem()
	res := solve(t, prob)
	pw, err := tmm.PowerOf(prob, res)
	require.NoError(t, err)

	tests := []struct {
		name     string
		results  []EvaluationResult
		cfg      config.AppConfig
		wantCode int
		contains []string
	}{
		{
			name: "Success",
			results: []EvaluationResult{
				{Name: "serial", Result: res, Power: pw, Duration: time.Millisecond},
				{Name: "parallel", Result: res, Power: pw, Duration: 0},
			},
			wantCode: apperrors.ExitSuccess,
			contains: []string{"Comparison Summary (s)", "< 1µs", "All valid results are consistent", "--- s-polarization ---"},
		},
		{
			name: "Quiet",
			results: []EvaluationResult{
				{Name: "serial", Result: res, Power: pw, Duration: time.Millisecond},
			},
			cfg:      config.AppConfig{Quiet: true},
			wantCode: apperrors.ExitSuccess,
			contains: []string{"s 3x3 R="},
		},
		{
			name: "Mismatch",
			results: []EvaluationResult{
				{Name: "serial", Result: res, Power: pw, Duration: time.Millisecond},
				{Name: "gonum", Result: perturbed(res, 1e-3), Power: pw, Duration: 2 * time.Millisecond},
			},
			wantCode: apperrors.ExitErrorMismatch,
			contains: []string{"CRITICAL ERROR", "gonum deviates from serial"},
		},
		{
			name: "Timeout",
			results: []EvaluationResult{
				{Name: "serial", Err: context.DeadlineExceeded, Duration: time.Second},
			},
			wantCode: apperrors.ExitErrorTimeout,
			contains: []string{"Failure (context deadline exceeded)", "No backend could complete"},
		},
		{
			name: "Invalid problem",
			results: []EvaluationResult{
				{Name: "serial", Err: apperrors.NewInvalidArgument("thickness", 0, "bad")},
			},
			wantCode: apperrors.ExitErrorConfig,
			contains: []string{"Status: Rejected"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := AnalyzeComparisonResults(tt.results, prob, tt.cfg, &buf)
			assert.Equal(t, tt.wantCode, code)
			out := buf.String()
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
			}
		})
	}
}
