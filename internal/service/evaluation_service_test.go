package service

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/tmmcalc/internal/backend"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/grid"
	"github.com/agbru/tmmcalc/internal/stack"
	"github.com/agbru/tmmcalc/internal/tmm"
)

func newTestService(maxGrid int) *EvaluationService {
	return NewEvaluationService(tmm.NewEvaluatorFactory(backend.NewRegistry()), "serial", maxGrid)
}

func filmRequest() Request {
	return Request{
		Polarization: "p",
		Frequency:    &grid.Range{Start: 150e12, Stop: 250e12, Num: 4},
		Wavevector:   &grid.Range{Start: 0, Stop: 3e6, Num: 3},
		Stack: stack.Document{
			Index:     []float64{1, 1.5, 3.5, 1},
			Thickness: []float64{1, 1.33},
			Unit:      "um",
		},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	resp, err := newTestService(0).Evaluate(context.Background(), filmRequest())
	require.NoError(t, err)

	assert.Equal(t, "serial", resp.Backend)
	assert.Equal(t, "p", resp.Polarization)
	assert.Len(t, resp.Kx, 3)
	assert.Len(t, resp.Omega, 4)
	require.Len(t, resp.T.Re, 3)
	assert.Len(t, resp.T.Re[0], 4)
	assert.Zero(t, resp.NonFinite)
	assert.Less(t, float64(resp.MaxEnergyError), 1e-9)

	tt, _ := resp.Result.At(2, 3)
	assert.Equal(t, Float(real(tt)), resp.T.Re[2][3])
	assert.Equal(t, Float(imag(tt)), resp.T.Im[2][3])
}

func TestEvaluate_BackendSelection(t *testing.T) {
	t.Parallel()

	svc := newTestService(0)
	assert.Equal(t, []string{"gonum", "parallel", "serial"}, svc.Backends())

	req := filmRequest()
	req.Backend = "gonum"
	resp, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "gonum", resp.Backend)

	req.Backend = "cuda"
	_, err = svc.Evaluate(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)

	req.Backend = "all"
	_, err = svc.Evaluate(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestEvaluate_GridLimit(t *testing.T) {
	t.Parallel()

	_, err := newTestService(11).Evaluate(context.Background(), filmRequest())
	assert.ErrorIs(t, err, ErrGridTooLarge)

	_, err = newTestService(12).Evaluate(context.Background(), filmRequest())
	assert.NoError(t, err)

	huge := filmRequest()
	huge.Frequency.Num = math.MaxInt / 2
	_, err = newTestService(1000).Evaluate(context.Background(), huge)
	assert.ErrorIs(t, err, ErrGridTooLarge)
}

func TestEvaluate_GridLimitWithEmptyAxis(t *testing.T) {
	t.Parallel()

	svc := newTestService(1000)

	emptyKx := filmRequest()
	emptyKx.Frequency.Num = 3_000_000
	emptyKx.Wavevector.Num = 0
	_, err := svc.Evaluate(context.Background(), emptyKx)
	assert.ErrorIs(t, err, ErrGridTooLarge)

	noKx := filmRequest()
	noKx.Frequency.Num = 3_000_000
	noKx.Wavevector = nil
	_, err = svc.Evaluate(context.Background(), noKx)
	assert.ErrorIs(t, err, ErrGridTooLarge)

	emptyOmega := filmRequest()
	emptyOmega.Frequency.Num = 0
	emptyOmega.Wavevector.Num = 3_000_000
	_, err = svc.Evaluate(context.Background(), emptyOmega)
	assert.ErrorIs(t, err, ErrGridTooLarge)

	small := filmRequest()
	small.Frequency.Num = 1000
	small.Wavevector.Num = 0
	resp, err := svc.Evaluate(context.Background(), small)
	require.NoError(t, err)
	assert.Empty(t, resp.Kx)
	assert.Len(t, resp.Omega, 1000)
}

func TestRequest_Problem(t *testing.T) {
	t.Parallel()

	doc := stack.Document{Index: []float64{1.5, 1, 1.5}, Thickness: []float64{1e-6}}

	tests := []struct {
		name    string
		req     Request
		wantErr bool
		wantNk  int
	}{
		{"ExplicitGrids", Request{Omega: []float64{1e15}, Kx: []float64{0, 1e6}, Stack: doc}, false, 2},
		{"AngleSweep", Request{Frequency: &grid.Range{Start: 2e14, Stop: 2e14, Num: 1}, Angle: &grid.Range{Start: 0, Stop: 60, Num: 7}, Stack: doc}, false, 7},
		{"AngleSweepNeedsOneFrequency", Request{Omega: []float64{1e15, 2e15}, Angle: &grid.Range{Start: 0, Stop: 60, Num: 7}, Stack: doc}, true, 0},
		{"MissingOmega", Request{Kx: []float64{0}, Stack: doc}, true, 0},
		{"MissingKx", Request{Omega: []float64{1e15}, Stack: doc}, true, 0},
		{"BadPolarization", Request{Polarization: "q", Omega: []float64{1e15}, Kx: []float64{0}, Stack: doc}, true, 0},
		{"BadStack", Request{Omega: []float64{1e15}, Kx: []float64{0}, Stack: stack.Document{Index: []float64{1, 2}}}, true, 0},
		{"NonFiniteGrid", Request{Omega: []float64{math.Inf(1)}, Kx: []float64{0}, Stack: doc}, true, 0},
		{"NegativeRange", Request{Frequency: &grid.Range{Num: -1}, Kx: []float64{0}, Stack: doc}, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prob, err := tc.req.Problem()
			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Len(t, prob.Kx, tc.wantNk)
		})
	}
}

func TestRequest_ProblemChecksAxesFirst(t *testing.T) {
	t.Parallel()

	req := Request{
		Frequency: &grid.Range{Start: 1e14, Stop: 2e14, Num: 5},
		Stack:     stack.Document{Index: []float64{1, 2}},
	}
	_, err := req.Problem()
	var argErr apperrors.InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "kx", argErr.Field)
}

func TestAngleSweepStaysInsideLightLine(t *testing.T) {
	t.Parallel()

	req := Request{
		Frequency: &grid.Range{Start: 2e14, Stop: 2e14, Num: 1},
		Angle:     &grid.Range{Start: 0, Stop: 90, Num: 3},
		Stack:     stack.Document{Index: []float64{1.5, 1, 1.5}, Thickness: []float64{1e-6}},
	}
	prob, err := req.Problem()
	require.NoError(t, err)
	assert.InDelta(t, grid.LightLine(1.5, prob.Omega[0]), prob.Kx[2], 1e-3)
}

func TestResponseJSON_NonFiniteAsNull(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		A Float `json:"a"`
		B Float `json:"b"`
		C Float `json:"c"`
	}{Float(math.NaN()), Float(math.Inf(-1)), 0.25})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":null,"c":0.25}`, string(data))

	resp, err := newTestService(0).Evaluate(context.Background(), filmRequest())
	require.NoError(t, err)
	_, err = json.Marshal(resp)
	assert.NoError(t, err)
}
