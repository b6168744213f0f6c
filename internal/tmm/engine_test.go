package tmm

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/agbru/tmmcalc/internal/backend"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
)

const referenceTolerance = 1e-2

func linspace(start, stop float64, n int) []float64 {
	if n == 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, stop)
}

// testGrid is the visible-to-infrared sweep used across the package tests.
// kx stops just short of the light line of the lowest frequency so that every
// point propagates in vacuum.
func testGrid(nk, nw int) (omega, kx []float64) {
	omega = linspace(150e12, 250e12, nw)
	floats.Scale(2*math.Pi, omega)
	kx = linspace(0, 0.999*2*math.Pi*150e12/C0, nk)
	return omega, kx
}

func reals(v ...float64) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = complex(x, 0)
	}
	return out
}

// referenceRT evaluates the stack one grid point at a time from the
// incidence angle, chaining the interface and phase matrices explicitly.
func referenceRT(t *testing.T, pol fresnel.Polarization, omega, kx []float64, n []complex128, d []float64) (tt, rr [][]complex128) {
	t.Helper()
	tt = make([][]complex128, len(kx))
	rr = make([][]complex128, len(kx))
	for i, q := range kx {
		tt[i] = make([]complex128, len(omega))
		rr[i] = make([]complex128, len(omega))
		for j, w := range omega {
			k0 := w / C0
			sin0 := complex(q/(real(n[0])*k0), 0)
			theta0 := cmplx.Asin(sin0)
			cosines := make([]complex128, len(n))
			for l := range n {
				sinL := n[0] * cmplx.Sin(theta0) / n[l]
				cosines[l] = cmplx.Sqrt(1 - sinL*sinL)
			}

			interfaceMatrix := func(l int) [2][2]complex128 {
				r, tr, err := fresnel.Scalar(pol, n[l], n[l+1], cosines[l], cosines[l+1])
				if err != nil {
					t.Fatalf("reference fresnel: %v", err)
				}
				return [2][2]complex128{{1 / tr, r / tr}, {r / tr, 1 / tr}}
			}

			m := interfaceMatrix(0)
			for l := 1; l < len(n)-1; l++ {
				delta := n[l] * complex(k0, 0) * cosines[l] * complex(d[l-1], 0)
				phase := [2][2]complex128{{cmplx.Exp(-1i * delta), 0}, {0, cmplx.Exp(1i * delta)}}
				m = mul2(mul2(m, phase), interfaceMatrix(l))
			}
			tt[i][j] = 1 / m[0][0]
			rr[i][j] = m[1][0] / m[0][0]
		}
	}
	return tt, rr
}

func mul2(a, b [2][2]complex128) [2][2]complex128 {
	return [2][2]complex128{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}
}

// distance is the Frobenius norm of the difference between a result tensor
// and a reference grid.
func distance(t *testing.T, res *Result, useT bool, ref [][]complex128) float64 {
	t.Helper()
	sum := 0.0
	for i := range ref {
		for j := range ref[i] {
			tv, rv := res.At(i, j)
			v := rv
			if useT {
				v = tv
			}
			diff := cmplx.Abs(v - ref[i][j])
			sum += diff * diff
		}
	}
	return math.Sqrt(sum)
}

func TestRT_MatchesPointwiseReference(t *testing.T) {
	t.Parallel()

	omega, insideKx := testGrid(51, 50)
	// The full sweep ends exactly on the vacuum light line of the lowest
	// frequency, where kz = 0 in the incidence medium.
	grids := []struct {
		name string
		kx   []float64
	}{
		{"Inside", insideKx},
		{"ToLightLine", linspace(0, 2*math.Pi*150e12/C0, 51)},
	}
	stacks := []struct {
		name string
		n    []complex128
		d    []float64
	}{
		{"Single", reals(1, 1.5, 1), []float64{1e-6}},
		{"Double", reals(1, 1.5, 3.5, 1), []float64{1e-6, 1.33e-6}},
	}

	for _, g := range grids {
		for _, st := range stacks {
			for _, pol := range []fresnel.Polarization{fresnel.S, fresnel.P} {
				kx := g.kx
				t.Run(g.name+"_"+st.name+"_"+pol.String(), func(t *testing.T) {
					t.Parallel()
					res, err := NewEngine(backend.NewSerial()).RT(pol, omega, kx, st.n, st.d)
					if err != nil {
						t.Fatalf("RT returned error: %v", err)
					}
					refT, refR := referenceRT(t, pol, omega, kx, st.n, st.d)
					if dist := distance(t, res, true, refT); dist > referenceTolerance {
						t.Errorf("t differs from reference: L2 distance %g > %g", dist, referenceTolerance)
					}
					if dist := distance(t, res, false, refR); dist > referenceTolerance {
						t.Errorf("r differs from reference: L2 distance %g > %g", dist, referenceTolerance)
					}
					if nf := res.NonFinite(); nf != 0 {
						t.Errorf("expected a finite result, got %d non-finite points", nf)
					}
				})
			}
		}
	}
}

func TestRT_Shape(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(3, 4)
	res, err := RT(fresnel.S, omega, kx, reals(1, 2, 1), []float64{1e-6})
	if err != nil {
		t.Fatalf("RT returned error: %v", err)
	}
	nk, nw := res.Dims()
	if nk != 3 || nw != 4 {
		t.Errorf("expected dims (3, 4), got (%d, %d)", nk, nw)
	}
	if got := res.R.Shape().String(); got != res.T.Shape().String() {
		t.Errorf("t and r shapes differ: %s vs %s", res.T.Shape(), got)
	}
}

func TestRT_EmptyGrid(t *testing.T) {
	t.Parallel()

	omega, _ := testGrid(0, 5)
	res, err := NewEngine(backend.NewSerial()).RT(fresnel.P, omega, []float64{}, reals(1, 2, 1), []float64{1e-6})
	if err != nil {
		t.Fatalf("RT returned error for an empty kx grid: %v", err)
	}
	nk, nw := res.Dims()
	if nk != 0 || nw != 5 {
		t.Errorf("expected dims (0, 5), got (%d, %d)", nk, nw)
	}
}

// At normal incidence the two polarizations see the same interfaces; only the
// sign convention of the p reflection amplitude differs.
func TestRT_NormalIncidencePolarizationIndependence(t *testing.T) {
	t.Parallel()

	omega, _ := testGrid(0, 25)
	kx := []float64{0}
	n := reals(1.3, 2.2, 1.3)
	d := []float64{0.8e-6}
	eng := NewEngine(backend.NewSerial())

	s, err := eng.RT(fresnel.S, omega, kx, n, d)
	if err != nil {
		t.Fatalf("s evaluation failed: %v", err)
	}
	p, err := eng.RT(fresnel.P, omega, kx, n, d)
	if err != nil {
		t.Fatalf("p evaluation failed: %v", err)
	}
	for w := range omega {
		ts, rs := s.At(0, w)
		tp, rp := p.At(0, w)
		if cmplx.Abs(ts-tp) > 1e-12 {
			t.Errorf("w=%d: t_s=%v t_p=%v", w, ts, tp)
		}
		if math.Abs(cmplx.Abs(rs)-cmplx.Abs(rp)) > 1e-12 {
			t.Errorf("w=%d: |r_s|=%g |r_p|=%g", w, cmplx.Abs(rs), cmplx.Abs(rp))
		}
		if cmplx.Abs(rs+rp) > 1e-12 {
			t.Errorf("w=%d: expected r_p = -r_s, got r_s=%v r_p=%v", w, rs, rp)
		}
	}
}

func TestRT_ZeroThicknessLayerMerges(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(11, 13)
	eng := NewEngine(backend.NewSerial())
	for _, pol := range []fresnel.Polarization{fresnel.S, fresnel.P} {
		merged, err := eng.RT(pol, omega, kx, reals(1, 1.5, 3.5, 1), []float64{1e-6, 1.33e-6})
		if err != nil {
			t.Fatalf("%s: %v", pol, err)
		}
		split, err := eng.RT(pol, omega, kx, reals(1, 1.5, 2.2, 3.5, 1), []float64{1e-6, 0, 1.33e-6})
		if err != nil {
			t.Fatalf("%s: %v", pol, err)
		}
		for i := range kx {
			for j := range omega {
				t1, r1 := merged.At(i, j)
				t2, r2 := split.At(i, j)
				if cmplx.Abs(t1-t2) > 1e-9 || cmplx.Abs(r1-r2) > 1e-9 {
					t.Fatalf("%s (%d,%d): merged (t=%v r=%v) vs split (t=%v r=%v)", pol, i, j, t1, r1, t2, r2)
				}
			}
		}
	}
}

func TestRT_EnergyConservation(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(21, 21)
	for _, pol := range []fresnel.Polarization{fresnel.S, fresnel.P} {
		prob := Problem{
			Polarization: pol,
			Omega:        omega,
			Kx:           kx,
			Index:        reals(1, 1.5, 3.5, 1.5, 2.5, 1.2),
			Thickness:    []float64{1e-6, 0.4e-6, 2e-6, 0.7e-6},
		}
		res, err := NewEngine(backend.NewSerial()).Solve(context.Background(), prob, nil)
		if err != nil {
			t.Fatalf("%s: %v", pol, err)
		}
		pw, err := PowerOf(prob, res)
		if err != nil {
			t.Fatalf("%s: PowerOf: %v", pol, err)
		}
		if e := pw.MaxEnergyError(); e > 1e-9 {
			t.Errorf("%s: |R+T-1| reaches %g", pol, e)
		}
	}
}

func TestRT_AbsorbingLayer(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(5, 7)
	prob := Problem{
		Polarization: fresnel.S,
		Omega:        omega,
		Kx:           kx,
		Index:        []complex128{1, 3.5 + 0.2i, 1},
		Thickness:    []float64{1e-6},
	}
	res, err := NewEngine(backend.NewSerial()).Solve(context.Background(), prob, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	pw, err := PowerOf(prob, res)
	if err != nil {
		t.Fatalf("PowerOf: %v", err)
	}
	for i := range kx {
		for j := range omega {
			if a := pw.Absorptance[i][j]; a <= 0 || a >= 1 {
				t.Errorf("(%d,%d): absorptance %g outside (0, 1)", i, j, a)
			}
		}
	}
}

func TestRT_EvanescentExitReflectsEverything(t *testing.T) {
	t.Parallel()

	omega := []float64{2 * math.Pi * 200e12}
	kx := []float64{1.4 * omega[0] / C0}
	prob := Problem{
		Polarization: fresnel.P,
		Omega:        omega,
		Kx:           kx,
		Index:        reals(1.5, 1.2, 1),
		Thickness:    []float64{0.5e-6},
	}
	res, err := NewEngine(backend.NewSerial()).Solve(context.Background(), prob, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.NonFinite() != 0 {
		t.Fatalf("expected finite amplitudes past the critical angle")
	}
	_, r := res.At(0, 0)
	if math.Abs(cmplx.Abs(r)-1) > 1e-9 {
		t.Errorf("expected total reflection, got |r| = %g", cmplx.Abs(r))
	}
	pw, err := PowerOf(prob, res)
	if err != nil {
		t.Fatalf("PowerOf: %v", err)
	}
	if pw.Transmittance[0][0] != 0 {
		t.Errorf("expected zero transmittance into an evanescent exit, got %g", pw.Transmittance[0][0])
	}
}

func TestRT_DegenerateGridPointIsNonFinite(t *testing.T) {
	t.Parallel()

	omega := []float64{2 * math.Pi * 150e12}
	// The second kx lies on the light line of the incident medium: kz = 0.
	kx := []float64{0, omega[0] / C0}
	res, err := NewEngine(backend.NewSerial()).RT(fresnel.S, omega, kx, reals(1, 1.5, 1), []float64{1e-6})
	if err != nil {
		t.Fatalf("degenerate configurations must not be errors, got %v", err)
	}
	if nf := res.NonFinite(); nf != 1 {
		t.Errorf("expected exactly one non-finite point, got %d", nf)
	}
	tt, rr := res.At(0, 0)
	if !finite(tt) || !finite(rr) {
		t.Errorf("normal incidence point should stay finite, got t=%v r=%v", tt, rr)
	}
}

func TestRT_InvalidArguments(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(2, 2)
	tests := []struct {
		name string
		pol  fresnel.Polarization
		n    []complex128
		d    []float64
	}{
		{"UnknownPolarization", fresnel.Polarization("x"), reals(1, 2, 1), []float64{1e-6}},
		{"BareInterface", fresnel.S, reals(1, 2), []float64{}},
		{"TooManyThicknesses", fresnel.P, reals(1, 2, 1), []float64{1e-6, 1e-6}},
		{"TooFewThicknesses", fresnel.S, reals(1, 2, 3, 1), []float64{1e-6}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewEngine(backend.NewSerial()).RT(tc.pol, omega, kx, tc.n, tc.d)
			if !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Errorf("expected an invalid argument error, got %v", err)
			}
		})
	}
}

func TestRT_Idempotent(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(7, 9)
	eng := NewEngine(backend.NewSerial())
	a, err := eng.RT(fresnel.P, omega, kx, reals(1, 1.5, 3.5, 1), []float64{1e-6, 1.33e-6})
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.RT(fresnel.P, omega, kx, reals(1, 1.5, 3.5, 1), []float64{1e-6, 1.33e-6})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range a.T.Data() {
		if b.T.Data()[i] != v || b.R.Data()[i] != a.R.Data()[i] {
			t.Fatalf("repeated evaluation differs at flat index %d", i)
		}
	}
}

func TestRT_BackendsAgree(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(17, 19)
	n := reals(1, 1.5, 3.5, 1.5, 1)
	d := []float64{1e-6, 1e-6, 1e-6}
	opts := backend.Options{Workers: 4, Threshold: 1}

	want, err := NewEngine(backend.NewSerial()).RT(fresnel.S, omega, kx, n, d)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []backend.Backend{backend.NewParallel(opts), backend.NewGonum(opts)} {
		got, err := NewEngine(b).RT(fresnel.S, omega, kx, n, d)
		if err != nil {
			t.Fatalf("%s: %v", b.Name(), err)
		}
		for i, v := range want.T.Data() {
			if cmplx.Abs(got.T.Data()[i]-v) > 1e-12*(1+cmplx.Abs(v)) {
				t.Fatalf("%s: t differs at flat index %d: %v vs %v", b.Name(), i, got.T.Data()[i], v)
			}
			rv := want.R.Data()[i]
			if cmplx.Abs(got.R.Data()[i]-rv) > 1e-12*(1+cmplx.Abs(rv)) {
				t.Fatalf("%s: r differs at flat index %d: %v vs %v", b.Name(), i, got.R.Data()[i], rv)
			}
		}
	}
}

func TestSolve_ReportsProgressPerLayer(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(3, 3)
	prob := Problem{
		Polarization: fresnel.S,
		Omega:        omega,
		Kx:           kx,
		Index:        reals(1, 1.5, 2, 2.5, 1),
		Thickness:    []float64{1e-6, 1e-6, 1e-6},
	}
	var got []float64
	_, err := NewEngine(backend.NewSerial()).Solve(context.Background(), prob, func(p float64) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 progress reports, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("progress is not increasing: %v", got)
		}
	}
	if got[len(got)-1] != 1.0 {
		t.Errorf("final progress should be 1.0, got %v", got[len(got)-1])
	}
}

func TestSolve_ContextCancellation(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(3, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(backend.NewSerial()).Solve(ctx, Problem{
		Polarization: fresnel.S,
		Omega:        omega,
		Kx:           kx,
		Index:        reals(1, 1.5, 1),
		Thickness:    []float64{1e-6},
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewEngine_NilBackendPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected NewEngine(nil) to panic")
		}
	}()
	NewEngine(nil)
}

func TestPowerOf_DimensionMismatch(t *testing.T) {
	t.Parallel()

	omega, kx := testGrid(3, 3)
	prob := Problem{Polarization: fresnel.S, Omega: omega, Kx: kx, Index: reals(1, 2, 1), Thickness: []float64{1e-6}}
	res, err := NewEngine(backend.NewSerial()).Solve(context.Background(), prob, nil)
	if err != nil {
		t.Fatal(err)
	}
	prob.Kx = kx[:2]
	if _, err := PowerOf(prob, res); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected an invalid argument error, got %v", err)
	}
}
