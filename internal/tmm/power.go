package tmm

import (
	"math"
	"math/cmplx"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
)

// Power holds the intensity quantities derived from a Result, indexed
// [k][w] like the amplitudes.
type Power struct {
	// Reflectance is |r|^2.
	Reflectance [][]float64
	// Transmittance is |t|^2 weighted by the exit/incident admittance ratio.
	Transmittance [][]float64
	// Absorptance is 1 - R - T for the stack as a whole.
	Absorptance [][]float64
}

// PowerOf converts the amplitudes of res into reflectance, transmittance and
// absorptance. The transmittance uses the admittance ratio of the two
// half-spaces: Re(n_out cos_out)/Re(n_in cos_in) for s and
// Re(n_out conj(cos_out))/Re(n_in conj(cos_in)) for p, with kz/k standing in
// for the cosines.
//
// Parameters:
//   - prob: The problem res was computed from.
//   - res: The amplitudes.
//
// Returns:
//   - *Power: The intensity grids.
//   - error: An InvalidArgumentError if the problem is invalid or does not
//     match the result dimensions.
func PowerOf(prob Problem, res *Result) (*Power, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	nk, nw := res.Dims()
	if nk != len(prob.Kx) || nw != len(prob.Omega) {
		return nil, apperrors.NewInvalidArgument("result", nil,
			"result grid %dx%d does not match problem grid %dx%d", nk, nw, len(prob.Kx), len(prob.Omega))
	}

	nIn, nOut := prob.Index[0], prob.Index[len(prob.Index)-1]
	pw := &Power{
		Reflectance:   make([][]float64, nk),
		Transmittance: make([][]float64, nk),
		Absorptance:   make([][]float64, nk),
	}
	for i, kx := range prob.Kx {
		pw.Reflectance[i] = make([]float64, nw)
		pw.Transmittance[i] = make([]float64, nw)
		pw.Absorptance[i] = make([]float64, nw)
		for j, omega := range prob.Omega {
			t, r := res.At(i, j)
			cosIn := NormalizedKz(nIn, omega, kx)
			cosOut := NormalizedKz(nOut, omega, kx)
			if prob.Polarization == fresnel.P {
				cosIn, cosOut = cmplx.Conj(cosIn), cmplx.Conj(cosOut)
			}
			ratio := real(nOut*cosOut) / real(nIn*cosIn)
			rr := sqAbs(r)
			tt := ratio * sqAbs(t)
			pw.Reflectance[i][j] = rr
			pw.Transmittance[i][j] = tt
			pw.Absorptance[i][j] = 1 - rr - tt
		}
	}
	return pw, nil
}

// MaxEnergyError returns the largest |R + T - 1| over the finite grid points.
// For a lossless stack at propagating angles it measures the numerical error
// of the evaluation.
func (p *Power) MaxEnergyError() float64 {
	worst := 0.0
	for i := range p.Reflectance {
		for j := range p.Reflectance[i] {
			e := math.Abs(p.Reflectance[i][j] + p.Transmittance[i][j] - 1)
			if !math.IsNaN(e) && !math.IsInf(e, 0) && e > worst {
				worst = e
			}
		}
	}
	return worst
}

// NormalizedKz returns kz/k for a medium of index n, the cosine of the
// (possibly complex) propagation angle, using the same principal square root
// as the engine.
func NormalizedKz(n complex128, omega, kx float64) complex128 {
	k := n * complex(omega/C0, 0)
	kz := cmplx.Sqrt(k*k - complex(kx*kx, 0))
	return kz / k
}

func sqAbs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
