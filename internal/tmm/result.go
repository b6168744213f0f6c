package tmm

import (
	"math/cmplx"

	"github.com/agbru/tmmcalc/internal/tensor"
)

// Result holds the complex amplitudes of one evaluation, both shaped
// (Nk, Nw).
type Result struct {
	// T is the transmission amplitude t[k, w].
	T *tensor.Tensor
	// R is the reflection amplitude r[k, w].
	R *tensor.Tensor
}

// Dims returns the grid dimensions (Nk, Nw).
func (r *Result) Dims() (nk, nw int) {
	return r.T.Dim(0), r.T.Dim(1)
}

// At returns the amplitudes at grid point (k, w).
func (r *Result) At(k, w int) (t, refl complex128) {
	return r.T.At(k, w), r.R.At(k, w)
}

// NonFinite counts grid points where t or r holds an infinity or NaN. A
// non-zero count signals a degenerate physical configuration such as a
// vanishing interface denominator or zero transmission.
func (r *Result) NonFinite() int {
	count := 0
	td, rd := r.T.Data(), r.R.Data()
	for i := range td {
		if !finite(td[i]) || !finite(rd[i]) {
			count++
		}
	}
	return count
}

func finite(z complex128) bool {
	return !cmplx.IsNaN(z) && !cmplx.IsInf(z)
}
