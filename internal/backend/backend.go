// Package backend defines the numeric capability set the transfer-matrix
// engine is written against, together with the interchangeable
// implementations that provide it. Every implementation must produce the same
// values (within floating point tolerance) for the same inputs; they differ
// only in how the work is scheduled and which matrix-multiply kernel runs.
//
// All tensors store complex128 elements. Real-valued inputs are promoted when
// they are turned into tensors, and Cast to Float64 projects onto the real
// axis.
package backend

import (
	"runtime"

	"github.com/agbru/tmmcalc/internal/tensor"
)

// Backend is the capability set of a vectorized numeric array library.
// Binary elementwise operations broadcast their operands with NumPy rules.
type Backend interface {
	// Name returns the registry name of the backend (e.g., "serial").
	Name() string

	// Add, Sub, Mul and Divide are broadcasting elementwise arithmetic.
	Add(a, b *tensor.Tensor) (*tensor.Tensor, error)
	Sub(a, b *tensor.Tensor) (*tensor.Tensor, error)
	Mul(a, b *tensor.Tensor) (*tensor.Tensor, error)
	Divide(a, b *tensor.Tensor) (*tensor.Tensor, error)

	// Sqrt is the principal complex square root: Re >= 0, and values on the
	// negative real axis map to the positive imaginary axis.
	Sqrt(a *tensor.Tensor) (*tensor.Tensor, error)
	Square(a *tensor.Tensor) (*tensor.Tensor, error)
	Exp(a *tensor.Tensor) (*tensor.Tensor, error)

	// Complex builds re + i*im from the real parts of its operands.
	Complex(re, im *tensor.Tensor) (*tensor.Tensor, error)
	// Cast converts the element type. Casting to Complex128 is the identity.
	Cast(a *tensor.Tensor, dt tensor.DType) (*tensor.Tensor, error)

	// Reshape reinterprets the elements with new dimensions; at most one
	// dimension may be -1 and is inferred.
	Reshape(a *tensor.Tensor, dims ...int) (*tensor.Tensor, error)
	// Transpose permutes the axes: output axis i is input axis perm[i].
	Transpose(a *tensor.Tensor, perm ...int) (*tensor.Tensor, error)
	// Stack joins same-shaped tensors along a new axis.
	Stack(axis int, ts ...*tensor.Tensor) (*tensor.Tensor, error)

	// MatMul multiplies the matrices held in the two trailing axes,
	// broadcasting the leading batch axes.
	MatMul(a, b *tensor.Tensor) (*tensor.Tensor, error)
	// Diag turns the last axis into diagonal matrices: (..., n) -> (..., n, n).
	Diag(a *tensor.Tensor) (*tensor.Tensor, error)
	// Eye returns n x n identity matrices with the given batch shape.
	Eye(n int, batch ...int) (*tensor.Tensor, error)
	// Roll cyclically shifts elements along axis by shift positions.
	Roll(a *tensor.Tensor, shift, axis int) (*tensor.Tensor, error)
}

// Options tunes how a backend schedules work.
type Options struct {
	// Workers is the maximum number of goroutines a kernel may use.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
	// Threshold is the minimum number of work items (elements, or matrices
	// for MatMul) handed to one goroutine.
	Threshold int
}

// Default scheduling parameters.
const (
	// DefaultThreshold is the default number of work items per chunk.
	DefaultThreshold = 4096
)

// DefaultOptions returns the scheduling options used when none are given.
func DefaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0), Threshold: DefaultThreshold}
}

func (o Options) normalize() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}
