// Package tmm implements the vectorized transfer-matrix method for planar
// multilayer stacks. One evaluation computes the complex transmission and
// reflection amplitudes of a plane wave over a full grid of in-plane
// wavevectors and angular frequencies, batching the 2x2 transfer matrices of
// every grid point through a numeric backend instead of looping point by
// point.
//
// Layer 0 is the incident half-space and layer Nn-1 the exit half-space; the
// Nd = Nn-2 interior layers have finite thickness. Results are indexed
// [kx, omega].
package tmm

import (
	"context"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/fresnel"
	"github.com/agbru/tmmcalc/internal/tensor"
)

// C0 is the speed of light in vacuum, in m/s.
const C0 = 299792458.0

// Engine evaluates multilayer stacks on one numeric backend. An Engine holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	backend backend.Backend
}

// NewEngine binds an engine to a backend. It panics if b is nil.
func NewEngine(b backend.Backend) *Engine {
	if b == nil {
		panic("tmm: the numeric backend cannot be nil")
	}
	return &Engine{backend: b}
}

// Backend returns the backend the engine runs on.
func (e *Engine) Backend() backend.Backend { return e.backend }

// RT computes the transmission and reflection amplitudes of the stack.
//
// Parameters:
//   - pol: The polarization, S or P.
//   - omega: The angular frequencies (rad/s), length Nw.
//   - kx: The in-plane wavevectors (rad/m), length Nk.
//   - index: The refractive indices including both half-spaces, length Nn.
//   - thickness: The interior layer thicknesses (m), length Nn-2 >= 1.
//
// Returns:
//   - *Result: t and r, each shaped (Nk, Nw).
//   - error: An InvalidArgumentError if a precondition is violated. Degenerate
//     configurations are not errors; see Result.NonFinite.
func (e *Engine) RT(pol fresnel.Polarization, omega, kx []float64, index []complex128, thickness []float64) (*Result, error) {
	return e.Solve(context.Background(), Problem{
		Polarization: pol,
		Omega:        omega,
		Kx:           kx,
		Index:        index,
		Thickness:    thickness,
	}, nil)
}

// RT evaluates a stack on the process-wide active backend.
func RT(pol fresnel.Polarization, omega, kx []float64, index []complex128, thickness []float64) (*Result, error) {
	return NewEngine(backend.Active()).RT(pol, omega, kx, index, thickness)
}

// Solve validates the problem and evaluates it. The composite matrix is built
// one layer at a time; between layers the context is checked and report, if
// non-nil, receives the completed fraction.
func (e *Engine) Solve(ctx context.Context, prob Problem, report ProgressReporter) (*Result, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	if report == nil {
		report = func(float64) {}
	}

	nn, nd := len(prob.Index), len(prob.Thickness)
	nk, nw := len(prob.Kx), len(prob.Omega)
	batch := nk * nw
	p := backend.NewPipeline(e.backend)

	// Layers along axis 0, frequency along the last axis, kx in front.
	n := p.Reshape(tensor.FromComplex(prob.Index), -1, 1)
	omega := p.Reshape(tensor.FromReal(prob.Omega), 1, -1)
	kx := p.Reshape(tensor.FromReal(prob.Kx), -1, 1, 1)

	k := p.Divide(p.Mul(n, omega), tensor.Scalar(C0))
	kz := p.Sqrt(p.Sub(p.Square(k), p.Square(kx)))
	kzn := p.Divide(kz, k)

	// (Nk, Nn, Nw) -> (Nn, Nk*Nw)
	kzn = p.Reshape(p.Transpose(kzn, 1, 0, 2), nn, -1)
	kz = p.Reshape(p.Transpose(kz, 1, 0, 2), nn, -1)

	d := p.Reshape(tensor.FromReal(prob.Thickness), -1, 1)
	kzd := p.Reshape(p.Mul(p.Slice(kz, 1, nn-1), d), -1)

	zero := tensor.Scalar(0)
	forward := p.Exp(p.Mul(p.Complex(zero, tensor.Scalar(-1)), kzd))
	backward := p.Exp(p.Mul(p.Complex(zero, tensor.Scalar(1)), kzd))
	prop := p.Reshape(p.Diag(p.Stack(1, forward, backward)), nd, batch, 2, 2)

	eye := p.Eye(2, nd, batch)
	exchange := p.Roll(eye, 1, 2)

	if err := p.Err(); err != nil {
		return nil, err
	}
	rn, tn, err := fresnel.Coefficients(e.backend, prob.Polarization,
		p.Slice(n, 0, nn-1), p.Slice(n, 1, nn), p.Slice(kzn, 0, nn-1), p.Slice(kzn, 1, nn))
	if err != nil {
		return nil, err
	}

	// Each finite layer followed by its trailing interface.
	one := tensor.Scalar(1)
	rTrail := p.Reshape(p.Slice(rn, 1, nn-1), nd, batch, 1, 1)
	tTrail := p.Reshape(p.Slice(tn, 1, nn-1), nd, batch, 1, 1)
	trailing := p.Mul(p.Divide(one, tTrail), p.Add(eye, p.Mul(exchange, rTrail)))
	layers := p.MatMul(prop, p.Cast(trailing, tensor.Complex128))

	// Leading interface, without a propagation factor.
	r0 := p.Reshape(p.Index(rn, 0), -1, 1, 1)
	t0 := p.Reshape(p.Index(tn, 0), -1, 1, 1)
	m := p.Mul(p.Divide(one, t0), p.Add(p.Index(eye, 0), p.Mul(p.Index(exchange, 0), r0)))
	m = p.Cast(m, tensor.Complex128)

	for i := 0; i < nd; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m = p.MatMul(m, p.Index(layers, i))
		if p.Err() != nil {
			break
		}
		report(float64(i+1) / float64(nd))
	}

	m00 := p.Entry(m, 0, 0)
	t := p.Reshape(p.Divide(one, m00), nk, nw)
	r := p.Reshape(p.Divide(p.Entry(m, 1, 0), m00), nk, nw)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return &Result{T: t, R: r}, nil
}
