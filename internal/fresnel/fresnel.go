// Package fresnel computes the single-interface Fresnel reflection and
// transmission amplitudes for s and p polarization. The batched functions run
// on any numeric backend and broadcast their operands; Scalar evaluates one
// interface directly.
//
// The normalized wavevector kzn = kz/k plays the role of cos(theta), so the
// formulas stay valid past the critical angle where the angle itself is
// complex.
package fresnel

import (
	"strings"

	"github.com/agbru/tmmcalc/internal/backend"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/tensor"
)

// Polarization selects the field orientation relative to the plane of
// incidence.
type Polarization string

const (
	// S (TE): electric field perpendicular to the plane of incidence.
	S Polarization = "s"
	// P (TM): electric field in the plane of incidence.
	P Polarization = "p"
)

// Validate reports an InvalidArgumentError for anything other than S or P.
func (p Polarization) Validate() error {
	if p != S && p != P {
		return apperrors.NewInvalidArgument("pol", string(p), "polarization must be 's' or 'p', got %q", string(p))
	}
	return nil
}

func (p Polarization) String() string { return string(p) }

// ParsePolarization accepts "s" or "p" in either case, plus the TE/TM
// aliases.
func ParsePolarization(s string) (Polarization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "te":
		return S, nil
	case "p", "tm":
		return P, nil
	}
	return "", apperrors.NewInvalidArgument("pol", s, "polarization must be 's' or 'p', got %q", s)
}

// Coefficients returns the reflection and transmission amplitudes of the
// interfaces between media n1 and n2 with normalized wavevectors kzn1 and
// kzn2:
//
//	s: r = (n1 kzn1 - n2 kzn2) / (n1 kzn1 + n2 kzn2),  t = 2 n1 kzn1 / (n1 kzn1 + n2 kzn2)
//	p: r = (n2 kzn1 - n1 kzn2) / (n2 kzn1 + n1 kzn2),  t = 2 n1 kzn1 / (n2 kzn1 + n1 kzn2)
//
// A zero denominator produces non-finite values, not an error.
//
// Parameters:
//   - b: The numeric backend to run on.
//   - pol: The polarization; validated before any arithmetic.
//   - n1, n2, kzn1, kzn2: Mutually broadcastable tensors.
//
// Returns:
//   - r, t: The amplitudes with the broadcast shape of the inputs.
//   - error: An InvalidArgumentError for a bad polarization, or a shape error.
func Coefficients(b backend.Backend, pol Polarization, n1, n2, kzn1, kzn2 *tensor.Tensor) (r, t *tensor.Tensor, err error) {
	if err := pol.Validate(); err != nil {
		return nil, nil, err
	}
	p := backend.NewPipeline(b)
	a, c := terms(p, pol, n1, n2, kzn1, kzn2)
	den := p.Add(a, c)
	r = p.Divide(p.Sub(a, c), den)
	t = p.Divide(p.Mul(tensor.Scalar(2), p.Mul(n1, kzn1)), den)
	if err := p.Err(); err != nil {
		return nil, nil, err
	}
	return r, t, nil
}

// Reflection returns only the reflection amplitude. See Coefficients.
func Reflection(b backend.Backend, pol Polarization, n1, n2, kzn1, kzn2 *tensor.Tensor) (*tensor.Tensor, error) {
	if err := pol.Validate(); err != nil {
		return nil, err
	}
	p := backend.NewPipeline(b)
	a, c := terms(p, pol, n1, n2, kzn1, kzn2)
	r := p.Divide(p.Sub(a, c), p.Add(a, c))
	return r, p.Err()
}

// Transmission returns only the transmission amplitude. See Coefficients.
func Transmission(b backend.Backend, pol Polarization, n1, n2, kzn1, kzn2 *tensor.Tensor) (*tensor.Tensor, error) {
	if err := pol.Validate(); err != nil {
		return nil, err
	}
	p := backend.NewPipeline(b)
	a, c := terms(p, pol, n1, n2, kzn1, kzn2)
	t := p.Divide(p.Mul(tensor.Scalar(2), p.Mul(n1, kzn1)), p.Add(a, c))
	return t, p.Err()
}

// terms returns the two admittance-like products whose difference and sum
// form the Fresnel ratios.
func terms(p *backend.Pipeline, pol Polarization, n1, n2, kzn1, kzn2 *tensor.Tensor) (a, c *tensor.Tensor) {
	if pol == S {
		return p.Mul(n1, kzn1), p.Mul(n2, kzn2)
	}
	return p.Mul(n2, kzn1), p.Mul(n1, kzn2)
}

// Scalar evaluates the Fresnel amplitudes of a single interface.
func Scalar(pol Polarization, n1, n2, kzn1, kzn2 complex128) (r, t complex128, err error) {
	if err := pol.Validate(); err != nil {
		return 0, 0, err
	}
	a, c := n1*kzn1, n2*kzn2
	if pol == P {
		a, c = n2*kzn1, n1*kzn2
	}
	return (a - c) / (a + c), 2 * n1 * kzn1 / (a + c), nil
}
