package config

import (
	"strings"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
	"github.com/agbru/tmmcalc/internal/grid"
	"github.com/agbru/tmmcalc/internal/stack"
	"github.com/agbru/tmmcalc/internal/tmm"
)

// Stack resolves the layer description. StackFile wins over Index and
// Thickness; a value starting with '{' is parsed as an inline JSON5 document
// rather than a path.
func (c AppConfig) Stack() (stack.Stack, error) {
	if c.StackFile != "" {
		if strings.HasPrefix(strings.TrimSpace(c.StackFile), "{") {
			return stack.Parse([]byte(c.StackFile))
		}
		return stack.Load(c.StackFile)
	}

	index, err := stack.ParseIndexList(c.Index)
	if err != nil {
		return stack.Stack{}, err
	}
	thickness, err := stack.ParseFloatList(c.Thickness)
	if err != nil {
		return stack.Stack{}, err
	}
	scale, err := stack.UnitScale(c.Unit)
	if err != nil {
		return stack.Stack{}, err
	}
	for i := range thickness {
		thickness[i] *= scale
	}
	st := stack.Stack{Index: index, Thickness: thickness}
	return st, st.Validate()
}

// Grids materializes the angular frequency and wavevector axes. For an angle
// sweep, kx follows from the real part of the incident index nIn.
//
// Returns:
//   - omega: Angular frequencies in rad/s.
//   - kx: In-plane wavevectors in rad/m.
//   - err: An InvalidArgumentError for a malformed range.
func (c AppConfig) Grids(nIn complex128) (omega, kx []float64, err error) {
	freq, err := grid.ParseRange(c.Frequencies)
	if err != nil {
		return nil, nil, err
	}
	omega = grid.AngularFrequencies(freq)

	if c.Angles != "" {
		angles, err := grid.ParseRange(c.Angles)
		if err != nil {
			return nil, nil, err
		}
		if len(omega) != 1 {
			return nil, nil, apperrors.NewInvalidArgument("angle", c.Angles,
				"an angle sweep needs a single frequency, got %d", len(omega))
		}
		return omega, grid.WavevectorsForAngles(real(nIn), omega[0], angles), nil
	}

	wv, err := grid.ParseRange(c.Wavevectors)
	if err != nil {
		return nil, nil, err
	}
	return omega, wv.Values(), nil
}

// Problems builds one engine problem per requested polarization, sharing the
// stack and the grids.
func (c AppConfig) Problems() ([]tmm.Problem, stack.Stack, error) {
	pols, err := c.Polarizations()
	if err != nil {
		return nil, stack.Stack{}, err
	}
	st, err := c.Stack()
	if err != nil {
		return nil, stack.Stack{}, err
	}
	omega, kx, err := c.Grids(st.Index[0])
	if err != nil {
		return nil, stack.Stack{}, err
	}

	probs := make([]tmm.Problem, 0, len(pols))
	for _, pol := range pols {
		probs = append(probs, newProblem(pol, omega, kx, st))
	}
	return probs, st, nil
}

func newProblem(pol fresnel.Polarization, omega, kx []float64, st stack.Stack) tmm.Problem {
	return tmm.Problem{
		Polarization: pol,
		Omega:        omega,
		Kx:           kx,
		Index:        st.Index,
		Thickness:    st.Thickness,
	}
}
