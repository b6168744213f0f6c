package service

import (
	"math"
	"strconv"
	"time"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
	"github.com/agbru/tmmcalc/internal/grid"
	"github.com/agbru/tmmcalc/internal/stack"
	"github.com/agbru/tmmcalc/internal/tmm"
)

// Request describes one evaluation. Each grid axis is given either as an
// explicit list or as a range; the incidence-angle form of the kx axis needs
// a single frequency.
type Request struct {
	// Polarization is "s" or "p"; empty means s.
	Polarization string `json:"pol"`
	// Backend selects the numeric backend; empty means the service default.
	Backend string `json:"backend,omitempty"`
	// Omega lists angular frequencies in rad/s.
	Omega []float64 `json:"omega,omitempty"`
	// Frequency is a frequency range in Hz, used when Omega is empty.
	Frequency *grid.Range `json:"frequency,omitempty"`
	// Kx lists in-plane wavevectors in rad/m.
	Kx []float64 `json:"kx,omitempty"`
	// Wavevector is a kx range in rad/m, used when Kx is empty.
	Wavevector *grid.Range `json:"wavevector,omitempty"`
	// Angle is an incidence-angle range in degrees, used when neither Kx nor
	// Wavevector is given.
	Angle *grid.Range `json:"angle,omitempty"`
	// Stack is the layer description.
	Stack stack.Document `json:"stack"`
}

// Dims returns the grid dimensions the request would produce without
// materializing the grids.
func (r Request) Dims() (nk, nw int) {
	switch {
	case len(r.Omega) > 0:
		nw = len(r.Omega)
	case r.Frequency != nil:
		nw = max(r.Frequency.Num, 0)
	}
	switch {
	case len(r.Kx) > 0:
		nk = len(r.Kx)
	case r.Wavevector != nil:
		nk = max(r.Wavevector.Num, 0)
	case r.Angle != nil:
		nk = max(r.Angle.Num, 0)
	}
	return nk, nw
}

// Problem resolves the request into an engine problem.
//
// Returns:
//   - tmm.Problem: The validated problem.
//   - error: An InvalidArgumentError for a malformed request.
func (r Request) Problem() (tmm.Problem, error) {
	pol := fresnel.S
	if r.Polarization != "" {
		var err error
		if pol, err = fresnel.ParsePolarization(r.Polarization); err != nil {
			return tmm.Problem{}, err
		}
	}

	if len(r.Omega) == 0 && r.Frequency == nil {
		return tmm.Problem{}, apperrors.NewInvalidArgument("omega", nil, "either omega or frequency is required")
	}
	if len(r.Kx) == 0 && r.Wavevector == nil && r.Angle == nil {
		return tmm.Problem{}, apperrors.NewInvalidArgument("kx", nil, "one of kx, wavevector or angle is required")
	}

	st, err := r.Stack.Stack()
	if err != nil {
		return tmm.Problem{}, err
	}

	var omega []float64
	switch {
	case len(r.Omega) > 0:
		omega = append([]float64(nil), r.Omega...)
	case r.Frequency != nil:
		if err := r.Frequency.Validate(); err != nil {
			return tmm.Problem{}, err
		}
		omega = grid.AngularFrequencies(*r.Frequency)
	}

	var kx []float64
	switch {
	case len(r.Kx) > 0:
		kx = append([]float64(nil), r.Kx...)
	case r.Wavevector != nil:
		if err := r.Wavevector.Validate(); err != nil {
			return tmm.Problem{}, err
		}
		kx = r.Wavevector.Values()
	case r.Angle != nil:
		if err := r.Angle.Validate(); err != nil {
			return tmm.Problem{}, err
		}
		if len(omega) != 1 {
			return tmm.Problem{}, apperrors.NewInvalidArgument("angle", len(omega),
				"an angle sweep needs exactly one frequency, got %d", len(omega))
		}
		kx = grid.WavevectorsForAngles(real(st.Index[0]), omega[0], *r.Angle)
	}

	for _, v := range append(append([]float64(nil), omega...), kx...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return tmm.Problem{}, apperrors.NewInvalidArgument("grid", v, "grid values must be finite")
		}
	}

	prob := tmm.Problem{
		Polarization: pol,
		Omega:        omega,
		Kx:           kx,
		Index:        st.Index,
		Thickness:    st.Thickness,
	}
	return prob, prob.Validate()
}

// Float is a float64 that encodes non-finite values as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// ComplexGrid splits a complex (Nk, Nw) grid into real and imaginary parts.
type ComplexGrid struct {
	Re [][]Float `json:"re"`
	Im [][]Float `json:"im"`
}

// Response carries the amplitudes and derived intensities of one evaluation.
type Response struct {
	Backend        string        `json:"backend"`
	Polarization   string        `json:"pol"`
	Kx             []float64     `json:"kx"`
	Omega          []float64     `json:"omega"`
	T              ComplexGrid   `json:"t"`
	R              ComplexGrid   `json:"r"`
	Reflectance    [][]Float     `json:"reflectance"`
	Transmittance  [][]Float     `json:"transmittance"`
	Absorptance    [][]Float     `json:"absorptance"`
	NonFinite      int           `json:"non_finite"`
	MaxEnergyError Float         `json:"max_energy_error"`
	Duration       time.Duration `json:"-"`
	DurationMillis float64       `json:"duration_ms"`

	// Problem and Result keep the raw values for in-process callers.
	Problem tmm.Problem `json:"-"`
	Result  *tmm.Result `json:"-"`
	Power   *tmm.Power  `json:"-"`
}

// NewResponse packs an evaluation into its wire form.
func NewResponse(name string, prob tmm.Problem, res *tmm.Result, pw *tmm.Power, elapsed time.Duration) *Response {
	nk, nw := res.Dims()
	resp := &Response{
		Backend:        name,
		Polarization:   prob.Polarization.String(),
		Kx:             prob.Kx,
		Omega:          prob.Omega,
		T:              ComplexGrid{Re: grid2(nk, nw), Im: grid2(nk, nw)},
		R:              ComplexGrid{Re: grid2(nk, nw), Im: grid2(nk, nw)},
		Reflectance:    floats2(pw.Reflectance),
		Transmittance:  floats2(pw.Transmittance),
		Absorptance:    floats2(pw.Absorptance),
		NonFinite:      res.NonFinite(),
		MaxEnergyError: Float(pw.MaxEnergyError()),
		Duration:       elapsed,
		DurationMillis: float64(elapsed.Microseconds()) / 1000,
		Problem:        prob,
		Result:         res,
		Power:          pw,
	}
	for i := 0; i < nk; i++ {
		for j := 0; j < nw; j++ {
			t, r := res.At(i, j)
			resp.T.Re[i][j], resp.T.Im[i][j] = Float(real(t)), Float(imag(t))
			resp.R.Re[i][j], resp.R.Im[i][j] = Float(real(r)), Float(imag(r))
		}
	}
	return resp
}

func grid2(nk, nw int) [][]Float {
	out := make([][]Float, nk)
	for i := range out {
		out[i] = make([]Float, nw)
	}
	return out
}

func floats2(in [][]float64) [][]Float {
	out := make([][]Float, len(in))
	for i, row := range in {
		out[i] = make([]Float, len(row))
		for j, v := range row {
			out[i][j] = Float(v)
		}
	}
	return out
}
