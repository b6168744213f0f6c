// Package grid builds the (kx, omega) sample grids an evaluation runs over.
package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/tmm"
)

// Range is an inclusive, evenly spaced sequence of Num samples from Start to
// Stop.
type Range struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Num   int     `json:"num"`
}

// ParseRange parses "start:stop:num". A bare number is a single sample and
// "start:stop" defaults to 50 samples.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var r Range
	var err error
	switch len(parts) {
	case 1:
		if r.Start, err = parseFloat(parts[0]); err != nil {
			return Range{}, err
		}
		r.Stop, r.Num = r.Start, 1
	case 2, 3:
		if r.Start, err = parseFloat(parts[0]); err != nil {
			return Range{}, err
		}
		if r.Stop, err = parseFloat(parts[1]); err != nil {
			return Range{}, err
		}
		r.Num = 50
		if len(parts) == 3 {
			if r.Num, err = strconv.Atoi(strings.TrimSpace(parts[2])); err != nil {
				return Range{}, apperrors.NewInvalidArgument("range", s, "sample count %q is not an integer", parts[2])
			}
		}
	default:
		return Range{}, apperrors.NewInvalidArgument("range", s, "expected start:stop:num, got %q", s)
	}
	return r, r.Validate()
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, apperrors.NewInvalidArgument("range", s, "%q is not a number", s)
	}
	return v, nil
}

// Validate rejects negative sample counts and non-finite bounds.
func (r Range) Validate() error {
	if r.Num < 0 {
		return apperrors.NewInvalidArgument("range", r.Num, "sample count must be non-negative")
	}
	for _, v := range []float64{r.Start, r.Stop} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.NewInvalidArgument("range", v, "bounds must be finite")
		}
	}
	return nil
}

// Values returns the samples. Both ends are included.
func (r Range) Values() []float64 {
	switch {
	case r.Num <= 0:
		return []float64{}
	case r.Num == 1:
		return []float64{r.Start}
	}
	return floats.Span(make([]float64, r.Num), r.Start, r.Stop)
}

// String formats the range as start:stop:num.
func (r Range) String() string {
	return fmt.Sprintf("%g:%g:%d", r.Start, r.Stop, r.Num)
}

// AngularFrequencies converts a frequency range in Hz to angular frequencies
// in rad/s.
func AngularFrequencies(hz Range) []float64 {
	omega := hz.Values()
	floats.Scale(2*math.Pi, omega)
	return omega
}

// WavevectorsForAngles returns kx = nIn * omega/c * sin(theta) for a range of
// incidence angles in degrees at one angular frequency.
func WavevectorsForAngles(nIn, omega float64, degrees Range) []float64 {
	kx := degrees.Values()
	k := nIn * omega / tmm.C0
	for i, deg := range kx {
		kx[i] = k * math.Sin(deg*math.Pi/180)
	}
	return kx
}

// LightLine returns the largest kx that still propagates in a medium of
// index n at angular frequency omega.
func LightLine(n, omega float64) float64 {
	return n * omega / tmm.C0
}
