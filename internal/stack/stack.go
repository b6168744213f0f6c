// Package stack describes planar multilayer stacks: two semi-infinite
// half-spaces enclosing one or more finite layers. Stacks can be built from
// plain lists or parsed from JSON5 documents.
package stack

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"strconv"
	"strings"

	json "github.com/KevinWang15/go-json5"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
)

// Stack is an ordered sequence of layers. Index[0] is the incident medium
// and Index[len-1] the exit medium; Thickness[i] belongs to Index[i+1].
type Stack struct {
	// Name is an optional label used in reports.
	Name string
	// Index holds the complex refractive indices n + i*kappa.
	Index []complex128
	// Thickness holds the finite layer thicknesses in meters.
	Thickness []float64
}

// Layers returns the number of finite layers.
func (s Stack) Layers() int { return len(s.Thickness) }

// TotalThickness returns the summed thickness of the finite layers.
func (s Stack) TotalThickness() float64 {
	sum := 0.0
	for _, d := range s.Thickness {
		sum += d
	}
	return sum
}

// Lossless reports whether every index is real.
func (s Stack) Lossless() bool {
	for _, n := range s.Index {
		if imag(n) != 0 {
			return false
		}
	}
	return true
}

// Validate checks the stack invariants: at least one finite layer, exactly
// len(Index)-2 thicknesses, finite non-zero indices and finite non-negative
// thicknesses.
func (s Stack) Validate() error {
	if len(s.Thickness) < 1 {
		return apperrors.NewInvalidArgument("thickness", len(s.Thickness),
			"a stack needs at least one finite layer between the two half-spaces")
	}
	if len(s.Thickness) != len(s.Index)-2 {
		return apperrors.NewInvalidArgument("thickness", len(s.Thickness),
			"got %d thicknesses for %d indices; expected %d", len(s.Thickness), len(s.Index), len(s.Index)-2)
	}
	for i, n := range s.Index {
		if cmplx.IsNaN(n) || cmplx.IsInf(n) || n == 0 {
			return apperrors.NewInvalidArgument("index", n, "layer %d: index must be finite and non-zero", i)
		}
	}
	for i, d := range s.Thickness {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return apperrors.NewInvalidArgument("thickness", d, "layer %d: thickness must be finite and non-negative", i+1)
		}
	}
	return nil
}

// FromLists builds a stack from real indices, optional extinction
// coefficients and thicknesses. A nil or empty extinction list means a
// lossless stack.
func FromLists(n, kappa, d []float64) (Stack, error) {
	if len(kappa) != 0 && len(kappa) != len(n) {
		return Stack{}, apperrors.NewInvalidArgument("extinction", len(kappa),
			"got %d extinction coefficients for %d indices", len(kappa), len(n))
	}
	s := Stack{
		Index:     make([]complex128, len(n)),
		Thickness: append([]float64(nil), d...),
	}
	for i, re := range n {
		im := 0.0
		if len(kappa) != 0 {
			im = kappa[i]
		}
		s.Index[i] = complex(re, im)
	}
	return s, s.Validate()
}

// Document is the serialized form of a stack, shared by stack files and
// HTTP request bodies.
type Document struct {
	Name       string    `json:"name,omitempty"`
	Index      []float64 `json:"index"`
	Extinction []float64 `json:"extinction,omitempty"`
	Thickness  []float64 `json:"thickness"`
	Unit       string    `json:"unit,omitempty"`
}

// Stack converts the document to meters and validates it.
func (doc Document) Stack() (Stack, error) {
	scale, err := UnitScale(doc.Unit)
	if err != nil {
		return Stack{}, err
	}
	d := make([]float64, len(doc.Thickness))
	for i, v := range doc.Thickness {
		d[i] = v * scale
	}
	s, err := FromLists(doc.Index, doc.Extinction, d)
	if err != nil {
		return Stack{}, err
	}
	s.Name = doc.Name
	return s, nil
}

// Parse decodes a JSON5 stack description:
//
//	{
//	  name: "Bragg pair",
//	  index: [1.0, 1.5, 3.5, 1.0],
//	  extinction: [0, 0, 0.01, 0],  // optional
//	  thickness: [1.0, 1.33],
//	  unit: "um",                   // m (default), mm, um, nm
//	}
func Parse(data []byte) (Stack, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Stack{}, apperrors.NewInvalidArgument("stack", nil, "malformed stack document: %v", err)
	}
	return doc.Stack()
}

// Load reads and parses a JSON5 stack file.
func Load(path string) (Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stack{}, apperrors.NewInvalidArgument("stack", path, "cannot read stack file: %v", err)
	}
	return Parse(data)
}

// UnitScale returns the factor converting a length unit to meters. The empty
// string means meters.
func UnitScale(unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "m":
		return 1, nil
	case "mm":
		return 1e-3, nil
	case "um", "µm", "micron":
		return 1e-6, nil
	case "nm":
		return 1e-9, nil
	default:
		return 0, apperrors.NewInvalidArgument("unit", unit, "unknown length unit %q (want m, mm, um or nm)", unit)
	}
}

// ParseIndexList parses a comma-separated list of refractive indices. Each
// entry is a real number or a complex literal such as "3.5+0.01i".
func ParseIndexList(s string) ([]complex128, error) {
	fields := splitList(s)
	out := make([]complex128, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseComplex(f, 128)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("index", f, "not a number: %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseFloatList parses a comma-separated list of real numbers.
func ParseFloatList(s string) ([]float64, error) {
	fields := splitList(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("thickness", f, "not a number: %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// String renders the stack as "n0 | n1 (d1) | ... | nN".
func (s Stack) String() string {
	var b strings.Builder
	if s.Name != "" {
		fmt.Fprintf(&b, "%s: ", s.Name)
	}
	for i, n := range s.Index {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(formatIndex(n))
		if i > 0 && i <= len(s.Thickness) && i < len(s.Index)-1 {
			fmt.Fprintf(&b, " (%g m)", s.Thickness[i-1])
		}
	}
	return b.String()
}

func formatIndex(n complex128) string {
	if imag(n) == 0 {
		return strconv.FormatFloat(real(n), 'g', -1, 64)
	}
	return fmt.Sprintf("%g%+gi", real(n), imag(n))
}
