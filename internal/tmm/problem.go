package tmm

import (
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
)

// Problem gathers the five inputs of one evaluation.
type Problem struct {
	// Polarization selects the s or p Fresnel equations.
	Polarization fresnel.Polarization
	// Omega is the angular frequency grid in rad/s.
	Omega []float64
	// Kx is the in-plane wavevector grid in rad/m.
	Kx []float64
	// Index lists the complex refractive indices n + i*kappa, incident
	// half-space first and exit half-space last.
	Index []complex128
	// Thickness lists the interior layer thicknesses in meters.
	Thickness []float64
}

// Layers returns the number of finite layers.
func (p Problem) Layers() int { return len(p.Thickness) }

// GridSize returns the number of (kx, omega) points.
func (p Problem) GridSize() int { return len(p.Kx) * len(p.Omega) }

// Validate checks the preconditions of an evaluation. Every violation is an
// InvalidArgumentError, reported before any array is allocated.
func (p Problem) Validate() error {
	if err := p.Polarization.Validate(); err != nil {
		return err
	}
	nd, nn := len(p.Thickness), len(p.Index)
	if nd < 1 {
		return apperrors.NewInvalidArgument("thickness", nd,
			"at least one finite layer is required; a bare interface between two half-spaces is not supported")
	}
	if nd != nn-2 {
		return apperrors.NewInvalidArgument("thickness", nd,
			"got %d thicknesses for %d indices; expected len(index)-2 = %d", nd, nn, nn-2)
	}
	return nil
}
