package tmm

import (
	"math"
	"testing"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/fresnel"
)

// BenchmarkRT measures one evaluation on the reference 50x50 grid for stacks
// of increasing depth, on every registered backend.
func BenchmarkRT(b *testing.B) {
	omega := linspace(150e12, 250e12, 50)
	for i := range omega {
		omega[i] *= 2 * math.Pi
	}
	kx := linspace(0, 2*math.Pi*150e12/C0, 50)

	stacks := []struct {
		name string
		n    []complex128
		d    []float64
	}{
		{"Small", reals(1, 3.5, 1), []float64{1e-6}},
		{"Medium", reals(1, 1.5, 3.5, 1.5, 1), []float64{1e-6, 1e-6, 1e-6}},
		{"Large", reals(1, 1.5, 3.5, 1.5, 2.5, 3, 1.5, 2, 3, 1),
			[]float64{1e-6, 1.33e-6, 1e-6, 1e-6, 2e-6, 1e-5, 1.25e-6, 1e-6}},
	}

	reg := backend.NewRegistry()
	for _, name := range reg.List() {
		eng := NewEngine(reg.MustGet(name))
		b.Run(name+"/Single", func(b *testing.B) {
			w := []float64{2 * math.Pi * 200e12}
			for i := 0; i < b.N; i++ {
				if _, err := eng.RT(fresnel.P, w, []float64{0}, reals(1, 3.5, 1), []float64{1e-6}); err != nil {
					b.Fatal(err)
				}
			}
		})
		for _, st := range stacks {
			b.Run(name+"/"+st.name, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := eng.RT(fresnel.S, omega, kx, st.n, st.d); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
