package tmm

import (
	"encoding/json"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/fresnel"
)

const goldenTolerance = 1e-9

// GoldenCase mirrors the entries written by cmd/generate-golden.
type GoldenCase struct {
	Name      string         `json:"name"`
	Pol       string         `json:"pol"`
	Index     [][2]float64   `json:"index"`
	Thickness []float64      `json:"thickness"`
	Omega     []float64      `json:"omega"`
	Kx        []float64      `json:"kx"`
	T         [][][2]float64 `json:"t"`
	R         [][][2]float64 `json:"r"`
}

func loadGolden(t *testing.T) []GoldenCase {
	t.Helper()
	goldenPath := filepath.Join("testdata", "tmm_golden.json")
	file, err := os.Open(goldenPath)
	if err != nil {
		t.Fatalf("Failed to open golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	defer file.Close()

	var cases []GoldenCase
	if err := json.NewDecoder(file).Decode(&cases); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("golden file holds no cases")
	}
	return cases
}

func TestBackendsAgainstGoldenFile(t *testing.T) {
	t.Parallel()
	cases := loadGolden(t)
	registry := backend.NewRegistry()

	for _, name := range registry.List() {
		engine := NewEngine(registry.MustGet(name))
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, gc := range cases {
				t.Run(gc.Name+"_"+gc.Pol, func(t *testing.T) {
					t.Parallel()

					index := make([]complex128, len(gc.Index))
					for i, v := range gc.Index {
						index[i] = complex(v[0], v[1])
					}
					res, err := engine.RT(fresnel.Polarization(gc.Pol), gc.Omega, gc.Kx, index, gc.Thickness)
					if err != nil {
						t.Fatalf("RT failed: %v", err)
					}

					for i := range gc.Kx {
						for j := range gc.Omega {
							gotT, gotR := res.At(i, j)
							wantT := complex(gc.T[i][j][0], gc.T[i][j][1])
							wantR := complex(gc.R[i][j][0], gc.R[i][j][1])
							if d := cmplx.Abs(gotT - wantT); d > goldenTolerance {
								t.Errorf("t[%d,%d] = %v, want %v (|diff| %g)", i, j, gotT, wantT, d)
							}
							if d := cmplx.Abs(gotR - wantR); d > goldenTolerance {
								t.Errorf("r[%d,%d] = %v, want %v (|diff| %g)", i, j, gotR, wantR, d)
							}
						}
					}
				})
			}
		})
	}
}

// A grid point on a light line has kz = 0 in that layer, where the reference
// values are numerical noise rather than a limit.
func TestGoldenGridAvoidsLightLines(t *testing.T) {
	t.Parallel()
	for _, gc := range loadGolden(t) {
		for _, kx := range gc.Kx {
			for _, omega := range gc.Omega {
				for _, n := range gc.Index {
					if n[1] != 0 {
						continue
					}
					k := n[0] * omega / C0
					if math.Abs(kx-k) < 1e-3*k {
						t.Errorf("%s (%s): kx=%g is within 0.1%% of the light line of n=%g at omega=%g",
							gc.Name, gc.Pol, kx, n[0], omega)
					}
				}
			}
		}
		for i := range gc.T {
			for j := range gc.T[i] {
				for _, v := range [][2]float64{gc.T[i][j], gc.R[i][j]} {
					if math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsInf(v[0], 0) || math.IsInf(v[1], 0) {
						t.Errorf("%s (%s): non-finite reference value at [%d,%d]", gc.Name, gc.Pol, i, j)
					}
				}
			}
		}
	}
}
