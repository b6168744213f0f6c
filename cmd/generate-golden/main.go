package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
)

const c0 = 299792458.0

// GoldenCase is one stack and polarization evaluated over a small grid.
// Complex values are stored as [re, im] pairs, amplitudes indexed [kx][omega].
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

type stackCase struct {
	name      string
	index     []complex128
	thickness []float64
	kx        []float64
}

func main() {
	outputDir := flag.String("out", "internal/tmm/testdata", "Output directory for the golden file")
	flag.Parse()

	fmt.Println("Generating golden data...")
	data, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "tmm_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// generate evaluates every stack in both polarizations. A non-finite oracle
// value means a grid point sits on a light line and is reported as an error.
func generate() ([]GoldenCase, error) {
	// Three visible wavelengths; kx is expressed in units of the smallest
	// vacuum wavenumber. The largest kx of the frustrated case stays below
	// the 500 nm vacuum light line at 1.4 k0.
	var omega []float64
	for _, lambda := range []float64{700e-9, 600e-9, 500e-9} {
		omega = append(omega, 2*math.Pi*c0/lambda)
	}
	k0 := omega[0] / c0

	stacks := []stackCase{
		{"quarter-wave-coating", []complex128{1, 1.38, 1.5}, []float64{100e-9}, linspace(0, 0.9*k0, 4)},
		{"absorbing-film", []complex128{1, complex(0.2, 3.5), 1.5}, []float64{30e-9}, linspace(0, 0.9*k0, 4)},
		{"frustrated-total-reflection", []complex128{1.5, 1, 1.5}, []float64{300e-9}, linspace(0.5*k0, 1.35*k0, 4)},
		{"bragg-pair", []complex128{1, 2.3, 1.45, 2.3, 1.52}, []float64{65e-9, 103e-9, 65e-9}, linspace(0, 0.9*k0, 4)},
	}

	var data []GoldenCase
	for _, st := range stacks {
		for _, pol := range []string{"s", "p"} {
			gc := GoldenCase{
				Name:      st.name,
				Pol:       pol,
				Thickness: st.thickness,
				Omega:     omega,
				Kx:        st.kx,
			}
			for _, n := range st.index {
				gc.Index = append(gc.Index, pair(n))
			}
			for _, kx := range st.kx {
				var tRow, rRow [][2]float64
				for _, w := range omega {
					t, r := rouard(pol, st.index, st.thickness, w, kx)
					if !finite(t) || !finite(r) {
						return nil, fmt.Errorf("%s (%s): non-finite oracle value at kx=%g, omega=%g", st.name, pol, kx, w)
					}
					tRow = append(tRow, pair(t))
					rRow = append(rRow, pair(r))
				}
				gc.T = append(gc.T, tRow)
				gc.R = append(gc.R, rRow)
			}
			data = append(data, gc)
			fmt.Printf("Generated %s (%s)\n", st.name, pol)
		}
	}
	return data, nil
}

// rouard folds the stack from the exit side, replacing the rear part by an
// effective interface at each step. It shares no code with the matrix engine
// and serves as its oracle.
func rouard(pol string, n []complex128, d []float64, omega, kx float64) (t, r complex128) {
	last := len(n) - 1
	kz := make([]complex128, len(n))
	q := make([]complex128, len(n))
	for i, ni := range n {
		k := ni * complex(omega/c0, 0)
		kz[i] = cmplx.Sqrt(k*k - complex(kx*kx, 0))
		q[i] = kz[i] / k
	}

	r, t = interfaceRT(pol, n[last-1], n[last], q[last-1], q[last])
	for l := last - 2; l >= 0; l-- {
		phase := cmplx.Exp(1i * kz[l+1] * complex(d[l], 0))
		rl, tl := interfaceRT(pol, n[l], n[l+1], q[l], q[l+1])
		den := 1 + rl*r*phase*phase
		r, t = (rl+r*phase*phase)/den, tl*t*phase/den
	}
	return t, r
}

func interfaceRT(pol string, n1, n2, q1, q2 complex128) (r, t complex128) {
	a, c := n1*q1, n2*q2
	if pol == "p" {
		a, c = n2*q1, n1*q2
	}
	return (a - c) / (a + c), 2 * n1 * q1 / (a + c)
}

func linspace(start, stop float64, num int) []float64 {
	out := make([]float64, num)
	for i := range out {
		out[i] = start + (stop-start)*float64(i)/float64(num-1)
	}
	return out
}

func finite(z complex128) bool { return !cmplx.IsNaN(z) && !cmplx.IsInf(z) }

func pair(z complex128) [2]float64 { return [2]float64{real(z), imag(z)} }
