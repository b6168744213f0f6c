package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/agbru/tmmcalc/internal/service"
	"github.com/agbru/tmmcalc/internal/tmm"
	"github.com/agbru/tmmcalc/internal/ui"
)

// Summary aggregates the intensity grids of one evaluation. Statistics skip
// non-finite grid points.
type Summary struct {
	Nk, Nw            int
	RMin, RMax, RMean float64
	TMin, TMax, TMean float64
	AMean             float64
	MaxEnergyError    float64
	NonFinite         int
	Lossless          bool

	finitePoints int
}

// Summarize computes the Summary of an evaluation.
func Summarize(prob tmm.Problem, res *tmm.Result, pw *tmm.Power) Summary {
	nk, nw := res.Dims()
	s := Summary{
		Nk:        nk,
		Nw:        nw,
		RMin:      math.Inf(1),
		RMax:      math.Inf(-1),
		TMin:      math.Inf(1),
		TMax:      math.Inf(-1),
		NonFinite: res.NonFinite(),
		Lossless:  lossless(prob.Index),
	}
	for i := range pw.Reflectance {
		for j := range pw.Reflectance[i] {
			r, t, a := pw.Reflectance[i][j], pw.Transmittance[i][j], pw.Absorptance[i][j]
			if !isFinite(r) || !isFinite(t) {
				continue
			}
			s.finitePoints++
			s.RMin, s.RMax = math.Min(s.RMin, r), math.Max(s.RMax, r)
			s.TMin, s.TMax = math.Min(s.TMin, t), math.Max(s.TMax, t)
			s.RMean += r
			s.TMean += t
			s.AMean += a
		}
	}
	if s.finitePoints > 0 {
		n := float64(s.finitePoints)
		s.RMean /= n
		s.TMean /= n
		s.AMean /= n
	} else {
		s.RMin, s.RMax, s.TMin, s.TMax = 0, 0, 0, 0
	}
	if s.Lossless {
		s.MaxEnergyError = pw.MaxEnergyError()
	}
	return s
}

// DisplayResult prints the summary of one evaluation.
//
// Parameters:
//   - prob: The evaluated problem.
//   - res: The amplitudes.
//   - pw: The derived intensities.
//   - duration: The evaluation time.
//   - verbose: If true, prints the full (kx, omega) table.
//   - details: If true, prints timing and throughput.
//   - out: The io.Writer for the output.
func DisplayResult(prob tmm.Problem, res *tmm.Result, pw *tmm.Power, duration time.Duration, verbose, details bool, out io.Writer) {
	s := Summarize(prob, res, pw)

	fmt.Fprintf(out, "\n%s--- %s-polarization ---%s\n", ColorBold(), prob.Polarization, ColorReset())
	fmt.Fprintf(out, "Grid               : %s%d x %d%s points\n", ColorCyan(), s.Nk, s.Nw, ColorReset())
	fmt.Fprintf(out, "Reflectance        : min %s  max %s  mean %s\n", ui.Percent(s.RMin), ui.Percent(s.RMax), ui.Percent(s.RMean))
	fmt.Fprintf(out, "Transmittance      : min %s  max %s  mean %s\n", ui.Percent(s.TMin), ui.Percent(s.TMax), ui.Percent(s.TMean))
	if s.Lossless {
		fmt.Fprintf(out, "Energy balance     : max |R+T-1| = %s%.3g%s\n", ColorCyan(), s.MaxEnergyError, ColorReset())
	} else {
		fmt.Fprintf(out, "Absorptance        : mean %s\n", ui.Percent(s.AMean))
	}
	if s.NonFinite > 0 {
		fmt.Fprintf(out, "%sNon-finite points  : %d (degenerate configuration)%s\n", ColorYellow(), s.NonFinite, ColorReset())
	}
	if s.Nk > 0 && s.Nw > 0 {
		fmt.Fprintf(out, "R(ω) at kx=%-8.3g: %s%s%s\n", prob.Kx[0], ColorBlue(), ui.Sparkline(downsample(pw.Reflectance[0], SparklineWidth)), ColorReset())
	}

	if details {
		durationStr := FormatExecutionDuration(duration)
		if duration == 0 {
			durationStr = "< 1µs"
		}
		fmt.Fprintf(out, "Evaluation time    : %s%s%s\n", ColorGreen(), durationStr, ColorReset())
		if duration > 0 && s.Nk*s.Nw > 0 {
			rate := float64(s.Nk*s.Nw) / duration.Seconds()
			fmt.Fprintf(out, "Throughput         : %s%.3g%s points/s over %d layers\n", ColorGreen(), rate, ColorReset(), prob.Layers())
		}
	}

	if verbose {
		DisplayTable(prob, res, pw, out)
	}
}

// DisplayTable prints one row per grid point.
func DisplayTable(prob tmm.Problem, res *tmm.Result, pw *tmm.Power, out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "kx [rad/m]\tω [rad/s]\t|t|\t|r|\tR\tT\tA\t\n")
	for i, kx := range prob.Kx {
		for j, omega := range prob.Omega {
			t, r := res.At(i, j)
			fmt.Fprintf(tw, "%.5g\t%.5g\t%.5f\t%.5f\t%.5f\t%.5f\t%.5f\t\n",
				kx, omega, cabs(t), cabs(r),
				pw.Reflectance[i][j], pw.Transmittance[i][j], pw.Absorptance[i][j])
		}
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

// DisplayQuietResult prints a single line per evaluation, for scripting.
func DisplayQuietResult(out io.Writer, prob tmm.Problem, res *tmm.Result, pw *tmm.Power) {
	s := Summarize(prob, res, pw)
	fmt.Fprintf(out, "%s %dx%d R=%.6f T=%.6f A=%.6f nonfinite=%d\n",
		prob.Polarization, s.Nk, s.Nw, s.RMean, s.TMean, s.AMean, s.NonFinite)
}

// WriteJSON encodes the responses as an indented JSON array.
func WriteJSON(out io.Writer, responses []*service.Response) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(responses)
}

// downsample picks at most width evenly spaced values.
func downsample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	step := float64(len(values)-1) / float64(width-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

func lossless(index []complex128) bool {
	for _, n := range index {
		if imag(n) != 0 {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func cabs(z complex128) float64 { return math.Hypot(real(z), imag(z)) }
