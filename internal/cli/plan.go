package cli

import (
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/config"
	"github.com/agbru/tmmcalc/internal/stack"
	"github.com/agbru/tmmcalc/internal/tmm"
)

// PrintExecutionConfig displays the stack, the grid and the environment of
// the run.
//
// Parameters:
//   - cfg: The application configuration.
//   - st: The resolved stack.
//   - prob: Any of the problems of the run (the grids are shared).
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, st stack.Stack, prob tmm.Problem, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Stack: %s%s%s (%d layers, %s total).\n",
		ColorMagenta(), st, ColorReset(), st.Layers(), formatLength(st.TotalThickness()))
	fmt.Fprintf(out, "Grid: %s%d%s wavevectors x %s%d%s frequencies, polarization %s%s%s, timeout %s%s%s.\n",
		ColorCyan(), len(prob.Kx), ColorReset(),
		ColorCyan(), len(prob.Omega), ColorReset(),
		ColorCyan(), cfg.Polarization, ColorReset(),
		ColorYellow(), cfg.Timeout, ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
	if cfg.Details {
		fmt.Fprintf(out, "Host: %s.\n", backend.Environment())
		fmt.Fprintf(out, "Scheduling: threshold=%s%d%s elements, workers=%s%d%s.\n",
			ColorCyan(), cfg.ToBackendOptions().Threshold, ColorReset(),
			ColorCyan(), cfg.Workers, ColorReset())
	}
}

// PrintExecutionMode displays whether one backend runs or several are
// compared.
func PrintExecutionMode(evaluators []tmm.Evaluator, out io.Writer) {
	var modeDesc string
	if len(evaluators) > 1 {
		modeDesc = fmt.Sprintf("Parallel comparison of %d backends", len(evaluators))
	} else {
		modeDesc = fmt.Sprintf("Single evaluation with the %s%s%s backend",
			ColorGreen(), evaluators[0].Name(), ColorReset())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// formatLength prints a length in meters with the most readable SI unit.
func formatLength(m float64) string {
	switch a := math.Abs(m); {
	case a == 0:
		return "0 m"
	case a < 1e-6:
		return fmt.Sprintf("%.4g nm", m*1e9)
	case a < 1e-3:
		return fmt.Sprintf("%.4g µm", m*1e6)
	case a < 1:
		return fmt.Sprintf("%.4g mm", m*1e3)
	}
	return fmt.Sprintf("%.4g m", m)
}
