package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/tmmcalc/internal/cli"
	"github.com/agbru/tmmcalc/internal/config"
)

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []calibrationResult, best calibrationResult) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sThreshold%s    │ %sWorkers%s │ %sExecution Time%s\n",
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 9), strings.Repeat("─", 25))
	for _, res := range results {
		durationStr := fmt.Sprintf("%sN/A%s", cli.ColorRed(), cli.ColorReset())
		if res.Err == nil {
			durationStr = cli.FormatExecutionDuration(res.Duration)
			if res.Duration == 0 {
				durationStr = "< 1µs"
			}
		}
		highlight := ""
		if res.Err == nil && res.Threshold == best.Threshold && res.Workers == best.Workers {
			highlight = fmt.Sprintf(" %s(Optimal)%s", cli.ColorGreen(), cli.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12d%s │ %-7d │ %s%s%s%s\n",
			cli.ColorCyan(), res.Threshold, cli.ColorReset(), res.Workers,
			cli.ColorYellow(), durationStr, cli.ColorReset(), highlight)
	}
	tw.Flush()
}

// printCalibrationOutput prints the tuned scheduling options.
func printCalibrationOutput(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "%sAuto-calibration%s: threshold=%s%d%s workers=%s%d%s\n",
		cli.ColorGreen(), cli.ColorReset(),
		cli.ColorYellow(), cfg.Threshold, cli.ColorReset(),
		cli.ColorYellow(), cfg.Workers, cli.ColorReset())
}
