package calibration

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/cli"
	"github.com/agbru/tmmcalc/internal/config"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
	"github.com/agbru/tmmcalc/internal/grid"
	"github.com/agbru/tmmcalc/internal/tmm"
)

const (
	// CalibrationGridSide is the number of kx and omega samples of the
	// reference problem used by a full calibration.
	CalibrationGridSide = 256
	// QuickGridSide is the grid side used by startup auto-calibration.
	QuickGridSide = 96
)

// CalibrationOptions configures the calibration process.
type CalibrationOptions struct {
	// ProfilePath is the path to save/load the calibration profile.
	// If empty, uses the default path.
	ProfilePath string
	// SaveProfile indicates whether to save the calibration results.
	SaveProfile bool
	// LoadProfile indicates whether to try loading an existing profile.
	LoadProfile bool
	// GridSide overrides CalibrationGridSide when positive.
	GridSide int
}

// calibrationResult holds the result of a single trial.
type calibrationResult struct {
	Threshold int
	Workers   int
	Duration  time.Duration
	Err       error
}

// ReferenceProblem returns the benchmark stack, an air | glass | silicon |
// air pair of layers, over a side x side grid in the near infrared.
func ReferenceProblem(side int) tmm.Problem {
	omega := grid.AngularFrequencies(grid.Range{Start: 150e12, Stop: 250e12, Num: side})
	kx := grid.Range{Start: 0, Stop: 0.999 * grid.LightLine(1, omega[0]), Num: side}.Values()
	return tmm.Problem{
		Polarization: fresnel.S,
		Omega:        omega,
		Kx:           kx,
		Index:        []complex128{1, 1.5, 3.5, 1},
		Thickness:    []float64{1e-6, 1.33e-6},
	}
}

// RunCalibration executes a full benchmark to determine the best chunk
// threshold and worker count of the parallel backend on this machine.
//
// Every threshold candidate is timed with GOMAXPROCS workers, then every
// worker count with the winning threshold. The recommendation is printed and
// saved as a profile that -auto-calibrate reuses.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer to which progress and results will be written.
//   - opts: Profile handling and grid size.
//
// Returns:
//   - int: The exit code (0 for success, non-zero for errors).
func RunCalibration(ctx context.Context, out io.Writer, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Parallel Scheduling ---\n")

	if opts.LoadProfile {
		if profile, loaded := LoadOrCreateProfile(opts.ProfilePath); loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile%s\n", cli.ColorGreen(), cli.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile.String())
			fmt.Fprintf(out, "\n%s✅ Using cached calibration: %s-threshold %d -workers %d%s\n",
				cli.ColorGreen(), cli.ColorYellow(), profile.OptimalThreshold, profile.OptimalWorkers, cli.ColorReset())
			return apperrors.ExitSuccess
		}
	}

	side := opts.GridSide
	if side <= 0 {
		side = CalibrationGridSide
	}
	prob := ReferenceProblem(side)
	thresholds := GenerateParallelThresholds()
	workerCounts := GenerateWorkerCounts()
	fmt.Fprintf(out, "%sUsing adaptive candidates for %d CPU cores on a %dx%d grid%s\n",
		cli.ColorCyan(), runtime.NumCPU(), side, side, cli.ColorReset())

	total := len(thresholds) + len(workerCounts)
	results := make([]calibrationResult, 0, total)
	best := calibrationResult{Threshold: backend.DefaultThreshold, Workers: runtime.GOMAXPROCS(0), Duration: maxDuration}
	calibrationStart := time.Now()
	runner := newCalibrationRunner(ctx, config.DefaultTimeout, prob)

	var wg sync.WaitGroup
	progressChan := make(chan tmm.ProgressUpdate, 5)
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)
	finish := func() {
		close(progressChan)
		wg.Wait()
	}

	trial := 0
	measure := func(opts backend.Options) (calibrationResult, bool) {
		done := float64(trial)
		report := func(v float64) {
			select {
			case progressChan <- tmm.ProgressUpdate{EvaluatorIndex: 0, Value: (done + v) / float64(total)}:
			default:
			}
		}
		trial++
		duration, err := runner.runTrial(opts, report)
		res := calibrationResult{Threshold: opts.Threshold, Workers: opts.Workers, Duration: duration, Err: err}
		results = append(results, res)
		return res, ctx.Err() == nil
	}

	for _, threshold := range thresholds {
		res, ok := measure(backend.Options{Workers: best.Workers, Threshold: threshold})
		if !ok {
			finish()
			return apperrors.HandleEvaluationError(ctx.Err(), time.Since(calibrationStart), out, cli.CLIColorProvider{})
		}
		if res.Err == nil && res.Duration < best.Duration {
			best = res
		}
	}
	for _, workers := range workerCounts {
		res, ok := measure(backend.Options{Workers: workers, Threshold: best.Threshold})
		if !ok {
			finish()
			return apperrors.HandleEvaluationError(ctx.Err(), time.Since(calibrationStart), out, cli.CLIColorProvider{})
		}
		if res.Err == nil && res.Duration < best.Duration {
			best = res
		}
	}
	finish()

	if best.Duration == maxDuration {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", cli.ColorRed(), cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, best)
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s-threshold %d -workers %d%s\n",
		cli.ColorGreen(), cli.ColorYellow(), best.Threshold, best.Workers, cli.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.OptimalThreshold = best.Threshold
		profile.OptimalWorkers = best.Workers
		profile.CalibrationGrid = prob.GridSize()
		profile.CalibrationTime = time.Since(calibrationStart).String()
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", cli.ColorYellow(), err, cli.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved%s\n", cli.ColorGreen(), cli.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// AutoCalibrate tunes the scheduling options at startup. A valid cached
// profile is used as is; otherwise a quick search runs on a small grid and
// its outcome is saved for the next start.
//
// Parameters:
//   - ctx: The context bounding the search.
//   - cfg: The configuration providing the starting values and profile path.
//   - out: The io.Writer for the one-line report.
//
// Returns:
//   - config.AppConfig: The configuration with tuned Threshold and Workers.
//   - bool: True if calibration produced values, false otherwise.
func AutoCalibrate(ctx context.Context, cfg config.AppConfig, out io.Writer) (updated config.AppConfig, ok bool) {
	if updated, ok := LoadCachedCalibration(cfg, cfg.CalibrationProfile); ok {
		fmt.Fprintf(out, "%sUsing cached calibration%s: threshold=%s%d%s workers=%s%d%s\n",
			cli.ColorGreen(), cli.ColorReset(),
			cli.ColorYellow(), updated.Threshold, cli.ColorReset(),
			cli.ColorYellow(), updated.Workers, cli.ColorReset())
		return updated, true
	}

	runner := newCalibrationRunner(ctx, cfg.Timeout, ReferenceProblem(QuickGridSide))
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = backend.DefaultThreshold
	}

	bestThr, thrDur := runner.findBestThreshold(GenerateQuickParallelThresholds(), workers, threshold)
	bestWorkers, workersDur := runner.findBestWorkers(GenerateWorkerCounts(), bestThr, workers)

	updated, ok = applyCalibrationResults(cfg, bestThr, thrDur, bestWorkers, workersDur)
	if !ok {
		return cfg, false
	}
	saveCalibrationProfile(updated, cfg.CalibrationProfile, out)
	printCalibrationOutput(updated, out)
	return updated, true
}

// LoadCachedCalibration applies a valid cached profile to cfg. It returns
// false, and cfg unchanged, when no such profile exists.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (updated config.AppConfig, ok bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	updated = cfg
	updated.Threshold = profile.OptimalThreshold
	updated.Workers = profile.OptimalWorkers
	return updated, true
}

// applyCalibrationResults copies the successful search results into cfg.
// It reports false when neither search produced a measurement.
func applyCalibrationResults(cfg config.AppConfig, bestThr int, thrDur time.Duration, bestWorkers int, workersDur time.Duration) (updated config.AppConfig, ok bool) {
	if thrDur == maxDuration && workersDur == maxDuration {
		return cfg, false
	}
	updated = cfg
	if thrDur != maxDuration {
		updated.Threshold = bestThr
	}
	if workersDur != maxDuration {
		updated.Workers = bestWorkers
	}
	return updated, true
}

// saveCalibrationProfile saves the tuned options of cfg to a profile.
func saveCalibrationProfile(cfg config.AppConfig, profilePath string, out io.Writer) {
	profile := NewProfile()
	profile.OptimalThreshold = cfg.Threshold
	profile.OptimalWorkers = cfg.Workers
	profile.CalibrationGrid = QuickGridSide * QuickGridSide

	if err := profile.SaveProfile(profilePath); err != nil {
		fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n",
			cli.ColorYellow(), err, cli.ColorReset())
	}
}
