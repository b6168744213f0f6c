package calibration

import (
	"context"
	"time"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/tmm"
)

// maxDuration marks a search that produced no successful trial.
const maxDuration = time.Duration(1<<63 - 1)

// calibrationRunner encapsulates the trial run logic for calibration.
type calibrationRunner struct {
	ctx      context.Context
	perTrial time.Duration
	prob     tmm.Problem
}

// newCalibrationRunner creates a runner that gives every trial a sixth of
// the overall timeout, and at least two seconds.
func newCalibrationRunner(ctx context.Context, timeout time.Duration, prob tmm.Problem) *calibrationRunner {
	perTrial := timeout / 6
	if perTrial < 2*time.Second {
		perTrial = 2 * time.Second
	}
	return &calibrationRunner{ctx: ctx, perTrial: perTrial, prob: prob}
}

// runTrial evaluates the reference problem once on a parallel backend built
// with opts.
//
// Parameters:
//   - opts: The scheduling options under test.
//   - report: Optional progress reporter, may be nil.
//
// Returns:
//   - time.Duration: The duration of the evaluation.
//   - error: An error if the evaluation failed or timed out.
func (r *calibrationRunner) runTrial(opts backend.Options, report tmm.ProgressReporter) (duration time.Duration, err error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	engine := tmm.NewEngine(backend.NewParallel(opts))
	start := time.Now()
	_, err = engine.Solve(ctx, r.prob, report)
	return time.Since(start), err
}

// findBestThreshold times every threshold candidate with a fixed worker
// count and returns the fastest, or defaultThreshold and maxDuration if no
// trial succeeded.
func (r *calibrationRunner) findBestThreshold(candidates []int, workers, defaultThreshold int) (threshold int, duration time.Duration) {
	best, bestDur := defaultThreshold, maxDuration
	for _, cand := range candidates {
		dur, err := r.runTrial(backend.Options{Workers: workers, Threshold: cand}, nil)
		if err != nil {
			continue
		}
		if dur < bestDur {
			bestDur, best = dur, cand
		}
	}
	return best, bestDur
}

// findBestWorkers is the worker-count counterpart of findBestThreshold.
func (r *calibrationRunner) findBestWorkers(candidates []int, threshold, defaultWorkers int) (workers int, duration time.Duration) {
	best, bestDur := defaultWorkers, maxDuration
	for _, cand := range candidates {
		dur, err := r.runTrial(backend.Options{Workers: cand, Threshold: threshold}, nil)
		if err != nil {
			continue
		}
		if dur < bestDur {
			bestDur, best = dur, cand
		}
	}
	return best, bestDur
}
