// Package orchestration runs one evaluation on several numeric backends
// concurrently and checks that they agree.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/cmplxs"

	"github.com/agbru/tmmcalc/internal/cli"
	"github.com/agbru/tmmcalc/internal/config"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/tmm"
	"github.com/agbru/tmmcalc/internal/ui"
)

// EvaluationResult is the outcome of one backend's evaluation.
type EvaluationResult struct {
	// Name is the backend name.
	Name string
	// Result holds the amplitudes. It is nil if an error occurred.
	Result *tmm.Result
	// Power holds the derived intensities. It is nil if an error occurred.
	Power *tmm.Power
	// Duration is the time taken by the evaluation.
	Duration time.Duration
	// Err contains any error that occurred during the evaluation.
	Err error
}

// ProgressBufferMultiplier sizes the progress channel per evaluator.
const ProgressBufferMultiplier = 5

// ConsistencyTolerance is the largest relative L2 distance between the t
// and r grids of two backends that still counts as agreement.
const ConsistencyTolerance = 1e-9

// ErrMismatch reports backends that produced different amplitudes.
var ErrMismatch = errors.New("backend results disagree")

// ExecuteEvaluations runs prob on every evaluator concurrently and collects
// the results in evaluator order. A failing backend does not cancel the
// others.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - evaluators: The evaluators to run.
//   - prob: The problem, shared read-only by all evaluators.
//   - out: The io.Writer for displaying progress updates.
//
// Returns:
//   - []EvaluationResult: One result per evaluator.
func ExecuteEvaluations(ctx context.Context, evaluators []tmm.Evaluator, prob tmm.Problem, out io.Writer) []EvaluationResult {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]EvaluationResult, len(evaluators))
	progressChan := make(chan tmm.ProgressUpdate, len(evaluators)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(evaluators), out)

	for i, ev := range evaluators {
		g.Go(func() error {
			start := time.Now()
			res, err := ev.Evaluate(ctx, progressChan, i, prob)
			var pw *tmm.Power
			if err == nil {
				pw, err = tmm.PowerOf(prob, res)
			}
			results[i] = EvaluationResult{
				Name: ev.Name(), Result: res, Power: pw, Duration: time.Since(start), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// Distance returns the relative L2 distance between the amplitudes of a and
// b, over the grid points where both are finite. Points that are finite in
// one result only make the distance infinite.
func Distance(a, b *tmm.Result) float64 {
	ak, aw := a.Dims()
	bk, bw := b.Dims()
	if ak != bk || aw != bw {
		return math.Inf(1)
	}
	return math.Max(
		relativeDistance(a.T.Data(), b.T.Data()),
		relativeDistance(a.R.Data(), b.R.Data()),
	)
}

func relativeDistance(a, b []complex128) float64 {
	fa := make([]complex128, 0, len(a))
	fb := make([]complex128, 0, len(b))
	for i := range a {
		aok, bok := finite(a[i]), finite(b[i])
		if aok != bok {
			return math.Inf(1)
		}
		if aok {
			fa = append(fa, a[i])
			fb = append(fb, b[i])
		}
	}
	d := cmplxs.Distance(fa, fb, 2)
	if norm := cmplxs.Norm(fb, 2); norm > 0 {
		return d / norm
	}
	return d
}

func finite(z complex128) bool { return !cmplx.IsNaN(z) && !cmplx.IsInf(z) }

// sortResults orders successes before failures, fastest first.
func sortResults(results []EvaluationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})
}

// CheckConsistency sorts results and picks the fastest successful one as
// the reference.
//
// Returns:
//   - *EvaluationResult: The reference result, nil if every backend failed.
//   - error: The first failure if nothing succeeded, an error wrapping
//     ErrMismatch if a successful backend deviates from the reference, nil
//     otherwise.
func CheckConsistency(results []EvaluationResult) (*EvaluationResult, error) {
	sortResults(results)
	if len(results) == 0 {
		return nil, errors.New("no backend was run")
	}
	ref := &results[0]
	if ref.Err != nil {
		return nil, ref.Err
	}
	for i := 1; i < len(results); i++ {
		res := results[i]
		if res.Err != nil {
			continue
		}
		if d := Distance(res.Result, ref.Result); !(d <= ConsistencyTolerance) {
			return ref, fmt.Errorf("%w: %s deviates from %s by %.3g (tolerance %g)",
				ErrMismatch, res.Name, ref.Name, d, ConsistencyTolerance)
		}
	}
	return ref, nil
}

// AnalyzeComparisonResults prints the per-backend table, checks that the
// successful backends agree and displays the reference result.
//
// Parameters:
//   - results: The results of ExecuteEvaluations.
//   - prob: The evaluated problem.
//   - cfg: The application configuration (verbosity flags).
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparisonResults(results []EvaluationResult, prob tmm.Problem, cfg config.AppConfig, out io.Writer) int {
	ref, err := CheckConsistency(results)

	if !cfg.Quiet {
		fmt.Fprintf(out, "\n--- Comparison Summary (%s) ---\n", prob.Polarization)
		tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "%sBackend%s\t%sDuration%s\t%sStatus%s\n",
			ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
		for _, res := range results {
			var status string
			if res.Err != nil {
				status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
			} else {
				status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			}
			duration := cli.FormatExecutionDuration(res.Duration)
			if res.Duration == 0 {
				duration = "< 1µs"
			}
			fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
				ui.ColorBlue(), res.Name, ui.ColorReset(),
				ui.ColorYellow(), duration, ui.ColorReset(),
				status)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
		}
	}

	switch {
	case ref == nil:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No backend could complete the evaluation.\n")
		return apperrors.HandleEvaluationError(err, 0, out, cli.CLIColorProvider{})
	case errors.Is(err, ErrMismatch):
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! %v\n", err)
		return apperrors.ExitErrorMismatch
	}

	if cfg.Quiet {
		cli.DisplayQuietResult(out, prob, ref.Result, ref.Power)
		return apperrors.ExitSuccess
	}
	fmt.Fprintf(out, "\nGlobal Status: %s\n", ui.Verdict(true, "Success. All valid results are consistent.", ""))
	cli.DisplayResult(prob, ref.Result, ref.Power, ref.Duration, cfg.Verbose, cfg.Details, out)
	return apperrors.ExitSuccess
}
