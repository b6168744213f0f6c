package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/agbru/tmmcalc/internal/backend"
	"github.com/agbru/tmmcalc/internal/calibration"
	"github.com/agbru/tmmcalc/internal/cli"
	"github.com/agbru/tmmcalc/internal/config"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/logging"
	"github.com/agbru/tmmcalc/internal/orchestration"
	"github.com/agbru/tmmcalc/internal/server"
	"github.com/agbru/tmmcalc/internal/service"
	"github.com/agbru/tmmcalc/internal/tmm"
	"github.com/agbru/tmmcalc/internal/ui"
)

// Application represents the tmmcalc application instance. It holds the
// parsed configuration and runs it in CLI or server mode.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory hands out evaluators for the registered backends.
	Factory *tmm.EvaluatorFactory
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application instance by parsing command-line arguments.
// The scheduling options of the configuration are applied to the global
// backend registry.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	registry := backend.GlobalRegistry()

	programName := "tmmcalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, registry.List())
	if err != nil {
		return nil, err
	}
	registry.SetOptions(cfg.ToBackendOptions())

	return &Application{
		Config:    cfg,
		Factory:   tmm.NewEvaluatorFactory(registry),
		ErrWriter: errWriter,
	}, nil
}

// ConfigureProcess applies the process-wide settings: the zerolog logger
// and, for a single-backend run, the active backend. Call it once from main
// before Run.
func (a *Application) ConfigureProcess() error {
	if err := logging.Setup(logging.Options{
		Level:   a.Config.LogLevel,
		NoColor: a.Config.NoColor,
		Output:  a.ErrWriter,
	}); err != nil {
		return err
	}
	if a.Config.Backend != "all" {
		return backend.SetActive(a.Config.Backend)
	}
	return nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)

	if a.Config.Calibrate {
		return calibration.RunCalibration(ctx, out, calibration.CalibrationOptions{
			ProfilePath: a.Config.CalibrationProfile,
			SaveProfile: true,
		})
	}
	if a.Config.AutoCalibrate {
		a.runAutoCalibration(ctx)
	}

	if a.Config.ServerMode {
		return a.runServer()
	}
	return a.runEvaluate(ctx, out)
}

// runAutoCalibration tunes the scheduling options and applies them to the
// factory's registry. Failures keep the configured values.
func (a *Application) runAutoCalibration(ctx context.Context) {
	updated, ok := calibration.AutoCalibrate(ctx, a.Config, a.ErrWriter)
	if !ok {
		return
	}
	a.Config = updated
	a.Factory.Registry().SetOptions(a.Config.ToBackendOptions())
}

// runServer starts the HTTP server mode. Requests that name no backend use
// the configured one, or the active backend when every backend is selected.
func (a *Application) runServer() int {
	defaultBackend := a.Config.Backend
	if defaultBackend == "all" {
		defaultBackend = backend.Active().Name()
	}
	svc := service.NewEvaluationService(a.Factory, defaultBackend, a.Config.MaxGrid)
	srv := server.NewServer(svc, a.Config, server.WithLogger(logging.NewDefaultLogger()))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runEvaluate runs the configured stack on the selected backends, once per
// polarization, and reports the results.
func (a *Application) runEvaluate(ctx context.Context, out io.Writer) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	colors := cli.CLIColorProvider{}
	probs, st, err := a.Config.Problems()
	if err != nil {
		return apperrors.HandleEvaluationError(err, 0, a.ErrWriter, colors)
	}
	if size := probs[0].GridSize(); size > a.Config.MaxGrid {
		err := apperrors.NewInvalidArgument("grid", size, "%d points exceed the limit of %d (see -max-grid)", size, a.Config.MaxGrid)
		return apperrors.HandleEvaluationError(err, 0, a.ErrWriter, colors)
	}
	evaluators, err := a.Factory.Select(a.Config.Backend)
	if err != nil {
		return apperrors.HandleEvaluationError(err, 0, a.ErrWriter, colors)
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, st, probs[0], out)
		cli.PrintExecutionMode(evaluators, out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	var responses []*service.Response
	for _, prob := range probs {
		results := orchestration.ExecuteEvaluations(ctx, evaluators, prob, progressOut)

		if !a.Config.JSONOutput {
			if code := orchestration.AnalyzeComparisonResults(results, prob, a.Config, out); code != apperrors.ExitSuccess {
				return code
			}
			continue
		}

		ref, err := orchestration.CheckConsistency(results)
		if errors.Is(err, orchestration.ErrMismatch) {
			fmt.Fprintf(a.ErrWriter, "Status: Failure. %v\n", err)
			return apperrors.ExitErrorMismatch
		}
		if err != nil {
			return apperrors.HandleEvaluationError(err, 0, a.ErrWriter, colors)
		}
		responses = append(responses, service.NewResponse(ref.Name, prob, ref.Result, ref.Power, ref.Duration))
	}

	if a.Config.JSONOutput {
		if err := cli.WriteJSON(out, responses); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error encoding JSON: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
	}
	return apperrors.ExitSuccess
}

// IsHelpError reports whether err comes from -h/--help, after which the
// application should exit successfully.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
