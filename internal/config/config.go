// Package config provides the configuration management for the tmmcalc
// application. It defines the configuration structure, parses command-line
// flags with environment overrides, and validates the result.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/agbru/tmmcalc/internal/backend"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
	"github.com/agbru/tmmcalc/internal/fresnel"
	"github.com/agbru/tmmcalc/internal/grid"
	"github.com/agbru/tmmcalc/internal/stack"
)

const (
	// EnvPrefix is the prefix for all environment variables used by tmmcalc.
	EnvPrefix = "TMMCALC_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultPolarization evaluates both polarizations.
	DefaultPolarization = "both"
	// DefaultFrequencies is the frequency sweep in Hz, as start:stop:num.
	DefaultFrequencies = "150e12:250e12:50"
	// DefaultWavevectors is the in-plane wavevector sweep in rad/m.
	DefaultWavevectors = "0:3.1e6:50"
	// DefaultIndex is the demonstration stack: air | glass | silicon | air.
	DefaultIndex = "1,1.5,3.5,1"
	// DefaultThickness matches DefaultIndex.
	DefaultThickness = "1e-6,1.33e-6"
	// DefaultTimeout is the default evaluation timeout.
	DefaultTimeout = 1 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultBackend runs every registered backend and compares them.
	DefaultBackend = "all"
	// DefaultMaxGrid caps the number of (kx, omega) points per evaluation.
	DefaultMaxGrid = 4_000_000
	// DefaultLogLevel is the zerolog level name.
	DefaultLogLevel = "info"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Polarization is "s", "p" or "both".
	Polarization string
	// Frequencies is the frequency sweep in Hz (start:stop:num).
	Frequencies string
	// Wavevectors is the kx sweep in rad/m (start:stop:num).
	Wavevectors string
	// Angles, if set, replaces Wavevectors with incidence angles in degrees
	// at a single frequency.
	Angles string
	// Index is a comma-separated list of refractive indices.
	Index string
	// Thickness is a comma-separated list of layer thicknesses.
	Thickness string
	// Unit is the length unit of Thickness (m, mm, um, nm).
	Unit string
	// StackFile, if set, is a JSON5 stack description replacing Index and
	// Thickness.
	StackFile string
	// Backend is a registered backend name or "all".
	Backend string
	// Threshold is the element count below which backends stay serial.
	Threshold int
	// Workers caps the goroutines of parallel backends; 0 means GOMAXPROCS.
	Workers int
	// Timeout sets the maximum duration of one run.
	Timeout time.Duration
	// MaxGrid caps the grid size accepted by the service layer.
	MaxGrid int
	// Verbose prints the full (kx, omega) table.
	Verbose bool
	// Details prints per-backend timing and environment information.
	Details bool
	// JSONOutput prints machine-readable results.
	JSONOutput bool
	// ServerMode starts the HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// NoColor disables colored output.
	NoColor bool
	// Quiet suppresses spinners and banners.
	Quiet bool
	// LogLevel is the zerolog level name.
	LogLevel string
	// Calibrate runs the scheduling calibration instead of an evaluation.
	Calibrate bool
	// AutoCalibrate tunes Threshold and Workers at startup, from the cached
	// profile when one matches this machine.
	AutoCalibrate bool
	// CalibrationProfile is the profile path; empty selects the default.
	CalibrationProfile string
}

// ToBackendOptions converts the scheduling settings into backend.Options.
func (c AppConfig) ToBackendOptions() backend.Options {
	return backend.Options{
		Workers:   c.Workers,
		Threshold: c.Threshold,
	}
}

// Polarizations expands the polarization setting.
func (c AppConfig) Polarizations() ([]fresnel.Polarization, error) {
	if strings.EqualFold(c.Polarization, "both") {
		return []fresnel.Polarization{fresnel.S, fresnel.P}, nil
	}
	pol, err := fresnel.ParsePolarization(c.Polarization)
	if err != nil {
		return nil, err
	}
	return []fresnel.Polarization{pol}, nil
}

// Validate checks the semantic consistency of the configuration parameters.
//
// Parameters:
//   - availableBackends: The registered backend names.
//
// Returns:
//   - error: A ConfigError describing the first problem found, nil otherwise.
func (c AppConfig) Validate(availableBackends []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Calibrate && c.ServerMode {
		return apperrors.NewConfigError("-calibrate and -server are mutually exclusive")
	}
	if c.Threshold < 0 {
		return apperrors.NewConfigError("parallelism threshold cannot be negative: %d", c.Threshold)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("worker count cannot be negative: %d", c.Workers)
	}
	if c.MaxGrid <= 0 {
		return apperrors.NewConfigError("maximum grid size must be strictly positive: %d", c.MaxGrid)
	}
	if c.Backend != "all" && !slices.Contains(availableBackends, c.Backend) {
		return apperrors.NewConfigError("unrecognized backend: '%s'. Valid backends are: 'all' or [%s]", c.Backend, strings.Join(availableBackends, ", "))
	}
	if _, err := c.Polarizations(); err != nil {
		return apperrors.NewConfigError("invalid polarization '%s': expected s, p or both", c.Polarization)
	}
	freq, err := grid.ParseRange(c.Frequencies)
	if err != nil {
		return apperrors.NewConfigError("invalid frequency range: %v", err)
	}
	if c.Angles != "" {
		if _, err := grid.ParseRange(c.Angles); err != nil {
			return apperrors.NewConfigError("invalid angle range: %v", err)
		}
		if freq.Num != 1 {
			return apperrors.NewConfigError("an angle sweep needs a single frequency, got %d", freq.Num)
		}
	} else if _, err := grid.ParseRange(c.Wavevectors); err != nil {
		return apperrors.NewConfigError("invalid wavevector range: %v", err)
	}
	if _, err := stack.UnitScale(c.Unit); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.StackFile == "" {
		if _, err := stack.ParseIndexList(c.Index); err != nil {
			return apperrors.NewConfigError("invalid index list: %v", err)
		}
		if _, err := stack.ParseFloatList(c.Thickness); err != nil {
			return apperrors.NewConfigError("invalid thickness list: %v", err)
		}
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig, applies
// TMMCALC_* environment overrides for flags that were not set, and validates
// the result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//   - availableBackends: The registered backend names.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableBackends []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	backendHelp := fmt.Sprintf("Numeric backend: 'all' (default, compares results) or one of [%s].", strings.Join(availableBackends, ", "))

	config := AppConfig{}
	fs.StringVar(&config.Polarization, "pol", DefaultPolarization, "Polarization: s, p or both.")
	fs.StringVar(&config.Frequencies, "freq", DefaultFrequencies, "Frequency sweep in Hz as start:stop:num.")
	fs.StringVar(&config.Wavevectors, "kx", DefaultWavevectors, "In-plane wavevector sweep in rad/m as start:stop:num.")
	fs.StringVar(&config.Angles, "angle", "", "Incidence angle sweep in degrees (start:stop:num); needs a single -freq value.")
	fs.StringVar(&config.Index, "n", DefaultIndex, "Comma-separated refractive indices, half-spaces included (e.g. 1,3.5+0.01i,1).")
	fs.StringVar(&config.Thickness, "d", DefaultThickness, "Comma-separated thicknesses of the finite layers.")
	fs.StringVar(&config.Unit, "unit", "m", "Length unit of -d: m, mm, um or nm.")
	fs.StringVar(&config.StackFile, "stack", "", "JSON5 stack description, as a file path or an inline {...} literal (overrides -n and -d).")
	fs.StringVar(&config.Backend, "backend", DefaultBackend, backendHelp)
	fs.IntVar(&config.Threshold, "threshold", backend.DefaultThreshold, "Element count below which backends stay on one goroutine.")
	fs.IntVar(&config.Workers, "workers", 0, "Goroutines per parallel backend (0 uses GOMAXPROCS).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.IntVar(&config.MaxGrid, "max-grid", DefaultMaxGrid, "Largest accepted number of (kx, omega) points.")
	fs.BoolVar(&config.Verbose, "v", false, "Print the full (kx, omega) table.")
	fs.BoolVar(&config.Details, "details", false, "Display timing and environment details.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn or error.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Measure the best -threshold and -workers for this machine and exit.")
	fs.BoolVar(&config.AutoCalibrate, "auto-calibrate", false, "Tune -threshold and -workers at startup (cached per machine).")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path of the calibration profile (default ~/.tmmcalc_calibration.json).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	config.Backend = strings.ToLower(config.Backend)
	config.Polarization = strings.ToLower(config.Polarization)
	if err := config.Validate(availableBackends); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}
