package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// getEnvString returns the value of EnvPrefix+key, or defaultVal if unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns EnvPrefix+key parsed as int, or defaultVal if unset or
// invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns EnvPrefix+key parsed as bool. Accepts true/1/yes and
// false/0/no, case-insensitive.
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns EnvPrefix+key parsed as a duration ("30s", "2m").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				found = true
			}
		}
	})
	return found
}

// envBinding ties a flag to its environment variable.
type envBinding struct {
	flags []string
	env   string
	apply func(c *AppConfig, env string)
}

func stringBinding(env string, field func(*AppConfig) *string, flags ...string) envBinding {
	return envBinding{flags: flags, env: env, apply: func(c *AppConfig, env string) {
		p := field(c)
		*p = getEnvString(env, *p)
	}}
}

func intBinding(env string, field func(*AppConfig) *int, flags ...string) envBinding {
	return envBinding{flags: flags, env: env, apply: func(c *AppConfig, env string) {
		p := field(c)
		*p = getEnvInt(env, *p)
	}}
}

func boolBinding(env string, field func(*AppConfig) *bool, flags ...string) envBinding {
	return envBinding{flags: flags, env: env, apply: func(c *AppConfig, env string) {
		p := field(c)
		*p = getEnvBool(env, *p)
	}}
}

// envBindings lists every TMMCALC_* variable. Priority is
// CLI flags > environment variables > defaults.
var envBindings = []envBinding{
	stringBinding("POL", func(c *AppConfig) *string { return &c.Polarization }, "pol"),
	stringBinding("FREQ", func(c *AppConfig) *string { return &c.Frequencies }, "freq"),
	stringBinding("KX", func(c *AppConfig) *string { return &c.Wavevectors }, "kx"),
	stringBinding("ANGLE", func(c *AppConfig) *string { return &c.Angles }, "angle"),
	stringBinding("INDEX", func(c *AppConfig) *string { return &c.Index }, "n"),
	stringBinding("THICKNESS", func(c *AppConfig) *string { return &c.Thickness }, "d"),
	stringBinding("UNIT", func(c *AppConfig) *string { return &c.Unit }, "unit"),
	stringBinding("STACK", func(c *AppConfig) *string { return &c.StackFile }, "stack"),
	stringBinding("BACKEND", func(c *AppConfig) *string { return &c.Backend }, "backend"),
	stringBinding("PORT", func(c *AppConfig) *string { return &c.Port }, "port"),
	stringBinding("LOG_LEVEL", func(c *AppConfig) *string { return &c.LogLevel }, "log-level"),
	stringBinding("CALIBRATION_PROFILE", func(c *AppConfig) *string { return &c.CalibrationProfile }, "calibration-profile"),
	intBinding("THRESHOLD", func(c *AppConfig) *int { return &c.Threshold }, "threshold"),
	intBinding("WORKERS", func(c *AppConfig) *int { return &c.Workers }, "workers"),
	intBinding("MAX_GRID", func(c *AppConfig) *int { return &c.MaxGrid }, "max-grid"),
	boolBinding("SERVER", func(c *AppConfig) *bool { return &c.ServerMode }, "server"),
	boolBinding("JSON", func(c *AppConfig) *bool { return &c.JSONOutput }, "json"),
	boolBinding("VERBOSE", func(c *AppConfig) *bool { return &c.Verbose }, "v"),
	boolBinding("DETAILS", func(c *AppConfig) *bool { return &c.Details }, "details"),
	boolBinding("QUIET", func(c *AppConfig) *bool { return &c.Quiet }, "quiet", "q"),
	boolBinding("NO_COLOR", func(c *AppConfig) *bool { return &c.NoColor }, "no-color"),
	boolBinding("AUTO_CALIBRATE", func(c *AppConfig) *bool { return &c.AutoCalibrate }, "auto-calibrate"),
}

// applyEnvOverrides applies TMMCALC_* values to every setting whose flag was
// not given on the command line.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, b := range envBindings {
		if !isFlagSet(fs, b.flags...) {
			b.apply(config, b.env)
		}
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}
