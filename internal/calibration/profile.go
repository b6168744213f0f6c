package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/agbru/tmmcalc/internal/backend"
)

// CalibrationProfile stores the results of a calibration run together with
// the hardware it was measured on, so that cached results can be validated.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel    string   `json:"cpu_model"`
	NumCPU      int      `json:"num_cpu"`
	GOARCH      string   `json:"goarch"`
	GOOS        string   `json:"goos"`
	GoVersion   string   `json:"go_version"`
	CPUFeatures []string `json:"cpu_features,omitempty"`

	// Calibrated scheduling options of the parallel backend
	OptimalThreshold int `json:"optimal_threshold"`
	OptimalWorkers   int `json:"optimal_workers"`

	// Calibration metadata
	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationGrid int       `json:"calibration_grid"`
	CalibrationTime string    `json:"calibration_time"`
	ProfileVersion  int       `json:"profile_version"`
}

const (
	// CurrentProfileVersion is the current version of the profile format.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the default name for the calibration profile file.
	DefaultProfileFileName = ".tmmcalc_calibration.json"

	// DefaultMaxProfileAge is the age after which a cached profile is
	// measured again.
	DefaultMaxProfileAge = 30 * 24 * time.Hour
)

// GetDefaultProfilePath returns the default path for the calibration profile.
// It uses the user's home directory if available, otherwise the current directory.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile creates a new CalibrationProfile with current hardware info.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		CPUModel:       fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU()),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		CPUFeatures:    backend.CPUFeatures(),
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

// LoadProfile loads a calibration profile from the specified path.
// Returns nil and an error if the file doesn't exist or can't be parsed.
func LoadProfile(path string) (*CalibrationProfile, error) {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile CalibrationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &profile, nil
}

// SaveProfile saves the calibration profile to the specified path.
// If path is empty, uses the default profile path.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	return nil
}

// IsValid reports whether the profile was measured on hardware matching the
// current process: same format version, CPU count, architecture and vector
// extensions, with positive scheduling values.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	if p.ProfileVersion != CurrentProfileVersion {
		return false
	}
	if p.NumCPU != runtime.NumCPU() || p.GOARCH != runtime.GOARCH {
		return false
	}
	if strings.Join(p.CPUFeatures, ",") != strings.Join(backend.CPUFeatures(), ",") {
		return false
	}
	return p.OptimalThreshold > 0 && p.OptimalWorkers > 0
}

// IsStale checks if the profile is older than the given duration.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// String returns a human-readable summary of the profile.
func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf(
		"CalibrationProfile{CPU: %s, Threshold: %d, Workers: %d, Calibrated: %s}",
		p.CPUModel,
		p.OptimalThreshold,
		p.OptimalWorkers,
		p.CalibratedAt.Format(time.RFC3339),
	)
}

// LoadOrCreateProfile loads an existing profile, or returns a fresh one and
// false when the file is missing, unreadable, stale or measured on other
// hardware.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil {
		return NewProfile(), false
	}
	if !profile.IsValid() || profile.IsStale(DefaultMaxProfileAge) {
		return NewProfile(), false
	}
	return profile, true
}
