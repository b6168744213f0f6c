// Package ui holds the terminal themes and the small text renderers (verdict
// tags, spectra sparklines) shared by the CLI and the usage screen.
package ui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Theme maps the roles of the terminal output onto escape sequences.
type Theme struct {
	Name string
	// Primary marks backend names and spectra.
	Primary string
	// Secondary marks labels and flag defaults.
	Secondary string
	// Success marks consistent results.
	Success string
	// Warning marks headings, durations and non-finite counts.
	Warning string
	// Error marks failures and mismatches.
	Error string
	// Info marks the stack description.
	Info      string
	Bold      string
	Underline string
	Reset     string
}

// sgr renders color attributes as a single SGR escape sequence.
func sgr(attrs ...color.Attribute) string {
	codes := make([]string, len(attrs))
	for i, a := range attrs {
		codes[i] = strconv.Itoa(int(a))
	}
	return "\033[" + strings.Join(codes, ";") + "m"
}

func newTheme(name string, primary, secondary, success, warning, failure, info color.Attribute) Theme {
	return Theme{
		Name:      name,
		Primary:   sgr(primary),
		Secondary: sgr(secondary),
		Success:   sgr(success),
		Warning:   sgr(warning),
		Error:     sgr(failure),
		Info:      sgr(info),
		Bold:      sgr(color.Bold),
		Underline: sgr(color.Underline),
		Reset:     sgr(color.Reset),
	}
}

var (
	// DarkTheme uses the bright palette.
	DarkTheme = newTheme("dark", color.FgHiBlue, color.FgHiBlack, color.FgHiGreen, color.FgHiYellow, color.FgHiRed, color.FgHiMagenta)

	// LightTheme uses the normal-intensity palette, readable on white.
	LightTheme = newTheme("light", color.FgBlue, color.FgHiBlack, color.FgGreen, color.FgYellow, color.FgRed, color.FgMagenta)

	// NoColorTheme emits no escape sequences at all.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// lookupTheme returns the named theme, falling back to DarkTheme.
func lookupTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return DarkTheme
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates the theme called name ("dark", "light" or "none").
// Unknown names select the dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = lookupTheme(name)
}

// InitTheme selects the theme from the -no-color flag and the environment.
// Colors are off when noColor is set, when NO_COLOR is present
// (https://no-color.org/), or when TMMCALC_THEME is "none". TMMCALC_THEME
// may also pick "light".
//
// Parameters:
//   - noColor: If true, disables all color output regardless of environment.
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	color.NoColor = noColor
	if noColor {
		currentTheme = NoColorTheme
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		color.NoColor = true
		currentTheme = NoColorTheme
		return
	}

	currentTheme = lookupTheme(os.Getenv("TMMCALC_THEME"))
	color.NoColor = currentTheme.Name == NoColorTheme.Name
}
