package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
)

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code from the current theme.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// Verdict renders a pass/fail tag. It goes through fatih/color so that
// color.NoColor, set by InitTheme, also covers redirected output.
func Verdict(ok bool, pass, fail string) string {
	if ok {
		return color.New(color.FgGreen, color.Bold).Sprint(pass)
	}
	return color.New(color.FgRed, color.Bold).Sprint(fail)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values in [0, 1] as a row of block characters.
// Non-finite values are drawn as '?'.
func Sparkline(values []float64) string {
	var b strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteRune('?')
			continue
		}
		v = math.Max(0, math.Min(1, v))
		b.WriteRune(sparkBlocks[int(math.Round(v*float64(top)))])
	}
	return b.String()
}

// Percent formats a fraction in [0, 1] as a percentage with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
