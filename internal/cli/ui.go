// Package cli renders evaluation runs in the terminal: a spinner with an
// aggregated progress bar while the backends run, then summaries and tables
// of the reflectance and transmittance grids.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/tmmcalc/internal/tmm"
	"github.com/agbru/tmmcalc/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
	// SparklineWidth caps the number of columns of the reflectance sparkline.
	SparklineWidth = 60
)

// Color functions delegate to the ui package theme.

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return ui.GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return ui.GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return ui.GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return ui.GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return ui.GetCurrentTheme().Primary }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return ui.GetCurrentTheme().Info }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return ui.GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return ui.GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code from the current theme.
func ColorUnderline() string { return ui.GetCurrentTheme().Underline }

// Spinner abstracts the terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts *spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Suffix = suffix
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState tracks the progress of concurrent evaluations and averages
// it into a single value.
type ProgressState struct {
	progresses    []float64
	numEvaluators int
}

// NewProgressState creates a ProgressState for numEvaluators evaluations.
func NewProgressState(numEvaluators int) *ProgressState {
	return &ProgressState{
		progresses:    make([]float64, numEvaluators),
		numEvaluators: numEvaluators,
	}
}

// Update records the progress of one evaluation. Out-of-range indices are
// ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress over all evaluations.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numEvaluators == 0 {
		return 0.0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numEvaluators)
}

// progressBar renders progress in [0, 1] as a bar of length characters.
func progressBar(progress float64, length int) string {
	progress = max(0.0, min(1.0, progress))
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// DisplayProgress drives the spinner and progress bar until progressChan is
// closed. It runs in its own goroutine and calls wg.Done on exit.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numEvaluators: The number of evaluations contributing to the progress.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan tmm.ProgressUpdate, numEvaluators int, out io.Writer) {
	defer wg.Done()
	if numEvaluators <= 0 {
		for range progressChan {
		}
		return
	}

	label := "Progress"
	if numEvaluators > 1 {
		label = "Avg progress"
	}

	state := NewProgressWithETA(numEvaluators)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				spinnerStopped = true
				fmt.Fprintf(out, "%s: %s\n", label, FormatProgressBarWithETA(1.0, time.Nanosecond, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.EvaluatorIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label,
				FormatProgressBarWithETA(state.CalculateAverage(), state.GetETA(), ProgressBarWidth)))
		}
	}
}
