package cli

import (
	"fmt"
	"time"
)

// ProgressWithETA extends ProgressState with a smoothed progress rate and
// the estimated time remaining.
type ProgressWithETA struct {
	*ProgressState
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // progress per second, exponentially smoothed
}

// maxETA caps estimates made from very slow early progress.
const maxETA = 24 * time.Hour

// NewProgressWithETA creates a progress tracker with ETA estimation.
func NewProgressWithETA(numEvaluators int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numEvaluators),
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records progress for one evaluation and refreshes the rate
// estimate.
//
// Parameters:
//   - index: The evaluator index.
//   - value: The new progress value (0.0 to 1.0).
//
// Returns:
//   - progress: The current average progress.
//   - eta: The estimated time remaining, or 0 while there is too little data.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (progress float64, eta time.Duration) {
	p.Update(index, value)
	progress = p.CalculateAverage()

	now := time.Now()
	elapsed := now.Sub(p.startTime)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate = now
		p.lastProgress = progress
		return progress, 0
	}

	if sinceUpdate := now.Sub(p.lastUpdate).Seconds(); sinceUpdate > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			instant := delta / sinceUpdate
			if p.progressRate > 0 {
				p.progressRate = 0.7*p.progressRate + 0.3*instant
			} else {
				p.progressRate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}

	return progress, p.GetETA()
}

// GetETA returns the current estimate without recording progress.
func (p *ProgressWithETA) GetETA() time.Duration {
	progress := p.CalculateAverage()
	if p.progressRate <= 0 || progress >= 1.0 {
		return 0
	}
	eta := time.Duration((1.0 - progress) / p.progressRate * float64(time.Second))
	return min(eta, maxETA)
}

// FormatETA formats an ETA as "< 1s", "42s", "2m30s" or "1h15m".
// A non-positive ETA means there is no estimate yet.
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		minutes, seconds := int(eta.Minutes()), int(eta.Seconds())%60
		if seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	hours, minutes := int(eta.Hours()), int(eta.Minutes())%60
	if minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

// FormatProgressBarWithETA renders "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
