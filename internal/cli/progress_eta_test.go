package cli

import (
	"strings"
	"testing"
	"time"
)

func TestNewProgressWithETA(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(3)

	if p.ProgressState == nil {
		t.Fatal("ProgressState should not be nil")
	}
	if p.numEvaluators != 3 {
		t.Errorf("numEvaluators = %d, want 3", p.numEvaluators)
	}
	if p.startTime.IsZero() {
		t.Error("startTime should not be zero")
	}
	if eta := p.GetETA(); eta != 0 {
		t.Errorf("initial ETA = %v, want 0", eta)
	}
}

func TestUpdateWithETA(t *testing.T) {
	t.Parallel()
	p := NewProgressWithETA(2)

	progress, eta := p.UpdateWithETA(0, 0.25)
	if progress != 0.125 {
		t.Errorf("progress = %f, want 0.125", progress)
	}
	if eta != 0 {
		t.Errorf("ETA right after start = %v, want 0", eta)
	}

	// Pretend the run started a while ago so a rate can be estimated.
	p.startTime = p.startTime.Add(-time.Second)
	p.lastUpdate = p.lastUpdate.Add(-time.Second)
	progress, eta = p.UpdateWithETA(1, 0.75)
	if progress != 0.5 {
		t.Errorf("progress = %f, want 0.5", progress)
	}
	if eta <= 0 || eta > maxETA {
		t.Errorf("ETA = %v, want a positive estimate", eta)
	}

	p.Update(0, 1)
	p.Update(1, 1)
	if eta := p.GetETA(); eta != 0 {
		t.Errorf("ETA when complete = %v, want 0", eta)
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		eta      time.Duration
		expected string
	}{
		{0, "calculating..."},
		{-time.Second, "calculating..."},
		{500 * time.Millisecond, "< 1s"},
		{42 * time.Second, "42s"},
		{2 * time.Minute, "2m"},
		{150 * time.Second, "2m30s"},
		{time.Hour, "1h"},
		{75 * time.Minute, "1h15m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.eta); got != tt.expected {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.eta, got, tt.expected)
		}
	}
}

func TestFormatProgressBarWithETA(t *testing.T) {
	t.Parallel()
	got := FormatProgressBarWithETA(0.5, 90*time.Second, 4)
	if !strings.HasPrefix(got, " 50.00% [██░░]") || !strings.HasSuffix(got, "ETA: 1m30s") {
		t.Errorf("unexpected bar %q", got)
	}
}
