package profiling

import (
	"time"

	"mini-canvas/internal/logging"
)

// MicroTimer samples a hot code path and reports average, minimum and
// maximum elapsed time every Sample runs.
type MicroTimer struct {
	Label  string
	Sample int

	start   time.Time
	runs    int
	elapsed time.Duration
	min     time.Duration
	max     time.Duration

	// report is swapped in tests.
	report func(label string, avg, min, max time.Duration, runs int)
}

// NewMicroTimer creates a timer that logs at DEBUG once per sample window.
func NewMicroTimer(label string, sample int) *MicroTimer {
	if sample < 1 {
		sample = 1
	}
	return &MicroTimer{Label: label, Sample: sample, report: logReport}
}

// Start marks the beginning of one run.
func (t *MicroTimer) Start() {
	t.start = time.Now()
}

// Stop ends the current run and returns true when a report was emitted.
func (t *MicroTimer) Stop() bool {
	return t.record(time.Since(t.start))
}

func (t *MicroTimer) record(d time.Duration) bool {
	if t.runs == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.elapsed += d
	t.runs++

	if t.runs < t.Sample {
		return false
	}

	if t.report != nil {
		t.report(t.Label, t.elapsed/time.Duration(t.runs), t.min, t.max, t.runs)
	}
	t.runs = 0
	t.elapsed = 0
	t.min = 0
	t.max = 0
	return true
}

func logReport(label string, avg, min, max time.Duration, runs int) {
	logging.Debug("%s: avg %s min %s max %s over %d runs", label, avg, min, max, runs)
}
