package profiling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackAccumulates(t *testing.T) {
	ResetFrame()
	defer ResetFrame()

	Track("a")()
	Track("a")()
	Track("b")()

	ss := Snapshot()
	assert.Len(t, ss, 2)
	assert.Contains(t, ss, "a")

	ResetFrame()
	assert.Empty(t, Snapshot())
}

func TestTopNOrdering(t *testing.T) {
	ResetFrame()
	defer ResetFrame()

	mu.Lock()
	frameTotals["slow"] = 4200 * time.Microsecond
	frameTotals["fast"] = 1500 * time.Microsecond
	frameTotals["tiny"] = 2 * time.Millisecond
	mu.Unlock()

	assert.Equal(t, "slow:4.2ms, tiny:2ms", TopN(2))
	assert.Equal(t, "slow:4.2ms, tiny:2ms, fast:1.5ms", TopN(10))
}

func TestRunAverages(t *testing.T) {
	ResetFrame()
	ResetRun()
	defer ResetRun()

	set := func(name string, d time.Duration) {
		mu.Lock()
		frameTotals[name] = d
		mu.Unlock()
	}
	set("frame", 4*time.Millisecond)
	set("mesh", time.Millisecond)
	ResetFrame()
	set("frame", 2*time.Millisecond)
	ResetFrame()
	// empty frames are not counted
	ResetFrame()

	avg, frames := RunAverages()
	assert.Equal(t, 2, frames)
	assert.Equal(t, 3*time.Millisecond, avg["frame"])
	assert.Equal(t, 500*time.Microsecond, avg["mesh"])
	assert.Equal(t, "frame:3ms", AverageTopN(1))
	assert.Empty(t, TopN(-1))

	ResetRun()
	avg, frames = RunAverages()
	assert.Zero(t, frames)
	assert.Empty(t, avg)
}

func TestMicroTimerReportsPerSample(t *testing.T) {
	var gotAvg, gotMin, gotMax time.Duration
	reports := 0

	mt := NewMicroTimer("flood", 3)
	mt.report = func(_ string, avg, min, max time.Duration, runs int) {
		reports++
		gotAvg, gotMin, gotMax = avg, min, max
		assert.Equal(t, 3, runs)
	}

	assert.False(t, mt.record(2*time.Millisecond))
	assert.False(t, mt.record(1*time.Millisecond))
	assert.True(t, mt.record(3*time.Millisecond))

	assert.Equal(t, 1, reports)
	assert.Equal(t, 2*time.Millisecond, gotAvg)
	assert.Equal(t, 1*time.Millisecond, gotMin)
	assert.Equal(t, 3*time.Millisecond, gotMax)

	assert.False(t, mt.record(time.Millisecond))
}
