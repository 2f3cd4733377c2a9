package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Frame and run CPU totals for the terrain pipeline. A frame is the time
// between two ResetFrame calls; the run is every frame since ResetRun.

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
	runTotals   = make(map[string]time.Duration)
	runFrames   int
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("terrain.CameraTraversal")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		frameTotals[name] += d
		mu.Unlock()
	}
}

// ResetFrame folds the finished frame into the run totals and starts a new
// one. Call at the start of each frame. Frames that recorded nothing are not
// counted.
func ResetFrame() {
	mu.Lock()
	if len(frameTotals) > 0 {
		for k, v := range frameTotals {
			runTotals[k] += v
		}
		runFrames++
	}
	clear(frameTotals)
	mu.Unlock()
}

// ResetRun drops the run totals.
func ResetRun() {
	mu.Lock()
	clear(runTotals)
	runFrames = 0
	mu.Unlock()
}

// Snapshot returns a copy of current per-frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	return copyTotals(frameTotals, 1)
}

// RunAverages returns the per-frame average of every name over the run, and
// the number of frames averaged.
func RunAverages() (map[string]time.Duration, int) {
	mu.Lock()
	defer mu.Unlock()
	if runFrames == 0 {
		return map[string]time.Duration{}, 0
	}
	return copyTotals(runTotals, runFrames), runFrames
}

func copyTotals(src map[string]time.Duration, div int) map[string]time.Duration {
	out := make(map[string]time.Duration, len(src))
	for k, v := range src {
		out[k] = v / time.Duration(div)
	}
	return out
}

// TopN formats top N durations from the current frame totals.
// Example: "terrain.CameraTraversal:4.2ms, meshing.Build:2.1ms"
func TopN(n int) string {
	return formatTop(Snapshot(), n)
}

// AverageTopN is TopN over the run averages.
func AverageTopN(n int) string {
	avg, _ := RunAverages()
	return formatTop(avg, n)
}

func formatTop(totals map[string]time.Duration, n int) string {
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(totals))
	for k, v := range totals {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	n = max(0, min(n, len(list)))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		parts = append(parts, p.name+":"+formatMs(p.dur))
	}
	return strings.Join(parts, ", ")
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	return strconv.FormatFloat(ms, 'f', -1, 64) + "ms"
}
