package occlusion

import (
	"math"
	"sort"

	"mini-canvas/internal/invariant"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/region"
)

// RingMap assigns each squared region distance that occurs inside a cube of
// the given radius a contiguous block of slots. Built once and shared.
type RingMap struct {
	Radius    int
	MaxSqDist int
	RingCount int
	// Capacity is the total number of slots, one per position in the cube.
	Capacity int

	start []int
	count []int
}

// NewRingMap enumerates every offset in [-radius, radius]³. The vertical
// axis is not clamped since the camera can be above or below the world.
func NewRingMap(radius int) *RingMap {
	maxSq := 3 * radius * radius
	count := make([]int, maxSq+1)
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			for y := -radius; y <= radius; y++ {
				count[x*x+y*y+z*z]++
			}
		}
	}

	dist := make([]int, 0, len(count))
	for d, n := range count {
		if n > 0 {
			dist = append(dist, d)
		}
	}
	sort.Ints(dist)

	start := make([]int, maxSq+1)
	for i := range start {
		start[i] = math.MaxInt
	}
	index := 0
	for _, d := range dist {
		start[d] = index
		index += count[d]
	}

	return &RingMap{
		Radius:    radius,
		MaxSqDist: dist[len(dist)-1],
		RingCount: len(dist),
		Capacity:  index,
		start:     start,
		count:     count,
	}
}

// Start returns the first slot for a squared distance, or math.MaxInt when
// no position has that distance.
func (m *RingMap) Start(sqDist int) int {
	if sqDist < 0 || sqDist > m.MaxSqDist {
		return math.MaxInt
	}
	return m.start[sqDist]
}

// RingSize returns the number of positions at a squared distance.
func (m *RingMap) RingSize(sqDist int) int {
	if sqDist < 0 || sqDist > m.MaxSqDist {
		return 0
	}
	return m.count[sqDist]
}

// CameraSet orders regions by squared camera distance using direct
// addressing: each distance owns a ring of slots filled in insertion order.
// Not safe for concurrent use.
type CameraSet struct {
	ring           *RingMap
	cursor         []int
	regions        []*region.Region
	iterationIndex int
	maxIndex       int
	version        int
}

// NewCameraSet creates an empty set over a shared ring map.
func NewCameraSet(ring *RingMap) *CameraSet {
	s := &CameraSet{
		ring:     ring,
		cursor:   make([]int, len(ring.start)),
		regions:  make([]*region.Region, ring.Capacity),
		maxIndex: -1,
		version:  1,
	}
	s.Clear()
	return s
}

// Version changes on every Clear.
func (s *CameraSet) Version() int { return s.version }

// Clear drops all regions, bumps the version and restarts iteration.
func (s *CameraSet) Clear() {
	copy(s.cursor, s.ring.start)
	if s.maxIndex >= 0 {
		clear(s.regions[:s.maxIndex+1])
	}
	s.maxIndex = -1
	s.version++
	s.ReturnToStart()
}

// ReturnToStart rewinds iteration without dropping contents.
func (s *CameraSet) ReturnToStart() {
	s.iterationIndex = 0
}

// Accepts reports whether the region's distance has a ring.
func (s *CameraSet) Accepts(r *region.Region) bool {
	return s.ring.Start(r.SquaredCameraChunkDistance()) != math.MaxInt
}

// Add stores the region in the next free slot of its distance ring. Regions
// whose distance has no ring are dropped.
func (s *CameraSet) Add(r *region.Region) {
	dist := r.SquaredCameraChunkDistance()
	if dist < 0 || dist > s.ring.MaxSqDist {
		return
	}

	index := s.cursor[dist]
	if index == math.MaxInt {
		return
	}
	if !s.saneAddition(r, dist, index) {
		return
	}

	s.regions[index] = r
	s.cursor[dist] = index + 1
	if index > s.maxIndex {
		s.maxIndex = index
	}
}

func (s *CameraSet) saneAddition(r *region.Region, dist, index int) bool {
	start := s.ring.start[dist]
	limit := start + s.ring.count[dist]
	if index < limit {
		return true
	}

	logging.Warn("region ring overrun at squared distance %d adding %s", dist, describe(r))
	if s.regions[0] != nil {
		logging.Warn("origin region: %s", describe(s.regions[0]))
	}
	for i := start; i < limit; i++ {
		logging.Warn("ring member: %s", describe(s.regions[i]))
	}
	invariant.Check(false, "region ring index overrun into next ring")
	return false
}

// Next returns the next region in distance order, or nil when exhausted.
func (s *CameraSet) Next() *region.Region {
	for s.iterationIndex <= s.maxIndex {
		r := s.regions[s.iterationIndex]
		s.iterationIndex++
		if r != nil {
			return r
		}
	}
	return nil
}

func describe(r *region.Region) string {
	if r == nil {
		return "<nil>"
	}
	return r.String()
}
