package occlusion

import (
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/invariant"
	"mini-canvas/internal/region"
)

// ShadowSet orders regions over a fixed grid around the camera column so
// that iteration runs from nearest to farthest from a directional light.
// Not safe for concurrent use.
type ShadowSet struct {
	ix          *region.Indexer
	regions     []*region.Region
	regionCount int
	version     int
	complete    bool

	xBase, zBase int

	// axes indexed by axisX, axisY, axisZ
	axes     [3]axisIterator
	order    AxisOrder
	rankBits int
}

// NewShadowSet sizes the grid from the indexer.
func NewShadowSet(ix *region.Indexer) *ShadowSet {
	s := &ShadowSet{
		ix:      ix,
		regions: make([]*region.Region, ix.PaddedIndexCount),
		version: 1,
		axes: [3]axisIterator{
			axisX: {bound: ix.Diameter},
			axisY: {bound: ix.MaxYRegions},
			axisZ: {bound: ix.Diameter},
		},
		order:    OrderXYZ,
		rankBits: bits.Len(uint(max(ix.Diameter, ix.MaxYRegions))),
	}
	s.Clear()
	return s
}

// Version changes on every Clear.
func (s *ShadowSet) Version() int { return s.version }

// RegionCount is the number of regions added since the last Clear.
func (s *ShadowSet) RegionCount() int { return s.regionCount }

// Order returns the axis permutation selected by the last light vector.
func (s *ShadowSet) Order() AxisOrder { return s.order }

// SetCameraChunkOriginAndClear recenters the grid on the camera region at
// block coordinates (x, z). Clears because addressing changes.
func (s *ShadowSet) SetCameraChunkOriginAndClear(x, z int) {
	s.xBase = s.ix.Radius - (x >> 4)
	s.zBase = s.ix.Radius - (z >> 4)
	s.Clear()
}

// SetLightVectorAndRestart sets the vector pointing toward the light. The
// axis with the largest magnitude iterates slowest, and each axis runs
// descending when its component is positive so that regions nearer the
// light come first. Restarts iteration; contents are kept.
//
// v runs from the scene to the light, not along the direction the light
// travels: a sun overhead is (0, 1, 0) and visits the top row first.
func (s *ShadowSet) SetLightVectorAndRestart(v mgl32.Vec3) {
	x, y, z := v[0], v[1], v[2]
	s.order = orderForLight(abs32(x), abs32(y), abs32(z))
	s.axes[axisX].descending = x > 0
	s.axes[axisY].descending = y > 0
	s.axes[axisZ].descending = z > 0
	s.ReturnToStart()
}

// Clear drops all regions, bumps the version and restarts iteration.
func (s *ShadowSet) Clear() {
	clear(s.regions)
	s.regionCount = 0
	s.version++
	s.ReturnToStart()
}

// ReturnToStart rewinds iteration without dropping contents.
func (s *ShadowSet) ReturnToStart() {
	for i := range s.axes {
		s.axes[i].reset()
	}
	s.complete = false
}

func (s *ShadowSet) gridCoords(r *region.Region) (rx, ry, rz int) {
	rx = r.Origin.RegionX() + s.xBase
	rz = r.Origin.RegionZ() + s.zBase
	ry = (r.Origin.Y + s.ix.YBlockOffset) >> 4
	return
}

// Contains reports whether the region falls inside the grid.
func (s *ShadowSet) Contains(r *region.Region) bool {
	rx, ry, rz := s.gridCoords(r)
	d := s.ix.Diameter
	return rx >= 0 && rx < d && rz >= 0 && rz < d && ry >= 0 && ry < s.ix.MaxYRegions
}

// Accepts is Contains.
func (s *ShadowSet) Accepts(r *region.Region) bool { return s.Contains(r) }

func (s *ShadowSet) index(rx, ry, rz int) int {
	return RankIndex(ry, rz, rx, s.ix.DiameterBits)
}

// Add stores the region at its grid slot. Adding two regions at the same
// slot in one epoch is a caller error.
func (s *ShadowSet) Add(r *region.Region) {
	rx, ry, rz := s.gridCoords(r)
	i := s.index(rx, ry, rz)
	if s.regions[i] != nil {
		invariant.Check(false, "shadow slot %d already holds %s adding %s", i, s.regions[i], r)
		return
	}
	s.regions[i] = r
	s.regionCount++
}

// Next returns the next region in light order, or nil when exhausted.
func (s *ShadowSet) Next() *region.Region {
	if s.complete {
		return nil
	}

	a := s.order.Axes()
	primary, secondary, tertiary := &s.axes[a[0]], &s.axes[a[1]], &s.axes[a[2]]

	for {
		r := s.regions[s.index(s.axes[axisX].pos, s.axes[axisY].pos, s.axes[axisZ].pos)]

		if !tertiary.next() && !secondary.next() && !primary.next() {
			s.complete = true
			return r
		}
		if r != nil {
			return r
		}
	}
}

// DistanceRank exposes the iteration order as a comparable value: regions
// with a lower rank are produced first.
func (s *ShadowSet) DistanceRank(r *region.Region) int {
	rx, ry, rz := s.gridCoords(r)
	return s.order.Rank(
		s.axes[axisX].direction(rx),
		s.axes[axisY].direction(ry),
		s.axes[axisZ].direction(rz),
		s.rankBits)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
