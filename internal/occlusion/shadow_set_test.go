package occlusion

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-canvas/internal/invariant"
	"mini-canvas/internal/region"
)

func drainShadow(s *ShadowSet) []*region.Region {
	var out []*region.Region
	for r := s.Next(); r != nil; r = s.Next() {
		out = append(out, r)
	}
	return out
}

func TestRankIndex(t *testing.T) {
	assert.Equal(t, 3|2<<4|1<<8, RankIndex(1, 2, 3, 4))
	assert.Equal(t, RankIndex(5, 1, 2, 7), OrderYZX.Rank(2, 5, 1, 7))
	assert.Equal(t, RankIndex(1, 2, 5, 7), OrderXYZ.Rank(1, 2, 5, 7))
	assert.Equal(t, RankIndex(5, 1, 2, 7), OrderZXY.Rank(1, 2, 5, 7))
}

func TestAxisIteratorWraps(t *testing.T) {
	up := axisIterator{bound: 3}
	up.reset()
	assert.True(t, up.next())
	assert.True(t, up.next())
	assert.False(t, up.next())
	assert.Equal(t, 0, up.pos)

	down := axisIterator{bound: 3, descending: true}
	down.reset()
	assert.Equal(t, 2, down.pos)
	assert.True(t, down.next())
	assert.True(t, down.next())
	assert.False(t, down.next())
	assert.Equal(t, 2, down.pos)
	assert.Equal(t, 3, down.direction(0))
}

func TestLightVectorSelectsOrder(t *testing.T) {
	set := NewShadowSet(testStorage(4).Indexer())

	cases := []struct {
		light mgl32.Vec3
		want  AxisOrder
	}{
		{mgl32.Vec3{5, 1, 1}, OrderXZY},
		{mgl32.Vec3{5, 2, 1}, OrderXYZ},
		{mgl32.Vec3{-5, 1, 2}, OrderXZY},
		{mgl32.Vec3{3, 1, 5}, OrderZXY},
		{mgl32.Vec3{1, 5, 1}, OrderYZX},
		{mgl32.Vec3{2, 5, 1}, OrderYXZ},
		{mgl32.Vec3{1, 2, 5}, OrderZYX},
		{mgl32.Vec3{0, -1, 0}, OrderYZX},
	}
	for _, tc := range cases {
		set.SetLightVectorAndRestart(tc.light)
		if got := set.Order(); got != tc.want {
			t.Fatalf("order for %v: got %s, want %s", tc.light, got, tc.want)
		}
	}

	set.SetLightVectorAndRestart(mgl32.Vec3{5, 1, 1})
	assert.Equal(t, 0, set.Order().Axes()[0])
	set.SetLightVectorAndRestart(mgl32.Vec3{1, 5, 1})
	assert.Equal(t, 1, set.Order().Axes()[0])
}

func cube(s *region.Storage) []*region.Region {
	var out []*region.Region
	for y := 0; y < 2; y++ {
		for z := 0; z < 2; z++ {
			for x := 0; x < 2; x++ {
				out = append(out, regionAt(s, x, y, z))
			}
		}
	}
	return out
}

func TestShadowScenarioLightBelow(t *testing.T) {
	s := testStorage(4)
	set := NewShadowSet(s.Indexer())
	set.SetCameraChunkOriginAndClear(8, 8)
	set.SetLightVectorAndRestart(mgl32.Vec3{0, -1, 0})

	regions := cube(s)
	for i := len(regions) - 1; i >= 0; i-- {
		set.Add(regions[i])
	}
	assert.Equal(t, 8, set.RegionCount())

	got := drainShadow(set)
	require.Len(t, got, 8)
	// y is resolved first, nearest the light; then z, then x
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0, got[i].Origin.RegionY())
		assert.Equal(t, 1, got[i+4].Origin.RegionY())
	}
	assert.Same(t, regions[0], got[0])
	assert.Same(t, regions[1], got[1])
	assert.Same(t, regions[2], got[2])
	assert.Same(t, regions[7], got[7])
}

func TestShadowScenarioLightAbove(t *testing.T) {
	s := testStorage(4)
	set := NewShadowSet(s.Indexer())
	set.SetCameraChunkOriginAndClear(8, 8)

	for _, r := range cube(s) {
		set.Add(r)
	}
	// the light vector can change after regions are added
	set.SetLightVectorAndRestart(mgl32.Vec3{0, 1, 0})

	got := drainShadow(set)
	require.Len(t, got, 8)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 1, got[i].Origin.RegionY(), "position %d", i)
		assert.Equal(t, 0, got[i+4].Origin.RegionY(), "position %d", i+4)
	}
}

func TestShadowOrderMatchesDistanceRank(t *testing.T) {
	s := testStorage(4)
	set := NewShadowSet(s.Indexer())
	rng := rand.New(rand.NewSource(11))

	lights := []mgl32.Vec3{
		{5, 1, 1}, {1, 5, 1}, {1, 1, 5}, {-3, 2, -1}, {0.2, -0.9, 0.4},
		{0, 1, 0}, {1, 0, 0}, {0, 0, -1}, {-1, -1, -1}, {0, 0, 0},
	}
	for _, light := range lights {
		set.SetCameraChunkOriginAndClear(8, 8)
		seen := make(map[*region.Region]bool)
		for len(seen) < 60 {
			r := regionAt(s, rng.Intn(9)-4, rng.Intn(8)-4, rng.Intn(9)-4)
			if !seen[r] {
				seen[r] = true
				set.Add(r)
			}
		}
		set.SetLightVectorAndRestart(light)

		got := drainShadow(set)
		require.Len(t, got, 60, "light %v", light)
		for i := 1; i < len(got); i++ {
			if set.DistanceRank(got[i-1]) >= set.DistanceRank(got[i]) {
				t.Fatalf("light %v: rank of %s not below %s", light, got[i-1], got[i])
			}
		}
		for _, r := range got {
			delete(seen, r)
		}
		assert.Empty(t, seen)
	}
}

func TestShadowSetVersionAndClear(t *testing.T) {
	s := testStorage(4)
	set := NewShadowSet(s.Indexer())
	v := set.Version()

	set.Add(regionAt(s, 0, 0, 0))
	set.SetCameraChunkOriginAndClear(0, 0)
	assert.Greater(t, set.Version(), v)
	assert.Equal(t, 0, set.RegionCount())
	assert.Nil(t, set.Next())
}

func TestShadowSetContains(t *testing.T) {
	s := testStorage(8)
	set := NewShadowSet(s.Indexer())
	set.SetCameraChunkOriginAndClear(0, 0)

	assert.True(t, set.Contains(regionAt(s, 8, 0, -8)))
	assert.False(t, set.Contains(regionAt(s, 9, 0, 0)))
	assert.False(t, set.Contains(regionAt(s, 0, 0, -9)))
}

func TestShadowSetDoubleInsert(t *testing.T) {
	s := testStorage(4)
	set := NewShadowSet(s.Indexer())
	r := regionAt(s, 1, 1, 1)
	set.Add(r)

	if invariant.Enabled {
		assert.Panics(t, func() { set.Add(r) })
	} else {
		set.Add(r)
		assert.Equal(t, 1, set.RegionCount())
	}
}
