package occlusion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-canvas/internal/region"
)

var cameraPos = mgl32.Vec3{8, 8, 8}

// columns within horizontal radius 2 of the origin
const columnsInRadius2 = 13

// covers the full world height above and below the camera
var tallRing = NewRingMap(24)

func TestCameraTraversalVisitsRenderVolume(t *testing.T) {
	for _, advanced := range []bool{false, true} {
		s := testStorage(4)
		s.SetRenderDistance(2)
		trav := NewCameraTraversal(s, tallRing, advanced)

		var visited []*region.Region
		trav.OnVisit = func(r *region.Region) { visited = append(visited, r) }

		visible := trav.Run(cameraPos, nil)
		assert.Empty(t, visible, "nothing has been built")
		require.Len(t, visited, columnsInRadius2*24, "advanced=%v", advanced)

		assert.Equal(t, 0, visited[0].SquaredCameraChunkDistance())
		for i := 1; i < len(visited); i++ {
			assert.LessOrEqual(t, visited[i-1].SquaredCameraChunkDistance(), visited[i].SquaredCameraChunkDistance())
		}
	}
}

func TestCameraTraversalReturnsDrawableNearestFirst(t *testing.T) {
	s := testStorage(4)
	s.SetRenderDistance(3)
	trav := NewCameraTraversal(s, tallRing, false)

	far := regionAt(s, 2, 0, 0)
	near := regionAt(s, 0, 1, 0)
	far.SetBuild(region.BuildState{OcclusionFlags: region.FullyOpen, HasGeometry: true})
	near.SetBuild(region.BuildState{OcclusionFlags: region.FullyOpen, HasGeometry: true})

	visible := trav.Run(cameraPos, nil)
	require.Len(t, visible, 2)
	assert.Same(t, near, visible[0])
	assert.Same(t, far, visible[1])

	again := trav.Rescan()
	assert.Equal(t, []*region.Region{near, far}, again)
}

func TestCameraTraversalSimplePolicyStopsAtSolidRegions(t *testing.T) {
	s := testStorage(4)
	s.SetRenderDistance(3)

	// build every region around the camera as solid
	for x := -3; x <= 3; x++ {
		for z := -3; z <= 3; z++ {
			for y := -4; y < 20; y++ {
				regionAt(s, x, y, z).SetBuild(region.BuildState{OcclusionFlags: 0, HasGeometry: true})
			}
		}
	}

	simple := NewCameraTraversal(s, tallRing, false)
	visible := simple.Run(cameraPos, nil)
	// the camera region opens every face; solid neighbors open none
	assert.Len(t, visible, 7)

	advanced := NewCameraTraversal(s, tallRing, true)
	visible = advanced.Run(cameraPos, nil)
	assert.Greater(t, len(visible), 7)
}

func TestCameraTraversalFrustum(t *testing.T) {
	s := testStorage(4)
	s.SetRenderDistance(4)
	trav := NewCameraTraversal(s, tallRing, true)

	for x := -4; x <= 4; x++ {
		for z := -4; z <= 4; z++ {
			regionAt(s, x, 0, z).SetBuild(region.BuildState{OcclusionFlags: region.FullyOpen, HasGeometry: true})
		}
	}

	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 512)
	view := mgl32.LookAtV(cameraPos, cameraPos.Add(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 1, 0})
	visible := trav.Run(cameraPos, NewFrustum(proj.Mul4(view)))

	require.NotEmpty(t, visible)
	ahead := false
	for _, r := range visible {
		assert.Greater(t, r.Origin.RegionX(), -2, "region behind the camera: %s", r)
		if r.Origin.RegionX() >= 2 {
			ahead = true
		}
	}
	assert.True(t, ahead)

	// without a frustum everything in range comes back
	all := trav.Run(cameraPos, nil)
	assert.Greater(t, len(all), len(visible))
}

func TestShadowTraversalOrdersCasters(t *testing.T) {
	s := testStorage(4)
	s.SetRenderDistance(2)
	trav := NewShadowTraversal(s)

	low := regionAt(s, 0, 0, 0)
	high := regionAt(s, 1, 3, 0)
	low.SetBuild(region.BuildState{CastsShadow: true, HasGeometry: true})
	high.SetBuild(region.BuildState{CastsShadow: true, HasGeometry: true})

	casters := trav.Run(cameraPos, mgl32.Vec3{0.1, 1, 0.2})
	assert.Equal(t, columnsInRadius2*24, trav.Set().RegionCount())
	require.Len(t, casters, 2)
	assert.Same(t, high, casters[0])
	assert.Same(t, low, casters[1])

	casters = trav.Run(cameraPos, mgl32.Vec3{0.1, -1, 0.2})
	require.Len(t, casters, 2)
	assert.Same(t, low, casters[0])
}

func TestFrustumRegionVisible(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := NewFrustum(proj.Mul4(view))

	assert.True(t, f.RegionVisible(-8, -8, -40))
	assert.False(t, f.RegionVisible(-8, -8, 40))
	assert.False(t, f.RegionVisible(-8, -8, -400))
}
