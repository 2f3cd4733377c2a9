package occlusion

import (
	"math"

	"github.com/gammazero/deque"
	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/profiling"
	"mini-canvas/internal/region"
)

// CameraTraversal floods visibility outward from the camera region in
// distance order.
type CameraTraversal struct {
	storage  *region.Storage
	set      *CameraSet
	advanced bool
	visible  []*region.Region

	// OnVisit, when set, sees every region the flood reaches, drawable or not.
	OnVisit func(*region.Region)
}

// NewCameraTraversal binds a camera set to the storage. advanced selects the
// front-facing-only neighbor policy instead of face connectivity.
func NewCameraTraversal(storage *region.Storage, ring *RingMap, advanced bool) *CameraTraversal {
	t := &CameraTraversal{
		storage:  storage,
		set:      NewCameraSet(ring),
		advanced: advanced,
	}
	storage.SetCameraCollector(t.set)
	return t
}

// Set exposes the underlying region set.
func (t *CameraTraversal) Set() *CameraSet { return t.set }

// Run clears the set, seeds the camera region and expands until no new
// regions are reached. Returns regions with geometry, nearest first. A nil
// frustum disables frustum culling.
func (t *CameraTraversal) Run(cameraPos mgl32.Vec3, frustum *Frustum) []*region.Region {
	defer profiling.Track("occlusion.CameraTraversal")()

	t.storage.SetCamera(cameraPos)
	if frustum != nil {
		t.storage.SetCuller(frustum)
	} else {
		t.storage.SetCuller(nil)
	}

	t.set.Clear()
	t.visible = t.visible[:0]

	start := seedRegion(t.storage, cameraPos)
	start.Camera.AddIfValid(0)

	for r := t.set.Next(); r != nil; r = t.set.Next() {
		if t.advanced {
			r.Neighbors().EnqueueUnvisitedCameraNeighborsAdvanced()
		} else {
			r.Neighbors().EnqueueUnvisitedCameraNeighbors(r.Build().OcclusionFlags)
		}

		if t.OnVisit != nil {
			t.OnVisit(r)
		}
		if r.Build().HasGeometry {
			t.visible = append(t.visible, r)
		}
	}
	return t.visible
}

// Rescan iterates the regions found by the last Run again without flooding.
func (t *CameraTraversal) Rescan() []*region.Region {
	t.set.ReturnToStart()
	t.visible = t.visible[:0]
	for r := t.set.Next(); r != nil; r = t.set.Next() {
		if !r.IsClosed() && r.Build().HasGeometry {
			t.visible = append(t.visible, r)
		}
	}
	return t.visible
}

// ShadowTraversal floods every region inside the shadow grid and render
// distance, then orders them by distance from the light.
type ShadowTraversal struct {
	storage  *region.Storage
	set      *ShadowSet
	frontier deque.Deque[*region.Region]
	casters  []*region.Region
}

// NewShadowTraversal binds a shadow set to the storage.
func NewShadowTraversal(storage *region.Storage) *ShadowTraversal {
	t := &ShadowTraversal{
		storage: storage,
		set:     NewShadowSet(storage.Indexer()),
	}
	storage.SetShadowCollector(t)
	return t
}

// Set exposes the underlying region set.
func (t *ShadowTraversal) Set() *ShadowSet { return t.set }

// Version delegates to the shadow set.
func (t *ShadowTraversal) Version() int { return t.set.Version() }

// Accepts limits the flood to the grid and the horizontal render distance.
func (t *ShadowTraversal) Accepts(r *region.Region) bool {
	return t.set.Contains(r) && r.IsInsideRenderDistance()
}

// Add records the region in the set and queues it for expansion.
func (t *ShadowTraversal) Add(r *region.Region) {
	t.set.Add(r)
	t.frontier.PushBack(r)
}

// Run floods from the camera column and returns shadow-casting regions in
// light order. lightVec points toward the light.
func (t *ShadowTraversal) Run(cameraPos mgl32.Vec3, lightVec mgl32.Vec3) []*region.Region {
	defer profiling.Track("occlusion.ShadowTraversal")()

	t.storage.SetCamera(cameraPos)
	t.set.SetCameraChunkOriginAndClear(int(math.Floor(float64(cameraPos[0]))), int(math.Floor(float64(cameraPos[2]))))
	t.frontier.Clear()

	seedRegion(t.storage, cameraPos).Shadow.AddIfValid(0)
	for t.frontier.Len() > 0 {
		t.frontier.PopFront().Neighbors().EnqueueUnvisitedShadowNeighbors()
	}

	t.set.SetLightVectorAndRestart(lightVec)
	t.casters = t.casters[:0]
	for r := t.set.Next(); r != nil; r = t.set.Next() {
		if r.Build().CastsShadow {
			t.casters = append(t.casters, r)
		}
	}
	return t.casters
}

// seedRegion is the region holding the camera, with y clamped into the
// world so a camera above or below the world still seeds a flood.
func seedRegion(storage *region.Storage, pos mgl32.Vec3) *region.Region {
	ix := storage.Indexer()
	x := int(math.Floor(float64(pos[0])))
	y := int(math.Floor(float64(pos[1])))
	z := int(math.Floor(float64(pos[2])))
	y = max(ix.BottomY(), min(y, ix.TopY()-1))
	return storage.GetOrCreateRegion(x, y, z)
}
