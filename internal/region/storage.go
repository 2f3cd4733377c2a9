package region

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/profiling"
)

// Culler tests a region's bounding box, given by its minimum block corner.
type Culler interface {
	RegionVisible(originX, originY, originZ int) bool
}

type cameraState struct {
	version                  int
	chunkX, chunkY, chunkZ   int
	maxSquaredRenderDistance int
	culler                   Culler
}

// Storage is the arena of live regions. Slots are torus-wrapped, so a
// region requested at a position whose slot still holds a region from the
// other side of the torus replaces it.
type Storage struct {
	indexer *Indexer
	slots   []ID
	arena   []*Region
	free    []ID
	loaded  int
	camera  cameraState

	cameraCollector Collector
	shadowCollector Collector

	enqueueTimer *profiling.MicroTimer
	closeHooks   []func(*Region)
}

// NewStorage allocates the slot table for the indexer's capacity.
func NewStorage(ix *Indexer) *Storage {
	slots := make([]ID, ix.PaddedIndexCount)
	for i := range slots {
		slots[i] = NoRegion
	}
	s := &Storage{
		indexer:      ix,
		slots:        slots,
		enqueueTimer: profiling.NewMicroTimer("enqueue", 500000),
	}
	s.camera.maxSquaredRenderDistance = ix.Radius * ix.Radius
	return s
}

// Indexer returns the indexer the storage was sized with.
func (s *Storage) Indexer() *Indexer { return s.indexer }

// SetCameraCollector sets the collector that camera visibility adds to.
func (s *Storage) SetCameraCollector(c Collector) { s.cameraCollector = c }

// SetShadowCollector sets the collector that shadow visibility adds to.
func (s *Storage) SetShadowCollector(c Collector) { s.shadowCollector = c }

// OnClose registers a callback run whenever a region is closed.
func (s *Storage) OnClose(fn func(*Region)) {
	s.closeHooks = append(s.closeHooks, fn)
}

// SetCamera moves the camera. Region distances are recomputed lazily when
// the camera changes region.
func (s *Storage) SetCamera(pos mgl32.Vec3) {
	cx := int(math.Floor(float64(pos[0]))) >> 4
	cy := int(math.Floor(float64(pos[1]))) >> 4
	cz := int(math.Floor(float64(pos[2]))) >> 4
	if cx == s.camera.chunkX && cy == s.camera.chunkY && cz == s.camera.chunkZ && s.camera.version != 0 {
		return
	}
	s.camera.chunkX, s.camera.chunkY, s.camera.chunkZ = cx, cy, cz
	s.camera.version++
}

// CameraChunk returns the camera's region coordinates.
func (s *Storage) CameraChunk() (x, y, z int) {
	return s.camera.chunkX, s.camera.chunkY, s.camera.chunkZ
}

// SetRenderDistance sets the horizontal render distance in regions.
func (s *Storage) SetRenderDistance(regions int) {
	s.camera.maxSquaredRenderDistance = regions * regions
}

// SetCuller sets the frustum test. Nil disables frustum culling.
func (s *Storage) SetCuller(c Culler) {
	s.camera.culler = c
}

// GetOrCreateRegion returns the region containing the block, creating it on
// demand. Returns nil outside the world height.
func (s *Storage) GetOrCreateRegion(x, y, z int) *Region {
	slot := s.indexer.RegionIndex(x, y, z)
	if slot < 0 {
		return nil
	}
	ox, oy, oz := RegionOrigin(x), RegionOrigin(y), RegionOrigin(z)

	if id := s.slots[slot]; id != NoRegion {
		r := s.arena[id]
		if r.Origin.Matches(ox, oy, oz) {
			return r
		}
		s.closeRegion(r)
	}

	var id ID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		id = ID(len(s.arena))
		s.arena = append(s.arena, nil)
	}

	r := newRegion(s, id, slot, ox, oy, oz)
	s.arena[id] = r
	s.slots[slot] = id
	s.loaded++
	return r
}

// Region returns the live region containing the block without creating it.
func (s *Storage) Region(x, y, z int) *Region {
	slot := s.indexer.RegionIndex(x, y, z)
	if slot < 0 || s.slots[slot] == NoRegion {
		return nil
	}
	r := s.arena[s.slots[slot]]
	if !r.Origin.Matches(RegionOrigin(x), RegionOrigin(y), RegionOrigin(z)) {
		return nil
	}
	return r
}

// ByID returns the live region with the given id, or nil.
func (s *Storage) ByID(id ID) *Region {
	if id < 0 || int(id) >= len(s.arena) {
		return nil
	}
	return s.arena[id]
}

// LoadedCount returns the number of live regions.
func (s *Storage) LoadedCount() int { return s.loaded }

// ForEach visits every live region in arena order.
func (s *Storage) ForEach(fn func(*Region)) {
	for _, r := range s.arena {
		if r != nil {
			fn(r)
		}
	}
}

// EvictOutside closes regions farther than radius regions horizontally from
// the camera. Returns the number closed.
func (s *Storage) EvictOutside(radius int) int {
	defer profiling.Track("region.EvictOutside")()
	limit := radius * radius
	removed := 0
	for _, r := range s.arena {
		if r != nil && r.HorizontalSquaredDistance() > limit {
			s.closeRegion(r)
			removed++
		}
	}
	return removed
}

// Clear closes every region.
func (s *Storage) Clear() {
	for _, r := range s.arena {
		if r != nil {
			s.closeRegion(r)
		}
	}
}

func (s *Storage) closeRegion(r *Region) {
	if r.closed {
		return
	}
	r.neighbors.close()
	r.closed = true
	s.slots[r.slot] = NoRegion
	s.arena[r.id] = nil
	s.free = append(s.free, r.id)
	s.loaded--

	for _, fn := range s.closeHooks {
		fn(r)
	}
}
