package region

import "fmt"

// ID addresses a region in the storage arena.
type ID int32

// NoRegion is the absent neighbor link.
const NoRegion ID = -1

// BuildState is the result of the last finished mesh build.
type BuildState struct {
	// OcclusionFlags is the face connectivity mask of the region's blocks.
	OcclusionFlags uint64
	HasGeometry    bool
	CastsShadow    bool
	Version        int
}

// Region is a 16³ block cube tracked by a Storage.
type Region struct {
	id      ID
	storage *Storage
	slot    int
	closed  bool
	dirty   bool

	Origin    Origin
	Camera    CameraVisibility
	Shadow    ShadowVisibility
	neighbors Neighbors
	build     BuildState
}

func newRegion(s *Storage, id ID, slot, x, y, z int) *Region {
	r := &Region{
		id:      id,
		storage: s,
		slot:    slot,
		dirty:   true,
		Origin:  Origin{X: x, Y: y, Z: z, cameraVersion: -1},
	}
	r.Camera = CameraVisibility{region: r, version: -1}
	r.Shadow = ShadowVisibility{region: r, version: -1}
	r.neighbors.init(r)
	// a fresh region connects every face until it has been built
	r.build.OcclusionFlags = FullyOpen
	return r
}

// ID returns the arena id.
func (r *Region) ID() ID { return r.id }

// Neighbors returns the lazily linked face neighbors.
func (r *Region) Neighbors() *Neighbors { return &r.neighbors }

// IsClosed reports whether the region was evicted or replaced.
func (r *Region) IsClosed() bool { return r.closed }

// Close detaches the region from its neighbors and frees its storage slot.
func (r *Region) Close() {
	r.storage.closeRegion(r)
}

// SquaredCameraChunkDistance is the squared distance in region units to the
// camera's region.
func (r *Region) SquaredCameraChunkDistance() int {
	r.Origin.update(&r.storage.camera)
	return r.Origin.squaredDistance
}

// HorizontalSquaredDistance ignores the vertical axis.
func (r *Region) HorizontalSquaredDistance() int {
	r.Origin.update(&r.storage.camera)
	return r.Origin.horizontalSqr
}

// IsFrontFacing reports whether the region is farther from the camera than
// a neighbor at fromSquaredDistance.
func (r *Region) IsFrontFacing(fromSquaredDistance int) bool {
	return r.SquaredCameraChunkDistance() > fromSquaredDistance
}

// IsInsideRenderDistance tests horizontal distance against the render distance.
func (r *Region) IsInsideRenderDistance() bool {
	return r.HorizontalSquaredDistance() <= r.storage.camera.maxSquaredRenderDistance
}

// IsPotentiallyVisibleFromCamera combines render distance and the frustum.
func (r *Region) IsPotentiallyVisibleFromCamera() bool {
	if !r.IsInsideRenderDistance() {
		return false
	}
	culler := r.storage.camera.culler
	return culler == nil || culler.RegionVisible(r.Origin.X, r.Origin.Y, r.Origin.Z)
}

// Build returns the last applied build result.
func (r *Region) Build() BuildState { return r.build }

// SetBuild applies a finished build and clears the dirty flag.
func (r *Region) SetBuild(b BuildState) {
	b.Version = r.build.Version + 1
	r.build = b
	r.dirty = false
}

// MarkDirty schedules a rebuild.
func (r *Region) MarkDirty() { r.dirty = true }

// IsDirty reports whether the region needs a rebuild.
func (r *Region) IsDirty() bool { return r.dirty }

func (r *Region) String() string {
	return fmt.Sprintf("region %d at (%d, %d, %d) sqdist %d", r.id, r.Origin.X, r.Origin.Y, r.Origin.Z, r.SquaredCameraChunkDistance())
}
