package region

import "mini-canvas/internal/invariant"

// Neighbors caches a region's face-adjacent regions by arena id and runs
// one flood-fill step for camera or shadow visibility.
type Neighbors struct {
	owner    *Region
	ids      [FaceCount]ID
	isTop    bool
	isBottom bool
}

func (n *Neighbors) init(owner *Region) {
	n.owner = owner
	for i := range n.ids {
		n.ids[i] = NoRegion
	}
	ix := owner.storage.indexer
	n.isBottom = owner.Origin.Y == ix.BottomY()
	n.isTop = owner.Origin.Y == ix.TopY()-16
}

// IsTop reports whether the region is in the highest row of the world.
func (n *Neighbors) IsTop() bool { return n.isTop }

// IsBottom reports whether the region is in the lowest row of the world.
func (n *Neighbors) IsBottom() bool { return n.isBottom }

// Linked returns the currently linked neighbor across face without creating
// one.
func (n *Neighbors) Linked(face Face) *Region {
	id := n.ids[face]
	if id == NoRegion {
		return nil
	}
	return n.owner.storage.arena[id]
}

// Get returns the neighbor across face, creating and linking it when needed.
// Returns nil above the top row or below the bottom row.
func (n *Neighbors) Get(face Face) *Region {
	if (face == Up && n.isTop) || (face == Down && n.isBottom) {
		return nil
	}
	return n.get(face)
}

func (n *Neighbors) get(face Face) *Region {
	s := n.owner.storage
	if id := n.ids[face]; id != NoRegion {
		if r := s.arena[id]; r != nil && !r.closed {
			return r
		}
	}

	dx, dy, dz := face.Offset()
	o := &n.owner.Origin
	r := s.GetOrCreateRegion(o.X+dx*16, o.Y+dy*16, o.Z+dz*16)
	n.ids[face] = r.id
	r.neighbors.attachOrConfirmVisitingNeighbor(face.Opposite(), n.owner)
	return r
}

func (n *Neighbors) attachOrConfirmVisitingNeighbor(visitingFace Face, visitor *Region) {
	invariant.Check(n.ids[visitingFace] == NoRegion || n.ids[visitingFace] == visitor.id,
		"visiting region %d attaching to %s of region %d already linked to %d",
		visitor.id, visitingFace, n.owner.id, n.ids[visitingFace])

	n.ids[visitingFace] = visitor.id
}

func (n *Neighbors) notifyNeighborClosed(closedFace Face, closing *Region) {
	invariant.Check(n.ids[closedFace] == closing.id,
		"closing region %d does not match %s link %d of region %d",
		closing.id, closedFace, n.ids[closedFace], n.owner.id)

	n.ids[closedFace] = NoRegion
}

func (n *Neighbors) close() {
	s := n.owner.storage
	for f := Face(0); f < FaceCount; f++ {
		id := n.ids[f]
		if id == NoRegion {
			continue
		}
		if r := s.arena[id]; r != nil {
			r.neighbors.notifyNeighborClosed(f.Opposite(), n.owner)
		}
		n.ids[f] = NoRegion
	}
}

// ForEachAvailable visits the four horizontal neighbors and, inside the
// world height, the vertical ones.
func (n *Neighbors) ForEachAvailable(fn func(*Region)) {
	fn(n.get(East))
	fn(n.get(West))
	fn(n.get(North))
	fn(n.get(South))

	if !n.isTop {
		fn(n.get(Up))
	}
	if !n.isBottom {
		fn(n.get(Down))
	}
}

// EnqueueUnvisitedCameraNeighbors is the simple culling step: a neighbor is
// offered when the face toward it is reachable from a face this region was
// entered through, and it lies farther from the camera.
func (n *Neighbors) EnqueueUnvisitedCameraNeighbors(mutualFaceFlags uint64) {
	timer := n.owner.storage.enqueueTimer
	timer.Start()

	mySquaredDist := n.owner.SquaredCameraChunkDistance()
	openFlags := OpenFacesFlag(mutualFaceFlags, n.owner.Camera.EntryFaceFlags())

	if openFlags&East.Flag() != 0 {
		n.get(East).Camera.AddIfFrontFacing(West.Flag(), mySquaredDist)
	}
	if openFlags&West.Flag() != 0 {
		n.get(West).Camera.AddIfFrontFacing(East.Flag(), mySquaredDist)
	}
	if openFlags&North.Flag() != 0 {
		n.get(North).Camera.AddIfFrontFacing(South.Flag(), mySquaredDist)
	}
	if openFlags&South.Flag() != 0 {
		n.get(South).Camera.AddIfFrontFacing(North.Flag(), mySquaredDist)
	}
	if !n.isTop && openFlags&Up.Flag() != 0 {
		n.get(Up).Camera.AddIfFrontFacing(Down.Flag(), mySquaredDist)
	}
	if !n.isBottom && openFlags&Down.Flag() != 0 {
		n.get(Down).Camera.AddIfFrontFacing(Up.Flag(), mySquaredDist)
	}

	timer.Stop()
}

// EnqueueUnvisitedCameraNeighborsAdvanced is the advanced culling step: every
// front-facing neighbor is offered and occlusion is left to a later test.
func (n *Neighbors) EnqueueUnvisitedCameraNeighborsAdvanced() {
	mySquaredDist := n.owner.SquaredCameraChunkDistance()

	offer := func(f Face) {
		r := n.get(f)
		if r.IsFrontFacing(mySquaredDist) {
			r.Camera.AddIfValid(f.Opposite().Flag())
		}
	}

	offer(East)
	offer(West)
	offer(North)
	offer(South)
	if !n.isTop {
		offer(Up)
	}
	if !n.isBottom {
		offer(Down)
	}
}

// EnqueueUnvisitedShadowNeighbors offers every neighbor to the shadow pass,
// tagged with the face it is entered through.
func (n *Neighbors) EnqueueUnvisitedShadowNeighbors() {
	n.get(East).Shadow.AddIfValid(West.Flag())
	n.get(West).Shadow.AddIfValid(East.Flag())
	n.get(North).Shadow.AddIfValid(South.Flag())
	n.get(South).Shadow.AddIfValid(North.Flag())

	if !n.isTop {
		n.get(Up).Shadow.AddIfValid(Down.Flag())
	}
	if !n.isBottom {
		n.get(Down).Shadow.AddIfValid(Up.Flag())
	}
}
