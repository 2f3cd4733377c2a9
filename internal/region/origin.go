package region

import "github.com/go-gl/mathgl/mgl32"

// Origin is the minimum block corner of a region plus its cached distance
// to the camera region.
type Origin struct {
	X, Y, Z int

	cameraVersion   int
	squaredDistance int
	horizontalSqr   int
}

// RegionX returns the region grid x coordinate.
func (o *Origin) RegionX() int { return o.X >> 4 }

// RegionY returns the region grid y coordinate.
func (o *Origin) RegionY() int { return o.Y >> 4 }

// RegionZ returns the region grid z coordinate.
func (o *Origin) RegionZ() int { return o.Z >> 4 }

// Center returns the block-space center of the region.
func (o *Origin) Center() mgl32.Vec3 {
	return mgl32.Vec3{float32(o.X) + 8, float32(o.Y) + 8, float32(o.Z) + 8}
}

// Matches reports whether the origin is at the given block corner.
func (o *Origin) Matches(x, y, z int) bool {
	return o.X == x && o.Y == y && o.Z == z
}

func (o *Origin) update(cam *cameraState) {
	if o.cameraVersion == cam.version {
		return
	}
	dx := o.RegionX() - cam.chunkX
	dy := o.RegionY() - cam.chunkY
	dz := o.RegionZ() - cam.chunkZ
	o.horizontalSqr = dx*dx + dz*dz
	o.squaredDistance = o.horizontalSqr + dy*dy
	o.cameraVersion = cam.version
}
