package region

// Collector receives regions found by a flood fill. Version changes on every
// clear; a region is added at most once per version.
type Collector interface {
	Version() int
	Accepts(r *Region) bool
	Add(r *Region)
}

// CameraVisibility tracks camera flood-fill state for one region.
type CameraVisibility struct {
	region         *Region
	version        int
	entryFaceFlags int
}

// AddIfFrontFacing offers the region when it is farther from the camera
// than the region it is reached from.
func (v *CameraVisibility) AddIfFrontFacing(entryFaceFlag, fromSquaredDistance int) {
	if v.region.IsFrontFacing(fromSquaredDistance) {
		v.AddIfValid(entryFaceFlag)
	}
}

// AddIfValid records the entry face and adds the region to the camera
// collector on the first visit of the current pass. Later visits only
// widen the entry faces.
func (v *CameraVisibility) AddIfValid(entryFaceFlag int) {
	c := v.region.storage.cameraCollector
	if c == nil {
		return
	}

	if version := c.Version(); v.version != version {
		v.version = version
		v.entryFaceFlags = entryFaceFlag
		if v.region.IsPotentiallyVisibleFromCamera() && c.Accepts(v.region) {
			c.Add(v.region)
		}
	} else {
		v.entryFaceFlags |= entryFaceFlag
	}
}

// EntryFaceFlags returns the faces the region was entered through in the
// current pass. Zero means the pass started here.
func (v *CameraVisibility) EntryFaceFlags() int {
	if c := v.region.storage.cameraCollector; c == nil || c.Version() != v.version {
		return 0
	}
	return v.entryFaceFlags
}

// Visited reports whether the region was reached in the current pass.
func (v *CameraVisibility) Visited() bool {
	c := v.region.storage.cameraCollector
	return c != nil && c.Version() == v.version
}

// ShadowVisibility tracks shadow flood-fill state for one region.
type ShadowVisibility struct {
	region         *Region
	version        int
	entryFaceFlags int
}

// AddIfValid adds the region to the shadow collector on its first visit of
// the current pass when it lies inside the shadow grid.
func (v *ShadowVisibility) AddIfValid(entryFaceFlag int) {
	c := v.region.storage.shadowCollector
	if c == nil {
		return
	}

	if version := c.Version(); v.version != version {
		v.version = version
		v.entryFaceFlags = entryFaceFlag
		if c.Accepts(v.region) {
			c.Add(v.region)
		}
	} else {
		v.entryFaceFlags |= entryFaceFlag
	}
}

// EntryFaceFlags returns the faces the region was entered through in the
// current shadow pass.
func (v *ShadowVisibility) EntryFaceFlags() int {
	if c := v.region.storage.shadowCollector; c == nil || c.Version() != v.version {
		return 0
	}
	return v.entryFaceFlags
}

// Visited reports whether the region was reached in the current shadow pass.
func (v *ShadowVisibility) Visited() bool {
	c := v.region.storage.shadowCollector
	return c != nil && c.Version() == v.version
}
