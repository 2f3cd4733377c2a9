// Package fastregion caches the block states, light and AO of one region
// plus a one block border so that meshing never touches the live world for
// blocks it is likely to ask about.
package fastregion

import (
	"math"

	"mini-canvas/internal/world"
)

const (
	span        = world.SectionSize + 2
	cacheVolume = span * span * span
	borderCount = cacheVolume - world.SectionVolume
)

// Source is the host world a snapshot reads from.
type Source interface {
	BlockState(x, y, z int) world.BlockState
	Lightmap(x, y, z int) int
	AOLevel(x, y, z int) float32
	CopySection(sx, sy, sz int) *world.PaletteCopy
	SectionEmpty(sx, sy, sz int) bool
}

// Proto is the part of a snapshot captured on the render goroutine: the
// palette copy of the region and the states of its border shell.
type Proto struct {
	OriginX, OriginY, OriginZ int

	src     Source
	palette *world.PaletteCopy
	border  [borderCount]world.BlockState
	empty   bool
}

// Capture copies what a snapshot of the region at the given block origin
// needs. The origin must be region aligned.
func Capture(src Source, originX, originY, originZ int) *Proto {
	p := &Proto{OriginX: originX, OriginY: originY, OriginZ: originZ, src: src}
	sx, sy, sz := originX>>4, originY>>4, originZ>>4
	p.empty = src.SectionEmpty(sx, sy, sz)
	p.palette = src.CopySection(sx, sy, sz)

	i := 0
	forBorder(func(x, y, z int) {
		p.border[i] = src.BlockState(originX+x, originY+y, originZ+z)
		i++
	})
	return p
}

// IsEmpty reports whether the region itself held no blocks at capture time.
func (p *Proto) IsEmpty() bool { return p.empty }

// Release drops the palette copy without preparing a snapshot.
func (p *Proto) Release() {
	if p.palette != nil {
		p.palette.Release()
		p.palette = nil
	}
}

// forBorder visits the shell of the cache in a fixed order, relative to the
// region origin.
func forBorder(fn func(x, y, z int)) {
	for y := -1; y <= world.SectionSize; y++ {
		for z := -1; z <= world.SectionSize; z++ {
			for x := -1; x <= world.SectionSize; x++ {
				if x >= 0 && x < world.SectionSize && y >= 0 && y < world.SectionSize && z >= 0 && z < world.SectionSize {
					continue
				}
				fn(x, y, z)
			}
		}
	}
}

func cacheIndex(x, y, z int) int {
	return (x + 1) + (z+1)*span + (y+1)*span*span
}

// Snapshot is a prepared region cache. A snapshot is owned by one worker
// at a time and reused across jobs.
type Snapshot struct {
	originX, originY, originZ int
	src                       Source

	states [cacheVolume]world.BlockState
	light  [cacheVolume]int
	ao     [cacheVolume]float32
	local  [world.SectionVolume]world.BlockState
}

func New() *Snapshot { return &Snapshot{} }

// Prepare loads a proto, releasing its palette copy, and resets the light
// and AO caches.
func (s *Snapshot) Prepare(p *Proto) {
	s.originX, s.originY, s.originZ = p.OriginX, p.OriginY, p.OriginZ
	s.src = p.src

	if p.palette != nil {
		p.palette.Unpack(s.local[:])
		p.Release()
	} else {
		clear(s.local[:])
	}

	for y := 0; y < world.SectionSize; y++ {
		for z := 0; z < world.SectionSize; z++ {
			for x := 0; x < world.SectionSize; x++ {
				s.states[cacheIndex(x, y, z)] = s.local[world.SectionIndex(x, y, z)]
			}
		}
	}

	i := 0
	forBorder(func(x, y, z int) {
		s.states[cacheIndex(x, y, z)] = p.border[i]
		i++
	})

	for i := range s.light {
		s.light[i] = math.MaxInt
		s.ao[i] = math.MaxFloat32
	}
}

// Origin is the block position of the region's minimum corner.
func (s *Snapshot) Origin() (x, y, z int) { return s.originX, s.originY, s.originZ }

// index maps a world block position to the cache, or -1 outside it.
func (s *Snapshot) index(x, y, z int) int {
	x -= s.originX
	y -= s.originY
	z -= s.originZ
	if x < -1 || x > world.SectionSize || y < -1 || y > world.SectionSize || z < -1 || z > world.SectionSize {
		return -1
	}
	return cacheIndex(x, y, z)
}

// BlockState returns the state at a world position, reading through to the
// world outside the cache.
func (s *Snapshot) BlockState(x, y, z int) world.BlockState {
	if i := s.index(x, y, z); i >= 0 {
		return s.states[i]
	}
	return s.src.BlockState(x, y, z)
}

// LocalBlockState reads a position inside the region, 0..15 per axis.
func (s *Snapshot) LocalBlockState(x, y, z int) world.BlockState {
	return s.states[cacheIndex(x, y, z)]
}

// CachedBrightness returns the lightmap at a world position, memoised
// inside the cache.
func (s *Snapshot) CachedBrightness(x, y, z int) int {
	i := s.index(x, y, z)
	if i < 0 {
		return s.src.Lightmap(x, y, z)
	}
	if s.light[i] == math.MaxInt {
		s.light[i] = s.src.Lightmap(x, y, z)
	}
	return s.light[i]
}

// DirectBrightness always asks the world.
func (s *Snapshot) DirectBrightness(x, y, z int) int {
	return s.src.Lightmap(x, y, z)
}

// CachedAOLevel returns the AO weight of a block. Light emitting blocks
// never shade.
func (s *Snapshot) CachedAOLevel(x, y, z int) float32 {
	i := s.index(x, y, z)
	if i < 0 {
		return s.aoLevel(s.src.BlockState(x, y, z), x, y, z)
	}
	if s.ao[i] == math.MaxFloat32 {
		s.ao[i] = s.aoLevel(s.states[i], x, y, z)
	}
	return s.ao[i]
}

func (s *Snapshot) aoLevel(state world.BlockState, x, y, z int) float32 {
	if state.Luminance() != 0 {
		return 1
	}
	return s.src.AOLevel(x, y, z)
}

// IsOpaque reports whether the block at a world position is a full opaque
// cube.
func (s *Snapshot) IsOpaque(x, y, z int) bool {
	return s.BlockState(x, y, z).IsOpaque()
}
