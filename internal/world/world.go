package world

import (
	"sync"

	"mini-canvas/internal/config"
)

const (
	MaxLight = 15

	// aoOpaque is the AO weight of a full opaque cube.
	aoOpaque = 0.2
)

// World is the in-memory host world: blocks, a column heightmap for sky
// light, and change notification for the terrain renderer.
type World struct {
	store   *ChunkStore
	bottomY int
	topY    int

	hmu       sync.RWMutex
	heights   map[[2]int]int // one above the highest opaque block
	generated map[[2]int]bool

	lmu       sync.RWMutex
	listeners []func(x, y, z int)
}

// New creates an empty world with the configured vertical bounds.
func New(cfg config.WorldConfig) *World {
	return &World{
		store:     NewChunkStore(),
		bottomY:   cfg.BottomY,
		topY:      cfg.TopY(),
		heights:   make(map[[2]int]int),
		generated: make(map[[2]int]bool),
	}
}

// BottomY is the lowest block coordinate.
func (w *World) BottomY() int { return w.bottomY }

// TopY is one past the highest block coordinate.
func (w *World) TopY() int { return w.topY }

// Store exposes the section storage.
func (w *World) Store() *ChunkStore { return w.store }

// InBounds reports whether y is inside the world's height.
func (w *World) InBounds(y int) bool {
	return y >= w.bottomY && y < w.topY
}

// BlockState returns the state at a block position. Outside the world height
// everything is air.
func (w *World) BlockState(x, y, z int) BlockState {
	if !w.InBounds(y) {
		return Air
	}
	return w.store.Get(x, y, z)
}

// IsOpaque reports whether the block at a position is a full opaque cube.
func (w *World) IsOpaque(x, y, z int) bool {
	return w.BlockState(x, y, z).IsOpaque()
}

// OnBlockChanged registers a callback run after every SetBlock that changes
// a block. Callbacks run on the caller's goroutine.
func (w *World) OnBlockChanged(fn func(x, y, z int)) {
	w.lmu.Lock()
	w.listeners = append(w.listeners, fn)
	w.lmu.Unlock()
}

// SetBlock changes a block and notifies listeners. Returns false when the
// position is out of bounds or the state is unchanged.
func (w *World) SetBlock(x, y, z int, state BlockState) bool {
	if !w.fill(x, y, z, state) {
		return false
	}

	w.lmu.RLock()
	listeners := w.listeners
	w.lmu.RUnlock()
	for _, fn := range listeners {
		fn(x, y, z)
	}
	return true
}

// fill stores a block and keeps the heightmap current without notifying.
func (w *World) fill(x, y, z int, state BlockState) bool {
	if !w.InBounds(y) {
		return false
	}
	old := w.store.Set(x, y, z, state)
	if old == state {
		return false
	}

	key := [2]int{x, z}
	w.hmu.Lock()
	h, ok := w.heights[key]
	if !ok {
		h = w.bottomY
	}
	switch {
	case state.IsOpaque() && y >= h:
		w.heights[key] = y + 1
	case !state.IsOpaque() && y+1 == h:
		w.heights[key] = w.scanHeight(x, y-1, z)
	}
	w.hmu.Unlock()
	return true
}

func (w *World) scanHeight(x, from, z int) int {
	for y := from; y >= w.bottomY; y-- {
		if w.store.Get(x, y, z).IsOpaque() {
			return y + 1
		}
	}
	return w.bottomY
}

// SurfaceHeight returns one above the highest opaque block in a column.
func (w *World) SurfaceHeight(x, z int) int {
	w.hmu.RLock()
	defer w.hmu.RUnlock()
	if h, ok := w.heights[[2]int{x, z}]; ok {
		return h
	}
	return w.bottomY
}

// SkyLight is full above the column's surface and dark below it.
func (w *World) SkyLight(x, y, z int) int {
	if y >= w.SurfaceHeight(x, z) {
		return MaxLight
	}
	return 0
}

// BlockLight is the block's own luminance or one less than the brightest
// face neighbor.
func (w *World) BlockLight(x, y, z int) int {
	light := w.BlockState(x, y, z).Luminance()
	for _, d := range [6][3]int{{0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0}} {
		if l := w.BlockState(x+d[0], y+d[1], z+d[2]).Luminance() - 1; l > light {
			light = l
		}
	}
	return light
}

// Lightmap packs block light into the low half-word and sky light into the
// high half-word, each scaled by 16.
func (w *World) Lightmap(x, y, z int) int {
	return PackLightmap(w.BlockLight(x, y, z), w.SkyLight(x, y, z))
}

// PackLightmap packs light levels in [0, 15].
func PackLightmap(block, sky int) int {
	return block<<4 | sky<<20
}

// AOLevel is the ambient occlusion weight contributed by a block.
func (w *World) AOLevel(x, y, z int) float32 {
	if w.IsOpaque(x, y, z) {
		return aoOpaque
	}
	return 1.0
}

// CopySection captures a section for snapshotting. Missing sections read as
// air.
func (w *World) CopySection(sx, sy, sz int) *PaletteCopy {
	if sec := w.store.GetSection(sx, sy, sz, false); sec != nil {
		return sec.CopyPalette()
	}
	return EmptyPaletteCopy()
}

// SectionEmpty reports whether the section at section coordinates has no blocks.
func (w *World) SectionEmpty(sx, sy, sz int) bool {
	sec := w.store.GetSection(sx, sy, sz, false)
	return sec == nil || sec.IsEmpty()
}

// Generated reports whether a section column has been populated.
func (w *World) Generated(cx, cz int) bool {
	w.hmu.RLock()
	defer w.hmu.RUnlock()
	return w.generated[[2]int{cx, cz}]
}

// Populate generates every section of a column that has not been generated yet.
func (w *World) Populate(gen TerrainGenerator, cx, cz int) {
	key := [2]int{cx, cz}
	w.hmu.Lock()
	if w.generated[key] {
		w.hmu.Unlock()
		return
	}
	w.generated[key] = true
	w.hmu.Unlock()

	gen.PopulateColumn(w, cx, cz)
}

// EvictFar drops section columns outside radius (in sections) and their
// heightmap entries.
func (w *World) EvictFar(cx, cz, radius int) int {
	removed := w.store.EvictFarSections(cx, cz, radius)
	if removed == 0 {
		return 0
	}
	w.hmu.Lock()
	for key := range w.heights {
		dx := floorDiv(key[0], SectionSize) - cx
		dz := floorDiv(key[1], SectionSize) - cz
		if dx*dx+dz*dz > radius*radius {
			delete(w.heights, key)
		}
	}
	for key := range w.generated {
		dx, dz := key[0]-cx, key[1]-cz
		if dx*dx+dz*dz > radius*radius {
			delete(w.generated, key)
		}
	}
	w.hmu.Unlock()
	return removed
}
