package world

import (
	"sync"

	"mini-canvas/internal/profiling"
)

// SectionCoord addresses a section in section units.
type SectionCoord struct {
	X, Y, Z int
}

// ChunkStore manages the storage and retrieval of sections.
type ChunkStore struct {
	sections map[SectionCoord]*Section
	mu       sync.RWMutex
	modCount uint64 // Increases on any section add/remove
}

// NewChunkStore creates a new section store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		sections: make(map[SectionCoord]*Section),
	}
}

// GetSection returns the section at the given section coordinates.
// If it doesn't exist and create is true, an empty section is created.
func (cs *ChunkStore) GetSection(sx, sy, sz int, create bool) *Section {
	coord := SectionCoord{X: sx, Y: sy, Z: sz}
	cs.mu.RLock()
	sec, exists := cs.sections[coord]
	cs.mu.RUnlock()
	if !exists && create {
		cs.mu.Lock()
		// Another goroutine might have created it while we were waiting for the lock
		if existing, ok := cs.sections[coord]; ok {
			cs.mu.Unlock()
			return existing
		}

		sec = NewSection()
		cs.sections[coord] = sec
		cs.modCount++
		cs.mu.Unlock()
	}
	return sec
}

// GetSectionFromBlockCoords returns the section containing the block.
func (cs *ChunkStore) GetSectionFromBlockCoords(x, y, z int, create bool) *Section {
	return cs.GetSection(floorDiv(x, SectionSize), floorDiv(y, SectionSize), floorDiv(z, SectionSize), create)
}

// Get returns the block state at world coordinates.
func (cs *ChunkStore) Get(x, y, z int) BlockState {
	sec := cs.GetSectionFromBlockCoords(x, y, z, false)
	if sec == nil {
		return Air
	}
	return sec.Get(mod(x, SectionSize), mod(y, SectionSize), mod(z, SectionSize))
}

// Set stores a block state at world coordinates and returns the previous one.
func (cs *ChunkStore) Set(x, y, z int, val BlockState) BlockState {
	sec := cs.GetSectionFromBlockCoords(x, y, z, val != Air)
	if sec == nil {
		return Air
	}
	return sec.Set(mod(x, SectionSize), mod(y, SectionSize), mod(z, SectionSize), val)
}

// SectionCount returns the number of stored sections.
func (cs *ChunkStore) SectionCount() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.sections)
}

// GetModCount returns the current modification count of the section map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// EvictFarSections removes section columns farther than radius (in sections)
// from (cx, cz). Returns the number of removed sections.
func (cs *ChunkStore) EvictFarSections(cx, cz, radius int) int {
	defer profiling.Track("world.EvictFarSections")()
	removed := 0
	cs.mu.Lock()
	for coord := range cs.sections {
		dx := coord.X - cx
		dz := coord.Z - cz
		if dx*dx+dz*dz > radius*radius {
			delete(cs.sections, coord)
			cs.modCount++
			removed++
		}
	}
	cs.mu.Unlock()
	return removed
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
