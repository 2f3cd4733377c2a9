package world

import (
	"sync"

	"github.com/Tnze/go-mc/level"
)

const (
	SectionSize   = 16
	SectionVolume = SectionSize * SectionSize * SectionSize

	minPaletteBits = 4
)

// Section is a palette-compressed 16x16x16 block volume.
type Section struct {
	mu      sync.RWMutex
	palette []BlockState
	lookup  map[BlockState]int
	bits    int
	data    *level.BitStorage
	nonAir  int
}

// NewSection returns an all-air section.
func NewSection() *Section {
	return &Section{
		palette: []BlockState{Air},
		lookup:  map[BlockState]int{Air: 0},
		bits:    minPaletteBits,
		data:    level.NewBitStorage(minPaletteBits, SectionVolume, nil),
	}
}

// SectionIndex flattens local coordinates, layout x + z*16 + y*256.
func SectionIndex(x, y, z int) int {
	return x + z*SectionSize + y*SectionSize*SectionSize
}

// Get returns the state at local coordinates.
func (s *Section) Get(x, y, z int) BlockState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.palette[s.data.Get(SectionIndex(x, y, z))]
}

// Set stores a state at local coordinates and returns the previous one.
func (s *Section) Set(x, y, z int, state BlockState) BlockState {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.lookup[state]
	if !ok {
		id = len(s.palette)
		if id >= 1<<s.bits {
			s.grow()
		}
		s.palette = append(s.palette, state)
		s.lookup[state] = id
	}

	i := SectionIndex(x, y, z)
	old := s.palette[s.data.Get(i)]
	if old == state {
		return old
	}
	s.data.Set(i, id)

	if old == Air {
		s.nonAir++
	} else if state == Air {
		s.nonAir--
	}
	return old
}

func (s *Section) grow() {
	bits := s.bits + 1
	next := level.NewBitStorage(bits, SectionVolume, nil)
	for i := 0; i < SectionVolume; i++ {
		next.Set(i, s.data.Get(i))
	}
	s.bits = bits
	s.data = next
}

// IsEmpty reports whether every block is air.
func (s *Section) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nonAir == 0
}

// PaletteCopy is a detached snapshot of a section's palette and packed data.
// It must be released once unpacked.
type PaletteCopy struct {
	palette []BlockState
	bits    int
	data    []uint64
}

var copyPool = sync.Pool{
	New: func() any { return new(PaletteCopy) },
}

// CopyPalette captures the section for off-thread unpacking.
func (s *Section) CopyPalette() *PaletteCopy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := copyPool.Get().(*PaletteCopy)
	c.palette = append(c.palette[:0], s.palette...)
	c.bits = s.bits
	c.data = append(c.data[:0], s.data.Raw()...)
	return c
}

// EmptyPaletteCopy is the copy of a section that does not exist.
func EmptyPaletteCopy() *PaletteCopy {
	c := copyPool.Get().(*PaletteCopy)
	c.palette = append(c.palette[:0], Air)
	c.bits = minPaletteBits
	c.data = c.data[:0]
	return c
}

// Unpack writes all SectionVolume states into dst using SectionIndex layout.
func (c *PaletteCopy) Unpack(dst []BlockState) {
	_ = dst[SectionVolume-1]

	if len(c.data) == 0 {
		for i := range dst[:SectionVolume] {
			dst[i] = c.palette[0]
		}
		return
	}

	storage := level.NewBitStorage(c.bits, SectionVolume, c.data)
	for i := 0; i < SectionVolume; i++ {
		dst[i] = c.palette[storage.Get(i)]
	}
}

// Release returns the copy to the pool. The copy must not be used afterwards.
func (c *PaletteCopy) Release() {
	copyPool.Put(c)
}
