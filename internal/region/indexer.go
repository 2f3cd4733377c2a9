package region

import (
	"math/bits"

	"mini-canvas/internal/config"
)

// Indexer maps block coordinates to a torus-wrapped linear region index.
// All capacities are fixed at construction from the world shape.
type Indexer struct {
	Radius       int
	Diameter     int
	DiameterBits int
	MaxYRegions  int
	YBlockOffset int

	// PaddedIndexCount is the number of addressable slots.
	PaddedIndexCount int

	bottomY int
	topY    int
	mask    int
}

// NewIndexer derives index constants from the world configuration.
func NewIndexer(cfg config.WorldConfig) *Indexer {
	diameter := 2*cfg.MaxLoadedChunkRadius + 1
	b := bits.Len(uint(diameter - 1))
	maxY := cfg.Height / config.RegionSize

	return &Indexer{
		Radius:           cfg.MaxLoadedChunkRadius,
		Diameter:         diameter,
		DiameterBits:     b,
		MaxYRegions:      maxY,
		YBlockOffset:     -cfg.BottomY,
		PaddedIndexCount: maxY << (2 * b),
		bottomY:          cfg.BottomY,
		topY:             cfg.TopY(),
		mask:             1<<b - 1,
	}
}

// RegionIndex returns the slot for the region containing the block, or -1
// when y is outside the world height.
func (ix *Indexer) RegionIndex(x, y, z int) int {
	if y < ix.bottomY || y >= ix.topY {
		return -1
	}
	rx := RegionCoord(x) & ix.mask
	rz := RegionCoord(z) & ix.mask
	ry := (y + ix.YBlockOffset) >> 4
	return rx | rz<<ix.DiameterBits | ry<<(2*ix.DiameterBits)
}

// BottomY is the lowest block coordinate of the world.
func (ix *Indexer) BottomY() int { return ix.bottomY }

// TopY is one past the highest block coordinate of the world.
func (ix *Indexer) TopY() int { return ix.topY }

// RegionCoord converts a block coordinate to a region coordinate.
func RegionCoord(blockCoord int) int {
	return blockCoord >> 4
}

// RegionOrigin snaps a block coordinate to its region's minimum corner.
func RegionOrigin(blockCoord int) int {
	return blockCoord &^ 15
}
