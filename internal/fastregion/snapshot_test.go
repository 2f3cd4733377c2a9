package fastregion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-canvas/internal/config"
	"mini-canvas/internal/world"
)

func testWorld() *world.World {
	return world.New(config.WorldConfig{BottomY: 0, Height: 64, MaxLoadedChunkRadius: 4})
}

func prepared(w *world.World, ox, oy, oz int) *Snapshot {
	s := New()
	s.Prepare(Capture(w, ox, oy, oz))
	return s
}

func TestSnapshotReadsRegionAndBorder(t *testing.T) {
	w := testWorld()
	w.SetBlock(16+3, 16+4, 16+5, world.Stone)
	w.SetBlock(15, 20, 20, world.Dirt)  // west border
	w.SetBlock(20, 32, 20, world.Sand)  // top border
	w.SetBlock(40, 20, 20, world.Glass) // outside the cache

	s := prepared(w, 16, 16, 16)
	x, y, z := s.Origin()
	assert.Equal(t, [3]int{16, 16, 16}, [3]int{x, y, z})

	assert.Equal(t, world.Stone, s.BlockState(19, 20, 21))
	assert.Equal(t, world.Stone, s.LocalBlockState(3, 4, 5))
	assert.Equal(t, world.Dirt, s.BlockState(15, 20, 20))
	assert.Equal(t, world.Sand, s.BlockState(20, 32, 20))
	assert.Equal(t, world.Glass, s.BlockState(40, 20, 20), "outside the cache reads the world")
	assert.Equal(t, world.Air, s.BlockState(20, 20, 20))
}

func TestSnapshotIsDetachedFromWorld(t *testing.T) {
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Stone)
	s := prepared(w, 0, 0, 0)

	w.SetBlock(1, 1, 1, world.Air)
	w.SetBlock(-1, 1, 1, world.Stone)
	w.SetBlock(30, 1, 1, world.Stone)

	assert.Equal(t, world.Stone, s.BlockState(1, 1, 1))
	assert.Equal(t, world.Air, s.BlockState(-1, 1, 1))
	assert.Equal(t, world.Stone, s.BlockState(30, 1, 1))
}

func TestSnapshotReuse(t *testing.T) {
	w := testWorld()
	w.SetBlock(2, 2, 2, world.Stone)
	w.SetBlock(18, 2, 2, world.Dirt)

	s := prepared(w, 0, 0, 0)
	assert.Equal(t, world.Stone, s.LocalBlockState(2, 2, 2))

	s.Prepare(Capture(w, 16, 0, 0))
	assert.Equal(t, world.Dirt, s.LocalBlockState(2, 2, 2))
	assert.Equal(t, world.Stone, s.BlockState(2, 2, 2), "the old region now reads through to the world")
}

func TestCachedBrightness(t *testing.T) {
	w := testWorld()
	s := prepared(w, 0, 0, 0)

	before := s.CachedBrightness(5, 5, 5)
	assert.Equal(t, w.Lightmap(5, 5, 5), before)

	w.SetBlock(6, 5, 5, world.Glowstone)
	assert.Equal(t, before, s.CachedBrightness(5, 5, 5), "cached")
	assert.Equal(t, w.Lightmap(5, 5, 5), s.DirectBrightness(5, 5, 5))
	assert.NotEqual(t, before, s.DirectBrightness(5, 5, 5))

	// outside the cache is never memoised
	assert.Equal(t, w.Lightmap(40, 5, 5), s.CachedBrightness(40, 5, 5))
}

func TestCachedAOLevel(t *testing.T) {
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Stone)
	w.SetBlock(2, 1, 1, world.Glowstone)
	s := prepared(w, 0, 0, 0)

	assert.InDelta(t, 0.2, s.CachedAOLevel(1, 1, 1), 1e-6)
	assert.Equal(t, float32(1), s.CachedAOLevel(2, 1, 1), "light emitters do not shade")
	assert.Equal(t, float32(1), s.CachedAOLevel(3, 1, 1))
	assert.True(t, s.IsOpaque(1, 1, 1))
	assert.False(t, s.IsOpaque(3, 1, 1))

	w.SetBlock(50, 1, 1, world.Stone)
	assert.InDelta(t, 0.2, s.CachedAOLevel(50, 1, 1), 1e-6)
}

func TestProtoEmpty(t *testing.T) {
	w := testWorld()
	p := Capture(w, 0, 16, 0)
	assert.True(t, p.IsEmpty())
	p.Release()
	p.Release()

	w.SetBlock(0, 16, 0, world.Dirt)
	p = Capture(w, 0, 16, 0)
	require.False(t, p.IsEmpty())
	s := New()
	s.Prepare(p)
	assert.Equal(t, world.Dirt, s.LocalBlockState(0, 0, 0))
}
