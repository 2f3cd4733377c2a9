package world

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// TerrainGenerator fills a column of sections.
type TerrainGenerator interface {
	HeightAt(worldX, worldZ int) int
	PopulateColumn(w *World, cx, cz int)
}

// Generator handles perlin heightmap terrain.
type Generator struct {
	noise      *perlin.Perlin
	seed       int64
	scale      float64
	baseHeight int
	amp        float64
	seaLevel   int
}

// NewGenerator creates a perlin generator.
func NewGenerator(seed int64, baseHeight int, amplitude float64, seaLevel int) *Generator {
	alpha := 2.0
	beta := 2.0
	n := int32(3)
	return &Generator{
		noise:      perlin.NewPerlin(alpha, beta, n, seed),
		seed:       seed,
		scale:      1.0 / 64.0,
		baseHeight: baseHeight,
		amp:        amplitude,
		seaLevel:   seaLevel,
	}
}

// HeightAt computes world surface height (block Y) at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	n := g.noise.Noise2D(float64(worldX)*g.scale, float64(worldZ)*g.scale)
	return int(math.Floor(float64(g.baseHeight) + n*g.amp))
}

// PopulateColumn fills one section column with bedrock, stone, dirt and a
// grass or sand top, water up to sea level and sparse glowstone seams.
func (g *Generator) PopulateColumn(w *World, cx, cz int) {
	for lx := 0; lx < SectionSize; lx++ {
		for lz := 0; lz < SectionSize; lz++ {
			x := cx*SectionSize + lx
			z := cz*SectionSize + lz
			height := g.HeightAt(x, z)
			if height >= w.topY {
				height = w.topY - 1
			}

			for y := w.bottomY; y <= height; y++ {
				w.fill(x, y, z, g.blockAt(x, y, z, height))
			}
			for y := height + 1; y <= g.seaLevel && y < w.topY; y++ {
				w.fill(x, y, z, Water)
			}
		}
	}
}

func (g *Generator) blockAt(x, y, z, height int) BlockState {
	switch {
	case y == height:
		if height <= g.seaLevel+1 {
			return Sand
		}
		return Grass
	case y > height-4:
		return Dirt
	case hash3(x, y, z, g.seed)%97 == 0:
		return Glowstone
	default:
		return Stone
	}
}

func hash3(x, y, z int, seed int64) uint32 {
	h := uint32(seed) ^ uint32(x)*73856093 ^ uint32(y)*19349663 ^ uint32(z)*83492791
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return h
}

// FlatGenerator produces a flat world with the surface at a fixed height.
type FlatGenerator struct {
	height int
}

// NewFlatGenerator creates a flat generator.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{height: height}
}

// HeightAt always returns the configured height.
func (g *FlatGenerator) HeightAt(worldX, worldZ int) int {
	return g.height
}

// PopulateColumn fills bedrock at the bottom, dirt, and a grass top.
func (g *FlatGenerator) PopulateColumn(w *World, cx, cz int) {
	for lx := 0; lx < SectionSize; lx++ {
		for lz := 0; lz < SectionSize; lz++ {
			x := cx*SectionSize + lx
			z := cz*SectionSize + lz
			for y := w.bottomY; y <= g.height && y < w.topY; y++ {
				state := Dirt
				switch y {
				case w.bottomY:
					state = Bedrock
				case g.height:
					state = Grass
				}
				w.fill(x, y, z, state)
			}
		}
	}
}
