// Package meshing turns prepared region snapshots into encoded terrain
// quads on a pool of background workers.
package meshing

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/encoding"
	"mini-canvas/internal/encoding/vf"
	"mini-canvas/internal/fastregion"
	"mini-canvas/internal/material"
	"mini-canvas/internal/region"
	"mini-canvas/internal/world"
)

// Options are shared by every mesher of a pool.
type Options struct {
	Materials *material.Registry
	// Indexer and Tables are shared between workers and must be safe for
	// concurrent use. Tables is required when VertexFetch is set.
	Indexer     *material.Indexer
	Tables      *vf.Tables
	Atlas       material.SpriteAtlas
	VertexFetch bool
}

// Mesh is the copied-out result of one region build.
type Mesh struct {
	OriginX, OriginY, OriginZ int

	Format  encoding.Format
	Solid   []uint32
	Buckets [encoding.FaceIndexCount]encoding.FaceBucket
	// Translucent quads are kept unsorted; sort them against the camera
	// before upload.
	Translucent []uint32

	Build     region.BuildState
	QuadCount int
	// AnimatedSprites are the animation slots the region's quads use.
	AnimatedSprites []int
}

// SortTranslucent orders the translucent quads back to front as seen from a
// world-space camera position.
func (m *Mesh) SortTranslucent(camera mgl32.Vec3) error {
	if len(m.Translucent) == 0 {
		return nil
	}
	c := encoding.NewSimpleCollector(m.Format)
	if err := c.LoadState(m.Translucent); err != nil {
		return err
	}
	origin := mgl32.Vec3{float32(m.OriginX), float32(m.OriginY), float32(m.OriginZ)}
	if err := c.SortQuads(camera.Sub(origin)); err != nil {
		return err
	}
	m.Translucent = c.Data()
	return nil
}

// Mesher owns the scratch state for building one region at a time.
type Mesher struct {
	ctx         *encoding.Context
	config      encoding.TerrainVertexConfig
	quad        encoding.Quad
	solid       *encoding.TerrainCollector
	translucent *encoding.SimpleCollector

	solidMat       *material.Material
	emissiveMat    *material.Material
	cutoutMat      *material.Material
	translucentMat *material.Material
}

// NewMesher prepares a block context and collectors for the configured
// terrain layout.
func NewMesher(name string, opts Options) (*Mesher, error) {
	if opts.Materials == nil {
		return nil, fmt.Errorf("mesher %s: no material registry", name)
	}
	if opts.VertexFetch && opts.Tables == nil {
		return nil, fmt.Errorf("mesher %s: vertex fetch needs side tables", name)
	}

	cfg := encoding.SelectTerrainConfig(opts.VertexFetch)
	m := &Mesher{
		ctx:         encoding.NewContext(name, encoding.KindBlock, opts.Materials),
		config:      cfg,
		solid:       encoding.NewTerrainCollector(cfg.Format),
		translucent: encoding.NewSimpleCollector(cfg.Format),
	}
	m.ctx.Transcoder = encoding.SelectTerrainTranscoder(opts.VertexFetch)
	m.ctx.Materials = opts.Indexer
	m.ctx.Tables = opts.Tables
	m.ctx.Atlas = opts.Atlas
	if m.ctx.Atlas == nil {
		m.ctx.Atlas = material.NewAnimatedSprites(world.SpriteWater)
	}
	m.ctx.Colors = world.TintColor
	m.ctx.SetCollector(encoding.ModeSolid, m.solid)
	m.ctx.SetCollector(encoding.ModeDecal, m.solid)
	m.ctx.SetCollector(encoding.ModeTranslucent, m.translucent)

	var err error
	f := opts.Materials.Finder()
	if m.solidMat, err = f.Clear().Preset(material.PresetSolid).Find(); err != nil {
		return nil, err
	}
	if m.emissiveMat, err = f.Clear().Preset(material.PresetSolid).Emissive(0, true).DisableAO(0, true).Find(); err != nil {
		return nil, err
	}
	if m.cutoutMat, err = f.Clear().Preset(material.PresetCutoutMipped).Find(); err != nil {
		return nil, err
	}
	if m.translucentMat, err = f.Clear().Preset(material.PresetTranslucent).Find(); err != nil {
		return nil, err
	}
	return m, nil
}

// Context exposes the mesher's render context, mostly for transforms.
func (m *Mesher) Context() *encoding.Context { return m.ctx }

// Close ends the context lifecycle.
func (m *Mesher) Close() { m.ctx.Close() }

func (m *Mesher) materialFor(info world.BlockInfo) *material.Material {
	switch info.Layer {
	case world.LayerCutout:
		return m.cutoutMat
	case world.LayerTranslucent:
		return m.translucentMat
	}
	if info.Luminance > 0 {
		return m.emissiveMat
	}
	return m.solidMat
}

// faceCorners lists each face's corners, offsets from the block's minimum
// corner, wound so that (p2-p0)×(p3-p1) points out of the block.
var faceCorners = [region.FaceCount][4][3]int{
	region.Down:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	region.Up:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	region.North: {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	region.South: {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	region.West:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	region.East:  {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
}

var cornerUV = [4][2]float32{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

// faceVisible reports whether the face of state toward neighbor is drawn.
// Faces between two blocks of the same non-solid state are hidden too.
func faceVisible(state, neighbor world.BlockState) bool {
	if neighbor.IsOpaque() {
		return false
	}
	return neighbor != state || world.Info(state).Layer == world.LayerSolid
}

// Build meshes a prepared snapshot. The returned mesh owns its buffers; the
// mesher is ready for the next snapshot when Build returns.
func (m *Mesher) Build(s *fastregion.Snapshot) (*Mesh, error) {
	m.solid.Clear()
	m.translucent.Clear()
	m.ctx.Animation.Clear()

	ox, oy, oz := s.Origin()
	mesh := &Mesh{OriginX: ox, OriginY: oy, OriginZ: oz, Format: m.config.Format}

	for y := 0; y < world.SectionSize; y++ {
		for z := 0; z < world.SectionSize; z++ {
			for x := 0; x < world.SectionSize; x++ {
				state := s.LocalBlockState(x, y, z)
				if state.IsAir() {
					continue
				}
				n, err := m.buildBlock(s, state, x, y, z)
				if err != nil {
					return nil, fmt.Errorf("mesh block %s at (%d, %d, %d): %w", state, ox+x, oy+y, oz+z, err)
				}
				mesh.QuadCount += n
			}
		}
	}

	mesh.Solid = make([]uint32, m.solid.IntegerSize())
	if _, err := m.solid.ToBuffer(mesh.Solid); err != nil {
		return nil, err
	}
	mesh.Buckets = m.solid.FaceBuckets()
	mesh.Translucent = append([]uint32(nil), m.translucent.Data()...)

	mesh.Build = region.BuildState{
		OcclusionFlags: region.BuildFaceConnectivity(func(x, y, z int) bool {
			return s.LocalBlockState(x, y, z).IsOpaque()
		}),
		HasGeometry: mesh.QuadCount > 0,
		CastsShadow: m.solid.ShadowQuadCount() > 0,
	}
	m.ctx.Animation.Drain(func(slot int) {
		mesh.AnimatedSprites = append(mesh.AnimatedSprites, slot)
	})
	return mesh, nil
}

func (m *Mesher) buildBlock(s *fastregion.Snapshot, state world.BlockState, lx, ly, lz int) (int, error) {
	ox, oy, oz := s.Origin()
	bx, by, bz := ox+lx, oy+ly, oz+lz
	info := world.Info(state)
	mat := m.materialFor(info)

	if m.config.ApplyBlockPosTranslation {
		m.ctx.SetBlockPos(lx, ly, lz)
	}

	written := 0
	for f := region.Face(0); f < region.FaceCount; f++ {
		dx, dy, dz := f.Offset()
		if !faceVisible(state, s.BlockState(bx+dx, by+dy, bz+dz)) {
			continue
		}

		q := &m.quad
		q.Reset()
		q.Material = mat
		q.ColorIndex = info.ColorIndex
		q.SpriteID = info.SideSprite
		if f == region.Up || f == region.Down {
			q.SpriteID = info.TopSprite
		}
		q.CullFace = f
		q.NominalFace = f

		for i, c := range faceCorners[f] {
			if m.config.ApplyBlockPosTranslation {
				q.Pos[i] = mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
			} else {
				q.Pos[i] = mgl32.Vec3{float32(lx + c[0]), float32(ly + c[1]), float32(lz + c[2])}
			}
			q.U[i], q.V[i] = cornerUV[i][0], cornerUV[i][1]
			q.Lightmap[i], q.AO[i] = vertexLight(s, bx, by, bz, f, c)
		}

		ok, err := m.ctx.RenderQuad(q)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}
	return written, nil
}

// vertexLight samples the block in front of the face and the three blocks
// around the corner in the face plane. Light averages the samples that are
// not opaque; AO averages all four AO levels.
func vertexLight(s *fastregion.Snapshot, bx, by, bz int, f region.Face, corner [3]int) (int, float32) {
	dx, dy, dz := f.Offset()
	front := [3]int{bx + dx, by + dy, bz + dz}
	normal := [3]int{dx, dy, dz}

	var axes [2]int
	var steps [2]int
	n := 0
	for a := 0; a < 3; a++ {
		if normal[a] == 0 {
			axes[n] = a
			steps[n] = corner[a]*2 - 1
			n++
		}
	}

	samples := [4][3]int{front, front, front, front}
	samples[1][axes[0]] += steps[0]
	samples[2][axes[1]] += steps[1]
	samples[3][axes[0]] += steps[0]
	samples[3][axes[1]] += steps[1]

	var block, sky, lit int
	var ao float32
	for i, p := range samples {
		ao += s.CachedAOLevel(p[0], p[1], p[2])
		// the corner is only reachable through an open side
		if i == 3 && s.IsOpaque(samples[1][0], samples[1][1], samples[1][2]) && s.IsOpaque(samples[2][0], samples[2][1], samples[2][2]) {
			continue
		}
		if i > 0 && s.IsOpaque(p[0], p[1], p[2]) {
			continue
		}
		lm := s.CachedBrightness(p[0], p[1], p[2])
		block += lm & 0xFF
		sky += (lm >> 16) & 0xFF
		lit++
	}
	if lit == 0 {
		return 0, ao / 4
	}
	return block/lit | (sky/lit)<<16, ao / 4
}
