package encoding

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/config"
	"mini-canvas/internal/encoding/vf"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/material"
	"mini-canvas/internal/region"
)

// Kind is what a context renders.
type Kind uint8

const (
	// KindBlock renders terrain blocks with per-vertex light from the world.
	KindBlock Kind = iota
	// KindItem renders held and dropped items at a fixed brightness.
	KindItem
	// KindFallback renders quads that carry no material of their own.
	KindFallback
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindItem:
		return "item"
	default:
		return "fallback"
	}
}

// Mode is the collector a quad goes to.
type Mode uint8

const (
	ModeSolid Mode = iota
	ModeTranslucent
	ModeDecal
	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeSolid:
		return "solid"
	case ModeTranslucent:
		return "translucent"
	default:
		return "decal"
	}
}

// ModeFor picks the collector for the base layer of m.
func ModeFor(m *material.Material) Mode {
	switch m.Pass(0) {
	case material.PassTranslucent:
		return ModeTranslucent
	case material.PassDecal:
		return ModeDecal
	}
	return ModeSolid
}

// QuadTransform edits a quad before it is encoded. Returning false drops
// the quad.
type QuadTransform func(q *Quad) bool

// Context carries everything needed to turn quads into vertex words. It is
// scratch state owned by one goroutine.
type Context struct {
	name string
	kind Kind

	Matrix       mgl32.Mat4
	NormalMatrix mgl32.Mat3
	Overlay      uint32
	// RelativeBlockPos is the packed position of the current block in its
	// region. See PackRelativeBlockPos.
	RelativeBlockPos uint32
	AmbientOcclusion bool
	// Brightness is the lightmap item contexts raise every vertex to.
	Brightness    int
	DefaultPreset material.Preset

	Colors ColorProvider
	// CullTest reports whether quads culled by a face should still be drawn.
	CullTest   func(face region.Face) bool
	Materials  *material.Indexer
	Atlas      material.SpriteAtlas
	Tables     *vf.Tables
	Transcoder Transcoder

	Animation AnimationBits

	finder     *material.Finder
	fallback   *material.Material
	transforms []QuadTransform
	collectors [modeCount]Collector
}

// NewContext returns a context with identity matrices, AO following the
// global setting and the compact transcoder.
func NewContext(name string, kind Kind, materials *material.Registry) *Context {
	if config.LifecycleDebug() {
		logging.Info("Lifecycle Event: create render context %s", name)
	}
	c := &Context{
		name:             name,
		kind:             kind,
		Matrix:           mgl32.Ident4(),
		NormalMatrix:     mgl32.Ident3(),
		AmbientOcclusion: config.AmbientOcclusionEnabled(),
		DefaultPreset:    material.PresetSolid,
		Transcoder:       CompactTranscoder,
		finder:           materials.Finder(),
		fallback:         materials.Default(),
	}
	if kind == KindItem {
		c.Brightness = 0xF000F0
		c.AmbientOcclusion = false
	}
	return c
}

// Close ends the context's lifecycle.
func (c *Context) Close() {
	if config.LifecycleDebug() {
		logging.Info("Lifecycle Event: close render context %s", c.name)
	}
}

func (c *Context) Name() string { return c.name }

func (c *Context) Kind() Kind { return c.kind }

// SetCollector routes quads of one mode to col.
func (c *Context) SetCollector(mode Mode, col Collector) { c.collectors[mode] = col }

func (c *Context) Collector(mode Mode) Collector { return c.collectors[mode] }

// SetBlockPos records the block being rendered, in region-relative terms.
func (c *Context) SetBlockPos(x, y, z int) {
	c.RelativeBlockPos = PackRelativeBlockPos(x, y, z)
}

// PushTransform adds a transform. The most recently pushed runs first.
func (c *Context) PushTransform(t QuadTransform) {
	if t == nil {
		panic("encoding: nil QuadTransform")
	}
	c.transforms = append(c.transforms, t)
}

// PopTransform removes the most recently pushed transform.
func (c *Context) PopTransform() {
	if len(c.transforms) > 0 {
		c.transforms = c.transforms[:len(c.transforms)-1]
	}
}

func (c *Context) transform(q *Quad) bool {
	for i := len(c.transforms) - 1; i >= 0; i-- {
		if !c.transforms[i](q) {
			return false
		}
	}
	return true
}

// RenderQuad runs a quad through transforms, face culling and material
// resolution, then encodes and commits it. It reports whether the quad was
// written.
func (c *Context) RenderQuad(q *Quad) (bool, error) {
	if q.Material == nil {
		q.Material = c.fallback
	}

	if len(c.transforms) > 0 && !c.transform(q) {
		return false, nil
	}

	if c.CullTest != nil && q.CullFace < region.FaceCount && !c.CullTest(q.CullFace) {
		return false, nil
	}

	mat, err := c.finder.CopyFrom(q.Material).Adjust(c.DefaultPreset).Find()
	if err != nil {
		return false, fmt.Errorf("render quad in %s: %w", c.name, err)
	}
	q.Material = mat

	if c.Atlas != nil {
		if slot := c.Atlas.AnimationIndex(q.SpriteID); slot >= 0 {
			c.Animation.Set(slot)
		}
	}

	if c.kind == KindItem {
		for i := range q.Lightmap {
			q.Lightmap[i] = MaxBrightness(q.Lightmap[i], c.Brightness)
		}
	}

	Colorize(q, c.Colors)

	mode := ModeFor(mat)
	col := c.collectors[mode]
	if col == nil {
		return false, fmt.Errorf("render quad in %s: no %s collector", c.name, mode)
	}

	if err := c.Transcoder.Transcode(q, c, col); err != nil {
		return false, fmt.Errorf("render quad in %s: %w", c.name, err)
	}
	if err := col.Commit(q.EffectiveFace(), mode != ModeTranslucent); err != nil {
		return false, fmt.Errorf("render quad in %s: %w", c.name, err)
	}
	return true, nil
}
