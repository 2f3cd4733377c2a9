// Package material describes how a quad is shaded: blend mode and shader
// control flags per sprite layer, sprite depth, shader and condition ids.
//
// Materials are interned by a Registry so that equal materials are the same
// pointer and carry a stable id. The packed form returned by Bits is the
// interning key. Its low 16 bits are consumed by the terrain shader and must
// not move:
//
//	bit  0 + 5*layer  emissive
//	bit  1 + 5*layer  disable diffuse shading
//	bit  2 + 5*layer  disable ambient occlusion
//	bit  3 + 5*layer  cutout
//	bit  4 + 5*layer  unmipped
//	bit 15 + layer    disable color index (layers 0..2, bits 15..17)
//	bits 18..26       blend mode, 3 bits per layer
//	bits 27..28       sprite depth - 1
//	bits 29..36       shader id
//	bits 37..44       condition id
//	bits 45..47       preset
package material

import "fmt"

// MaxSpriteDepth is the number of texture layers a material can stack.
const MaxSpriteDepth = 3

const (
	MaxShaders    = 256
	MaxConditions = 256
)

const (
	flagEmissive = iota
	flagDisableDiffuse
	flagDisableAO
	flagCutout
	flagUnmipped
	flagsPerLayer
)

const (
	colorDisableShift = flagsPerLayer * MaxSpriteDepth
	blendShift        = colorDisableShift + MaxSpriteDepth
	blendBits         = 3
	depthShift        = blendShift + blendBits*MaxSpriteDepth
	shaderShift       = depthShift + 2
	conditionShift    = shaderShift + 8
	presetShift       = conditionShift + 8
)

// ShaderFlagsDisableAO selects the disable-AO bit of every layer in the
// shader flags.
const ShaderFlagsDisableAO = 1<<(flagDisableAO) | 1<<(flagDisableAO+flagsPerLayer) | 1<<(flagDisableAO+2*flagsPerLayer)

// BlendMode is how a sprite layer combines with what is behind it.
type BlendMode uint8

const (
	// BlendDefault takes the blend mode from the block's render layer.
	BlendDefault BlendMode = iota
	BlendSolid
	BlendCutoutMipped
	BlendCutout
	BlendTranslucent
)

func (b BlendMode) String() string {
	switch b {
	case BlendDefault:
		return "default"
	case BlendSolid:
		return "solid"
	case BlendCutoutMipped:
		return "cutout_mipped"
	case BlendCutout:
		return "cutout"
	case BlendTranslucent:
		return "translucent"
	}
	return fmt.Sprintf("blend(%d)", uint8(b))
}

// Pass is the draw pass a sprite layer of a material renders in.
type Pass uint8

const (
	PassSolid Pass = iota
	PassTranslucent
	PassDecal
)

func (p Pass) String() string {
	switch p {
	case PassSolid:
		return "solid"
	case PassTranslucent:
		return "translucent"
	default:
		return "decal"
	}
}

// Layer holds the per-sprite-layer settings of a material.
type Layer struct {
	Blend             BlendMode
	Emissive          bool
	DisableDiffuse    bool
	DisableAO         bool
	DisableColorIndex bool
}

func (l Layer) cutout() bool { return l.Blend == BlendCutout || l.Blend == BlendCutoutMipped }
func (l Layer) unmipped() bool { return l.Blend == BlendCutout }

// Material is an interned, immutable material. Compare by pointer.
type Material struct {
	id          int
	bits        uint64
	layers      [MaxSpriteDepth]Layer
	depth       int
	shader      int
	condition   int
	preset      Preset
	hasAO       bool
	translucent bool
}

// ID is the registry index of the material.
func (m *Material) ID() int { return m.id }

// Bits is the packed form of the material.
func (m *Material) Bits() uint64 { return m.bits }

// ShaderFlags returns the control flags read by the terrain shader.
func (m *Material) ShaderFlags() int { return int(m.bits & 0xFFFF) }

// SpriteDepth is the number of texture layers, 1 to MaxSpriteDepth.
func (m *Material) SpriteDepth() int { return m.depth }

// Layer returns the settings of one sprite layer.
func (m *Material) Layer(i int) Layer { return m.layers[i] }

func (m *Material) BlendMode(layer int) BlendMode { return m.layers[layer].Blend }
func (m *Material) Emissive(layer int) bool { return m.layers[layer].Emissive }
func (m *Material) DisableDiffuse(layer int) bool { return m.layers[layer].DisableDiffuse }
func (m *Material) DisableAO(layer int) bool { return m.layers[layer].DisableAO }
func (m *Material) DisableColorIndex(layer int) bool { return m.layers[layer].DisableColorIndex }
func (m *Material) Shader() int { return m.shader }
func (m *Material) Condition() int { return m.condition }
func (m *Material) Preset() Preset { return m.preset }

// HasAO reports whether any used layer takes ambient occlusion.
func (m *Material) HasAO() bool { return m.hasAO }

// IsTranslucent reports whether the material renders in the translucent
// pass. A solid base layer always keeps it out of that pass.
func (m *Material) IsTranslucent() bool { return m.translucent }

// NeedsBlendMode reports whether any used layer still has BlendDefault.
func (m *Material) NeedsBlendMode() bool {
	for i := 0; i < m.depth; i++ {
		if m.layers[i].Blend == BlendDefault {
			return true
		}
	}
	return false
}

// Pass returns the draw pass for one sprite layer. Overlay layers are decals.
func (m *Material) Pass(layer int) Pass {
	if layer > 0 {
		return PassDecal
	}
	if m.layers[0].Blend == BlendTranslucent {
		return PassTranslucent
	}
	return PassSolid
}

func (m *Material) String() string {
	return fmt.Sprintf("material#%d{blend=%s depth=%d flags=%#04x}", m.id, m.layers[0].Blend, m.depth, m.ShaderFlags())
}

func (m *Material) derive() {
	l := &m.layers
	m.hasAO = !l[0].DisableAO || (m.depth > 1 && !l[1].DisableAO) || (m.depth == 3 && !l[2].DisableAO)

	if l[0].Blend == BlendSolid {
		m.translucent = false
	} else {
		m.translucent = l[0].Blend == BlendTranslucent ||
			(m.depth > 1 && l[1].Blend == BlendTranslucent) ||
			(m.depth == 3 && l[2].Blend == BlendTranslucent)
	}
}

func pack(layers [MaxSpriteDepth]Layer, depth, shader, condition int, preset Preset) uint64 {
	var bits uint64
	set := func(bit int, on bool) {
		if on {
			bits |= 1 << bit
		}
	}

	for i, l := range layers {
		base := i * flagsPerLayer
		set(base+flagEmissive, l.Emissive)
		set(base+flagDisableDiffuse, l.DisableDiffuse)
		set(base+flagDisableAO, l.DisableAO)
		set(base+flagCutout, l.cutout())
		set(base+flagUnmipped, l.unmipped())
		set(colorDisableShift+i, l.DisableColorIndex)
		bits |= uint64(l.Blend) << (blendShift + i*blendBits)
	}

	bits |= uint64(depth-1) << depthShift
	bits |= uint64(shader) << shaderShift
	bits |= uint64(condition) << conditionShift
	bits |= uint64(preset) << presetShift
	return bits
}
