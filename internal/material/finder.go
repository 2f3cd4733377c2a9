package material

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSpriteDepth is reported by Find when SpriteDepth got a value outside
// 1..MaxSpriteDepth.
var ErrSpriteDepth = errors.New("material: invalid sprite depth")

// Preset picks a standard blend setup for every default layer of a material.
type Preset uint8

const (
	// PresetDefault defers to the preset of the context rendering the quad.
	PresetDefault Preset = iota
	// PresetNone leaves the layers exactly as specified.
	PresetNone
	PresetSolid
	PresetCutout
	PresetCutoutMipped
	PresetTranslucent
)

func (p Preset) String() string {
	switch p {
	case PresetDefault:
		return "default"
	case PresetNone:
		return "none"
	case PresetSolid:
		return "solid"
	case PresetCutout:
		return "cutout"
	case PresetCutoutMipped:
		return "cutout_mipped"
	case PresetTranslucent:
		return "translucent"
	}
	return fmt.Sprintf("preset(%d)", uint8(p))
}

func (p Preset) blend() BlendMode {
	switch p {
	case PresetSolid:
		return BlendSolid
	case PresetCutout:
		return BlendCutout
	case PresetCutoutMipped:
		return BlendCutoutMipped
	case PresetTranslucent:
		return BlendTranslucent
	}
	return BlendDefault
}

// Registry interns materials. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byKey map[uint64]*Material
	list  []*Material
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[uint64]*Material)}
}

// ByID returns the material with the given id, or nil.
func (r *Registry) ByID(id int) *Material {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.list) {
		return nil
	}
	return r.list[id]
}

// Len is the number of interned materials.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Default is the single-layer material with every setting at its zero value.
func (r *Registry) Default() *Material {
	m, _ := r.Finder().Find()
	return m
}

func (r *Registry) intern(f *Finder) *Material {
	key := pack(f.layers, f.depth, f.shader, f.condition, f.preset)

	r.mu.RLock()
	m := r.byKey[key]
	r.mu.RUnlock()
	if m != nil {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m = r.byKey[key]; m != nil {
		return m
	}

	m = &Material{
		id:        len(r.list),
		bits:      key,
		layers:    f.layers,
		depth:     f.depth,
		shader:    f.shader,
		condition: f.condition,
		preset:    f.preset,
	}
	m.derive()
	r.list = append(r.list, m)
	r.byKey[key] = m
	return m
}

// Finder accumulates material settings and resolves them to an interned
// Material. A Finder is scratch state owned by one goroutine.
type Finder struct {
	reg       *Registry
	layers    [MaxSpriteDepth]Layer
	depth     int
	shader    int
	condition int
	preset    Preset
	err       error
}

// Finder returns a cleared finder bound to the registry.
func (r *Registry) Finder() *Finder {
	f := &Finder{reg: r}
	return f.Clear()
}

// Clear resets every setting to the default material.
func (f *Finder) Clear() *Finder {
	f.layers = [MaxSpriteDepth]Layer{}
	f.depth = 1
	f.shader = 0
	f.condition = 0
	f.preset = PresetDefault
	f.err = nil
	return f
}

// CopyFrom loads the settings of m.
func (f *Finder) CopyFrom(m *Material) *Finder {
	f.layers = m.layers
	f.depth = m.depth
	f.shader = m.shader
	f.condition = m.condition
	f.preset = m.preset
	f.err = nil
	return f
}

func (f *Finder) BlendMode(layer int, mode BlendMode) *Finder {
	f.layers[layer].Blend = mode
	return f
}

func (f *Finder) Emissive(layer int, on bool) *Finder {
	f.layers[layer].Emissive = on
	return f
}

func (f *Finder) DisableDiffuse(layer int, on bool) *Finder {
	f.layers[layer].DisableDiffuse = on
	return f
}

func (f *Finder) DisableAO(layer int, on bool) *Finder {
	f.layers[layer].DisableAO = on
	return f
}

func (f *Finder) DisableColorIndex(layer int, on bool) *Finder {
	f.layers[layer].DisableColorIndex = on
	return f
}

// SpriteDepth sets the number of texture layers. Out of range values are
// reported by the next Find.
func (f *Finder) SpriteDepth(depth int) *Finder {
	if depth < 1 || depth > MaxSpriteDepth {
		f.err = fmt.Errorf("%w: %d", ErrSpriteDepth, depth)
		return f
	}
	f.depth = depth
	return f
}

func (f *Finder) Shader(id int) *Finder {
	f.shader = id & (MaxShaders - 1)
	return f
}

func (f *Finder) Condition(id int) *Finder {
	f.condition = id & (MaxConditions - 1)
	return f
}

func (f *Finder) Preset(p Preset) *Finder {
	f.preset = p
	return f
}

// CurrentPreset is the preset currently set on the finder.
func (f *Finder) CurrentPreset() Preset { return f.preset }

// Adjust resolves the preset. PresetDefault takes contextDefault and is
// then recorded as PresetNone. Any concrete preset fills every default
// blend mode in the used layers.
func (f *Finder) Adjust(contextDefault Preset) *Finder {
	p := f.preset
	if p == PresetDefault {
		p = contextDefault
		f.preset = PresetNone
	}

	mode := p.blend()
	if mode == BlendDefault {
		return f
	}

	for i := 0; i < f.depth; i++ {
		if f.layers[i].Blend == BlendDefault {
			f.layers[i].Blend = mode
		}
	}
	return f
}

// Find returns the interned material for the current settings.
func (f *Finder) Find() (*Material, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reg.intern(f), nil
}
