package material

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(t *testing.T, f *Finder) *Material {
	t.Helper()
	m, err := f.Find()
	require.NoError(t, err)
	return m
}

func TestShaderFlagLayout(t *testing.T) {
	reg := NewRegistry()
	f := reg.Finder().SpriteDepth(3)
	f.Emissive(0, true).DisableDiffuse(1, true).DisableAO(2, true)
	f.BlendMode(0, BlendCutout).BlendMode(1, BlendCutoutMipped)
	f.DisableColorIndex(0, true).DisableColorIndex(1, true)
	m := find(t, f)

	want := 1<<0 | // emissive layer 0
		1<<3 | 1<<4 | // cutout + unmipped layer 0
		1<<6 | // disable diffuse layer 1
		1<<8 | // cutout layer 1
		1<<12 | // disable AO layer 2
		1<<15 // color index disabled layer 0
	assert.Equal(t, want, m.ShaderFlags())
	assert.Equal(t, uint64(1), m.Bits()>>16&1, "layer 1 color disable lives above the shader flags")
	assert.Equal(t, 1<<2|1<<7|1<<12, ShaderFlagsDisableAO)
}

func TestInterning(t *testing.T) {
	reg := NewRegistry()
	a := find(t, reg.Finder().BlendMode(0, BlendSolid))
	b := find(t, reg.Finder().BlendMode(0, BlendSolid))
	c := find(t, reg.Finder().BlendMode(0, BlendTranslucent))

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, reg.Len())
	assert.Same(t, c, reg.ByID(c.ID()))
	assert.Nil(t, reg.ByID(99))
}

func TestInterningIsConcurrent(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	got := make([]*Material, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := reg.Finder().Emissive(0, true).Find()
			if err == nil {
				got[i] = m
			}
		}(i)
	}
	wg.Wait()

	for _, m := range got {
		assert.Same(t, got[0], m)
	}
	assert.Equal(t, 1, reg.Len())
}

func TestHasAO(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.Default().HasAO())
	assert.False(t, find(t, reg.Finder().DisableAO(0, true)).HasAO())
	// unused layers do not count
	assert.False(t, find(t, reg.Finder().DisableAO(0, true).DisableAO(1, false)).HasAO())
	assert.True(t, find(t, reg.Finder().SpriteDepth(2).DisableAO(0, true)).HasAO())
	assert.False(t, find(t, reg.Finder().SpriteDepth(3).DisableAO(0, true).DisableAO(1, true).DisableAO(2, true)).HasAO())
}

func TestIsTranslucent(t *testing.T) {
	reg := NewRegistry()
	cases := []struct {
		name   string
		layers []BlendMode
		want   bool
	}{
		{"solid", []BlendMode{BlendSolid}, false},
		{"translucent", []BlendMode{BlendTranslucent}, true},
		{"solid base hides overlay", []BlendMode{BlendSolid, BlendTranslucent}, false},
		{"cutout base with translucent overlay", []BlendMode{BlendCutout, BlendTranslucent}, true},
		{"third layer", []BlendMode{BlendDefault, BlendCutout, BlendTranslucent}, true},
		{"cutout", []BlendMode{BlendCutoutMipped, BlendCutout}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := reg.Finder().SpriteDepth(len(tc.layers))
			for i, b := range tc.layers {
				f.BlendMode(i, b)
			}
			assert.Equal(t, tc.want, find(t, f).IsTranslucent())
		})
	}
}

func TestSpriteDepthRejected(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Finder().SpriteDepth(4).Find()
	assert.ErrorIs(t, err, ErrSpriteDepth)

	_, err = reg.Finder().SpriteDepth(0).Find()
	assert.ErrorIs(t, err, ErrSpriteDepth)
	assert.Equal(t, 0, reg.Len())
}

func TestAdjustPresets(t *testing.T) {
	reg := NewRegistry()

	m := find(t, reg.Finder().Adjust(PresetCutout))
	assert.Equal(t, BlendCutout, m.BlendMode(0))
	assert.Equal(t, PresetNone, m.Preset())
	assert.Equal(t, 1<<3|1<<4, m.ShaderFlags())

	m = find(t, reg.Finder().Preset(PresetTranslucent).Adjust(PresetSolid))
	assert.Equal(t, BlendTranslucent, m.BlendMode(0))
	assert.Equal(t, PassTranslucent, m.Pass(0))

	m = find(t, reg.Finder().Preset(PresetNone).Adjust(PresetSolid))
	assert.Equal(t, BlendDefault, m.BlendMode(0))
	assert.True(t, m.NeedsBlendMode())

	// explicit layers are kept
	m = find(t, reg.Finder().SpriteDepth(2).BlendMode(0, BlendSolid).Adjust(PresetCutoutMipped))
	assert.Equal(t, BlendSolid, m.BlendMode(0))
	assert.Equal(t, BlendCutoutMipped, m.BlendMode(1))
	assert.Equal(t, PassDecal, m.Pass(1))
	assert.False(t, m.NeedsBlendMode())
}

func TestCopyFrom(t *testing.T) {
	reg := NewRegistry()
	src := find(t, reg.Finder().SpriteDepth(2).Shader(3).Condition(5).Emissive(1, true))
	dst := find(t, reg.Finder().CopyFrom(src))
	assert.Same(t, src, dst)
	assert.Equal(t, 3, dst.Shader())
	assert.Equal(t, 5, dst.Condition())
}

func TestIndexer(t *testing.T) {
	reg := NewRegistry()
	a := reg.Default()
	b := find(t, reg.Finder().Emissive(0, true))

	x := NewIndexer()
	assert.Equal(t, 0, x.Index(a, 7))
	assert.Equal(t, 1, x.Index(b, 7))
	assert.Equal(t, 2, x.Index(a, 8))
	assert.Equal(t, 0, x.Index(a, 7))
	assert.Equal(t, 3, x.Len())
}

func TestAnimatedSprites(t *testing.T) {
	a := NewAnimatedSprites(9, 4, 9)
	assert.Equal(t, 0, a.AnimationIndex(9))
	assert.Equal(t, 1, a.AnimationIndex(4))
	assert.Equal(t, -1, a.AnimationIndex(2))
	assert.Equal(t, 2, a.Count())
}
