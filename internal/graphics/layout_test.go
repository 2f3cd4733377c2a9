package graphics

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-canvas/internal/encoding"
	"mini-canvas/internal/region"
)

func TestCompactPointers(t *testing.T) {
	ps, err := Pointers(encoding.CompactMaterial)
	require.NoError(t, err)
	require.Len(t, ps, len(encoding.CompactMaterial.Attributes))

	for i, p := range ps {
		assert.Equal(t, uint32(i), p.Location)
		assert.Equal(t, int32(32), p.Stride)
	}
	assert.Equal(t, AttribPointer{Location: 0, Size: 3, Type: gl.FLOAT, Stride: 32, Offset: 0}, ps[0])
	assert.Equal(t, uint32(gl.UNSIGNED_SHORT), ps[4].Type)
	assert.True(t, ps[4].Integer, "material index is read as an integer")
	assert.Equal(t, 22, ps[4].Offset)
	assert.Equal(t, 28, ps[6].Offset)
}

func TestPointersRejectUnknownType(t *testing.T) {
	f := encoding.Format{Name: "bad", Attributes: []encoding.Attribute{{Name: "x", Components: 1, Type: encoding.AttribType(42)}}}
	_, err := Pointers(f)
	assert.Error(t, err)
}

func TestQuadIndices(t *testing.T) {
	assert.Empty(t, QuadIndices(0))
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}, QuadIndices(2))
}

func TestVisibleFaces(t *testing.T) {
	origin := [3]int{16, 0, 16}

	above := VisibleFaces(origin, 16, mgl32.Vec3{24, 40, 24})
	assert.True(t, above[region.Up])
	assert.False(t, above[region.Down])
	assert.True(t, above[region.North] && above[region.South] && above[region.West] && above[region.East])
	assert.True(t, above[encoding.FaceUnassigned])

	west := VisibleFaces(origin, 16, mgl32.Vec3{0, 8, 24})
	assert.True(t, west[region.West])
	assert.False(t, west[region.East])
}
