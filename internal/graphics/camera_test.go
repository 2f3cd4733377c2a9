package graphics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraFront(t *testing.T) {
	c := NewCamera(800, 600)
	assert.InDelta(t, 800.0/600.0, c.AspectRatio, 1e-6)
	assert.True(t, c.Front().ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-6))

	c.Rotate(90, 0)
	assert.True(t, c.Front().ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6))
	assert.True(t, c.Right().ApproxEqualThreshold(mgl32.Vec3{-1, 0, 0}, 1e-6))
}

func TestCameraPitchClamped(t *testing.T) {
	c := NewCamera(1, 1)
	c.Rotate(0, 200)
	assert.Equal(t, float32(89), c.Pitch)
	c.Rotate(0, -400)
	assert.Equal(t, float32(-89), c.Pitch)
}

func TestCameraMove(t *testing.T) {
	c := NewCamera(1, 1)
	c.Move(2, 0, 1)
	assert.True(t, c.Position.ApproxEqualThreshold(mgl32.Vec3{2, 1, 0}, 1e-6))
	c.Move(0, 3, 0)
	assert.True(t, c.Position.ApproxEqualThreshold(mgl32.Vec3{2, 1, 3}, 1e-6))
}

func TestCameraIgnoresEmptyViewport(t *testing.T) {
	c := NewCamera(200, 100)
	c.SetViewport(0, 0)
	assert.Equal(t, float32(2), c.AspectRatio)
}

func TestViewProjectionKeepsPointAhead(t *testing.T) {
	c := NewCamera(1, 1)
	c.Position = mgl32.Vec3{10, 5, 10}
	p := c.ViewProjection().Mul4x1(mgl32.Vec4{20, 5, 10, 1})
	ndc := p.Vec3().Mul(1 / p.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.True(t, ndc.Z() > -1 && ndc.Z() < 1)
}
