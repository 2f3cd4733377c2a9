package occlusion

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// frustumMargin inflates region boxes before testing, in blocks.
const frustumMargin float32 = 1.0

type plane struct {
	a, b, c, d float32
}

// Frustum holds six clip planes in world space: left, right, bottom, top,
// near, far.
type Frustum struct {
	planes [6]plane
}

// NewFrustum extracts planes from the combined projection*view matrix.
func NewFrustum(clip mgl32.Mat4) *Frustum {
	// mgl32 matrices are column-major
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	f := &Frustum{}
	f.planes[0] = normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03})
	f.planes[1] = normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03})
	f.planes[2] = normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13})
	f.planes[3] = normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13})
	f.planes[4] = normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23})
	f.planes[5] = normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23})
	return f
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsAABB tests a box against all planes using the positive vertex.
func (f *Frustum) IntersectsAABB(minx, miny, minz, maxx, maxy, maxz float32) bool {
	for _, p := range f.planes {
		px := maxx
		if p.a < 0 {
			px = minx
		}
		py := maxy
		if p.b < 0 {
			py = miny
		}
		pz := maxz
		if p.c < 0 {
			pz = minz
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}

// RegionVisible tests the 16³ box at a region origin.
func (f *Frustum) RegionVisible(originX, originY, originZ int) bool {
	x, y, z := float32(originX), float32(originY), float32(originZ)
	return f.IntersectsAABB(
		x-frustumMargin, y-frustumMargin, z-frustumMargin,
		x+16+frustumMargin, y+16+frustumMargin, z+16+frustumMargin)
}
