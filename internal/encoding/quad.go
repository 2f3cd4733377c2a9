// Package encoding packs quads into the vertex layouts uploaded for terrain
// and item rendering, and collects the packed words per region.
package encoding

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/material"
	"mini-canvas/internal/region"
)

// FaceUnassigned is the face index of quads that are not axis aligned.
const FaceUnassigned = region.Face(region.FaceCount)

// FaceIndexCount counts the six faces plus FaceUnassigned.
const FaceIndexCount = region.FaceCount + 1

// NoColorIndex marks a quad that is never tinted.
const NoColorIndex = -1

// Quad is one emitted quad. It is scratch state: fill it, hand it to a
// context or encoder once, then Reset it for the next quad.
type Quad struct {
	Pos   [4]mgl32.Vec3
	Color [4]uint32 // ARGB
	U, V  [4]float32

	// Lightmap is block light in bits 0..7 and sky light in bits 16..23.
	Lightmap [4]int
	AO       [4]float32

	Material   *material.Material
	SpriteID   int
	ColorIndex int

	// CullFace is the face whose neighbour hides this quad, or FaceUnassigned.
	CullFace    region.Face
	NominalFace region.Face

	normals    [4]uint32
	normalMask uint8
}

// Reset restores the defaults: white, untinted, full AO, no normals.
func (q *Quad) Reset() {
	*q = Quad{
		ColorIndex:  NoColorIndex,
		CullFace:    FaceUnassigned,
		NominalFace: FaceUnassigned,
	}
	for i := range q.Color {
		q.Color[i] = 0xFFFFFFFF
		q.AO[i] = 1
	}
}

// SetNormal sets an explicit normal for vertex i.
func (q *Quad) SetNormal(i int, n mgl32.Vec3) {
	q.normals[i] = PackNormal(n)
	q.normalMask |= 1 << i
}

// HasNormal reports whether vertex i has a normal.
func (q *Quad) HasNormal(i int) bool { return q.normalMask&(1<<i) != 0 }

// HasVertexNormals reports whether any vertex carries its own normal.
func (q *Quad) HasVertexNormals() bool { return q.normalMask != 0 }

// PackedNormal returns the normal of vertex i, zero when unset.
func (q *Quad) PackedNormal(i int) uint32 { return q.normals[i] }

// FaceNormal is the unit normal implied by the winding of the vertices.
func (q *Quad) FaceNormal() mgl32.Vec3 {
	d0 := q.Pos[2].Sub(q.Pos[0])
	d1 := q.Pos[3].Sub(q.Pos[1])
	n := d0.Cross(d1)
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return n
}

// PackedFaceNormal is FaceNormal in packed form.
func (q *Quad) PackedFaceNormal() uint32 { return PackNormal(q.FaceNormal()) }

// PopulateMissingNormals fills every vertex without a normal with the face
// normal.
func (q *Quad) PopulateMissingNormals() {
	if q.normalMask == 0xF {
		return
	}
	face := q.PackedFaceNormal()
	for i := 0; i < 4; i++ {
		if !q.HasNormal(i) {
			q.normals[i] = face
		}
	}
	q.normalMask = 0xF
}

// EffectiveFace is the face bucket the quad lands in: its cull face, else
// the face matching an axis aligned face normal, else FaceUnassigned.
func (q *Quad) EffectiveFace() region.Face {
	if q.CullFace < region.FaceCount {
		return q.CullFace
	}
	n := q.FaceNormal()
	f := region.FaceFromNormal(n)
	if n.Dot(f.Normal()) > 0.999 {
		return f
	}
	return FaceUnassigned
}

func (q *Quad) packedUV(i int) uint32 {
	return unorm16(q.U[i]) | unorm16(q.V[i])<<16
}

func unorm16(v float32) uint32 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFFFF
	}
	return uint32(v*0xFFFF + 0.5)
}

// PackNormal packs a unit vector into three signed bytes, x in the low byte.
func PackNormal(n mgl32.Vec3) uint32 {
	return uint32(int32(n[0]*127)&0xFF) |
		uint32(int32(n[1]*127)&0xFF)<<8 |
		uint32(int32(n[2]*127)&0xFF)<<16
}

// UnpackNormal reverses PackNormal.
func UnpackNormal(p uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(int8(p)) / 127,
		float32(int8(p>>8)) / 127,
		float32(int8(p>>16)) / 127,
	}
}

// TransformNormal applies the normal matrix to a packed normal and packs the
// renormalised result.
func TransformNormal(m mgl32.Mat3, packed uint32) uint32 {
	n := m.Mul3x1(UnpackNormal(packed))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return PackNormal(n)
}

func quantizeAO(ao float32) uint32 {
	v := math.Round(float64(ao) * 255)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint32(v)
}
