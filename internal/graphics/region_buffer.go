package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"mini-canvas/internal/encoding"
	"mini-canvas/internal/meshing"
)

// drawBuffer is one VAO and VBO pair drawn through the shared quad index
// buffer.
type drawBuffer struct {
	vao, vbo uint32
	vertices int
}

func newDrawBuffer(pointers []AttribPointer, ebo uint32) drawBuffer {
	var b drawBuffer
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	bindPointers(pointers)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return b
}

func (b *drawBuffer) upload(data []uint32, vertexInts int, usage uint32) {
	b.vertices = len(data) / vertexInts
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, usage)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), usage)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// draw issues the triangles of vertices [start, start+count).
func (b *drawBuffer) draw(start, count int) {
	if count <= 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(count/4*6), gl.UNSIGNED_INT, gl.PtrOffset(0), int32(start))
}

func (b *drawBuffer) delete() {
	gl.DeleteBuffers(1, &b.vbo)
	gl.DeleteVertexArrays(1, &b.vao)
}

// RegionBuffer holds the GPU copy of one region mesh.
type RegionBuffer struct {
	solid       drawBuffer
	translucent drawBuffer
	buckets     [encoding.FaceIndexCount]encoding.FaceBucket
	origin      [3]int
	mesh        *meshing.Mesh
	lastSeen    int
}

func newRegionBuffer(pointers []AttribPointer, ebo uint32) *RegionBuffer {
	return &RegionBuffer{
		solid:       newDrawBuffer(pointers, ebo),
		translucent: newDrawBuffer(pointers, ebo),
	}
}

// sync uploads the solid quads when the mesh changed. Translucent quads are
// re-sorted by the driver, so they are uploaded every frame they are drawn.
func (rb *RegionBuffer) sync(m *meshing.Mesh) {
	stride := m.Format.VertexStrideInts
	if rb.mesh != m {
		rb.solid.upload(m.Solid, stride, gl.STATIC_DRAW)
		rb.buckets = m.Buckets
		rb.origin = [3]int{m.OriginX, m.OriginY, m.OriginZ}
		rb.mesh = m
	}
	if len(m.Translucent) > 0 || rb.translucent.vertices > 0 {
		rb.translucent.upload(m.Translucent, stride, gl.STREAM_DRAW)
	}
}

func (rb *RegionBuffer) delete() {
	rb.solid.delete()
	rb.translucent.delete()
}
