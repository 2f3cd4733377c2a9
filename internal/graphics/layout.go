package graphics

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/encoding"
	"mini-canvas/internal/region"
)

// AttribPointer is one glVertexAttrib(I)Pointer call. The attribute's
// location is its index in the format.
type AttribPointer struct {
	Location   uint32
	Size       int32
	Type       uint32
	Normalized bool
	Integer    bool
	Stride     int32
	Offset     int
}

func glType(t encoding.AttribType) (uint32, error) {
	switch t {
	case encoding.Float:
		return gl.FLOAT, nil
	case encoding.Byte:
		return gl.BYTE, nil
	case encoding.UnsignedByte:
		return gl.UNSIGNED_BYTE, nil
	case encoding.UnsignedShort:
		return gl.UNSIGNED_SHORT, nil
	case encoding.UnsignedInt:
		return gl.UNSIGNED_INT, nil
	}
	return 0, fmt.Errorf("graphics: unknown attribute type %d", t)
}

// Pointers lists the attribute pointers of a vertex format.
func Pointers(f encoding.Format) ([]AttribPointer, error) {
	out := make([]AttribPointer, 0, len(f.Attributes))
	for i, a := range f.Attributes {
		t, err := glType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", f.Name, a.Name, err)
		}
		out = append(out, AttribPointer{
			Location:   uint32(i),
			Size:       int32(a.Components),
			Type:       t,
			Normalized: a.Normalized,
			Integer:    a.Integer,
			Stride:     int32(f.VertexStrideBytes()),
			Offset:     a.Offset,
		})
	}
	return out, nil
}

// bindPointers sets up the bound VAO against the bound array buffer.
func bindPointers(ps []AttribPointer) {
	for _, p := range ps {
		gl.EnableVertexAttribArray(p.Location)
		if p.Integer {
			gl.VertexAttribIPointer(p.Location, p.Size, p.Type, p.Stride, gl.PtrOffset(p.Offset))
			continue
		}
		gl.VertexAttribPointer(p.Location, p.Size, p.Type, p.Normalized, p.Stride, gl.PtrOffset(p.Offset))
	}
}

// QuadIndices returns triangle indices for quads stored as four vertices
// each, two triangles per quad.
func QuadIndices(quads int) []uint32 {
	out := make([]uint32, 0, quads*6)
	for q := 0; q < quads; q++ {
		b := uint32(q * 4)
		out = append(out, b, b+1, b+2, b+2, b+3, b)
	}
	return out
}

// VisibleFaces reports which face buckets of a region can face a camera.
// A bucket is skipped when the camera is behind every face in it.
func VisibleFaces(origin [3]int, size int, camera mgl32.Vec3) [encoding.FaceIndexCount]bool {
	lo := mgl32.Vec3{float32(origin[0]), float32(origin[1]), float32(origin[2])}
	hi := lo.Add(mgl32.Vec3{float32(size), float32(size), float32(size)})

	var out [encoding.FaceIndexCount]bool
	out[region.Down] = camera.Y() < hi.Y()
	out[region.Up] = camera.Y() > lo.Y()
	out[region.North] = camera.Z() < hi.Z()
	out[region.South] = camera.Z() > lo.Z()
	out[region.West] = camera.X() < hi.X()
	out[region.East] = camera.X() > lo.X()
	out[encoding.FaceUnassigned] = true
	return out
}
