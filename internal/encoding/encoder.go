package encoding

import (
	"errors"
	"fmt"
	"math"

	"mini-canvas/internal/config"
	"mini-canvas/internal/encoding/vf"
)

// Sink hands out space for one quad. The returned slice is valid until the
// next Allocate and is fully overwritten by the caller.
type Sink interface {
	Allocate(ints int) []uint32
}

// Transcoder packs one quad into a sink using the context's transforms and
// lighting settings.
type Transcoder interface {
	Transcode(q *Quad, ctx *Context, sink Sink) error
}

// TranscoderFunc adapts a function to Transcoder.
type TranscoderFunc func(q *Quad, ctx *Context, sink Sink) error

func (f TranscoderFunc) Transcode(q *Quad, ctx *Context, sink Sink) error { return f(q, ctx, sink) }

var errNoMaterial = errors.New("encoding: quad has no material")

// normalTransform is swapped in tests to count transforms.
var normalTransform = TransformNormal

func materialIndex(q *Quad, ctx *Context) (uint32, error) {
	if q.Material == nil {
		return 0, errNoMaterial
	}
	if ctx.Materials == nil {
		return 0, nil
	}
	return uint32(ctx.Materials.Index(q.Material, q.SpriteID)), nil
}

// aoByte reads the global AO setting on every quad so a toggle reaches
// contexts built before it.
func aoByte(q *Quad, ctx *Context, i int) uint32 {
	if !ctx.AmbientOcclusion || !config.AmbientOcclusionEnabled() {
		return 255
	}
	return quantizeAO(q.AO[i])
}

func compactLight(lightmap int, material uint32) uint32 {
	block := uint32(lightmap) & 0xFF
	sky := (uint32(lightmap) >> 16) & 0xFF
	return block | sky<<8 | material<<16
}

// CompactEncoder writes CompactMaterial records with untransformed positions
// and normals. AO is always 255.
var CompactEncoder Transcoder = TranscoderFunc(encodeCompact)

func encodeCompact(q *Quad, ctx *Context, sink Sink) error {
	mat, err := materialIndex(q, ctx)
	if err != nil {
		return err
	}

	useNormals := q.HasVertexNormals()
	var normal uint32
	if useNormals {
		q.PopulateMissingNormals()
	} else {
		normal = q.PackedFaceNormal()
	}

	out := sink.Allocate(CompactMaterial.QuadStrideInts)
	k := 0
	for i := 0; i < 4; i++ {
		p := q.Pos[i]
		out[k] = math.Float32bits(p[0])
		out[k+1] = math.Float32bits(p[1])
		out[k+2] = math.Float32bits(p[2])
		out[k+3] = q.Color[i]
		out[k+4] = q.packedUV(i)
		out[k+5] = compactLight(q.Lightmap[i], mat)
		if useNormals {
			normal = q.PackedNormal(i)
		}
		out[k+6] = normal | 0xFF000000
		out[k+7] = ctx.Overlay
		k += 8
	}
	return nil
}

// CompactTranscoder writes CompactMaterial records through the context
// matrices. Normals are transformed once per distinct packed value.
var CompactTranscoder Transcoder = TranscoderFunc(transcodeCompact)

func transcodeCompact(q *Quad, ctx *Context, sink Sink) error {
	mat, err := materialIndex(q, ctx)
	if err != nil {
		return err
	}

	useNormals := q.HasVertexNormals()
	var packed, transformed uint32
	if useNormals {
		q.PopulateMissingNormals()
	} else {
		packed = q.PackedFaceNormal()
		transformed = normalTransform(ctx.NormalMatrix, packed)
	}

	out := sink.Allocate(CompactMaterial.QuadStrideInts)
	k := 0
	for i := 0; i < 4; i++ {
		p := ctx.Matrix.Mul4x1(q.Pos[i].Vec4(1))
		out[k] = math.Float32bits(p[0])
		out[k+1] = math.Float32bits(p[1])
		out[k+2] = math.Float32bits(p[2])
		out[k+3] = q.Color[i]
		out[k+4] = q.packedUV(i)
		out[k+5] = compactLight(q.Lightmap[i], mat)

		if useNormals {
			if n := q.PackedNormal(i); i == 0 || n != packed {
				packed = n
				transformed = normalTransform(ctx.NormalMatrix, packed)
			}
		}
		out[k+6] = transformed | aoByte(q, ctx, i)<<24
		out[k+7] = ctx.Overlay
		k += 8
	}
	return nil
}

// VFTranscoder writes one VFMaterial record per quad and registers the quad
// data in the context's side tables.
var VFTranscoder Transcoder = TranscoderFunc(transcodeVF)

func transcodeVF(q *Quad, ctx *Context, sink Sink) error {
	if ctx.Tables == nil {
		return errors.New("encoding: vertex fetch needs side tables")
	}
	mat, err := materialIndex(q, ctx)
	if err != nil {
		return err
	}

	q.PopulateMissingNormals()

	var vertex vf.VertexEntry
	var packed, transformed uint32
	for i := 0; i < 4; i++ {
		p := ctx.Matrix.Mul4x1(q.Pos[i].Vec4(1))
		if n := q.PackedNormal(i); i == 0 || n != packed {
			packed = n
			transformed = normalTransform(ctx.NormalMatrix, packed)
		}
		vertex[i*4] = math.Float32bits(p[0])
		vertex[i*4+1] = math.Float32bits(p[1])
		vertex[i*4+2] = math.Float32bits(p[2])
		vertex[i*4+3] = transformed
	}

	var light vf.Quad4
	for i := range light {
		lm := uint32(q.Lightmap[i])
		light[i] = lm&0xFF | (lm>>8)&0xFF00 | aoByte(q, ctx, i)<<16
	}

	vfVertex, err := ctx.Tables.Vertex.Index(vertex)
	if err != nil {
		return fmt.Errorf("encode vf quad: %w", err)
	}
	vfColor, err := ctx.Tables.Color.Index(vf.Quad4(q.Color))
	if err != nil {
		return fmt.Errorf("encode vf quad: %w", err)
	}
	vfUV, err := ctx.Tables.UV.Index(vf.Quad4{q.packedUV(0), q.packedUV(1), q.packedUV(2), q.packedUV(3)})
	if err != nil {
		return fmt.Errorf("encode vf quad: %w", err)
	}
	vfLight, err := ctx.Tables.Light.Index(light)
	if err != nil {
		return fmt.Errorf("encode vf quad: %w", err)
	}

	control, err := vfControlWord(mat, ctx.RelativeBlockPos)
	if err != nil {
		return fmt.Errorf("encode vf quad: %w", err)
	}

	l := uint32(vfLight)
	out := sink.Allocate(VFMaterial.QuadStrideInts)
	out[0] = control
	out[1] = uint32(vfVertex) | (l&0x0000FF)<<24
	out[2] = uint32(vfColor) | (l&0x00FF00)<<16
	out[3] = uint32(vfUV) | (l&0xFF0000)<<8
	return nil
}

// maxVFMaterial is one past the largest material index the control word holds
// above the 12-bit relative block position.
const maxVFMaterial = 1 << 20

func vfControlWord(mat, relPos uint32) (uint32, error) {
	if mat >= maxVFMaterial {
		return 0, fmt.Errorf("material index %d: %w", mat, vf.ErrIndexOverflow)
	}
	return mat<<12 | relPos&0xFFF, nil
}

// TerrainEncoder writes TerrainMaterial records: transformed position, the
// colorized sprite color, float uv, the raw lightmap and the transformed
// normal.
var TerrainEncoder Transcoder = TranscoderFunc(encodeTerrain)

func encodeTerrain(q *Quad, ctx *Context, sink Sink) error {
	useNormals := q.HasVertexNormals()
	var packed, transformed uint32
	if useNormals {
		q.PopulateMissingNormals()
	} else {
		packed = q.PackedFaceNormal()
		transformed = normalTransform(ctx.NormalMatrix, packed)
	}

	out := sink.Allocate(TerrainMaterial.QuadStrideInts)
	k := 0
	for i := 0; i < 4; i++ {
		p := ctx.Matrix.Mul4x1(q.Pos[i].Vec4(1))
		out[k] = math.Float32bits(p[0])
		out[k+1] = math.Float32bits(p[1])
		out[k+2] = math.Float32bits(p[2])
		out[k+3] = q.Color[i]
		out[k+4] = math.Float32bits(q.U[i])
		out[k+5] = math.Float32bits(q.V[i])
		out[k+6] = uint32(q.Lightmap[i])

		if useNormals {
			if n := q.PackedNormal(i); i == 0 || n != packed {
				packed = n
				transformed = normalTransform(ctx.NormalMatrix, packed)
			}
		}
		out[k+7] = transformed
		k += 8
	}
	return nil
}

// SelectTerrainTranscoder returns the transcoder for the terrain layout.
func SelectTerrainTranscoder(vertexFetch bool) Transcoder {
	if vertexFetch {
		return VFTranscoder
	}
	return CompactTranscoder
}

// PackRelativeBlockPos packs a block position inside its region into the
// low 12 bits of a vertex-fetch control word.
func PackRelativeBlockPos(x, y, z int) uint32 {
	return uint32(x&15) | uint32(y&15)<<4 | uint32(z&15)<<8
}
