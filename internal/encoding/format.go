package encoding

// AttribType is the component type of a vertex attribute.
type AttribType uint8

const (
	Float AttribType = iota
	Byte
	UnsignedByte
	UnsignedShort
	UnsignedInt
)

// Size is the byte size of one component.
func (t AttribType) Size() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case UnsignedShort:
		return 2
	default:
		return 4
	}
}

// Attribute describes one vertex attribute as the GPU reads it.
type Attribute struct {
	Name       string
	Components int
	Type       AttribType
	Normalized bool
	// Integer attributes are read without conversion to float.
	Integer bool
	Offset  int // bytes from the start of the vertex
}

// Format is a fixed-stride vertex layout.
type Format struct {
	Name             string
	Attributes       []Attribute
	VertexStrideInts int
	QuadStrideInts   int
	// HasPosition is true when every vertex starts with x, y, z float bits.
	HasPosition bool
}

// VertexStrideBytes is the stride passed to the vertex attribute pointers.
func (f Format) VertexStrideBytes() int { return f.VertexStrideInts * 4 }

func layout(name string, quadStride int, hasPosition bool, attrs ...Attribute) Format {
	off := 0
	for i := range attrs {
		attrs[i].Offset = off
		off += attrs[i].Components * attrs[i].Type.Size()
	}
	vertexStride := off / 4
	if quadStride == 0 {
		quadStride = vertexStride * 4
	}
	return Format{
		Name:             name,
		Attributes:       attrs,
		VertexStrideInts: vertexStride,
		QuadStrideInts:   quadStride,
		HasPosition:      hasPosition,
	}
}

// CompactMaterial is written by the compact encoder and transcoder, eight
// words per vertex:
//
//	0..2  position, float bits
//	3     color, ABGR
//	4     u | v<<16, unsigned normalized
//	5     block light | sky light<<8 | material index<<16
//	6     packed normal | ao<<24
//	7     overlay u | v<<16
var CompactMaterial = layout("compact", 0, true,
	Attribute{Name: "in_vertex", Components: 3, Type: Float},
	Attribute{Name: "in_color", Components: 4, Type: UnsignedByte, Normalized: true},
	Attribute{Name: "in_uv", Components: 2, Type: UnsignedShort, Normalized: true},
	Attribute{Name: "in_lightmap", Components: 2, Type: UnsignedByte},
	Attribute{Name: "in_material", Components: 1, Type: UnsignedShort, Integer: true},
	Attribute{Name: "in_normal_ao", Components: 4, Type: Byte, Normalized: true},
	Attribute{Name: "in_overlay", Components: 2, Type: UnsignedShort},
)

// TerrainMaterial is written by the terrain encoder, eight words per vertex:
// position, color, u, v as float bits, raw lightmap, packed normal.
var TerrainMaterial = layout("terrain", 0, true,
	Attribute{Name: "in_vertex", Components: 3, Type: Float},
	Attribute{Name: "in_color", Components: 4, Type: UnsignedByte, Normalized: true},
	Attribute{Name: "in_uv", Components: 2, Type: Float},
	Attribute{Name: "in_lightmap", Components: 1, Type: UnsignedInt, Integer: true},
	Attribute{Name: "in_normal", Components: 4, Type: Byte, Normalized: true},
)

// VFMaterial is one vertex-fetch record per quad: control word, then vertex,
// color and uv indices with the light index striped through their top
// bytes. The quad stride equals the vertex stride.
var VFMaterial = layout("vf", 4, false,
	Attribute{Name: "in_vf", Components: 4, Type: UnsignedInt, Integer: true},
)

// TerrainVertexConfig is the layout terrain regions are collected in.
type TerrainVertexConfig struct {
	Format Format
	// QuadStrideInts controls allocation in collectors.
	QuadStrideInts int
	// ApplyBlockPosTranslation makes positions relative to the block inside
	// the region instead of the region origin.
	ApplyBlockPosTranslation bool
}

var (
	DefaultTerrainConfig = TerrainVertexConfig{Format: CompactMaterial, QuadStrideInts: CompactMaterial.QuadStrideInts}
	FetchTerrainConfig   = TerrainVertexConfig{Format: VFMaterial, QuadStrideInts: VFMaterial.VertexStrideInts, ApplyBlockPosTranslation: true}
)

// SelectTerrainConfig returns the fetch layout when vertex fetch is enabled.
func SelectTerrainConfig(vertexFetch bool) TerrainVertexConfig {
	if vertexFetch {
		return FetchTerrainConfig
	}
	return DefaultTerrainConfig
}
