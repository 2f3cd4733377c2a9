package world

// BlockState is a registry id. The zero value is air.
type BlockState uint16

const (
	Air BlockState = iota
	Stone
	Dirt
	Grass
	Sand
	Bedrock
	Leaves
	Glass
	Glowstone
	Water
	numBlockStates
)

// RenderLayer selects the blend path a block's quads go through.
type RenderLayer uint8

const (
	LayerSolid RenderLayer = iota
	LayerCutout
	LayerTranslucent
)

// NoColorIndex marks blocks whose quads are never tinted.
const NoColorIndex = -1

// Sprite ids. Water is the only animated sprite.
const (
	SpriteStone = iota
	SpriteDirt
	SpriteGrassTop
	SpriteGrassSide
	SpriteSand
	SpriteBedrock
	SpriteLeaves
	SpriteGlass
	SpriteGlowstone
	SpriteWater
	SpriteCount
)

// BlockInfo is the static description of a block state.
type BlockInfo struct {
	Name       string
	Opaque     bool
	Luminance  int
	ColorIndex int
	Layer      RenderLayer
	SideSprite int
	TopSprite  int
}

var registry = [numBlockStates]BlockInfo{
	Air:       {Name: "air", ColorIndex: NoColorIndex},
	Stone:     {Name: "stone", Opaque: true, ColorIndex: NoColorIndex, SideSprite: SpriteStone, TopSprite: SpriteStone},
	Dirt:      {Name: "dirt", Opaque: true, ColorIndex: NoColorIndex, SideSprite: SpriteDirt, TopSprite: SpriteDirt},
	Grass:     {Name: "grass", Opaque: true, ColorIndex: 0, SideSprite: SpriteGrassSide, TopSprite: SpriteGrassTop},
	Sand:      {Name: "sand", Opaque: true, ColorIndex: NoColorIndex, SideSprite: SpriteSand, TopSprite: SpriteSand},
	Bedrock:   {Name: "bedrock", Opaque: true, ColorIndex: NoColorIndex, SideSprite: SpriteBedrock, TopSprite: SpriteBedrock},
	Leaves:    {Name: "leaves", ColorIndex: 0, Layer: LayerCutout, SideSprite: SpriteLeaves, TopSprite: SpriteLeaves},
	Glass:     {Name: "glass", ColorIndex: NoColorIndex, Layer: LayerCutout, SideSprite: SpriteGlass, TopSprite: SpriteGlass},
	Glowstone: {Name: "glowstone", Opaque: true, Luminance: 15, ColorIndex: NoColorIndex, SideSprite: SpriteGlowstone, TopSprite: SpriteGlowstone},
	Water:     {Name: "water", ColorIndex: 1, Layer: LayerTranslucent, SideSprite: SpriteWater, TopSprite: SpriteWater},
}

// Info returns the registry entry for s. Unknown ids read as air.
func Info(s BlockState) BlockInfo {
	if int(s) >= len(registry) {
		return registry[Air]
	}
	return registry[s]
}

// IsAir reports whether s is air.
func (s BlockState) IsAir() bool { return s == Air }

// IsOpaque reports whether s is a full opaque cube.
func (s BlockState) IsOpaque() bool { return Info(s).Opaque }

// Luminance returns emitted block light in [0, 15].
func (s BlockState) Luminance() int { return Info(s).Luminance }

func (s BlockState) String() string { return Info(s).Name }

// TintColor returns the ARGB color for a color index, or white.
func TintColor(colorIndex int) uint32 {
	switch colorIndex {
	case 0:
		return 0xFF79C05A
	case 1:
		return 0xFF3F76E4
	default:
		return 0xFFFFFFFF
	}
}
