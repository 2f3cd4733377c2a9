package region

import "github.com/go-gl/mathgl/mgl32"

// Face is a cube face index. Opposite faces differ only in the low bit.
type Face uint8

const (
	Down Face = iota
	Up
	North
	South
	West
	East
)

// FaceCount is the number of cube faces.
const FaceCount = 6

// AllFaceFlags has every face flag set.
const AllFaceFlags = 1<<FaceCount - 1

var faceOffsets = [FaceCount][3]int{
	Down:  {0, -1, 0},
	Up:    {0, 1, 0},
	North: {0, 0, -1},
	South: {0, 0, 1},
	West:  {-1, 0, 0},
	East:  {1, 0, 0},
}

var faceNames = [FaceCount]string{"down", "up", "north", "south", "west", "east"}

// Opposite returns the face on the other side of the cube.
func (f Face) Opposite() Face { return f ^ 1 }

// Flag is the single-bit mask for f.
func (f Face) Flag() int { return 1 << f }

// Offset is the unit step across f in block or region units.
func (f Face) Offset() (x, y, z int) {
	o := faceOffsets[f]
	return o[0], o[1], o[2]
}

// Normal is the outward unit normal of f.
func (f Face) Normal() mgl32.Vec3 {
	o := faceOffsets[f]
	return mgl32.Vec3{float32(o[0]), float32(o[1]), float32(o[2])}
}

func (f Face) String() string {
	if f >= FaceCount {
		return "unassigned"
	}
	return faceNames[f]
}

// FaceFromNormal returns the face whose normal is closest to n.
func FaceFromNormal(n mgl32.Vec3) Face {
	ax, ay, az := abs32(n[0]), abs32(n[1]), abs32(n[2])
	switch {
	case ay >= ax && ay >= az:
		if n[1] < 0 {
			return Down
		}
		return Up
	case ax >= az:
		if n[0] < 0 {
			return West
		}
		return East
	default:
		if n[2] < 0 {
			return North
		}
		return South
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
