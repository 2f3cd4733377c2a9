package region

import (
	"math/bits"

	"github.com/gammazero/deque"
)

// Face connectivity masks hold 6 bits per entry face: bits [6f, 6f+6)
// are the faces reachable through passable cells from face f.

// FullyOpen is the mask of an empty region: every face reaches every face.
const FullyOpen = uint64(0xFFFFFFFFF)

// OpenFacesFlag returns the faces reachable from any of the entry faces.
// Entry flags of zero means the flood started inside this region, so every
// face is open.
func OpenFacesFlag(mutualFaceFlags uint64, entryFaceFlags int) int {
	if entryFaceFlags == 0 {
		return AllFaceFlags
	}
	open := 0
	for f := 0; f < FaceCount; f++ {
		if entryFaceFlags&(1<<f) != 0 {
			open |= int(mutualFaceFlags>>(6*f)) & AllFaceFlags
		}
	}
	return open
}

type cellSet [4096 / 64]uint64

func (s *cellSet) set(i int)      { s[i>>6] |= 1 << (i & 63) }
func (s *cellSet) clear(i int)    { s[i>>6] &^= 1 << (i & 63) }
func (s *cellSet) has(i int) bool { return s[i>>6]&(1<<(i&63)) != 0 }

func (s *cellSet) pop() int {
	for o, v := range s {
		if v != 0 {
			off := bits.TrailingZeros64(v)
			s[o] &^= 1 << off
			return o*64 + off
		}
	}
	return -1
}

// BuildFaceConnectivity floods the passable cells of a 16³ region (layout
// x + z*16 + y*256) and records, for each connected component, which faces
// it touches.
func BuildFaceConnectivity(isOpaque func(x, y, z int) bool) uint64 {
	var passable cellSet
	count := 0
	for i := 0; i < 4096; i++ {
		if !isOpaque(i&15, i>>8, (i>>4)&15) {
			passable.set(i)
			count++
		}
	}
	switch count {
	case 0:
		return 0
	case 4096:
		return FullyOpen
	}

	var conn uint64
	var todo deque.Deque[int]
	for start := passable.pop(); start != -1; start = passable.pop() {
		faces := 0
		todo.PushBack(start)
		for todo.Len() > 0 {
			cur := todo.PopFront()
			x, y, z := cur&15, cur>>8, (cur>>4)&15

			if y == 0 {
				faces |= Down.Flag()
			}
			if y == 15 {
				faces |= Up.Flag()
			}
			if z == 0 {
				faces |= North.Flag()
			}
			if z == 15 {
				faces |= South.Flag()
			}
			if x == 0 {
				faces |= West.Flag()
			}
			if x == 15 {
				faces |= East.Flag()
			}

			visit := func(n int) {
				if passable.has(n) {
					passable.clear(n)
					todo.PushBack(n)
				}
			}
			if y > 0 {
				visit(cur - 256)
			}
			if y < 15 {
				visit(cur + 256)
			}
			if z > 0 {
				visit(cur - 16)
			}
			if z < 15 {
				visit(cur + 16)
			}
			if x > 0 {
				visit(cur - 1)
			}
			if x < 15 {
				visit(cur + 1)
			}
		}

		for f := 0; f < FaceCount; f++ {
			if faces&(1<<f) != 0 {
				conn |= uint64(faces) << (6 * f)
			}
		}
	}
	return conn
}
