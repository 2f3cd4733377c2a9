package encoding

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/invariant"
	"mini-canvas/internal/region"
)

// ErrUnsupported is returned by collector operations that a collector
// variant does not implement.
var ErrUnsupported = errors.New("encoding: operation not supported by collector")

// FaceBucket is the vertex range of one face in a collected region.
type FaceBucket struct {
	VertexStart int
	VertexCount int
}

// Collector accumulates encoded quads.
type Collector interface {
	Sink
	// Commit stores the quad written by the last Allocate.
	Commit(face region.Face, castShadow bool) error
	CommitSize(ints int) error
	CommitShadow(castShadow bool) error
	Clear()
	IntegerSize() int
	VertexCount() int
	SortQuads(origin mgl32.Vec3) error
	SaveState() ([]uint32, error)
	LoadState(state []uint32) error
	FaceBucket(vertexStart int) (FaceBucket, error)
	ToBuffer(dst []uint32) (int, error)
}

// SimpleCollector is a flat list of quads in one format.
type SimpleCollector struct {
	format  Format
	staged  []uint32
	data    []uint32
	shadows []bool
}

var _ Collector = (*SimpleCollector)(nil)

func NewSimpleCollector(f Format) *SimpleCollector {
	return &SimpleCollector{format: f}
}

// Format is the vertex layout of the collected words.
func (c *SimpleCollector) Format() Format { return c.format }

func (c *SimpleCollector) Allocate(ints int) []uint32 {
	c.staged = slices.Grow(c.staged[:0], ints)[:ints]
	return c.staged
}

// Data is the committed words. It is invalidated by the next commit.
func (c *SimpleCollector) Data() []uint32 { return c.data }

func (c *SimpleCollector) appendQuad(words []uint32, castShadow bool) {
	c.data = append(c.data, words...)
	c.shadows = append(c.shadows, castShadow)
}

// Commit stores the staged quad. The face is ignored.
func (c *SimpleCollector) Commit(_ region.Face, castShadow bool) error {
	return c.CommitShadow(castShadow)
}

// CommitShadow stores the staged quad, flagged as a shadow caster or not.
func (c *SimpleCollector) CommitShadow(castShadow bool) error {
	invariant.Check(len(c.staged) > 0, "commit without allocate")
	c.appendQuad(c.staged, castShadow)
	c.staged = c.staged[:0]
	return nil
}

// CommitSize stores the first ints words of the staged quad.
func (c *SimpleCollector) CommitSize(ints int) error {
	if ints > len(c.staged) {
		return fmt.Errorf("encoding: commit of %d words, %d staged", ints, len(c.staged))
	}
	c.appendQuad(c.staged[:ints], false)
	c.staged = c.staged[:0]
	return nil
}

func (c *SimpleCollector) Clear() {
	c.staged = c.staged[:0]
	c.data = c.data[:0]
	c.shadows = c.shadows[:0]
}

func (c *SimpleCollector) IntegerSize() int { return len(c.data) }

// VertexCount counts vertices, or quads for formats whose quad stride is one
// vertex.
func (c *SimpleCollector) VertexCount() int {
	if c.format.VertexStrideInts == 0 {
		return 0
	}
	return len(c.data) / c.format.VertexStrideInts
}

// QuadCount is the number of committed quads.
func (c *SimpleCollector) QuadCount() int { return len(c.shadows) }

// ShadowQuadCount is the number of committed shadow casting quads.
func (c *SimpleCollector) ShadowQuadCount() int {
	n := 0
	for _, s := range c.shadows {
		if s {
			n++
		}
	}
	return n
}

func (c *SimpleCollector) IsEmpty() bool { return len(c.data) == 0 }

func (c *SimpleCollector) quadCenter(q int) mgl32.Vec3 {
	var sum mgl32.Vec3
	base := q * c.format.QuadStrideInts
	for v := 0; v < 4; v++ {
		k := base + v*c.format.VertexStrideInts
		sum = sum.Add(mgl32.Vec3{
			math.Float32frombits(c.data[k]),
			math.Float32frombits(c.data[k+1]),
			math.Float32frombits(c.data[k+2]),
		})
	}
	return sum.Mul(0.25)
}

// SortQuads orders quads back to front as seen from origin, for
// translucent drawing.
func (c *SimpleCollector) SortQuads(origin mgl32.Vec3) error {
	if !c.format.HasPosition {
		return fmt.Errorf("sort %s quads: %w", c.format.Name, ErrUnsupported)
	}

	stride := c.format.QuadStrideInts
	n := len(c.data) / stride
	type keyed struct {
		dist float32
		idx  int
	}
	order := make([]keyed, n)
	for q := range order {
		d := c.quadCenter(q).Sub(origin)
		order[q] = keyed{dist: d.Dot(d), idx: q}
	}
	slices.SortStableFunc(order, func(a, b keyed) int { return cmp.Compare(b.dist, a.dist) })

	sorted := make([]uint32, 0, len(c.data))
	shadows := make([]bool, 0, n)
	for _, o := range order {
		sorted = append(sorted, c.data[o.idx*stride:(o.idx+1)*stride]...)
		shadows = append(shadows, c.shadows[o.idx])
	}
	c.data = sorted
	c.shadows = shadows
	return nil
}

// SaveState copies the committed words so a later LoadState can restore
// them, typically to resort translucent quads without re-meshing.
func (c *SimpleCollector) SaveState() ([]uint32, error) {
	return slices.Clone(c.data), nil
}

func (c *SimpleCollector) LoadState(state []uint32) error {
	if len(state)%c.format.QuadStrideInts != 0 {
		return fmt.Errorf("encoding: state of %d words is not a whole number of %s quads", len(state), c.format.Name)
	}
	c.data = append(c.data[:0], state...)
	c.shadows = slices.Grow(c.shadows[:0], len(state)/c.format.QuadStrideInts)[:len(state)/c.format.QuadStrideInts]
	clear(c.shadows)
	return nil
}

// FaceBucket returns the range of this collector when its vertices start at
// vertexStart in the uploaded buffer.
func (c *SimpleCollector) FaceBucket(vertexStart int) (FaceBucket, error) {
	return FaceBucket{VertexStart: vertexStart, VertexCount: c.VertexCount()}, nil
}

func (c *SimpleCollector) ToBuffer(dst []uint32) (int, error) {
	if len(dst) < len(c.data) {
		return 0, fmt.Errorf("encoding: buffer of %d words, need %d", len(dst), len(c.data))
	}
	return copy(dst, c.data), nil
}

// TerrainCollector keeps one SimpleCollector per face so that regions can
// skip faces pointing away from the camera.
type TerrainCollector struct {
	format      Format
	staged      []uint32
	buckets     [FaceIndexCount]*SimpleCollector
	integerSize int
}

var _ Collector = (*TerrainCollector)(nil)

func NewTerrainCollector(f Format) *TerrainCollector {
	c := &TerrainCollector{format: f}
	for i := range c.buckets {
		c.buckets[i] = NewSimpleCollector(f)
	}
	return c
}

func (c *TerrainCollector) Format() Format { return c.format }

func (c *TerrainCollector) Allocate(ints int) []uint32 {
	c.staged = slices.Grow(c.staged[:0], ints)[:ints]
	return c.staged
}

// Commit stores the staged quad in the bucket of face.
func (c *TerrainCollector) Commit(face region.Face, castShadow bool) error {
	if int(face) >= FaceIndexCount {
		return fmt.Errorf("encoding: face index %d out of range", face)
	}
	invariant.Check(len(c.staged) > 0, "commit without allocate")
	c.buckets[face].appendQuad(c.staged, castShadow)
	c.integerSize += len(c.staged)
	c.staged = c.staged[:0]
	return nil
}

func (c *TerrainCollector) CommitSize(int) error {
	return fmt.Errorf("commit on terrain collector must provide face and shadow flag: %w", ErrUnsupported)
}

func (c *TerrainCollector) CommitShadow(bool) error {
	return fmt.Errorf("commit on terrain collector must provide face and shadow flag: %w", ErrUnsupported)
}

func (c *TerrainCollector) Clear() {
	c.staged = c.staged[:0]
	c.integerSize = 0
	for _, b := range c.buckets {
		b.Clear()
	}
}

func (c *TerrainCollector) IntegerSize() int { return c.integerSize }

func (c *TerrainCollector) VertexCount() int {
	n := 0
	for _, b := range c.buckets {
		n += b.VertexCount()
	}
	return n
}

// QuadCount is the number of committed quads across all faces.
func (c *TerrainCollector) QuadCount() int {
	n := 0
	for _, b := range c.buckets {
		n += b.QuadCount()
	}
	return n
}

// ShadowQuadCount is the number of shadow casting quads across all faces.
func (c *TerrainCollector) ShadowQuadCount() int {
	n := 0
	for _, b := range c.buckets {
		n += b.ShadowQuadCount()
	}
	return n
}

// Bucket returns the collector of one face.
func (c *TerrainCollector) Bucket(face region.Face) *SimpleCollector { return c.buckets[face] }

// FaceBuckets returns the vertex range of every face in the order ToBuffer
// writes them.
func (c *TerrainCollector) FaceBuckets() [FaceIndexCount]FaceBucket {
	var out [FaceIndexCount]FaceBucket
	start := 0
	for i, b := range c.buckets {
		out[i], _ = b.FaceBucket(start)
		start += b.VertexCount()
	}
	return out
}

func (c *TerrainCollector) SortQuads(mgl32.Vec3) error {
	return fmt.Errorf("terrain collector does not sort quads: %w", ErrUnsupported)
}

func (c *TerrainCollector) SaveState() ([]uint32, error) {
	return nil, fmt.Errorf("terrain collector does not save state: %w", ErrUnsupported)
}

func (c *TerrainCollector) LoadState([]uint32) error {
	return fmt.Errorf("terrain collector does not load state: %w", ErrUnsupported)
}

func (c *TerrainCollector) FaceBucket(int) (FaceBucket, error) {
	return FaceBucket{}, fmt.Errorf("terrain collector has one bucket per face, use FaceBuckets: %w", ErrUnsupported)
}

// ToBuffer writes every face bucket in face order.
func (c *TerrainCollector) ToBuffer(dst []uint32) (int, error) {
	if len(dst) < c.integerSize {
		return 0, fmt.Errorf("encoding: buffer of %d words, need %d", len(dst), c.integerSize)
	}
	n := 0
	for _, b := range c.buckets {
		if b.IsEmpty() {
			continue
		}
		n += copy(dst[n:], b.data)
	}
	return n, nil
}
