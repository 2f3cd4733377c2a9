// Package vf holds the side tables read by the vertex-fetch terrain layout.
// A vertex-fetch quad stores four 24-bit indices instead of vertex data; the
// tables below resolve those indices on the GPU through texture buffers.
package vf

import (
	"errors"
	"fmt"
	"sync"
)

// MaxIndex is one past the largest index that fits a vertex-fetch word.
const MaxIndex = 1 << 24

// ErrIndexOverflow is returned once a table holds MaxIndex distinct entries.
var ErrIndexOverflow = errors.New("vf: table index exceeds 24 bits")

// Table is an append-only, deduplicating table of fixed-width entries.
// It is safe for concurrent use.
type Table[K comparable] struct {
	name    string
	width   int
	limit   int
	flatten func(K, []uint32) []uint32

	mu    sync.Mutex
	index map[K]int
	words []uint32
}

func newTable[K comparable](name string, width int, flatten func(K, []uint32) []uint32) *Table[K] {
	return &Table[K]{name: name, width: width, limit: MaxIndex, flatten: flatten, index: make(map[K]int)}
}

// Index returns the index of entry, appending it on first use.
func (t *Table[K]) Index(entry K) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i, ok := t.index[entry]; ok {
		return i, nil
	}

	i := len(t.index)
	if i >= t.limit {
		return 0, fmt.Errorf("%s: %w", t.name, ErrIndexOverflow)
	}
	t.index[entry] = i
	t.words = t.flatten(entry, t.words)
	return i, nil
}

// Len is the number of distinct entries.
func (t *Table[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.index)
}

// Width is the number of words per entry.
func (t *Table[K]) Width() int { return t.width }

// Words returns a copy of the raw table contents, entry after entry, for
// upload to a texture buffer.
func (t *Table[K]) Words() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]uint32(nil), t.words...)
}

// Reset drops every entry. Indices handed out before are invalid after.
func (t *Table[K]) Reset() {
	t.mu.Lock()
	clear(t.index)
	t.words = t.words[:0]
	t.mu.Unlock()
}

// Quad4 is one word per quad vertex.
type Quad4 [4]uint32

// VertexEntry is the transformed geometry of a quad: per vertex x, y, z as
// float bits followed by the packed transformed normal.
type VertexEntry [16]uint32

func flatten4(e Quad4, dst []uint32) []uint32 { return append(dst, e[:]...) }
func flattenVertex(e VertexEntry, dst []uint32) []uint32 { return append(dst, e[:]...) }

// Tables groups the four side tables of the vertex-fetch layout.
type Tables struct {
	Color  *Table[Quad4]
	UV     *Table[Quad4]
	Vertex *Table[VertexEntry]
	Light  *Table[Quad4]
}

func NewTables() *Tables {
	return &Tables{
		Color:  newTable("color", 4, flatten4),
		UV:     newTable("uv", 4, flatten4),
		Vertex: newTable("vertex", 16, flattenVertex),
		Light:  newTable("light", 4, flatten4),
	}
}

// Reset clears all four tables.
func (t *Tables) Reset() {
	t.Color.Reset()
	t.UV.Reset()
	t.Vertex.Reset()
	t.Light.Reset()
}
