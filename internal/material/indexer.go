package material

import "sync"

type indexKey struct {
	material int
	sprite   int
}

// Indexer assigns compact sequential indices to (material, sprite) pairs so
// that both fit in the material field of a vertex-fetch control word.
type Indexer struct {
	mu    sync.RWMutex
	index map[indexKey]int
}

func NewIndexer() *Indexer {
	return &Indexer{index: make(map[indexKey]int)}
}

// Index returns the index of the pair, assigning the next free one on first
// use.
func (x *Indexer) Index(m *Material, spriteID int) int {
	k := indexKey{material: m.id, sprite: spriteID}

	x.mu.RLock()
	i, ok := x.index[k]
	x.mu.RUnlock()
	if ok {
		return i
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if i, ok = x.index[k]; ok {
		return i
	}
	i = len(x.index)
	x.index[k] = i
	return i
}

// Len is the number of assigned indices.
func (x *Indexer) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.index)
}

// SpriteAtlas maps sprite ids to texture animation slots.
type SpriteAtlas interface {
	// AnimationIndex returns the animation slot of the sprite, or -1 when it
	// is not animated.
	AnimationIndex(spriteID int) int
}

// AnimatedSprites is a SpriteAtlas backed by a fixed set of animated sprites.
// Slots are assigned in the order given.
type AnimatedSprites struct {
	slots map[int]int
}

func NewAnimatedSprites(spriteIDs ...int) *AnimatedSprites {
	a := &AnimatedSprites{slots: make(map[int]int, len(spriteIDs))}
	for _, id := range spriteIDs {
		if _, dup := a.slots[id]; !dup {
			a.slots[id] = len(a.slots)
		}
	}
	return a
}

func (a *AnimatedSprites) AnimationIndex(spriteID int) int {
	if i, ok := a.slots[spriteID]; ok {
		return i
	}
	return -1
}

// Count is the number of animation slots.
func (a *AnimatedSprites) Count() int { return len(a.slots) }
