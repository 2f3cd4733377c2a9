package encoding

import "math/bits"

// AnimationBits records which sprite animation slots were drawn during a
// pass. The texture updater drains it once per frame.
type AnimationBits struct {
	words []uint64
}

// Set marks slot i.
func (a *AnimationBits) Set(i int) {
	w := i >> 6
	if w >= len(a.words) {
		a.words = append(a.words, make([]uint64, w+1-len(a.words))...)
	}
	a.words[w] |= 1 << (i & 63)
}

// Has reports whether slot i is marked.
func (a *AnimationBits) Has(i int) bool {
	w := i >> 6
	return w < len(a.words) && a.words[w]&(1<<(i&63)) != 0
}

// Count is the number of marked slots.
func (a *AnimationBits) Count() int {
	n := 0
	for _, w := range a.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Or marks every slot marked in other.
func (a *AnimationBits) Or(other *AnimationBits) {
	if n := len(other.words); n > len(a.words) {
		a.words = append(a.words, make([]uint64, n-len(a.words))...)
	}
	for i, w := range other.words {
		a.words[i] |= w
	}
}

// Drain calls fn for each marked slot in ascending order and clears them.
func (a *AnimationBits) Drain(fn func(slot int)) {
	for i, w := range a.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(i<<6 | b)
			w &= w - 1
		}
		a.words[i] = 0
	}
}

// Clear unmarks every slot.
func (a *AnimationBits) Clear() { clear(a.words) }
