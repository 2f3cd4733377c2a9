package encoding

// SwapRedBlue converts between ARGB and ABGR.
func SwapRedBlue(c uint32) uint32 {
	return c&0xFF00FF00 | (c>>16)&0xFF | (c&0xFF)<<16
}

// MultiplyColor multiplies two ARGB colors channel by channel.
func MultiplyColor(a, b uint32) uint32 {
	if a == 0xFFFFFFFF {
		return b
	}
	if b == 0xFFFFFFFF {
		return a
	}

	var out uint32
	for shift := 0; shift < 32; shift += 8 {
		ca := (a >> shift) & 0xFF
		cb := (b >> shift) & 0xFF
		out |= (ca * cb / 0xFF) << shift
	}
	return out
}

// MaxBrightness combines two lightmaps keeping the brighter block and sky
// light of each.
func MaxBrightness(a, b int) int {
	block := max(a&0xFFFF, b&0xFFFF)
	sky := max((a>>16)&0xFFFF, (b>>16)&0xFFFF)
	return block | sky<<16
}

// ColorProvider returns the tint for a color index, as ARGB.
type ColorProvider func(colorIndex int) uint32

// Colorize applies the tint and converts the sprite colors to the byte order
// the GPU reads. Quads without a color index, or whose material disables
// it, only get the channel swap.
func Colorize(q *Quad, colors ColorProvider) {
	if q.ColorIndex == NoColorIndex || colors == nil || (q.Material != nil && q.Material.DisableColorIndex(0)) {
		for i := range q.Color {
			q.Color[i] = SwapRedBlue(q.Color[i])
		}
		return
	}

	tint := colors(q.ColorIndex)
	for i := range q.Color {
		q.Color[i] = SwapRedBlue(MultiplyColor(tint, q.Color[i]))
	}
}
