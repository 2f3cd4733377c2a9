package occlusion

// RankIndex packs three axis coordinates into one comparable value. The
// primary axis occupies the highest bits.
func RankIndex(primary, secondary, tertiary, bits int) int {
	return tertiary | secondary<<bits | primary<<(2*bits)
}

// AxisOrder is a permutation of the three axes, slowest first.
type AxisOrder uint8

const (
	OrderXYZ AxisOrder = iota
	OrderXZY
	OrderYXZ
	OrderYZX
	OrderZXY
	OrderZYX
)

const (
	axisX = iota
	axisY
	axisZ
)

var axisOrders = [...][3]int{
	OrderXYZ: {axisX, axisY, axisZ},
	OrderXZY: {axisX, axisZ, axisY},
	OrderYXZ: {axisY, axisX, axisZ},
	OrderYZX: {axisY, axisZ, axisX},
	OrderZXY: {axisZ, axisX, axisY},
	OrderZYX: {axisZ, axisY, axisX},
}

var axisOrderNames = [...]string{"XYZ", "XZY", "YXZ", "YZX", "ZXY", "ZYX"}

func (o AxisOrder) String() string { return axisOrderNames[o] }

// Axes returns the primary, secondary and tertiary axis indices.
func (o AxisOrder) Axes() [3]int { return axisOrders[o] }

// Rank orders x, y, z by this permutation.
func (o AxisOrder) Rank(x, y, z, bits int) int {
	c := [3]int{x, y, z}
	a := axisOrders[o]
	return RankIndex(c[a[0]], c[a[1]], c[a[2]], bits)
}

// orderForLight picks the permutation from the light vector's component
// magnitudes: the dominant axis iterates slowest.
func orderForLight(ax, ay, az float32) AxisOrder {
	if ax > ay {
		if ax > az {
			if ay > az {
				return OrderXYZ
			}
			return OrderXZY
		}
		// X > Y and Z >= X
		return OrderZXY
	}
	if ay > az {
		if ax > az {
			return OrderYXZ
		}
		return OrderYZX
	}
	// Y >= X and Z >= Y
	return OrderZYX
}

// axisIterator walks one axis of the shadow grid in a fixed direction.
type axisIterator struct {
	pos        int
	bound      int
	descending bool
}

// next advances and reports false, after wrapping, when the axis is done.
func (a *axisIterator) next() bool {
	if a.descending {
		a.pos--
		if a.pos >= 0 {
			return true
		}
	} else {
		a.pos++
		if a.pos < a.bound {
			return true
		}
	}
	a.reset()
	return false
}

func (a *axisIterator) reset() {
	if a.descending {
		a.pos = a.bound - 1
	} else {
		a.pos = 0
	}
}

// direction maps a grid coordinate so that rank grows along the iteration
// direction.
func (a *axisIterator) direction(n int) int {
	if a.descending {
		return a.bound - n
	}
	return n
}
