package geom

import (
	"fmt"
)

// Box is an axis-aligned box in normalized domain coordinates. Membership
// is half-open: a point at Left is inside, a point at Right is not.
type Box struct {
	Left, Right [3]float64
}

// NewBox creates a box from the six numbers xl, yl, zl, xr, yr, zr.
func NewBox(xs [6]float64) Box {
	return Box{
		Left:  [3]float64{xs[0], xs[1], xs[2]},
		Right: [3]float64{xs[3], xs[4], xs[5]},
	}
}

// Flat returns the box as xl, yl, zl, xr, yr, zr.
func (b Box) Flat() [6]float64 {
	return [6]float64{
		b.Left[0], b.Left[1], b.Left[2], b.Right[0], b.Right[1], b.Right[2],
	}
}

// Contains returns true if x is inside the half-open box.
func (b Box) Contains(x [3]float64) bool {
	for i := 0; i < 3; i++ {
		if x[i] < b.Left[i] || x[i] >= b.Right[i] {
			return false
		}
	}
	return true
}

// ContainsClosed returns true if x is inside the box or on any of its faces.
func (b Box) ContainsClosed(x [3]float64) bool {
	for i := 0; i < 3; i++ {
		if x[i] < b.Left[i] || x[i] > b.Right[i] {
			return false
		}
	}
	return true
}

// Overlaps returns true if the two boxes share a volume. Boxes which only
// touch along a face do not overlap.
func (b Box) Overlaps(o Box) bool {
	for i := 0; i < 3; i++ {
		if !(b.Right[i] > o.Left[i] && b.Left[i] < o.Right[i]) {
			return false
		}
	}
	return true
}

// Intersect returns the overlapping part of two boxes. If they don't
// overlap the result is empty along at least one axis.
func (b Box) Intersect(o Box) Box {
	out := b
	for i := 0; i < 3; i++ {
		if o.Left[i] > out.Left[i] {
			out.Left[i] = o.Left[i]
		}
		if o.Right[i] < out.Right[i] {
			out.Right[i] = o.Right[i]
		}
	}
	return out
}

// Midpoint returns the center of the box.
func (b Box) Midpoint() [3]float64 {
	var m [3]float64
	for i := 0; i < 3; i++ {
		m[i] = (b.Left[i] + b.Right[i]) / 2
	}
	return m
}

// Lerp linearly interpolates every edge of the box towards o by the
// fraction f.
func (b Box) Lerp(o Box, f float64) Box {
	out := Box{}
	for i := 0; i < 3; i++ {
		out.Left[i] = b.Left[i] + f*(o.Left[i]-b.Left[i])
		out.Right[i] = b.Right[i] + f*(o.Right[i]-b.Right[i])
	}
	return out
}

// CheckUnit returns an error if any coordinate falls outside [0, 1] or if
// a left edge is to the right of its right edge.
func (b Box) CheckUnit() error {
	axes := "XYZ"
	for i := 0; i < 3; i++ {
		if b.Left[i] < 0 || b.Left[i] > 1 {
			return fmt.Errorf(
				"%c left edge must be in range [0, 1], but is %g",
				axes[i], b.Left[i],
			)
		} else if b.Right[i] < 0 || b.Right[i] > 1 {
			return fmt.Errorf(
				"%c right edge must be in range [0, 1], but is %g",
				axes[i], b.Right[i],
			)
		} else if b.Left[i] > b.Right[i] {
			return fmt.Errorf(
				"%c left edge %g is larger than %c right edge %g",
				axes[i], b.Left[i], axes[i], b.Right[i],
			)
		}
	}
	return nil
}

func (b Box) String() string {
	return fmt.Sprintf("[%g %g %g]-[%g %g %g]",
		b.Left[0], b.Left[1], b.Left[2], b.Right[0], b.Right[1], b.Right[2])
}
