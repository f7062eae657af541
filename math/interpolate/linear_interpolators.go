/*package interpolate contains linear interpolators over monotonic
one- and two-dimensional tables.
*/
package interpolate

import (
	"fmt"
)

// Linear is a linear interpolator.
type Linear struct {
	xs   searcher
	vals []float64
}

// NewLinear creates a linear interpolator for a strictly increasing or
// strictly decreasing sequence of points, xs, which take on the values
// vals.
func NewLinear(xs, vals []float64) *Linear {
	if len(xs) != len(vals) {
		panic(fmt.Sprintf("len(xs) = %d, but len(vals) = %d",
			len(xs), len(vals)))
	}
	lin := &Linear{vals: vals}
	lin.xs.init(xs)
	return lin
}

// InRange returns true if x can be passed to Eval.
func (lin *Linear) InRange(x float64) bool { return lin.xs.inRange(x) }

// Eval returns the interpolated value at x. It panics if x is outside the
// table.
func (lin *Linear) Eval(x float64) float64 {
	i := lin.xs.search(x)
	f := lin.xs.frac(i, x)
	return lin.vals[i]*(1-f) + lin.vals[i+1]*f
}

// BiLinear is a bi-linear interpolator over a rectangular table. vals is
// stored with y varying fastest: vals[ix*ny + iy].
type BiLinear struct {
	xs, ys searcher
	vals   []float64
}

// NewBiLinear creates a bi-linear interpolator over the monotonic axes xs
// and ys.
func NewBiLinear(xs, ys, vals []float64) *BiLinear {
	if len(xs)*len(ys) != len(vals) {
		panic(fmt.Sprintf(
			"len(vals) = %d, but len(xs) = %d and len(ys) = %d",
			len(vals), len(xs), len(ys),
		))
	}
	bi := &BiLinear{vals: vals}
	bi.xs.init(xs)
	bi.ys.init(ys)
	return bi
}

// InRange returns true if (x, y) can be passed to Eval.
func (bi *BiLinear) InRange(x, y float64) bool {
	return bi.xs.inRange(x) && bi.ys.inRange(y)
}

// Eval returns the interpolated value at (x, y). It panics if the point is
// outside the table.
func (bi *BiLinear) Eval(x, y float64) float64 {
	ix, iy := bi.xs.search(x), bi.ys.search(y)
	fx, fy := bi.xs.frac(ix, x), bi.ys.frac(iy, y)
	ny := len(bi.ys.xs)

	v00 := bi.vals[ix*ny+iy]
	v01 := bi.vals[ix*ny+iy+1]
	v10 := bi.vals[(ix+1)*ny+iy]
	v11 := bi.vals[(ix+1)*ny+iy+1]

	return v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
}
