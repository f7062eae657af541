package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func value(x, y float64) float64 {
	return 2*x + 3*y + 5
}

func TestLinear(t *testing.T) {
	xs := []float64{0, 1, 3, 7}
	vals := []float64{0, 2, 6, 14}
	lin := NewLinear(xs, vals)

	table := []struct{ x, v float64 }{
		{0, 0}, {0.5, 1}, {1, 2}, {2, 4}, {6.5, 13}, {7, 14},
	}
	for i, test := range table {
		if got := lin.Eval(test.x); got != test.v {
			t.Errorf("%d) Eval(%g) -> %g instead of %g", i+1, test.x, got, test.v)
		}
	}

	assert.True(t, lin.InRange(7))
	assert.False(t, lin.InRange(7.5))
	assert.Panics(t, func() { lin.Eval(-1) })
}

func TestLinearDecreasing(t *testing.T) {
	// Redshift-like axis.
	lin := NewLinear([]float64{10, 5, 0}, []float64{0, 1, 3})
	assert.InDelta(t, 0.5, lin.Eval(7.5), 1e-12)
	assert.InDelta(t, 2.0, lin.Eval(2.5), 1e-12)
	assert.InDelta(t, 3.0, lin.Eval(0), 1e-12)
	assert.Panics(t, func() { lin.Eval(11) })
}

func TestBiLinear(t *testing.T) {
	xs := []float64{0, 0.1, 0.4, 1}
	ys := []float64{-1, 0, 2}
	vals := make([]float64, len(xs)*len(ys))
	for i, x := range xs {
		for j, y := range ys {
			vals[i*len(ys)+j] = value(x, y)
		}
	}
	bi := NewBiLinear(xs, ys, vals)

	// bi-linear interpolation is exact for linear functions
	pts := [][2]float64{{0, -1}, {0.05, 0.5}, {0.7, 1.9}, {1, 2}, {0.4, 0}}
	for _, p := range pts {
		assert.InDelta(t, value(p[0], p[1]), bi.Eval(p[0], p[1]), 1e-12,
			"point %v", p)
	}

	assert.False(t, bi.InRange(0.5, 3))
	assert.Panics(t, func() { NewBiLinear(xs, ys, vals[1:]) })
}

func TestBiLinearProduct(t *testing.T) {
	nx, ny := 5, 4
	xs, ys := make([]float64, nx), make([]float64, ny)
	for i := range xs {
		xs[i] = float64(i)
	}
	for j := range ys {
		ys[j] = float64(j)
	}
	vals := make([]float64, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			vals[i*ny+j] = float64(i * j)
		}
	}
	bi := NewBiLinear(xs, ys, vals)
	assert.InDelta(t, 6.0, bi.Eval(2, 3), 1e-12)
	// x*y at the center of a cell is the mean of the corners.
	assert.InDelta(t, (2.0+3+4+6)/4, bi.Eval(2.5, 1.5), 1e-12)
}
