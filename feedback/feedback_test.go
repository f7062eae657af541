package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planeTable returns a table where every rate is linear in both axes, so
// bilinear interpolation is exact.
func planeTable(t *testing.T) *Table {
	met := []float64{0.001, 0.01, 0.02}
	age := []float64{0, 1, 2, 4}
	n := len(met) * len(age)
	mass, metal, mom := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range met {
		for j := range age {
			k := i*len(age) + j
			mass[k] = 100*met[i] + age[j]
			metal[k] = met[i] * mass[k] / 100
			mom[k] = 3 * age[j]
		}
	}
	tab, err := NewTable(met, age, mass, metal, mom)
	require.NoError(t, err)
	return tab
}

func TestLookup(t *testing.T) {
	tab := planeTable(t)

	tests := []struct {
		met, age  float64
		mass, mom float64
	}{
		{0.01, 1, 2, 3},
		{0.015, 3, 4.5, 9},
		{0.001, 0, 0.1, 0},
		// Clamped to the table edges.
		{0.5, 10, 6, 12},
		{0, -1, 0.1, 0},
	}

	for i := range tests {
		y := tab.Lookup(tests[i].met, tests[i].age)
		if !near(y.MassRate, tests[i].mass) {
			t.Errorf("%d) Expected mass rate %g, got %g.",
				i+1, tests[i].mass, y.MassRate)
		}
		if !near(y.Momentum, tests[i].mom) {
			t.Errorf("%d) Expected momentum %g, got %g.",
				i+1, tests[i].mom, y.Momentum)
		}
	}

	y := tab.Lookup(0.02, 2)
	assert.InDelta(t, 0.02*4/100, y.MetalMassRate, 1e-12)
}

func near(x, y float64) bool {
	d := x - y
	return d < 1e-9 && d > -1e-9
}

func TestNewTableErrors(t *testing.T) {
	good := []float64{1, 2, 3, 4}
	tests := []struct {
		met, age, mass []float64
	}{
		{[]float64{1}, []float64{1, 2}, []float64{1, 2}},
		{[]float64{1, 1}, []float64{1, 2}, good},
		{[]float64{1, 2}, []float64{2, 1}, good},
		{[]float64{1, 2}, []float64{1, 2}, []float64{1, 2, 3}},
	}

	for i := range tests {
		_, err := NewTable(tests[i].met, tests[i].age, tests[i].mass, good, good)
		if err == nil {
			t.Errorf("%d) Expected error.", i+1)
		}
	}
}
