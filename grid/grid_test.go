package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phil-mansfield/enzoref/geom"
)

func testCells() *geom.Grid {
	return geom.NewGrid(
		[3]int{4, 4, 4}, [3]int{1, 1, 1}, [3]int{2, 2, 2},
		[3]float64{0, 0, 0}, [3]float64{0.5, 0.5, 0.5},
	)
}

func TestFields(t *testing.T) {
	g := New(3, 1, testCells())
	assert.False(t, g.HasField(Density))

	rho := g.AddField(Density)
	assert.Len(t, rho, 64)
	rho[5] = 2
	again := g.AddField(Density)
	assert.Equal(t, 2.0, again[5])

	x, ok := g.Field(Density)
	assert.True(t, ok)
	assert.Equal(t, rho, x)

	assert.Equal(t, "GasEnergy", InternalEnergy.String())
	assert.Equal(t, Velocity3, Velocity(2))
	assert.Equal(t, "TracerFluid08", TracerFluid(8).String())
	assert.Panics(t, func() { TracerFluid(9) })

	f, ok := FieldFromName("HeIII_Density")
	assert.True(t, ok)
	assert.Equal(t, HeIIIDensity, f)
	assert.Len(t, Species, 9)
}

func TestFlags(t *testing.T) {
	g := New(0, 0, testCells())
	flags := g.AllocateFlags()
	flags[0], flags[1], flags[2] = 3, 1, -2
	assert.Equal(t, 2, g.ClampFlags())
	assert.Equal(t, []int{1, 1, 0}, g.Flags[:3])

	g.AllocateFlags()
	assert.Equal(t, 0, g.ClampFlags())
	assert.Equal(t, geom.NewBox([6]float64{0, 0, 0, 1, 1, 1}), g.Box())
}
