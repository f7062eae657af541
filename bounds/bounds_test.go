package bounds

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/grid"
)

// cellGrid returns a grid with n cells along x and no ghost zones. Every
// cell has density 1, specific total energy 10 and zero velocity.
func cellGrid(n int, species bool) *grid.Grid {
	cells := geom.NewGrid(
		[3]int{n, 1, 1}, [3]int{0, 0, 0}, [3]int{n - 1, 0, 0},
		[3]float64{0, 0, 0}, [3]float64{1 / float64(n), 1, 1},
	)
	g := grid.New(7, 0, cells)
	rho, te := g.AddField(grid.Density), g.AddField(grid.TotalEnergy)
	for k := 0; k < 3; k++ {
		g.AddField(grid.Velocity(k))
	}
	for i := range rho {
		rho[i], te[i] = 1, 10
	}
	if species {
		for _, s := range grid.Species {
			g.AddField(s)
		}
	}
	return g
}

func enforcer(t *testing.T, cfg Config) *Enforcer {
	e, err := New(cfg, nil)
	require.NoError(t, err)
	return e
}

func TestNonFinite(t *testing.T) {
	tests := []struct {
		field grid.Field
		val   float64
	}{
		{grid.Density, math.NaN()},
		{grid.TotalEnergy, math.Inf(1)},
		{grid.InternalEnergy, math.Inf(-1)},
	}

	for i := range tests {
		g := cellGrid(4, false)
		g.AddField(grid.InternalEnergy)
		x, _ := g.Field(tests[i].field)
		x[2] = tests[i].val

		_, err := enforcer(t, DefaultConfig()).Enforce(g)
		if !errors.Is(err, ErrNonFinite) {
			t.Errorf("%d) Expected ErrNonFinite, got %v.", i+1, err)
		}
	}
}

func TestDensityBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DensityFloor, cfg.DensityCeiling = 0.1, 100
	X := cfg.HydrogenFractionByMass

	g := cellGrid(3, true)
	rho, _ := g.Field(grid.Density)
	rho[0], rho[2] = 1e-3, 1e3

	rep, err := enforcer(t, cfg).Enforce(g)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.DensityFloor)
	assert.Equal(t, 1, rep.DensityCeiling)
	assert.Equal(t, 3, rep.Cells)
	assert.Equal(t, []float64{0.1, 1, 100}, rho)

	get := func(f grid.Field, i int) float64 {
		x, _ := g.Field(f)
		return x[i]
	}

	// Floor: fully ionized.
	assert.InDelta(t, X*0.1, get(grid.HIIDensity, 0), 1e-12)
	assert.InDelta(t, (1-X)*0.1, get(grid.HeIIIDensity, 0), 1e-12)
	assert.InDelta(t, X*0.1+(1-X)*0.1/2, get(grid.ElectronDensity, 0), 1e-12)
	assert.Equal(t, tiny, get(grid.HIDensity, 0))
	assert.Equal(t, tiny, get(grid.H2IDensity, 0))

	// Ceiling: mostly molecular.
	assert.InDelta(t, 0.99*X*100, get(grid.H2IDensity, 2), 1e-9)
	assert.InDelta(t, 0.01*X*100, get(grid.HIDensity, 2), 1e-9)
	assert.InDelta(t, (1-X)*100, get(grid.HeIDensity, 2), 1e-9)
	assert.Equal(t, tiny, get(grid.ElectronDensity, 2))

	// Gas species sum to the density.
	for _, i := range []int{0, 2} {
		var sum []float64
		for _, s := range grid.Species {
			if s != grid.ElectronDensity {
				sum = append(sum, get(s, i))
			}
		}
		assert.InDelta(t, rho[i], floats.Sum(sum), 1e-6*rho[i])
	}

	// Untouched cells keep their species.
	assert.Equal(t, 0.0, get(grid.HIIDensity, 1))
}

func TestDensityBoundsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyDensityFloor, cfg.ApplyDensityCeiling = false, false

	g := cellGrid(2, false)
	rho, _ := g.Field(grid.Density)
	rho[0], rho[1] = 1e-30, 1e30

	rep, err := enforcer(t, cfg).Enforce(g)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Changed())
	assert.Equal(t, []float64{1e-30, 1e30}, rho)
}

func TestEnergyBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyInternalEnergyFloor = true
	cfg.InternalEnergyFloor, cfg.InternalEnergyCeiling = 1, 50

	g := cellGrid(3, false)
	ge := g.AddField(grid.InternalEnergy)
	te, _ := g.Field(grid.TotalEnergy)
	vx, _ := g.Field(grid.Velocity1)

	// e = 0.5 below the floor, e = 10 untouched, e = 100 above the ceiling.
	vx[0], te[0] = 3, 0.5+4.5
	te[2] = 100
	ge[1] = 10

	rep, err := enforcer(t, cfg).Enforce(g)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.EnergyFloor)
	assert.Equal(t, 1, rep.EnergyCeiling)

	assert.InDelta(t, 1+4.5, te[0], 1e-12)
	assert.Equal(t, 10.0, te[1])
	assert.Equal(t, 50.0, te[2])
	assert.Equal(t, []float64{1, 10, 50}, ge)
}

func TestVelocityCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityCeiling = 5

	g := cellGrid(2, false)
	te, _ := g.Field(grid.TotalEnergy)
	vx, _ := g.Field(grid.Velocity1)
	vy, _ := g.Field(grid.Velocity2)
	vx[0], vy[0] = 6, 8
	te[0] = 2 + 50

	rep, err := enforcer(t, cfg).Enforce(g)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Velocity)
	assert.InDelta(t, 3, vx[0], 1e-12)
	assert.InDelta(t, 4, vy[0], 1e-12)
	assert.InDelta(t, 2+12.5, te[0], 1e-12)

	// A second pass changes nothing.
	rep, err = enforcer(t, cfg).Enforce(g)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Changed())
}

func TestConfigCheck(t *testing.T) {
	tests := []struct {
		mod   func(c *Config)
		valid bool
	}{
		{func(c *Config) {}, true},
		{func(c *Config) { c.DensityFloor = 0 }, false},
		{func(c *Config) { c.DensityFloor, c.ApplyDensityFloor = 0, false }, true},
		{func(c *Config) { c.DensityCeiling = 1e-10 }, false},
		{func(c *Config) {
			c.ApplyInternalEnergyFloor = true
			c.InternalEnergyFloor = 1e20
		}, false},
		{func(c *Config) { c.VelocityCeiling = -1 }, false},
		{func(c *Config) { c.HydrogenFractionByMass = 1.5 }, false},
	}

	for i := range tests {
		cfg := DefaultConfig()
		tests[i].mod(&cfg)
		_, err := New(cfg, nil)
		if (err == nil) != tests[i].valid {
			t.Errorf("%d) Expected valid = %v, got error %v.",
				i+1, tests[i].valid, err)
		}
	}
}
