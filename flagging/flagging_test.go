package flagging

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/grid"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/particles"
	"github.com/phil-mansfield/enzoref/regions"
)

// testGrid returns a grid with 4^3 active cells covering the unit box and
// one layer of ghost cells.
func testGrid(level int) *grid.Grid {
	cells := geom.NewGrid(
		[3]int{6, 6, 6}, [3]int{1, 1, 1}, [3]int{4, 4, 4},
		[3]float64{0, 0, 0}, [3]float64{0.25, 0.25, 0.25},
	)
	return grid.New(1, level, cells)
}

func region(name string, box [6]float64, id methods.ID, lo, hi int) regions.Region {
	return regions.Region{
		Name: name, Box: geom.NewBox(box),
		Methods:  []methods.ID{id},
		MinLevel: []int{lo}, MaxLevel: []int{hi},
	}
}

func addParticle(g *grid.Grid, pos [3]float64, mass float64, typ particles.Type) {
	g.Particles.Append(particles.Particle{
		Position: pos, Mass: mass, Type: typ, Number: particles.Unassigned,
	})
}

func countFlags(flags []int) int {
	n := 0
	for _, f := range flags {
		n += f
	}
	return n
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Lookup(methods.ID(5))
	assert.True(t, errors.Is(err, ErrUnknownMethod))
	_, err = r.Lookup(methods.SecondDerivative)
	assert.True(t, errors.Is(err, ErrNoEvaluator))
	assert.True(t, errors.Is(r.Register(methods.ID(17), nil), ErrUnknownMethod))

	assert.False(t, r.Registered(methods.SecondDerivative))
	ev := EvaluatorFunc(func(ctx *Context) (int, error) { return 0, nil })
	require.NoError(t, r.Register(methods.SecondDerivative, ev))
	assert.True(t, r.Registered(methods.SecondDerivative))

	for _, id := range []methods.ID{
		methods.NoOp, methods.BaryonMass, methods.ParticleMass,
		methods.MustRefineRegion, methods.Metallicity, methods.Shockwaves,
		methods.MultiRefineRegion,
	} {
		assert.True(t, r.Registered(id), id.String())
	}
}

func TestMassThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinimumMass[methods.BaryonMass] = 3
	cfg.MassLevelExponent[methods.BaryonMass] = -1

	tests := []struct {
		level int
		exp   float64
	}{{0, 3}, {1, 1.5}, {2, 0.75}}
	for i := range tests {
		got := cfg.MassThreshold(methods.BaryonMass, tests[i].level)
		if got != tests[i].exp {
			t.Errorf("%d) Expected threshold %g, got %g.", i+1, tests[i].exp, got)
		}
	}

	assert.True(t, cfg.MassThreshold(methods.ParticleMass, 0) > 1e300)
}

func TestBaryonMass(t *testing.T) {
	g := testGrid(0)
	rho := g.AddField(grid.Density)
	for i := range rho {
		rho[i] = 1
	}
	rho[g.Cells.Idx(2, 3, 1)] = 100
	// Ghost cells are never flagged.
	rho[g.Cells.Idx(0, 0, 0)] = 100

	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.BaryonMass}
	cfg.MaxLevel = 3
	cfg.MinimumMass[methods.BaryonMass] = 1

	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, g.Flags[g.Cells.Idx(2, 3, 1)])
	assert.Equal(t, 0, g.Flags[g.Cells.Idx(0, 0, 0)])

	delete(g.Fields, grid.Density)
	_, err = NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	assert.Error(t, err)
}

func TestMultiRefineRegion(t *testing.T) {
	st := &regions.State{Regions: []regions.Region{
		region("corner", [6]float64{0, 0, 0, 0.5, 0.5, 0.5},
			methods.MultiRefineRegion, 2, 3),
	}}

	tests := []struct {
		level, outerMin int
		exp             int
	}{
		{1, 0, 8},
		{2, 0, 0},
		{1, 1, 8},
		{1, 3, 64},
		{2, 3, 64},
	}

	for i := range tests {
		cfg := DefaultConfig()
		cfg.MaxLevel = 5
		cfg.OuterMinLevel = tests[i].outerMin

		g := testGrid(tests[i].level)
		n, err := NewEngine(&cfg, nil).SetFlaggingField(g, st)
		if err != nil {
			t.Errorf("%d) Got error %s.", i+1, err.Error())
			continue
		}
		if n != tests[i].exp {
			t.Errorf("%d) Expected %d flagged cells, got %d.",
				i+1, tests[i].exp, n)
		}
	}
}

func TestOuterLevelInsideSatisfiedRegion(t *testing.T) {
	st := &regions.State{Regions: []regions.Region{
		region("all", [6]float64{0, 0, 0, 1, 1, 1},
			methods.MultiRefineRegion, 1, 4),
	}}
	cfg := DefaultConfig()
	cfg.MaxLevel = 5
	cfg.OuterMinLevel = 3

	g := testGrid(1)
	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, st)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	g = testGrid(3)
	n, err = NewEngine(&cfg, nil).SetFlaggingField(g, st)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMustRefineRegionOnlyInside(t *testing.T) {
	st := &regions.State{Regions: []regions.Region{
		region("corner", [6]float64{0, 0, 0, 0.5, 0.5, 0.5},
			methods.MustRefineRegion, 2, 3),
	}}
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.MustRefineRegion}
	cfg.MaxLevel = 5
	cfg.OuterMinLevel = 3

	g := testGrid(1)
	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, st)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 0, g.Flags[g.Cells.Idx(4, 4, 4)])
}

func TestNegativeCountFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.SecondDerivative}
	cfg.MaxLevel = 5

	e := NewEngine(&cfg, nil)
	require.NoError(t, e.Registry.Register(methods.SecondDerivative,
		EvaluatorFunc(func(ctx *Context) (int, error) { return -1, nil })))

	_, err := e.SetFlaggingField(testGrid(0), nil)
	assert.Error(t, err)
}

func TestNoOpBelowMustRefineLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLevel = 5
	cfg.MRPRefineToLevel = 2
	cfg.MRPCreateParticles = 1

	n, err := NewEngine(&cfg, nil).SetFlaggingField(testGrid(0), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRegionLargestMinimumWins(t *testing.T) {
	st := &regions.State{Regions: []regions.Region{
		region("low", [6]float64{0, 0, 0, 1, 1, 1},
			methods.MultiRefineRegion, 1, 4),
		region("high", [6]float64{0, 0, 0, 0.25, 1, 1},
			methods.MultiRefineRegion, 3, 4),
	}}
	cfg := DefaultConfig()
	cfg.MaxLevel = 5

	g := testGrid(2)
	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, st)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, 1, g.Flags[g.Cells.Idx(1, 4, 4)])
	assert.Equal(t, 0, g.Flags[g.Cells.Idx(2, 1, 1)])
}

func TestParticleMass(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.ParticleMass}
	cfg.MaxLevel = 4
	cfg.MinimumMass[methods.ParticleMass] = 5

	g := testGrid(0)
	addParticle(g, [3]float64{0.1, 0.1, 0.1}, 3, particles.DarkMatter)
	addParticle(g, [3]float64{0.2, 0.2, 0.2}, 3, particles.DarkMatter)
	addParticle(g, [3]float64{0.6, 0.6, 0.6}, 3, particles.DarkMatter)
	addParticle(g, [3]float64{0.9, 0.1, 0.1}, 0.1, particles.MustRefine)
	addParticle(g, [3]float64{1.5, 0.1, 0.1}, 100, particles.DarkMatter)

	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, g.Flags[g.Cells.Idx(1, 1, 1)])
	assert.Equal(t, 1, g.Flags[g.Cells.Idx(4, 1, 1)])
	assert.Equal(t, 0, g.Flags[g.Cells.Idx(3, 3, 3)])
}

func TestMustRefineParticleGating(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.BaryonMass, methods.ParticleMass}
	cfg.MaxLevel = 5
	cfg.MinimumMass[methods.BaryonMass] = 1
	cfg.MinimumMass[methods.ParticleMass] = 1000
	cfg.MRPRefineToLevel = 2
	cfg.MRPCreateParticles = 1

	setup := func(level int) *grid.Grid {
		g := testGrid(level)
		rho := g.AddField(grid.Density)
		for i := range rho {
			rho[i] = 100
		}
		addParticle(g, [3]float64{0.1, 0.1, 0.1}, 1, particles.MustRefine)
		return g
	}

	// Restricted: everything is dense, but only the must-refine cell
	// stays flagged.
	g := setup(2)
	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, g.Flags[g.Cells.Idx(1, 1, 1)])

	// Below the must-refine level only the particle method runs.
	g = setup(1)
	n, err = NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Above it every method runs.
	g = setup(3)
	n, err = NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	// Without particle-based methods nothing may run below that level.
	cfg.Methods = []methods.ID{methods.BaryonMass}
	g = setup(1)
	_, err = NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	assert.True(t, errors.Is(err, ErrNoMethod))
}

func TestParticleOnlyIsNotRestricted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{
		methods.ParticleMass, methods.MustRefineParticles, methods.Undefined,
	}
	cfg.MaxLevel = 5
	cfg.MinimumMass[methods.ParticleMass] = 0.5
	cfg.MRPRefineToLevel = 2
	cfg.MRPCreateParticles = 1
	assert.True(t, cfg.particleOnly())

	g := testGrid(2)
	addParticle(g, [3]float64{0.6, 0.6, 0.6}, 1, particles.DarkMatter)
	n, err := NewEngine(&cfg, nil).SetFlaggingField(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetallicityAndShockwaves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.Metallicity, methods.Shockwaves}
	cfg.MaxLevel = 5
	cfg.MetallicityMinLevel = 2
	cfg.MetallicityMinMetallicity = 0.1
	cfg.MetallicityMinDensity = 1
	cfg.ShockwaveMaxLevel = 3
	cfg.ShockwaveMinMach = 2

	setup := func(level int) *grid.Grid {
		g := testGrid(level)
		rho := g.AddField(grid.Density)
		metal := g.AddField(grid.MetalDensity)
		mach := g.AddField(grid.Mach)
		for i := range rho {
			rho[i] = 10
			mach[i] = 1
		}
		metal[g.Cells.Idx(1, 1, 1)] = 10 * SolarMetalFraction
		metal[g.Cells.Idx(2, 1, 1)] = 0.01 * SolarMetalFraction
		mach[g.Cells.Idx(4, 4, 4)] = 3
		return g
	}

	tests := []struct {
		level, exp int
	}{{1, 2}, {2, 1}, {3, 0}}
	for i := range tests {
		g := setup(tests[i].level)
		n, err := NewEngine(&cfg, nil).SetFlaggingField(g, nil)
		if err != nil {
			t.Errorf("%d) Got error %s.", i+1, err.Error())
		} else if n != tests[i].exp {
			t.Errorf("%d) Expected %d flagged cells, got %d.",
				i+1, tests[i].exp, n)
		}
	}
}

func TestIdempotent(t *testing.T) {
	st := &regions.State{Regions: []regions.Region{
		region("corner", [6]float64{0, 0, 0, 0.5, 0.5, 0.5},
			methods.MultiRefineRegion, 2, 3),
	}}
	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.BaryonMass}
	cfg.MaxLevel = 5
	cfg.MinimumMass[methods.BaryonMass] = 1

	g := testGrid(1)
	rho := g.AddField(grid.Density)
	rho[g.Cells.Idx(4, 4, 4)] = 1000

	e := NewEngine(&cfg, nil)
	n1, err := e.SetFlaggingField(g, st)
	require.NoError(t, err)
	first := append([]int{}, g.Flags...)
	n2, err := e.SetFlaggingField(g, st)
	require.NoError(t, err)

	assert.Equal(t, 9, n1)
	assert.Equal(t, n1, n2)
	assert.Equal(t, first, g.Flags)
	assert.Equal(t, n1, countFlags(g.Flags))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Methods = []methods.ID{methods.BaryonMass}
	cfg.MaxLevel = 5
	cfg.MinimumMass[methods.BaryonMass] = 1

	g := testGrid(0)
	rho := g.AddField(grid.Density)
	rho[g.Cells.Idx(1, 1, 1)] = 1000
	rho[g.Cells.Idx(1, 2, 1)] = 1000

	e := NewEngine(&cfg, nil)
	e.Metrics = m
	for i := 0; i < 3; i++ {
		_, err := e.SetFlaggingField(g, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Passes))
	assert.Equal(t, 6.0, testutil.ToFloat64(
		m.Flagged.WithLabelValues(methods.BaryonMass.String())))
}
