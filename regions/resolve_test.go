package regions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
)

func region(box geom.Box, ids []methods.ID, mins, maxs []int, star float64) Region {
	return Region{Box: box, Methods: ids, MinLevel: mins, MaxLevel: maxs, MinStarMass: star}
}

var (
	mrr     = []methods.ID{methods.MultiRefineRegion}
	gridBox = geom.NewBox([6]float64{0.25, 0.25, 0.25, 0.5, 0.5, 0.5})
	defs    = Defaults{
		Methods:             []methods.ID{methods.BaryonMass, methods.Undefined},
		MaxLevel:            6,
		MetallicityMinLevel: 4,
		ShockwaveMaxLevel:   5,
	}
)

func TestResolveMaxWins(t *testing.T) {
	regs := []Region{
		region(unitBox, mrr, []int{1}, []int{2}, 0),
		region(gridBox, mrr, []int{3}, []int{4}, 0),
		// Only touches the grid along a face.
		region(geom.NewBox([6]float64{0.5, 0.25, 0.25, 1, 0.5, 0.5}), mrr,
			[]int{5}, []int{6}, 0),
	}

	tab := Resolve(gridBox, 0, regs, defs)
	e, ok := tab.Lookup(methods.MultiRefineRegion)
	assert.True(t, ok)
	assert.Equal(t, 3, e.MinLevel)
	assert.Equal(t, 4, e.MaxLevel)

	e, ok = tab.Lookup(methods.BaryonMass)
	assert.True(t, ok)
	assert.Equal(t, Entry{methods.BaryonMass, 0, 6}, e)
	assert.Equal(t, []methods.ID{methods.MultiRefineRegion, methods.BaryonMass},
		tab.Methods())
}

func TestResolveMonotone(t *testing.T) {
	// Adding regions can only raise the reduced bounds.
	base := []Region{region(unitBox, mrr, []int{2}, []int{3}, 0)}
	extra := append(base, region(gridBox, mrr, []int{1}, []int{2}, 0))

	t1 := Resolve(gridBox, 0, base, defs)
	t2 := Resolve(gridBox, 0, extra, defs)
	e1, _ := t1.Lookup(methods.MultiRefineRegion)
	e2, _ := t2.Lookup(methods.MultiRefineRegion)
	assert.True(t, e2.MinLevel >= e1.MinLevel)
	assert.True(t, e2.MaxLevel >= e1.MaxLevel)
}

func TestResolvePruning(t *testing.T) {
	regs := []Region{region(unitBox, mrr, []int{1}, []int{3}, 0)}

	table := []struct {
		level   int
		methods []methods.ID
	}{
		{0, []methods.ID{methods.MultiRefineRegion, methods.BaryonMass}},
		{2, []methods.ID{methods.MultiRefineRegion, methods.BaryonMass}},
		{3, []methods.ID{methods.BaryonMass}},
		{6, []methods.ID{methods.NoOp}},
	}

	for i, test := range table {
		tab := Resolve(gridBox, test.level, regs, defs)
		assert.Equal(t, test.methods, tab.Methods(), "%d) level %d", i+1, test.level)
	}
}

func TestResolveMustRefine(t *testing.T) {
	must := []methods.ID{methods.MustRefineRegion}
	regs := []Region{
		region(unitBox, mrr, []int{1}, []int{5}, 0),
		region(gridBox, must, []int{2}, []int{3}, 0),
	}

	tab := Resolve(gridBox, 1, regs, defs)
	assert.Equal(t, 2, tab.MustRefineMin)
	assert.Equal(t, 3, tab.MustRefineMax)
	assert.Equal(t, []methods.ID{
		methods.MultiRefineRegion, methods.MustRefineRegion, methods.BaryonMass,
	}, tab.Methods())

	// At level 2 MustRefineRegion is satisfied, but its max still caps the
	// other methods.
	tab = Resolve(gridBox, 2, regs, defs)
	assert.Equal(t, []methods.ID{methods.MultiRefineRegion, methods.BaryonMass},
		tab.Methods())

	tab = Resolve(gridBox, 3, regs, defs)
	assert.Equal(t, []methods.ID{methods.NoOp}, tab.Methods())
}

func TestResolveSpecialLevels(t *testing.T) {
	d := defs
	d.Methods = []methods.ID{methods.Metallicity, methods.Shockwaves}

	tab := Resolve(gridBox, 0, nil, d)
	e, _ := tab.Lookup(methods.Metallicity)
	assert.Equal(t, Entry{methods.Metallicity, 4, 6}, e)
	e, _ = tab.Lookup(methods.Shockwaves)
	assert.Equal(t, Entry{methods.Shockwaves, 0, 5}, e)
	assert.Equal(t, 4, tab.MetallicityMinLevel)
	assert.Equal(t, 5, tab.ShockwaveMaxLevel)

	regs := []Region{
		region(unitBox, []methods.ID{methods.MustRefineRegion, methods.Metallicity},
			[]int{1, 2}, []int{3, 3}, 0),
	}
	tab = Resolve(gridBox, 0, regs, d)
	assert.Equal(t, 2, tab.MetallicityMinLevel)
	assert.Equal(t, 3, tab.ShockwaveMaxLevel)

	tab = Resolve(gridBox, 5, nil, d)
	assert.Equal(t, []methods.ID{methods.Metallicity}, tab.Methods())
}

func TestResolveEmpty(t *testing.T) {
	tab := Resolve(gridBox, 0, nil, Defaults{MaxLevel: 3})
	assert.Equal(t, []Entry{{methods.NoOp, 0, 3}}, tab.Entries)
}
