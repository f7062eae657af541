package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/io"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/particles"
	"github.com/phil-mansfield/enzoref/regions"
)

func TestTilingGrids(t *testing.T) {
	table := []struct {
		tiling Tiling
		box    [6]float64
		grids  int
		cells  int
	}{
		{Tiling{Level: 0, RootCells: 8, RefineBy: 2, Cells: 8},
			[6]float64{0, 0, 0, 1, 1, 1}, 1, 512},
		{Tiling{Level: 1, RootCells: 8, RefineBy: 2, Cells: 8},
			[6]float64{0, 0, 0, 1, 1, 1}, 8, 4096},
		{Tiling{Level: 1, RootCells: 8, RefineBy: 2, Cells: 5},
			[6]float64{0, 0, 0, 0.5, 0.5, 0.5}, 8, 512},
		{Tiling{Level: 0, RootCells: 4, RefineBy: 2, Cells: 4},
			[6]float64{0.3, 0.3, 0.3, 0.6, 0.6, 0.6}, 1, 8},
	}

	for i, test := range table {
		grids, err := test.tiling.Grids(geom.NewBox(test.box))
		require.NoError(t, err)
		cells := 0
		for _, g := range grids {
			w := g.Cells.Width
			cells += w[0] * w[1] * w[2]
			assert.Equal(t, test.tiling.Level, g.Level)
		}
		if len(grids) != test.grids || cells != test.cells {
			t.Errorf("%d) expected %d grids with %d cells, got %d and %d",
				i+1, test.grids, test.cells, len(grids), cells)
		}
	}
}

func TestTilingEdges(t *testing.T) {
	tiling := Tiling{Level: 0, RootCells: 4, RefineBy: 2, Cells: 4}
	grids, err := tiling.Grids(geom.NewBox([6]float64{0.3, 0.3, 0.3, 0.6, 0.6, 0.6}))
	require.NoError(t, err)
	box := grids[0].Box()
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25}, box.Left[:], 1e-12)
	assert.InDeltaSlice(t, []float64{0.75, 0.75, 0.75}, box.Right[:], 1e-12)

	_, err = tiling.Grids(geom.NewBox([6]float64{0.5, 0, 0, 0.5, 1, 1}))
	assert.Error(t, err)

	deep := Tiling{Level: 10, RootCells: 64, RefineBy: 2, Cells: 8}
	_, err = deep.Grids(geom.NewBox([6]float64{0, 0, 0, 1, 1, 1}))
	assert.Error(t, err)
}

func TestTube(t *testing.T) {
	g := Tube(10)
	assert.Equal(t, 10+2*ghostZones, g.Cells.Volume)
	assert.Equal(t, [3]int{10, 1, 1}, g.Cells.Width)
	assert.InDelta(t, 1.0, g.Box().Right[0], 1e-12)
}

func TestIsExternal(t *testing.T) {
	table := []struct {
		err      error
		external bool
	}{
		{fmt.Errorf("a: %w", io.ErrConfig), true},
		{fmt.Errorf("b: %w", regions.ErrTemporalRange), true},
		{fmt.Errorf("c: %w", particles.ErrBudget), true},
		{fmt.Errorf("d: %w", particles.ErrOutsideDomain), false},
		{errors.New("e"), false},
	}

	for i, test := range table {
		if isExternal(test.err) != test.external {
			t.Errorf("%d) expected isExternal(%v) = %t", i+1, test.err,
				test.external)
		}
	}
}

func TestRandomParticles(t *testing.T) {
	sp := &particles.Splitter{
		Fraction:     0.5,
		RefineRegion: geom.NewBox([6]float64{0, 0, 0, 1, 1, 1}),
	}
	p := randomParticles(sp, 100, 2)
	require.Equal(t, 100, p.Len())
	box := sp.Region()
	for i := 0; i < p.Len(); i++ {
		if !box.ContainsClosed(p.Pos(i)) {
			t.Errorf("%d) particle at %v is outside %v", i+1, p.Pos(i), box)
		}
	}
	assert.InDelta(t, 200.0, p.TotalMass(), 1e-9)
}

func TestDescribeDisabledTrack(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "tracks.nc")
	box := geom.NewBox([6]float64{0.25, 0.25, 0.25, 0.5, 0.5, 0.5})
	tracks := []regions.Track{
		{
			Name: io.TrackName(0), Enabled: true, Basis: regions.CodeTime,
			Methods: []methods.ID{methods.MultiRefineRegion},
			Keyframes: []regions.Keyframe{
				{Time: 0, Box: box, MinLevel: []int{1}, MaxLevel: []int{3}},
				{Time: 2, Box: box, MinLevel: []int{2}, MaxLevel: []int{3}},
			},
		},
		{Name: io.TrackName(1), Enabled: false, Basis: regions.CodeTime},
	}
	require.NoError(t, io.WriteTrackCDF(fname, tracks))

	wrap, err := io.ReadParameterString(fmt.Sprintf(`[Refinement]
MaximumRefinementLevel = 4
MultiRefineRegionFile = %s
MultiRefineRegionFileFormat = cdf
`, fname))
	require.NoError(t, err)
	s, err := io.Build(wrap, nil)
	require.NoError(t, err)
	require.Len(t, s.Store.Tracks, 2)

	var text string
	require.NotPanics(t, func() { text = describe(s) })
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Contains(t, lines, fmt.Sprintf("Track %-12s disabled", io.TrackName(1)))
	assert.Contains(t, text, "[0, 2], 2 time entries")
}
