package main

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/grid"
)

const (
	ghostZones = 3
	maxGrids   = 1 << 12
)

// Tiling describes a set of grids at one level covering a box.
type Tiling struct {
	Level     int
	RootCells int
	RefineBy  float64
	// Cells is the largest number of active cells along each axis of a
	// grid.
	Cells int
}

// CellWidth returns the width of a cell at the tiling's level.
func (t *Tiling) CellWidth() float64 {
	return 1 / (float64(t.RootCells) * math.Pow(t.RefineBy, float64(t.Level)))
}

// Grids returns grids covering box, snapped outwards to cell edges and
// clipped to the unit domain. Fields are left unallocated.
func (t *Tiling) Grids(box geom.Box) ([]*grid.Grid, error) {
	dx := t.CellWidth()

	var lo, n, nGrids [3]int
	total := 1
	for k := 0; k < 3; k++ {
		lo[k] = int(math.Floor(math.Max(box.Left[k], 0) / dx))
		hi := int(math.Ceil(math.Min(box.Right[k], 1) / dx))
		n[k] = hi - lo[k]
		if n[k] <= 0 {
			return nil, fmt.Errorf("Box %v covers no cells at level %d.",
				box, t.Level)
		}
		nGrids[k] = (n[k] + t.Cells - 1) / t.Cells
		total *= nGrids[k]
	}
	if total > maxGrids {
		return nil, fmt.Errorf("Covering %v at level %d needs %d grids, "+
			"but at most %d are allowed.", box, t.Level, total, maxGrids)
	}

	out := make([]*grid.Grid, 0, total)
	for gz := 0; gz < nGrids[2]; gz++ {
		for gy := 0; gy < nGrids[1]; gy++ {
			for gx := 0; gx < nGrids[0]; gx++ {
				gi := [3]int{gx, gy, gz}
				var dims, start, end [3]int
				var left, width [3]float64
				for k := 0; k < 3; k++ {
					first := gi[k] * t.Cells
					w := t.Cells
					if first+w > n[k] {
						w = n[k] - first
					}
					dims[k] = w + 2*ghostZones
					start[k], end[k] = ghostZones, ghostZones+w-1
					left[k] = float64(lo[k]+first) * dx
					width[k] = dx
				}
				cells := geom.NewGrid(dims, start, end, left, width)
				out = append(out, grid.New(len(out), t.Level, cells))
			}
		}
	}
	return out, nil
}

// Tube returns a single grid of n cells along x for a shock tube.
func Tube(n int) *grid.Grid {
	dx := 1 / float64(n)
	cells := geom.NewGrid(
		[3]int{n + 2*ghostZones, 1, 1},
		[3]int{ghostZones, 0, 0}, [3]int{ghostZones + n - 1, 0, 0},
		[3]float64{0, 0, 0}, [3]float64{dx, 1, 1},
	)
	return grid.New(0, 0, cells)
}

// fill sets every cell of f on g to x.
func fill(g *grid.Grid, f grid.Field, x float64) {
	vals := g.AddField(f)
	for i := range vals {
		vals[i] = x
	}
}
