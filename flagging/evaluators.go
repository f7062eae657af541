package flagging

import (
	"fmt"

	"github.com/phil-mansfield/enzoref/grid"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/particles"
)

func flagNoOp(ctx *Context) (int, error) { return 0, nil }

func field(ctx *Context, f grid.Field) ([]float64, error) {
	x, ok := ctx.Grid.Field(f)
	if !ok {
		return nil, fmt.Errorf("Grid %d has no %v field.", ctx.Grid.ID, f)
	}
	return x, nil
}

// flagBaryonMass flags cells whose gas mass exceeds the level's threshold.
func flagBaryonMass(ctx *Context) (int, error) {
	rho, err := field(ctx, grid.Density)
	if err != nil {
		return -1, err
	}

	cells, flags := ctx.Grid.Cells, ctx.Grid.Flags
	vol := cells.CellVolume()
	limit := ctx.Config.MassThreshold(methods.BaryonMass, ctx.Level)

	n := 0
	cells.ActiveIdxs(func(idx, x, y, z int) {
		if rho[idx]*vol > limit {
			flags[idx]++
			n++
		}
	})
	return n, nil
}

// depositParticles returns the particle mass in each cell and the number
// of must-refine particles in each cell, using nearest grid point
// assignment. Particles outside the active cells are ignored.
func depositParticles(ctx *Context) (mass []float64, must []int) {
	cells, p := ctx.Grid.Cells, ctx.Grid.Particles
	mass = make([]float64, cells.Volume)
	must = make([]int, cells.Volume)
	if p == nil {
		return mass, must
	}

	for i := 0; i < p.Len(); i++ {
		x, y, z, ok := cells.CellOf(p.Pos(i))
		if !ok {
			continue
		}
		idx := cells.Idx(x, y, z)
		mass[idx] += p.Mass[i]
		if p.Type[i] == particles.MustRefine {
			must[idx]++
		}
	}
	return mass, must
}

// flagParticleMass flags cells whose particle mass exceeds the level's
// threshold and every cell containing a must-refine particle. In
// restricted mode it instead unflags every cell that doesn't contain a
// must-refine particle, keeping cells that are flagged by some method or
// by their particle mass.
func flagParticleMass(ctx *Context) (int, error) {
	mass, must := depositParticles(ctx)
	limit := ctx.Config.MassThreshold(methods.ParticleMass, ctx.Level)
	cells, flags := ctx.Grid.Cells, ctx.Grid.Flags

	n := 0
	cells.ActiveIdxs(func(idx, x, y, z int) {
		heavy := mass[idx] > limit
		if ctx.Restrict {
			if (flags[idx] > 0 || heavy) && must[idx] > 0 {
				flags[idx] = 1
				n++
			} else {
				flags[idx] = 0
			}
			return
		}

		if heavy || must[idx] > 0 {
			flags[idx]++
			n++
		}
	})
	return n, nil
}

// flagMetallicity flags dense, metal-rich cells while the grid is below
// the metallicity refinement level.
func flagMetallicity(ctx *Context) (int, error) {
	if ctx.Level >= ctx.Table.MetallicityMinLevel {
		return 0, nil
	}
	rho, err := field(ctx, grid.Density)
	if err != nil {
		return -1, err
	}
	metal, err := field(ctx, grid.MetalDensity)
	if err != nil {
		return -1, err
	}

	cfg := ctx.Config
	n := 0
	ctx.Grid.Cells.ActiveIdxs(func(idx, x, y, z int) {
		if rho[idx] <= 0 {
			return
		}
		met := metal[idx] / rho[idx] / SolarMetalFraction
		if met >= cfg.MetallicityMinMetallicity &&
			rho[idx] >= cfg.MetallicityMinDensity {
			ctx.Grid.Flags[idx]++
			n++
		}
	})
	return n, nil
}

// flagShockwaves flags cells with a Mach number above the threshold while
// the grid is below the shockwave refinement level.
func flagShockwaves(ctx *Context) (int, error) {
	if ctx.Level >= ctx.Table.ShockwaveMaxLevel {
		return 0, nil
	}
	mach, err := field(ctx, grid.Mach)
	if err != nil {
		return -1, err
	}

	n := 0
	ctx.Grid.Cells.ActiveIdxs(func(idx, x, y, z int) {
		if mach[idx] >= ctx.Config.ShockwaveMinMach {
			ctx.Grid.Flags[idx]++
			n++
		}
	})
	return n, nil
}

// regionFlagger flags cells by the resolved regions declaring id. For each
// cell center the largest minimum level of the containing regions is
// used, and cells below it are flagged. Otherwise cells below
// OuterMinLevel are flagged: every cell for MultiRefineRegion, only cells
// inside a region for MustRefineRegion.
func regionFlagger(id methods.ID) Evaluator {
	outer := id == methods.MultiRefineRegion

	return EvaluatorFunc(func(ctx *Context) (int, error) {
		var regs []int
		if ctx.State != nil {
			for i := range ctx.State.Regions {
				if methods.Contains(ctx.State.Regions[i].Methods, id) {
					regs = append(regs, i)
				}
			}
		}

		cfg, level := ctx.Config, ctx.Level
		cells, flags := ctx.Grid.Cells, ctx.Grid.Flags
		n := 0
		cells.ActiveIdxs(func(idx, x, y, z int) {
			pos := cells.CellCenter(x, y, z)

			inside, localMin := false, 0
			for _, i := range regs {
				reg := &ctx.State.Regions[i]
				if !reg.Box.Contains(pos) {
					continue
				}
				lo, _, _ := reg.Bounds(id)
				if !inside || lo > localMin {
					localMin = lo
				}
				inside = true
			}

			if level < localMin || (inside || outer) && level < cfg.OuterMinLevel {
				flags[idx]++
				n++
			}
		})
		return n, nil
	})
}
