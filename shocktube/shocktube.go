/*package shocktube sets up the initial conditions of the hydro shock tube
test problems: two or three uniform states separated by planes normal to
the x axis.
*/
package shocktube

import (
	"fmt"

	"github.com/phil-mansfield/enzoref/grid"
)

// Unset marks SecondDiscontinuity as unused.
const Unset = -1.0

const tiny = 1e-20

// State is the primitive state of one side of the tube.
type State struct {
	Density, Pressure float64
	Velocity          [3]float64
}

// TotalEnergy returns the specific total energy of s.
func (s State) TotalEnergy(gamma float64) float64 {
	return s.Pressure/((gamma-1)*s.Density) + s.kinetic()
}

// InternalEnergy returns the specific internal energy of s.
func (s State) InternalEnergy(gamma float64) float64 {
	return s.TotalEnergy(gamma) - s.kinetic()
}

func (s State) kinetic() float64 {
	v := s.Velocity
	return 0.5 * (v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Params describes a shock tube. Cells whose center is at x <= x0 get the
// Left state, cells with x0 < x <= x1 the Center state and all others the
// Right state.
type Params struct {
	InitialDiscontinuity float64
	// SecondDiscontinuity is Unset for a two-state tube.
	SecondDiscontinuity float64

	Left, Center, Right State

	Gamma float64
	// Rank is the number of velocity components stored.
	Rank       int
	DualEnergy bool

	ShockMethod         bool
	StorePreShockFields bool
	TracerFluids        int
}

// DefaultParams returns a two-state tube with identical uniform states.
func DefaultParams() Params {
	uniform := State{Density: 1, Pressure: 1}
	return Params{
		InitialDiscontinuity: 0.5,
		SecondDiscontinuity:  Unset,
		Left:                 uniform,
		Center:               uniform,
		Right:                uniform,
		Gamma:                5.0 / 3,
		Rank:                 1,
	}
}

// Sod returns the classic Sod problem.
func Sod() Params {
	p := DefaultParams()
	p.Gamma = 1.4
	p.Left = State{Density: 1, Pressure: 1}
	p.Right = State{Density: 0.125, Pressure: 0.1}
	return p
}

// ThreeState returns true if the tube has a center state.
func (p *Params) ThreeState() bool {
	return p.SecondDiscontinuity != Unset
}

// Check returns an error if the parameters can't describe a tube.
func (p *Params) Check() error {
	states := []struct {
		name string
		s    State
	}{{"Left", p.Left}, {"Right", p.Right}, {"Center", p.Center}}
	if !p.ThreeState() {
		states = states[:2]
	}

	for _, st := range states {
		if st.s.Density <= 0 {
			return fmt.Errorf("%sDensity = %g, but it must be positive.",
				st.name, st.s.Density)
		} else if st.s.Pressure <= 0 {
			return fmt.Errorf("%sPressure = %g, but it must be positive.",
				st.name, st.s.Pressure)
		}
	}

	switch {
	case p.Gamma <= 1:
		return fmt.Errorf("Gamma = %g, but it must be larger than 1.", p.Gamma)
	case p.Rank < 1 || p.Rank > 3:
		return fmt.Errorf("Rank = %d, but it must be 1, 2, or 3.", p.Rank)
	case p.TracerFluids < 0 || p.TracerFluids > grid.MaxTracerFluids:
		return fmt.Errorf("TracerFluids = %d, but it must be in [0, %d].",
			p.TracerFluids, grid.MaxTracerFluids)
	case p.ThreeState() && p.SecondDiscontinuity < p.InitialDiscontinuity:
		return fmt.Errorf(
			"SecondDiscontinuity = %g is left of InitialDiscontinuity = %g.",
			p.SecondDiscontinuity, p.InitialDiscontinuity,
		)
	}
	return nil
}

// Fields returns the fields the tube stores, in order.
func (p *Params) Fields() []grid.Field {
	fs := []grid.Field{grid.Density}
	for k := 0; k < p.Rank; k++ {
		fs = append(fs, grid.Velocity(k))
	}
	fs = append(fs, grid.TotalEnergy)
	if p.DualEnergy {
		fs = append(fs, grid.InternalEnergy)
	}
	if p.ShockMethod {
		fs = append(fs, grid.Mach)
		if p.StorePreShockFields {
			fs = append(fs, grid.PreShockTemperature, grid.PreShockDensity)
		}
	}
	for n := 1; n <= p.TracerFluids; n++ {
		fs = append(fs, grid.TracerFluid(n))
	}
	return fs
}

// StateAt returns the state of a cell centered at x.
func (p *Params) StateAt(x float64) State {
	x1 := p.InitialDiscontinuity
	if p.ThreeState() {
		x1 = p.SecondDiscontinuity
	}

	switch {
	case x <= p.InitialDiscontinuity:
		return p.Left
	case x <= x1:
		return p.Center
	default:
		return p.Right
	}
}

// Initialize allocates the tube's fields on g and fills every cell, ghost
// zones included. Tracer fluid n is set to the density divided by n.
func (p *Params) Initialize(g *grid.Grid) error {
	if err := p.Check(); err != nil {
		return err
	}

	fs := p.Fields()
	vals := make([][]float64, len(fs))
	for i, f := range fs {
		vals[i] = g.AddField(f)
	}

	cells := g.Cells
	for idx := 0; idx < cells.Volume; idx++ {
		x, y, z := cells.Coords(idx)
		s := p.StateAt(cells.CellCenter(x, y, z)[0])

		for i, f := range fs {
			vals[i][idx] = p.fieldValue(f, s)
		}
	}
	return nil
}

func (p *Params) fieldValue(f grid.Field, s State) float64 {
	switch {
	case f == grid.Density:
		return s.Density
	case f >= grid.Velocity1 && f <= grid.Velocity3:
		return s.Velocity[f-grid.Velocity1]
	case f == grid.TotalEnergy:
		return s.TotalEnergy(p.Gamma)
	case f == grid.InternalEnergy:
		return s.InternalEnergy(p.Gamma)
	case f == grid.Mach || f == grid.PreShockTemperature ||
		f == grid.PreShockDensity:
		return tiny
	case f >= grid.TracerFluid01 && f <= grid.TracerFluid08:
		return s.Density / float64(f-grid.TracerFluid01+1)
	}
	panic(fmt.Sprintf("Shock tube doesn't set field %v.", f))
}
