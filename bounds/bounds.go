/*package bounds applies floors and ceilings to the density, internal
energy, and velocity fields of a grid.
*/
package bounds

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/enzoref/grid"
)

// ErrNonFinite is returned when a grid contains a NaN or infinite density
// or energy.
var ErrNonFinite = errors.New("non-finite baryon field")

const tiny = 1e-20

// Config controls which bounds are applied. Energies are specific
// energies.
type Config struct {
	ApplyDensityFloor, ApplyDensityCeiling bool
	DensityFloor, DensityCeiling           float64

	ApplyInternalEnergyFloor, ApplyInternalEnergyCeiling bool
	InternalEnergyFloor, InternalEnergyCeiling           float64

	ApplyVelocityCeiling bool
	VelocityCeiling      float64

	HydrogenFractionByMass float64
}

// DefaultConfig returns the default bounds. The internal energy floor is
// disabled.
func DefaultConfig() Config {
	return Config{
		ApplyDensityFloor:          true,
		ApplyDensityCeiling:        true,
		DensityFloor:               1e-5,
		DensityCeiling:             1e15,
		ApplyInternalEnergyFloor:   false,
		ApplyInternalEnergyCeiling: true,
		InternalEnergyFloor:        1e-20,
		InternalEnergyCeiling:      1e10,
		ApplyVelocityCeiling:       true,
		VelocityCeiling:            1e5,
		HydrogenFractionByMass:     0.76,
	}
}

// Check returns an error if the bounds are inconsistent.
func (c *Config) Check() error {
	switch {
	case c.ApplyDensityFloor && c.DensityFloor <= 0:
		return fmt.Errorf("DensityFloor = %g, but it must be positive.",
			c.DensityFloor)
	case c.ApplyDensityFloor && c.ApplyDensityCeiling &&
		c.DensityCeiling < c.DensityFloor:
		return fmt.Errorf("DensityCeiling = %g is below DensityFloor = %g.",
			c.DensityCeiling, c.DensityFloor)
	case c.ApplyInternalEnergyFloor && c.ApplyInternalEnergyCeiling &&
		c.InternalEnergyCeiling < c.InternalEnergyFloor:
		return fmt.Errorf(
			"InternalEnergyCeiling = %g is below InternalEnergyFloor = %g.",
			c.InternalEnergyCeiling, c.InternalEnergyFloor,
		)
	case c.ApplyVelocityCeiling && c.VelocityCeiling <= 0:
		return fmt.Errorf("VelocityCeiling = %g, but it must be positive.",
			c.VelocityCeiling)
	case c.HydrogenFractionByMass <= 0 || c.HydrogenFractionByMass > 1:
		return fmt.Errorf("HydrogenFractionByMass = %g is not in (0, 1].",
			c.HydrogenFractionByMass)
	}
	return nil
}

// Report counts the cells changed by each bound.
type Report struct {
	Cells                        int
	DensityFloor, DensityCeiling int
	EnergyFloor, EnergyCeiling   int
	Velocity                     int
}

// Changed returns the total number of clamps applied.
func (r Report) Changed() int {
	return r.DensityFloor + r.DensityCeiling +
		r.EnergyFloor + r.EnergyCeiling + r.Velocity
}

// Enforcer applies a Config to grids.
type Enforcer struct {
	Config
	Log logrus.FieldLogger
}

// New returns an Enforcer for cfg.
func New(cfg Config, log logrus.FieldLogger) (*Enforcer, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Enforcer{Config: cfg, Log: log}, nil
}

// fields are the slices of a grid touched by the Enforcer. Missing
// velocity components are nil and treated as zero.
type fields struct {
	rho, te, ge []float64
	v           [3][]float64
	species     map[grid.Field][]float64
}

func gridFields(g *grid.Grid) (*fields, error) {
	f := &fields{species: map[grid.Field][]float64{}}
	var ok bool
	if f.rho, ok = g.Field(grid.Density); !ok {
		return nil, fmt.Errorf("Grid %d has no %v field.", g.ID, grid.Density)
	}
	if f.te, ok = g.Field(grid.TotalEnergy); !ok {
		return nil, fmt.Errorf("Grid %d has no %v field.", g.ID, grid.TotalEnergy)
	}
	f.ge, _ = g.Field(grid.InternalEnergy)
	for k := 0; k < 3; k++ {
		f.v[k], _ = g.Field(grid.Velocity(k))
	}
	for _, s := range grid.Species {
		if x, ok := g.Field(s); ok {
			f.species[s] = x
		}
	}
	return f, nil
}

func (f *fields) vel(i int) [3]float64 {
	var v [3]float64
	for k := 0; k < 3; k++ {
		if f.v[k] != nil {
			v[k] = f.v[k][i]
		}
	}
	return v
}

func kinetic(v [3]float64) float64 {
	return 0.5 * (v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Enforce applies the bounds to every cell of g, ghost cells included.
// Species densities are rebalanced when the density is clamped.
func (e *Enforcer) Enforce(g *grid.Grid) (Report, error) {
	f, err := gridFields(g)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Cells: len(f.rho)}
	for i := range f.rho {
		if err := f.checkFinite(g, i); err != nil {
			return rep, err
		}

		switch {
		case e.ApplyDensityFloor && f.rho[i] < e.DensityFloor:
			f.rho[i] = e.DensityFloor
			f.ionize(i, e.HydrogenFractionByMass)
			rep.DensityFloor++
		case e.ApplyDensityCeiling && f.rho[i] > e.DensityCeiling:
			f.rho[i] = e.DensityCeiling
			f.molecularize(i, e.HydrogenFractionByMass)
			rep.DensityCeiling++
		}

		v := f.vel(i)
		eint := f.te[i] - kinetic(v)
		energyChanged := false
		switch {
		case e.ApplyInternalEnergyFloor && eint < e.InternalEnergyFloor:
			eint, energyChanged = e.InternalEnergyFloor, true
			rep.EnergyFloor++
		case e.ApplyInternalEnergyCeiling && eint > e.InternalEnergyCeiling:
			eint, energyChanged = e.InternalEnergyCeiling, true
			rep.EnergyCeiling++
		}

		velocityChanged := false
		speed := math.Sqrt(2 * kinetic(v))
		if e.ApplyVelocityCeiling && speed > e.VelocityCeiling {
			scale := e.VelocityCeiling / speed
			for k := 0; k < 3; k++ {
				if f.v[k] != nil {
					f.v[k][i] *= scale
				}
			}
			velocityChanged = true
			rep.Velocity++
		}

		if energyChanged || velocityChanged {
			f.te[i] = eint + kinetic(f.vel(i))
		}
		if energyChanged && f.ge != nil {
			f.ge[i] = eint
		}
	}

	if rep.Changed() > 0 {
		e.Log.WithFields(logrus.Fields{
			"grid":           g.ID,
			"densityFloor":   rep.DensityFloor,
			"densityCeiling": rep.DensityCeiling,
			"energyFloor":    rep.EnergyFloor,
			"energyCeiling":  rep.EnergyCeiling,
			"velocity":       rep.Velocity,
		}).Debug("Applied baryon field bounds.")
	}
	return rep, nil
}

func (f *fields) checkFinite(g *grid.Grid, i int) error {
	bad := func(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }
	x, y, z := g.Cells.Coords(i)
	if bad(f.rho[i]) || bad(f.te[i]) {
		return fmt.Errorf(
			"%w: grid %d, cell %d (%d, %d, %d) has density %g and total "+
				"energy %g", ErrNonFinite, g.ID, i, x, y, z, f.rho[i], f.te[i],
		)
	}
	if f.ge != nil && bad(f.ge[i]) {
		return fmt.Errorf(
			"%w: grid %d, cell %d (%d, %d, %d) has internal energy %g",
			ErrNonFinite, g.ID, i, x, y, z, f.ge[i],
		)
	}
	return nil
}

// setSpecies sets every species field present to tiny except those
// listed in vals.
func (f *fields) setSpecies(i int, vals map[grid.Field]float64) {
	for s, x := range f.species {
		if v, ok := vals[s]; ok {
			x[i] = v
		} else {
			x[i] = tiny
		}
	}
}

// ionize makes the gas in cell i fully ionized.
func (f *fields) ionize(i int, X float64) {
	if len(f.species) == 0 {
		return
	}
	hii, heiii := X*f.rho[i], (1-X)*f.rho[i]
	f.setSpecies(i, map[grid.Field]float64{
		grid.HIIDensity:      hii,
		grid.HeIIIDensity:    heiii,
		grid.ElectronDensity: hii + heiii/2,
	})
}

// molecularize makes the hydrogen in cell i 99% molecular and the helium
// neutral.
func (f *fields) molecularize(i int, X float64) {
	if len(f.species) == 0 {
		return
	}
	f.setSpecies(i, map[grid.Field]float64{
		grid.H2IDensity: 0.99 * X * f.rho[i],
		grid.HIDensity:  0.01 * X * f.rho[i],
		grid.HeIDensity: (1 - X) * f.rho[i],
	})
}
