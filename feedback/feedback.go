/*package feedback looks up pre-supernova stellar feedback rates from
tabulated Starburst99 models.
*/
package feedback

import (
	"fmt"

	"github.com/phil-mansfield/enzoref/math/interpolate"
)

// Table holds wind mass, wind metal mass and momentum injection rates on
// a grid of initial metal fraction and population age. Rate arrays are
// indexed as [iMet*len(Age) + iAge].
type Table struct {
	Metallicity, Age []float64

	MassRate, MetalMassRate, Momentum []float64

	mass, metal, mom *interpolate.BiLinear
}

// Yields are the rates of a single stellar population.
type Yields struct {
	MassRate, MetalMassRate, Momentum float64
}

// NewTable checks the shape of the table and builds its interpolators.
func NewTable(met, age, mass, metal, mom []float64) (*Table, error) {
	if len(met) < 2 || len(age) < 2 {
		return nil, fmt.Errorf(
			"Feedback table has %d metal fractions and %d ages, but needs "+
				"at least two of each.", len(met), len(age),
		)
	}
	if err := increasing("initial_metal_fraction", met); err != nil {
		return nil, err
	}
	if err := increasing("population_age", age); err != nil {
		return nil, err
	}

	n := len(met) * len(age)
	rates := []struct {
		name string
		x    []float64
	}{
		{"wind_mass_rate", mass},
		{"wind_metal_mass_rate", metal},
		{"wind_and_Lbol_momentum", mom},
	}
	for _, r := range rates {
		if len(r.x) != n {
			return nil, fmt.Errorf("Feedback table %s has %d entries, "+
				"but %d x %d = %d were expected.",
				r.name, len(r.x), len(met), len(age), n)
		}
	}

	return &Table{
		Metallicity: met, Age: age,
		MassRate: mass, MetalMassRate: metal, Momentum: mom,
		mass:  interpolate.NewBiLinear(met, age, mass),
		metal: interpolate.NewBiLinear(met, age, metal),
		mom:   interpolate.NewBiLinear(met, age, mom),
	}, nil
}

func increasing(name string, x []float64) error {
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return fmt.Errorf("Feedback table %s is not strictly "+
				"increasing at index %d.", name, i)
		}
	}
	return nil
}

// Lookup returns the rates of a population with metal fraction met and
// age age. Points outside the table are moved to its nearest edge.
func (t *Table) Lookup(met, age float64) Yields {
	met = clamp(met, t.Metallicity)
	age = clamp(age, t.Age)
	return Yields{
		MassRate:      t.mass.Eval(met, age),
		MetalMassRate: t.metal.Eval(met, age),
		Momentum:      t.mom.Eval(met, age),
	}
}

func clamp(x float64, axis []float64) float64 {
	lo, hi := axis[0], axis[len(axis)-1]
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}
