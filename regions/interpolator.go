package regions

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/enzoref/geom"
)

// Family identifies one of the single-region evolving families. Each family
// has its own time basis.
type Family int

const (
	FamilyRefine Family = iota
	FamilyMustRefine
	FamilyCooling
)

var familyNames = []string{
	"RefineRegion", "MustRefineRegion", "CoolingRefineRegion",
}

func (f Family) String() string {
	if f < 0 || int(f) >= len(familyNames) {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return familyNames[f]
}

// FamilyFromName returns the Family with the given parameter name.
func FamilyFromName(name string) (Family, bool) {
	for i, n := range familyNames {
		if n == name {
			return Family(i), true
		}
	}
	return -1, false
}

// Interpolator resolves every region of a Store once per timestep.
type Interpolator struct {
	Store *Store
	// Evolving holds the single-region families. The MustRefineRegion track
	// is expected to declare the MustRefineRegion method.
	Evolving map[Family]*Track
	// StaticRefineRegion, if non-nil, clips the evolving RefineRegion.
	StaticRefineRegion *geom.Box

	// Redshift converts code time to redshift. It is only needed when some
	// track uses the redshift basis.
	Redshift func(codeTime float64) (float64, error)

	DefaultStarMass float64
	// VaryStarMass enables per-region minimum star masses.
	VaryStarMass bool

	Log logrus.FieldLogger
}

// Step resolves every enabled static region and track at codeTime. Tracks
// are resolved whether or not they overlap any grid.
func (in *Interpolator) Step(codeTime float64) (*State, error) {
	log := in.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	st := &State{
		CodeTime:        codeTime,
		DefaultStarMass: in.DefaultStarMass,
		MinStarMass:     in.DefaultStarMass,
		VaryStarMass:    in.VaryStarMass,
	}

	z, haveZ := 0.0, false
	timeIn := func(b TimeBasis) (float64, error) {
		if b != Redshift {
			return codeTime, nil
		}
		if haveZ {
			return z, nil
		}
		if in.Redshift == nil {
			return 0, fmt.Errorf(
				"A region uses the redshift time basis, but the " +
					"simulation has no redshift.",
			)
		}
		var err error
		if z, err = in.Redshift(codeTime); err != nil {
			return 0, err
		}
		haveZ = true
		return z, nil
	}

	var err error
	in.Store.Enabled(func(tr *Track) {
		if err != nil {
			return
		}
		var t float64
		if t, err = timeIn(tr.Basis); err != nil {
			return
		}
		var reg Region
		if reg, err = tr.Resolve(t); err != nil {
			return
		}
		st.Regions = append(st.Regions, reg)
	})
	if err != nil {
		return nil, err
	}

	for _, fam := range []Family{FamilyRefine, FamilyMustRefine, FamilyCooling} {
		tr, ok := in.Evolving[fam]
		if !ok || tr == nil || !tr.Enabled {
			continue
		}
		t, err := timeIn(tr.Basis)
		if err != nil {
			return nil, err
		}
		reg, err := tr.Resolve(t)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", fam, err)
		}

		switch fam {
		case FamilyRefine:
			box := reg.Box
			if in.StaticRefineRegion != nil {
				box = box.Intersect(*in.StaticRefineRegion)
			}
			st.Refine = &box
		case FamilyMustRefine:
			st.Regions = append(st.Regions, reg)
		case FamilyCooling:
			box := reg.Box
			st.Cooling = &box
		}
	}

	if in.VaryStarMass {
		for i := range st.Regions {
			st.lowerStarMass(st.Regions[i].MinStarMass)
		}
	}

	log.WithFields(logrus.Fields{
		"time":          codeTime,
		"regions":       len(st.Regions),
		"min_star_mass": st.MinStarMass,
	}).Debug("Resolved refinement regions.")

	return st, nil
}

// State is the set of regions resolved for one timestep. It is read-only
// once Step returns.
type State struct {
	CodeTime float64
	Regions  []Region

	// Refine and Cooling are the evolving RefineRegion and
	// CoolingRefineRegion, or nil if those families aren't in use.
	Refine, Cooling *geom.Box

	DefaultStarMass float64
	// MinStarMass is the smallest positive threshold of any region, or
	// DefaultStarMass if that is smaller.
	MinStarMass  float64
	VaryStarMass bool
}

// lowerStarMass is a take-minimum update. Non-positive thresholds mean
// "no threshold" and are ignored.
func (st *State) lowerStarMass(m float64) {
	if m > 0 && m < st.MinStarMass {
		st.MinStarMass = m
	}
}

// StarMassFor returns the minimum star particle mass for a grid spanning
// box: the smallest of the default and the thresholds of every region
// overlapping the grid.
func (st *State) StarMassFor(box geom.Box) float64 {
	m := st.DefaultStarMass
	if !st.VaryStarMass {
		return m
	}
	for i := range st.Regions {
		reg := &st.Regions[i]
		if reg.MinStarMass > 0 && reg.MinStarMass < m &&
			box.Overlaps(reg.Box) {
			m = reg.MinStarMass
		}
	}
	return m
}
