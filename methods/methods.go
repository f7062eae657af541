/*package methods enumerates the cell flagging methods understood by the
refinement machinery. Method IDs are the integers used in parameter files,
so the numbering is fixed and has gaps.
*/
package methods

import (
	"fmt"
	"sort"
)

// ID identifies a cell flagging method.
type ID int

const (
	// Undefined marks an empty slot in a method list.
	Undefined ID = -1

	NoOp                  ID = 0
	Slope                 ID = 1
	BaryonMass            ID = 2
	Shocks                ID = 3
	ParticleMass          ID = 4
	JeansLength           ID = 6
	CoolingTime           ID = 7
	MustRefineParticles   ID = 8
	Shear                 ID = 9
	OpticalDepth          ID = 10
	ResistiveLength       ID = 11
	MustRefineRegion      ID = 12
	Metallicity           ID = 13
	Shockwaves            ID = 14
	SecondDerivative      ID = 15
	TotalJeansLength      ID = 16
	MustRefineMass        ID = 18
	MetalMass             ID = 19
	MultiRefineRegion     ID = 20
	AvoidRefinement       ID = 100
	AvoidRefinementRegion ID = 101
)

var names = map[ID]string{
	NoOp:                  "NoOp",
	Slope:                 "Slope",
	BaryonMass:            "BaryonMass",
	Shocks:                "Shocks",
	ParticleMass:          "ParticleMass",
	JeansLength:           "JeansLength",
	CoolingTime:           "CoolingTime",
	MustRefineParticles:   "MustRefineParticles",
	Shear:                 "Shear",
	OpticalDepth:          "OpticalDepth",
	ResistiveLength:       "ResistiveLength",
	MustRefineRegion:      "MustRefineRegion",
	Metallicity:           "Metallicity",
	Shockwaves:            "Shockwaves",
	SecondDerivative:      "SecondDerivative",
	TotalJeansLength:      "TotalJeansLength",
	MustRefineMass:        "MustRefineParticlesMass",
	MetalMass:             "MetalMass",
	MultiRefineRegion:     "MultiRefineRegion",
	AvoidRefinement:       "AvoidRefinement",
	AvoidRefinementRegion: "AvoidRefinementRegion",
}

// Valid returns true if id is a known flagging method. Undefined is not
// valid.
func (id ID) Valid() bool {
	_, ok := names[id]
	return ok
}

func (id ID) String() string {
	if id == Undefined {
		return "Undefined"
	}
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(id))
}

// ParticleOnly returns true if id only concerns must-refine particles.
func (id ID) ParticleOnly() bool {
	return id == ParticleMass || id == MustRefineParticles
}

// FromInts converts raw parameter-file integers into IDs. Negative values
// become Undefined. Any other value that isn't a known method is an error.
func FromInts(xs []int) ([]ID, error) {
	out := make([]ID, len(xs))
	for i, x := range xs {
		if x < 0 {
			out[i] = Undefined
			continue
		}
		out[i] = ID(x)
		if !out[i].Valid() {
			return nil, fmt.Errorf(
				"Flagging method %d in slot %d is not a known method.", x, i,
			)
		}
	}
	return out, nil
}

// Contains returns true if id is in ids.
func Contains(ids []ID, id ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Defined returns the IDs in ids which are not Undefined, in order.
func Defined(ids []ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if id != Undefined {
			out = append(out, id)
		}
	}
	return out
}

// All returns every known method in ascending order.
func All() []ID {
	out := make([]ID, 0, len(names))
	for id := range names {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
