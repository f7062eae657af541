/*package particles stores particles as parallel arrays and splits massive
particles into 13 lighter ones for zoom-in simulations.
*/
package particles

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Type is a particle type code.
type Type int

const (
	Gas        Type = 0
	DarkMatter Type = 1
	Star       Type = 2
	Tracer     Type = 3
	MustRefine Type = 4
)

// Unassigned is the particle number given to new particles. Unique numbers
// are assigned by the caller.
const Unassigned int64 = -1

// Particles is a struct-of-arrays particle container. Index i of every
// slice refers to the same particle. Attributes[a][i] is attribute a of
// particle i.
type Particles struct {
	Position, Velocity [3][]float64
	Mass               []float64
	// InitialMass is nil if initial masses aren't tracked.
	InitialMass []float64
	Type        []Type
	Number      []int64
	Attributes  [][]float64
}

// Particle is a single particle copied out of a Particles container.
type Particle struct {
	Position, Velocity [3]float64
	Mass, InitialMass  float64
	Type               Type
	Number             int64
	Attributes         []float64
}

// New creates an empty container with nAttr attributes per particle.
func New(nAttr int, trackInitialMass bool) *Particles {
	p := &Particles{Attributes: make([][]float64, nAttr)}
	if trackInitialMass {
		p.InitialMass = []float64{}
	}
	return p
}

// Len returns the number of particles.
func (p *Particles) Len() int { return len(p.Mass) }

// Append adds q to the end of the container and returns its index. q must
// have one value per attribute.
func (p *Particles) Append(q Particle) int {
	if len(q.Attributes) != len(p.Attributes) {
		panic(fmt.Sprintf(
			"Particle has %d attributes, but the container stores %d.",
			len(q.Attributes), len(p.Attributes),
		))
	}

	for k := 0; k < 3; k++ {
		p.Position[k] = append(p.Position[k], q.Position[k])
		p.Velocity[k] = append(p.Velocity[k], q.Velocity[k])
	}
	p.Mass = append(p.Mass, q.Mass)
	if p.InitialMass != nil {
		p.InitialMass = append(p.InitialMass, q.InitialMass)
	}
	p.Type = append(p.Type, q.Type)
	p.Number = append(p.Number, q.Number)
	for a := range p.Attributes {
		p.Attributes[a] = append(p.Attributes[a], q.Attributes[a])
	}

	return len(p.Mass) - 1
}

// At returns a copy of particle i.
func (p *Particles) At(i int) Particle {
	q := Particle{
		Mass:       p.Mass[i],
		Type:       p.Type[i],
		Number:     p.Number[i],
		Attributes: make([]float64, len(p.Attributes)),
	}
	for k := 0; k < 3; k++ {
		q.Position[k] = p.Position[k][i]
		q.Velocity[k] = p.Velocity[k][i]
	}
	if p.InitialMass != nil {
		q.InitialMass = p.InitialMass[i]
	}
	for a := range p.Attributes {
		q.Attributes[a] = p.Attributes[a][i]
	}
	return q
}

// Pos returns the position of particle i.
func (p *Particles) Pos(i int) [3]float64 {
	return [3]float64{p.Position[0][i], p.Position[1][i], p.Position[2][i]}
}

// TotalMass returns the summed mass of all particles.
func (p *Particles) TotalMass() float64 {
	return floats.Sum(p.Mass)
}
