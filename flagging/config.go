package flagging

import (
	"math"

	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

// SolarMetalFraction is the solar metal mass fraction.
const SolarMetalFraction = 0.01295

// Config holds the global flagging parameters.
type Config struct {
	// Methods is the global flagging method list. Undefined entries are
	// empty slots.
	Methods  []methods.ID
	MaxLevel int
	RefineBy float64

	// MinimumMass and MassLevelExponent give the mass threshold of the
	// BaryonMass and ParticleMass methods at level 0 and how it scales
	// with level.
	MinimumMass       map[methods.ID]float64
	MassLevelExponent map[methods.ID]float64

	// OuterMinLevel is the level region cells are refined to when no
	// containing region asks for more.
	OuterMinLevel int

	MetallicityMinLevel       int
	MetallicityMinMetallicity float64
	MetallicityMinDensity     float64

	ShockwaveMaxLevel int
	ShockwaveMinMach  float64

	MRPRefineToLevel   int
	MRPCreateParticles int
}

// DefaultConfig returns a Config with NoOp as the only method.
func DefaultConfig() Config {
	return Config{
		Methods:           []methods.ID{methods.NoOp},
		MaxLevel:          0,
		RefineBy:          2,
		MinimumMass:       map[methods.ID]float64{},
		MassLevelExponent: map[methods.ID]float64{},
	}
}

// Defaults returns the region resolver defaults implied by c.
func (c *Config) Defaults() regions.Defaults {
	return regions.Defaults{
		Methods:             c.Methods,
		MaxLevel:            c.MaxLevel,
		MetallicityMinLevel: c.MetallicityMinLevel,
		ShockwaveMaxLevel:   c.ShockwaveMaxLevel,
	}
}

// MassThreshold returns the mass above which a cell is flagged by method
// id at the given level.
func (c *Config) MassThreshold(id methods.ID, level int) float64 {
	m, ok := c.MinimumMass[id]
	if !ok {
		return math.Inf(1)
	}
	exp := c.MassLevelExponent[id]
	return m * math.Pow(c.RefineBy, float64(level)*exp)
}

// particleOnly returns true if every global method only refines on
// particles.
func (c *Config) particleOnly() bool {
	for _, id := range c.Methods {
		if id != methods.Undefined && !id.ParticleOnly() {
			return false
		}
	}
	return true
}
