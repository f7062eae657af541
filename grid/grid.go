/*package grid is a single AMR grid: cell geometry, named baryon fields, a
flagging field and the particles that live on it.
*/
package grid

import (
	"fmt"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/particles"
)

// Field is a baryon field identifier.
type Field int

const (
	Density Field = iota
	TotalEnergy
	InternalEnergy
	Velocity1
	Velocity2
	Velocity3
	MetalDensity
	Mach
	PreShockTemperature
	PreShockDensity

	ElectronDensity
	HIDensity
	HIIDensity
	HeIDensity
	HeIIDensity
	HeIIIDensity
	HMDensity
	H2IDensity
	H2IIDensity

	TracerFluid01
	TracerFluid02
	TracerFluid03
	TracerFluid04
	TracerFluid05
	TracerFluid06
	TracerFluid07
	TracerFluid08

	numFields
)

// MaxTracerFluids is the number of tracer fluid fields.
const MaxTracerFluids = 8

var fieldNames = [numFields]string{
	"Density", "TotalEnergy", "GasEnergy",
	"x-velocity", "y-velocity", "z-velocity",
	"Metal_Density", "Mach", "PreShock_Temperature", "PreShock_Density",
	"Electron_Density", "HI_Density", "HII_Density", "HeI_Density",
	"HeII_Density", "HeIII_Density", "HM_Density", "H2I_Density",
	"H2II_Density",
	"TracerFluid01", "TracerFluid02", "TracerFluid03", "TracerFluid04",
	"TracerFluid05", "TracerFluid06", "TracerFluid07", "TracerFluid08",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// FieldFromName returns the Field with the given label.
func FieldFromName(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return -1, false
}

// Velocity returns the velocity field along axis dim.
func Velocity(dim int) Field { return Velocity1 + Field(dim) }

// TracerFluid returns the n-th tracer fluid field, starting at 1.
func TracerFluid(n int) Field {
	if n < 1 || n > MaxTracerFluids {
		panic(fmt.Sprintf("Tracer fluid %d out of range [1, %d].",
			n, MaxTracerFluids))
	}
	return TracerFluid01 + Field(n-1)
}

// Species are the multi-species density fields, in order.
var Species = []Field{
	ElectronDensity, HIDensity, HIIDensity, HeIDensity, HeIIDensity,
	HeIIIDensity, HMDensity, H2IDensity, H2IIDensity,
}

// Grid is one AMR grid.
type Grid struct {
	ID    int
	Level int
	Cells *geom.Grid

	Fields map[Field][]float64
	// Flags is the flagging field. It is nil until AllocateFlags is called.
	Flags []int

	Particles *particles.Particles
}

// New creates a grid with no fields.
func New(id, level int, cells *geom.Grid) *Grid {
	return &Grid{
		ID: id, Level: level, Cells: cells,
		Fields:    map[Field][]float64{},
		Particles: particles.New(0, false),
	}
}

// AddField allocates a zeroed field and returns it. If the field already
// exists it is returned unchanged.
func (g *Grid) AddField(f Field) []float64 {
	if x, ok := g.Fields[f]; ok {
		return x
	}
	x := make([]float64, g.Cells.Volume)
	g.Fields[f] = x
	return x
}

// Field returns the values of f and whether the grid stores it.
func (g *Grid) Field(f Field) ([]float64, bool) {
	x, ok := g.Fields[f]
	return x, ok
}

// HasField returns true if the grid stores f.
func (g *Grid) HasField(f Field) bool {
	_, ok := g.Fields[f]
	return ok
}

// AllocateFlags creates a zeroed flagging field, or zeroes the existing one.
func (g *Grid) AllocateFlags() []int {
	if len(g.Flags) != g.Cells.Volume {
		g.Flags = make([]int, g.Cells.Volume)
		return g.Flags
	}
	for i := range g.Flags {
		g.Flags[i] = 0
	}
	return g.Flags
}

// Box returns the region covered by the grid's active cells.
func (g *Grid) Box() geom.Box { return g.Cells.Box() }

// ClampFlags sets every flag to 0 or 1 and returns the number of flagged
// cells.
func (g *Grid) ClampFlags() int {
	n := 0
	for i := range g.Flags {
		if g.Flags[i] >= 1 {
			g.Flags[i] = 1
			n++
		} else {
			g.Flags[i] = 0
		}
	}
	return n
}
