package particles

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/math/rand"
)

const (
	// ChildrenPerParent is the number of children created around each split
	// parent.
	ChildrenPerParent = 12
	tinyNumber        = 1e-20
)

var (
	// ErrOutsideDomain is returned when a child would be placed outside the
	// unit box.
	ErrOutsideDomain = errors.New("child particle outside of domain")
	// ErrBudget is returned when splitting would create more particles than
	// allowed.
	ErrBudget = errors.New("too many child particles")

	domain = geom.NewBox([6]float64{0, 0, 0, 1, 1, 1})
)

// Splitter splits particles into a parent and 12 children arranged on a
// hexagonal close-packed lattice.
type Splitter struct {
	// Separation is the child separation in units of the parent cell width
	// and Iterations the number of times splitting has been applied.
	Separation float64
	Iterations int
	Seed       uint64

	// Fraction shrinks RefineRegion about its midpoint. 1 keeps the whole
	// region.
	Fraction float64
	// If Center[0] > 0 and CenterRegion > 0 the split region is the cube of
	// width CenterRegion about Center, clipped to RefineRegion.
	Center       [3]float64
	CenterRegion float64
	RefineRegion geom.Box

	Log logrus.FieldLogger
}

// Region returns the box that parent particles must be inside to be split.
func (s *Splitter) Region() geom.Box {
	rr := s.RefineRegion
	box := rr

	if s.Fraction != 1 {
		for i := 0; i < 3; i++ {
			sep := rr.Right[i] - rr.Left[i]
			mid := sep/2 + rr.Left[i]
			half := sep * s.Fraction / 2
			box.Left[i], box.Right[i] = mid-half, mid+half
		}
	}

	if s.Center[0] > 0 && s.CenterRegion > 0 {
		for i := 0; i < 3; i++ {
			box.Left[i] = math.Max(s.Center[i]-s.CenterRegion/2, rr.Left[i])
			box.Right[i] = math.Min(s.Center[i]+s.CenterRegion/2, rr.Right[i])
		}
	}

	return box
}

// Offsets returns the positions of the 12 children relative to a parent at
// the origin, for a separation of rad.
func Offsets(rad float64) [ChildrenPerParent][3]float64 {
	sin60 := math.Sin(math.Pi / 3)
	h := math.Sqrt(2.0/3.0) * rad
	a, b := rad/(2*math.Sqrt(3)), rad/math.Sqrt(3)

	var off [ChildrenPerParent][3]float64
	plane := [6][2]float64{
		{rad, 0}, {0.5 * rad, sin60 * rad}, {-0.5 * rad, sin60 * rad},
		{-rad, 0}, {-0.5 * rad, -sin60 * rad}, {0.5 * rad, -sin60 * rad},
	}
	for i, xy := range plane {
		off[i] = [3]float64{xy[0], xy[1], 0}
	}

	above := [3][2]float64{{0.5 * rad, a}, {-0.5 * rad, a}, {0, -b}}
	for i, xy := range above {
		off[6+i] = [3]float64{xy[0], xy[1], h}
		off[9+i] = [3]float64{xy[0], xy[1], -h}
	}

	return off
}

// Split splits every eligible particle in p. dx is the cell width of the
// grid, cells its geometry and maxNew the largest number of children that
// may be created. Parents keep 1/13 of their mass and children are
// appended to p. The number of children is returned. A parent whose
// children would exceed maxNew is left unsplit and ErrBudget is returned.
//
// A parent is eligible if it has positive mass, a type code no larger than
// Star or the must-refine type, and lies inside both Region() and the grid.
func (s *Splitter) Split(
	p *Particles, dx float64, cells *geom.Grid, maxNew int,
) (int, error) {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	region := s.Region()
	rad := dx * math.Pow(s.Separation, float64(s.Iterations))
	offsets := Offsets(rad)
	gen := rand.NewXorshift(s.Seed)

	var blockLeft [3]float64
	for k := 0; k < 3; k++ {
		blockLeft[k] = cells.Left[k] - float64(cells.Origin[k])*dx
	}

	n0, total := p.Len(), 0
	for i := 0; i < n0; i++ {
		typ := p.Type[i]
		if p.Mass[i] <= 0 || !(typ <= Star || typ == MustRefine) {
			continue
		}

		pos := p.Pos(i)
		if !region.ContainsClosed(pos) || !inBlock(pos, blockLeft, dx, cells.Dims) {
			continue
		}
		if total+ChildrenPerParent > maxNew {
			return total, fmt.Errorf(
				"%w: splitting parent %d would create %d children, but the "+
					"maximum is %d", ErrBudget, i, total+ChildrenPerParent, maxNew,
			)
		}

		p.Mass[i] /= ChildrenPerParent + 1
		if typ == DarkMatter && len(p.Attributes) > 0 &&
			p.Attributes[0][i] <= 0 {
			p.Attributes[0][i] = tinyNumber
		}

		alpha := [3]float64{gen.Angle(), gen.Angle(), gen.Angle()}
		rot := geom.EulerMatrix(alpha[0], alpha[1], alpha[2])

		parent := p.At(i)
		for c := 0; c < ChildrenPerParent; c++ {
			d := geom.Rotate(rot, offsets[c])
			child := parent
			child.Number = Unassigned
			child.Attributes = append([]float64{}, parent.Attributes...)
			for k := 0; k < 3; k++ {
				child.Position[k] = pos[k] + d[k]
			}

			if !domain.ContainsClosed(child.Position) {
				return total, outsideError(parent, child, c, alpha, rot, offsets[c])
			}
			p.Append(child)
		}

		total += ChildrenPerParent
	}

	log.WithFields(logrus.Fields{
		"children": total,
		"parents":  total / ChildrenPerParent,
		"region":   region.String(),
	}).Debug("Split particles.")

	return total, nil
}

func inBlock(pos, left [3]float64, dx float64, dims [3]int) bool {
	for k := 0; k < 3; k++ {
		idx := int((pos[k] - left[k]) / dx)
		if pos[k] < left[k] || idx >= dims[k] {
			return false
		}
	}
	return true
}

func outsideError(
	parent, child Particle, c int, alpha [3]float64, rot *mat.Dense,
	offset [3]float64,
) error {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%v: child %d of parent at (%g, %g, %g) placed at "+
		"(%g, %g, %g)\n", ErrOutsideDomain, c,
		parent.Position[0], parent.Position[1], parent.Position[2],
		child.Position[0], child.Position[1], child.Position[2])
	fmt.Fprintf(sb, "alpha = (%g, %g, %g)\n", alpha[0], alpha[1], alpha[2])
	fmt.Fprintf(sb, "offset = (%g, %g, %g)\n", offset[0], offset[1], offset[2])
	fmt.Fprintf(sb, "rotation =\n%v", mat.Formatted(rot, mat.Prefix(" ")))
	return &domainError{msg: sb.String()}
}

type domainError struct{ msg string }

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return ErrOutsideDomain }
