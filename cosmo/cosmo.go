/*package cosmo converts code time to redshift using a tabulated expansion
history. Expansion factors are in code units, where a = 1 at the initial
redshift.
*/
package cosmo

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/enzoref/math/interpolate"
)

// ErrOutOfTable is returned for times the expansion table doesn't cover.
var ErrOutOfTable = errors.New("time outside of expansion table")

// Cosmology is an expansion history.
type Cosmology struct {
	InitialRedshift float64
	T, A            []float64

	a *interpolate.Linear
}

// New creates a Cosmology from a table of code times, t, and code-unit
// expansion factors, a.
func New(initialRedshift float64, t, a []float64) (*Cosmology, error) {
	if len(t) != len(a) {
		return nil, fmt.Errorf("Expansion table has %d times but %d "+
			"expansion factors.", len(t), len(a))
	} else if len(t) < 2 {
		return nil, fmt.Errorf("Expansion table has %d rows, but needs at "+
			"least two.", len(t))
	} else if initialRedshift < 0 {
		return nil, fmt.Errorf("InitialRedshift = %g, but it must be "+
			"non-negative.", initialRedshift)
	}

	for i := range t {
		if a[i] <= 0 {
			return nil, fmt.Errorf("Expansion factor %g in row %d of "+
				"the expansion table is not positive.", a[i], i)
		}
		if i > 0 && t[i] <= t[i-1] {
			return nil, fmt.Errorf("Times in the expansion table are not "+
				"strictly increasing at row %d.", i)
		}
	}

	return &Cosmology{
		InitialRedshift: initialRedshift, T: t, A: a,
		a: interpolate.NewLinear(t, a),
	}, nil
}

// ExpansionFactor returns a(t) in code units.
func (c *Cosmology) ExpansionFactor(t float64) (float64, error) {
	if !c.a.InRange(t) {
		return 0, fmt.Errorf("%w: t = %g is outside [%g, %g]",
			ErrOutOfTable, t, c.T[0], c.T[len(c.T)-1])
	}
	return c.a.Eval(t), nil
}

// Redshift returns the redshift at code time t.
func (c *Cosmology) Redshift(t float64) (float64, error) {
	a, err := c.ExpansionFactor(t)
	if err != nil {
		return 0, err
	}
	return (1+c.InitialRedshift)/a - 1, nil
}
