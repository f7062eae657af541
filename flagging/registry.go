/*package flagging decides which cells of a grid need refinement. Each
flagging method has an Evaluator; the Engine resolves which methods apply
to a grid and ORs their flags together.
*/
package flagging

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/enzoref/grid"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

var (
	// ErrUnknownMethod is returned for method IDs that don't exist.
	ErrUnknownMethod = errors.New("unknown flagging method")
	// ErrNoEvaluator is returned for known methods that have no registered
	// Evaluator.
	ErrNoEvaluator = errors.New("no evaluator for flagging method")
)

// Context is everything an Evaluator may look at while flagging one grid.
type Context struct {
	Grid   *grid.Grid
	Level  int
	Entry  regions.Entry
	Table  *regions.Table
	State  *regions.State
	Config *Config

	// Restrict is set on the corrective particle pass: flags are kept only
	// where must-refine particles are.
	Restrict bool
}

// Evaluator flags cells of ctx.Grid. It returns the number of cells it
// flagged, or an error.
type Evaluator interface {
	Flag(ctx *Context) (int, error)
}

// EvaluatorFunc lets a function be used as an Evaluator.
type EvaluatorFunc func(ctx *Context) (int, error)

func (f EvaluatorFunc) Flag(ctx *Context) (int, error) { return f(ctx) }

// Registry maps method IDs to Evaluators.
type Registry struct {
	evals map[methods.ID]Evaluator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{evals: map[methods.ID]Evaluator{}}
}

// DefaultRegistry returns a Registry containing the built-in evaluators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister(methods.NoOp, EvaluatorFunc(flagNoOp))
	r.mustRegister(methods.BaryonMass, EvaluatorFunc(flagBaryonMass))
	r.mustRegister(methods.ParticleMass, EvaluatorFunc(flagParticleMass))
	r.mustRegister(methods.MustRefineParticles, EvaluatorFunc(flagNoOp))
	r.mustRegister(methods.MustRefineMass, EvaluatorFunc(flagNoOp))
	r.mustRegister(methods.MustRefineRegion, regionFlagger(methods.MustRefineRegion))
	r.mustRegister(methods.Metallicity, EvaluatorFunc(flagMetallicity))
	r.mustRegister(methods.Shockwaves, EvaluatorFunc(flagShockwaves))
	r.mustRegister(methods.MultiRefineRegion, regionFlagger(methods.MultiRefineRegion))
	return r
}

// Register sets the Evaluator for id, replacing any earlier one.
func (r *Registry) Register(id methods.ID, ev Evaluator) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(id))
	}
	r.evals[id] = ev
	return nil
}

func (r *Registry) mustRegister(id methods.ID, ev Evaluator) {
	if err := r.Register(id, ev); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the Evaluator for id.
func (r *Registry) Lookup(id methods.ID) (Evaluator, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(id))
	}
	ev, ok := r.evals[id]
	if !ok {
		return nil, fmt.Errorf("%w %v (%d)", ErrNoEvaluator, id, int(id))
	}
	return ev, nil
}

// Registered returns true if id has an Evaluator.
func (r *Registry) Registered(id methods.ID) bool {
	_, ok := r.evals[id]
	return ok
}
