package flagging

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/enzoref/grid"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

// ErrNoMethod is returned when no flagging method could run on a grid.
var ErrNoMethod = errors.New("No valid CellFlaggingMethod specified")

// Engine fills in the flagging field of grids.
type Engine struct {
	Config   *Config
	Registry *Registry
	// Metrics may be nil.
	Metrics *Metrics
	Log     logrus.FieldLogger
}

// NewEngine returns an Engine using the built-in evaluators.
func NewEngine(cfg *Config, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{Config: cfg, Registry: DefaultRegistry(), Log: log}
}

// SetFlaggingField resets g's flagging field and runs every method which
// applies to it at this timestep. Flags are clamped to 0 or 1 and the
// number of flagged cells is returned. Running it twice on the same grid
// and state gives the same flags.
func (e *Engine) SetFlaggingField(g *grid.Grid, st *regions.State) (int, error) {
	cfg := e.Config
	level := g.Level

	var regs []regions.Region
	if st != nil {
		regs = st.Regions
	}
	table := regions.Resolve(g.Box(), level, regs, cfg.Defaults())

	g.AllocateFlags()
	ctx := &Context{
		Grid: g, Level: level, Table: &table, State: st, Config: cfg,
	}

	particleOnly := cfg.particleOnly()
	restrict := level == cfg.MRPRefineToLevel &&
		cfg.MRPCreateParticles > 0 && !particleOnly

	ran := false
	pmethod := methods.Undefined
	for _, entry := range table.Entries {
		id := entry.Method
		if level < cfg.MRPRefineToLevel && cfg.MRPCreateParticles != 0 &&
			id != methods.ParticleMass && id != methods.NoOp {
			continue
		}

		if id == methods.ParticleMass {
			pmethod = id
			if restrict {
				continue
			}
		}

		ctx.Entry = entry
		if err := e.run(ctx, id); err != nil {
			return -1, err
		}
		ran = true
	}

	if restrict && pmethod != methods.Undefined {
		ctx.Entry, _ = table.Lookup(pmethod)
		ctx.Restrict = true
		if err := e.run(ctx, pmethod); err != nil {
			return -1, err
		}
		ran = true
	}

	if !ran {
		return -1, fmt.Errorf("Grid %d on level %d: %w.", g.ID, level, ErrNoMethod)
	}

	n := g.ClampFlags()
	e.Metrics.observePass()
	e.logger().WithFields(logrus.Fields{
		"grid": g.ID, "level": level, "flagged": n, "restrict": restrict,
	}).Debug("Flagged grid.")
	return n, nil
}

func (e *Engine) run(ctx *Context, id methods.ID) error {
	ev, err := e.Registry.Lookup(id)
	if err != nil {
		return fmt.Errorf("Grid %d: %w", ctx.Grid.ID, err)
	}
	n, err := ev.Flag(ctx)
	if err != nil {
		return fmt.Errorf("Method %v on grid %d: %w", id, ctx.Grid.ID, err)
	} else if n < 0 {
		return fmt.Errorf("Method %v failed on grid %d (count = %d).",
			id, ctx.Grid.ID, n)
	}
	e.Metrics.observeMethod(id, n)
	return nil
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
