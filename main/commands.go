package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/enzoref/bounds"
	"github.com/phil-mansfield/enzoref/flagging"
	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/grid"
	"github.com/phil-mansfield/enzoref/history"
	"github.com/phil-mansfield/enzoref/io"
	"github.com/phil-mansfield/enzoref/math/rand"
	"github.com/phil-mansfield/enzoref/particles"
	"github.com/phil-mansfield/enzoref/regions"
)

func setup(fname string) (*io.Setup, error) {
	wrap, err := io.ReadParameters(fname)
	if err != nil {
		return nil, err
	}
	return io.Build(wrap, log)
}

var exampleConfigCmd = &cobra.Command{
	Use:   "example-config",
	Short: "Print an example parameter file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(io.ExampleParameterFile)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <parameter file>",
	Short: "Read and validate a parameter file.",
	Long: `check reads a parameter file and every track, region and table
file it references, then prints a summary of the refinement setup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(args[0])
		if err != nil {
			return err
		}

		fmt.Print(describe(s))
		return nil
	},
}

// describe summarizes the refinement setup read by check.
func describe(s *io.Setup) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "CellFlaggingMethods: %v\n", s.Flagging.Methods)
	fmt.Fprintf(sb, "MaximumRefinementLevel: %d\n", s.Flagging.MaxLevel)
	for _, tr := range s.Store.Static {
		fmt.Fprintf(sb, "Static region %-12s %v %v\n", tr.Name,
			tr.Keyframes[0].Box, tr.Methods)
	}
	for _, tr := range s.Store.Tracks {
		if !tr.Enabled {
			fmt.Fprintf(sb, "Track %-12s disabled\n", tr.Name)
			continue
		}
		first, last := tr.Span()
		fmt.Fprintf(sb, "Track %-12s %v [%g, %g], %d time entries\n",
			tr.Name, tr.Basis, first, last, len(tr.Keyframes))
	}
	for _, fam := range []regions.Family{
		regions.FamilyRefine, regions.FamilyMustRefine, regions.FamilyCooling,
	} {
		if tr, ok := s.Interpolator.Evolving[fam]; ok && tr != nil {
			fmt.Fprintf(sb, "%v: %d time entries\n", fam, len(tr.Keyframes))
		}
	}
	return sb.String()
}

var (
	evolveStart, evolveEnd    float64
	evolveSteps               int
	evolvePlot, evolveHistory string
)

var evolveCmd = &cobra.Command{
	Use:   "evolve <parameter file>",
	Short: "Resolve every region over a range of code times.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(args[0])
		if err != nil {
			return err
		}

		var hs *history.Store
		if evolveHistory != "" {
			if hs, err = history.Open(evolveHistory, log); err != nil {
				return err
			}
			defer hs.Close()
		}

		series := map[string]regionSeries{}
		for i := 0; i < evolveSteps; i++ {
			t := evolveStart
			if evolveSteps > 1 {
				t += (evolveEnd - evolveStart) * float64(i) /
					float64(evolveSteps-1)
			}

			st, err := s.Interpolator.Step(t)
			if err != nil {
				return fmt.Errorf("Cycle %d, t = %g: %w", i, t, err)
			}
			fmt.Printf("%4d %12.6g %4d %12.6g\n",
				i, t, len(st.Regions), st.MinStarMass)

			for r := range st.Regions {
				reg := &st.Regions[r]
				series[reg.Name] = series[reg.Name].add(t, reg)
			}
			if hs != nil {
				if err := hs.Record(i, st); err != nil {
					return err
				}
			}
		}

		if evolvePlot != "" {
			plotRegions(evolvePlot, series)
		}
		return nil
	},
}

var (
	flagTiling            Tiling
	flagTime              float64
	flagBox               []float64
	flagDensity, flagMach float64
	flagMetallicity       float64
)

var flagCmd = &cobra.Command{
	Use:   "flag <parameter file>",
	Short: "Flag cells on uniform grids covering a box.",
	Long: `flag resolves the regions at --time, covers --box with uniform
grids at --level and sets their flagging fields. The grids have a constant
density, metallicity and Mach number.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(args[0])
		if err != nil {
			return err
		}
		if len(flagBox) != 6 {
			return fmt.Errorf("%w: --box has %d values, but needs 6",
				io.ErrConfig, len(flagBox))
		}

		st, err := s.Interpolator.Step(flagTime)
		if err != nil {
			return err
		}

		eng := flagging.NewEngine(s.Flagging, log)
		if eng.Metrics, err = flagging.NewMetrics(registry); err != nil {
			return err
		}

		tiling := flagTiling
		tiling.RefineBy = s.Flagging.RefineBy
		var xs [6]float64
		copy(xs[:], flagBox)
		grids, err := tiling.Grids(geom.NewBox(xs))
		if err != nil {
			return fmt.Errorf("%w: %s", io.ErrConfig, err.Error())
		}

		flagged, cells := 0, 0
		for _, g := range grids {
			fill(g, grid.Density, flagDensity)
			fill(g, grid.MetalDensity, flagMetallicity*flagDensity)
			fill(g, grid.Mach, flagMach)

			n, err := eng.SetFlaggingField(g, st)
			if err != nil {
				return fmt.Errorf("Grid %d: %w", g.ID, err)
			}
			log.WithFields(logrus.Fields{
				"grid": g.ID, "flagged": n,
				"starMass": st.StarMassFor(g.Box()),
			}).Debug("Grid minimum star mass.")
			flagged += n
			cells += g.Cells.Width[0] * g.Cells.Width[1] * g.Cells.Width[2]
		}

		log.WithFields(logrus.Fields{
			"grids": len(grids), "level": tiling.Level,
		}).Info("Set flagging fields.")
		fmt.Printf("Flagged %d of %d cells.\n", flagged, cells)
		fmt.Printf("Minimum star mass: %.6g\n", st.StarMassFor(geom.NewBox(xs)))
		if st.Refine != nil {
			fmt.Printf("RefineRegion: %v\n", *st.Refine)
		}
		if st.Cooling != nil {
			fmt.Printf("CoolingRefineRegion: %v\n", *st.Cooling)
		}
		return nil
	},
}

var boundsDensityScale float64

var boundsCmd = &cobra.Command{
	Use:   "bounds <parameter file>",
	Short: "Apply the bounds enforcer to a shock tube.",
	Long: `bounds initializes the [ShockTube] grid, multiplies its density
by --density-scale, and applies the [Bounds] floors and ceilings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(args[0])
		if err != nil {
			return err
		}

		g := Tube(s.Params.ShockTube.Cells)
		if err := s.ShockTube.Initialize(g); err != nil {
			return err
		}
		rho, _ := g.Field(grid.Density)
		floats.Scale(boundsDensityScale, rho)

		enf, err := bounds.New(s.Bounds, log)
		if err != nil {
			return err
		}
		rep, err := enf.Enforce(g)
		if err != nil {
			return err
		}

		fmt.Printf("Cells:           %d\n", rep.Cells)
		fmt.Printf("Density floor:   %d\n", rep.DensityFloor)
		fmt.Printf("Density ceiling: %d\n", rep.DensityCeiling)
		fmt.Printf("Energy floor:    %d\n", rep.EnergyFloor)
		fmt.Printf("Energy ceiling:  %d\n", rep.EnergyCeiling)
		fmt.Printf("Velocity:        %d\n", rep.Velocity)
		fmt.Printf("Total mass:      %.6g\n",
			floats.Sum(rho)*g.Cells.CellVolume())
		return nil
	},
}

var (
	splitParticles, splitCells int
	splitMass, splitTime       float64
)

var splitCmd = &cobra.Command{
	Use:   "split <parameter file>",
	Short: "Split random particles inside the split region.",
	Long: `split places random dark matter particles inside the split region
and splits them. If --time is given the evolving RefineRegion resolved at
that code time is used in place of the static one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(args[0])
		if err != nil {
			return err
		}

		sp := s.Splitter
		if cmd.Flags().Changed("time") {
			st, err := s.Interpolator.Step(splitTime)
			if err != nil {
				return err
			}
			sp = s.SplitterAt(st)
		}

		tiling := Tiling{RootCells: splitCells, RefineBy: 2, Cells: splitCells}
		grids, err := tiling.Grids(geom.NewBox([6]float64{0, 0, 0, 1, 1, 1}))
		if err != nil {
			return err
		}
		g := grids[0]

		p := randomParticles(sp, splitParticles, splitMass)
		before := floats.Sum(p.Mass)

		n, err := sp.Split(p, tiling.CellWidth(), g.Cells, s.MaxNewParticles)
		if err != nil {
			return err
		}

		fmt.Printf("Split region: %v\n", sp.Region())
		fmt.Printf("Created %d children from %d parents.\n",
			n, n/particles.ChildrenPerParent)
		fmt.Printf("Mass before: %.10g, after: %.10g\n",
			before, floats.Sum(p.Mass))
		return nil
	},
}

// randomParticles places n dark matter particles uniformly inside the
// split region.
func randomParticles(sp *particles.Splitter, n int, m float64) *particles.Particles {
	gen := rand.NewXorshift(sp.Seed + 1)
	box := sp.Region()
	p := particles.New(1, true)
	for i := 0; i < n; i++ {
		q := particles.Particle{
			Mass: m, InitialMass: m, Type: particles.DarkMatter,
			Number: int64(i), Attributes: []float64{0},
		}
		for k := 0; k < 3; k++ {
			q.Position[k] = box.Left[k] + gen.Uniform()*(box.Right[k]-box.Left[k])
		}
		p.Append(q)
	}
	return p
}

var shockTubePlot string

var shockTubeCmd = &cobra.Command{
	Use:   "shocktube <parameter file>",
	Short: "Initialize the [ShockTube] grid and print its cells.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(args[0])
		if err != nil {
			return err
		}

		g := Tube(s.Params.ShockTube.Cells)
		if err := s.ShockTube.Initialize(g); err != nil {
			return err
		}
		rho, _ := g.Field(grid.Density)
		te, _ := g.Field(grid.TotalEnergy)

		var xs, rhos, ps []float64
		g.Cells.ActiveIdxs(func(idx, x, y, z int) {
			pos := g.Cells.CellCenter(x, y, z)
			st := s.ShockTube.StateAt(pos[0])
			fmt.Printf("%10.5f %12.6g %12.6g %12.6g\n",
				pos[0], rho[idx], st.Pressure, te[idx])
			xs = append(xs, pos[0])
			rhos = append(rhos, rho[idx])
			ps = append(ps, st.Pressure)
		})

		if shockTubePlot != "" {
			plotTube(shockTubePlot, xs, rhos, ps)
		}
		return nil
	},
}

var feedbackMetallicity, feedbackAge float64

var feedbackCmd = &cobra.Command{
	Use:   "feedback <table file>",
	Short: "Look up pre-supernova feedback rates.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := io.ReadFeedbackTable(args[0])
		if err != nil {
			return err
		}
		y := tab.Lookup(feedbackMetallicity, feedbackAge)
		fmt.Printf("Wind mass rate:       %.6g\n", y.MassRate)
		fmt.Printf("Wind metal mass rate: %.6g\n", y.MetalMassRate)
		fmt.Printf("Momentum:             %.6g\n", y.Momentum)
		return nil
	},
}

var (
	convertTimeType int
	convertMaxLevel int
)

func isCDF(fname string) bool {
	ext := strings.ToLower(filepath.Ext(fname))
	return ext == ".nc" || ext == ".cdf"
}

var convertTracksCmd = &cobra.Command{
	Use:   "convert-tracks <input> <output>",
	Short: "Convert a track file between the text and netCDF formats.",
	Long: `convert-tracks reads a track file and writes it in the other
format. Files ending in .nc or .cdf are netCDF, everything else is text.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]
		basis := regions.TimeBasis(convertTimeType)

		var tracks []regions.Track
		var err error
		if isCDF(in) {
			tracks, err = io.ReadTrackCDF(in, basis, convertMaxLevel)
		} else {
			tracks, err = io.ReadTrackText(in, basis, convertMaxLevel)
		}
		if err != nil {
			return err
		}

		if isCDF(out) {
			err = io.WriteTrackCDF(out, tracks)
		} else {
			err = io.WriteTrackText(out, tracks)
		}
		if err != nil {
			return fmt.Errorf("%w: %s", io.ErrConfig, err.Error())
		}

		log.WithFields(logrus.Fields{
			"tracks": len(tracks), "output": out,
		}).Info("Converted tracks.")
		return nil
	},
}

var historyFrom, historyTo int

var historyCmd = &cobra.Command{
	Use:   "history <directory>",
	Short: "Print region snapshots recorded by evolve --history.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hs, err := history.Open(args[0], log)
		if err != nil {
			return err
		}
		defer hs.Close()

		return hs.Range(historyFrom, historyTo, func(snap *history.Snapshot) error {
			st := &snap.State
			fmt.Printf("Cycle %d, t = %g, min star mass = %g\n",
				snap.Cycle, st.CodeTime, st.MinStarMass)
			for _, reg := range st.Regions {
				fmt.Printf("    %-12s %v %v\n", reg.Name, reg.Box, reg.Methods)
			}
			return nil
		})
	},
}

func init() {
	ef := evolveCmd.Flags()
	ef.Float64Var(&evolveStart, "start", 0, "First code time.")
	ef.Float64Var(&evolveEnd, "end", 1, "Last code time.")
	ef.IntVar(&evolveSteps, "steps", 11, "Number of times to resolve at.")
	ef.StringVar(&evolvePlot, "plot", "", "Plot region extents to this file.")
	ef.StringVar(&evolveHistory, "history", "",
		"Record every cycle to a history store in this directory.")

	ff := flagCmd.Flags()
	ff.IntVar(&flagTiling.Level, "level", 0, "Level of the grids.")
	ff.IntVar(&flagTiling.RootCells, "root-cells", 16,
		"Number of root grid cells along each axis.")
	ff.IntVar(&flagTiling.Cells, "cells", 16,
		"Largest number of active cells along each axis of a grid.")
	ff.Float64Var(&flagTime, "time", 0, "Code time to resolve regions at.")
	ff.Float64SliceVar(&flagBox, "box", []float64{0, 0, 0, 1, 1, 1},
		"Box to cover, as xl,yl,zl,xr,yr,zr.")
	ff.Float64Var(&flagDensity, "density", 1, "Gas density.")
	ff.Float64Var(&flagMetallicity, "metallicity", 0, "Metal mass fraction.")
	ff.Float64Var(&flagMach, "mach", 0, "Mach number.")

	boundsCmd.Flags().Float64Var(&boundsDensityScale, "density-scale", 1,
		"Factor the shock tube density is multiplied by before enforcement.")

	sf := splitCmd.Flags()
	sf.IntVar(&splitParticles, "particles", 1000, "Number of parents.")
	sf.IntVar(&splitCells, "cells", 16, "Root grid cells along each axis.")
	sf.Float64Var(&splitMass, "mass", 1, "Mass of each parent.")
	sf.Float64Var(&splitTime, "time", 0,
		"Code time the evolving RefineRegion is resolved at.")

	shockTubeCmd.Flags().StringVar(&shockTubePlot, "plot", "",
		"Plot density and pressure to this file.")

	fb := feedbackCmd.Flags()
	fb.Float64Var(&feedbackMetallicity, "metallicity", 0.02,
		"Initial metal fraction.")
	fb.Float64Var(&feedbackAge, "age", 1, "Population age.")

	cf := convertTracksCmd.Flags()
	cf.IntVar(&convertTimeType, "time-type", int(regions.CodeTime),
		"Time type of text tracks: 0 for code time, 1 for redshift.")
	cf.IntVar(&convertMaxLevel, "max-level", 64,
		"Deepest level that tracks are checked against.")

	hf := historyCmd.Flags()
	hf.IntVar(&historyFrom, "from", 0, "First cycle.")
	hf.IntVar(&historyTo, "to", 1<<30, "Cycle after the last one.")
}
