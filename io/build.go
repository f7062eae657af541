package io

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/enzoref/bounds"
	"github.com/phil-mansfield/enzoref/cosmo"
	"github.com/phil-mansfield/enzoref/flagging"
	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/particles"
	"github.com/phil-mansfield/enzoref/regions"
	"github.com/phil-mansfield/enzoref/shocktube"
)

// Setup is every component configured by a parameter file.
type Setup struct {
	Params *ParameterWrapper

	Store        *regions.Store
	Interpolator *regions.Interpolator
	Flagging     *flagging.Config
	// Cosmology is nil unless ComovingCoordinates is set.
	Cosmology *cosmo.Cosmology

	Bounds          bounds.Config
	Splitter        *particles.Splitter
	MaxNewParticles int
	ShockTube       shocktube.Params
}

// Build reads every file referenced by wrap and constructs the components
// it describes.
func Build(wrap *ParameterWrapper, log logrus.FieldLogger) (*Setup, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ref := &wrap.Refinement
	s := &Setup{Params: wrap}

	static, err := StaticTracks(wrap, ref.MaximumRefinementLevel)
	if err != nil {
		return nil, err
	}
	tracks, err := readTracks(ref)
	if err != nil {
		return nil, err
	}

	lim := regions.Limits{
		MaxLevel:       ref.MaximumRefinementLevel,
		MaxTracks:      ref.MaxTracks,
		MaxTimeEntries: ref.MaxTimeEntries,
		MaxMethods:     ref.MaxFlaggingMethods,
	}
	if s.Store, err = regions.NewStore(static, tracks, lim); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if s.Flagging, err = flaggingConfig(ref, s.Store); err != nil {
		return nil, err
	}

	if wrap.Cosmology.ComovingCoordinates {
		s.Cosmology, err = ReadExpansionTable(
			wrap.Cosmology.ExpansionFile, wrap.Cosmology.InitialRedshift,
		)
		if err != nil {
			return nil, err
		}
	}

	if s.Interpolator, err = interpolator(wrap, s, log); err != nil {
		return nil, err
	}

	s.Bounds = boundsConfig(&wrap.Bounds)
	if err := s.Bounds.Check(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err.Error())
	}

	s.Splitter = splitter(&wrap.ParticleSplitter, ref, log)
	s.MaxNewParticles = wrap.ParticleSplitter.MaximumNumberOfNewParticles

	s.ShockTube = shockTube(&wrap.ShockTube)
	if err := s.ShockTube.Check(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err.Error())
	}

	log.WithFields(logrus.Fields{
		"static":  len(static),
		"tracks":  len(tracks),
		"methods": s.Flagging.Methods,
	}).Info("Read parameters.")

	return s, nil
}

// StaticTracks converts the MultiRefineRegion sections of wrap into
// single-keyframe tracks, ordered by section name.
func StaticTracks(wrap *ParameterWrapper, maxLevel int) ([]regions.Track, error) {
	names := make([]string, 0, len(wrap.MultiRefineRegion))
	for name := range wrap.MultiRefineRegion {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]regions.Track, len(names))
	for i, name := range names {
		reg := wrap.MultiRefineRegion[name]
		ids, err := methods.FromInts(reg.FlaggingMethod)
		if err != nil {
			return nil, fmt.Errorf("%w: MultiRefineRegion '%s': %s",
				ErrConfig, name, err.Error())
		}

		out[i] = regions.Track{
			Name:    name,
			Enabled: !reg.Disabled,
			Basis:   regions.Static,
			Methods: ids,
			Keyframes: []regions.Keyframe{{
				Box: geom.NewBox([6]float64{
					reg.XLeft, reg.YLeft, reg.ZLeft,
					reg.XRight, reg.YRight, reg.ZRight,
				}),
				MinLevel:    append([]int{}, reg.MinimumLevel...),
				MaxLevel:    append([]int{}, reg.MaximumLevel...),
				MinStarMass: reg.MinimumStarMass,
			}},
		}
		if err := out[i].Validate(maxLevel); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	return out, nil
}

func readTracks(ref *RefinementConfig) ([]regions.Track, error) {
	if !ref.ValidMultiRefineRegionFile() {
		return nil, nil
	}
	basis := regions.TimeBasis(ref.MultiRefineRegionTimeType)
	fname, maxLevel := ref.MultiRefineRegionFile, ref.MaximumRefinementLevel

	switch strings.ToLower(ref.MultiRefineRegionFileFormat) {
	case "cdf":
		return ReadTrackCDF(fname, basis, maxLevel)
	default:
		return ReadTrackText(fname, basis, maxLevel)
	}
}

func flaggingConfig(
	ref *RefinementConfig, store *regions.Store,
) (*flagging.Config, error) {
	global, err := ref.FlaggingMethods()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err.Error())
	}

	cfg := flagging.DefaultConfig()
	for i, m := range ref.MinimumMassForRefinement {
		cfg.MinimumMass[global[i]] = m
	}
	for i, exp := range ref.MinimumMassForRefinementLevelExponent {
		cfg.MassLevelExponent[global[i]] = exp
	}

	if cfg.Methods, err = store.RegisterMethods(global); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err.Error())
	}

	cfg.MaxLevel = ref.MaximumRefinementLevel
	cfg.RefineBy = ref.RefineBy
	cfg.OuterMinLevel = ref.MultiRefineRegionMinimumOuterLevel
	cfg.MetallicityMinLevel = ref.MetallicityRefinementMinLevel
	cfg.MetallicityMinMetallicity = ref.MetallicityRefinementMinMetallicity
	cfg.MetallicityMinDensity = ref.MetallicityRefinementMinDensity
	cfg.ShockwaveMaxLevel = ref.ShockwaveRefinementMaxLevel
	cfg.ShockwaveMinMach = ref.ShockwaveRefinementMinMach
	cfg.MRPRefineToLevel = ref.MustRefineParticlesRefineToLevel
	cfg.MRPCreateParticles = ref.MustRefineParticlesCreateParticles

	return &cfg, nil
}

func staticRefineRegion(ref *RefinementConfig) *geom.Box {
	if !ref.ValidStaticRefineRegion() {
		return nil
	}
	var xs [6]float64
	copy(xs[:], ref.StaticRefineRegion)
	box := geom.NewBox(xs)
	return &box
}

func interpolator(
	wrap *ParameterWrapper, s *Setup, log logrus.FieldLogger,
) (*regions.Interpolator, error) {
	ref := &wrap.Refinement
	in := &regions.Interpolator{
		Store:              s.Store,
		Evolving:           map[regions.Family]*regions.Track{},
		StaticRefineRegion: staticRefineRegion(ref),
		DefaultStarMass:    ref.StarMakerMinimumMass,
		VaryStarMass:       ref.MultiRefineRegionSpatiallyVaryingStarMass,
		Log:                log,
	}
	if s.Cosmology != nil {
		in.Redshift = s.Cosmology.Redshift
	}

	for name, ev := range wrap.EvolveRegion {
		fam, _ := regions.FamilyFromName(name)
		tr, err := ReadEvolvingRegion(
			ev.File, fam, regions.TimeBasis(ev.TimeType),
			ref.MaximumRefinementLevel,
		)
		if err != nil {
			return nil, err
		}
		in.Evolving[fam] = tr
	}

	return in, nil
}

func boundsConfig(con *BoundsConfig) bounds.Config {
	return bounds.Config{
		ApplyDensityFloor:          con.ApplyDensityFloor,
		ApplyDensityCeiling:        con.ApplyDensityCeiling,
		DensityFloor:               con.DensityFloor,
		DensityCeiling:             con.DensityCeiling,
		ApplyInternalEnergyFloor:   con.ApplyInternalEnergyFloor,
		ApplyInternalEnergyCeiling: con.ApplyInternalEnergyCeiling,
		InternalEnergyFloor:        con.InternalEnergyFloor,
		InternalEnergyCeiling:      con.InternalEnergyCeiling,
		ApplyVelocityCeiling:       con.ApplyVelocityCeiling,
		VelocityCeiling:            con.VelocityCeiling,
		HydrogenFractionByMass:     con.HydrogenFractionByMass,
	}
}

func splitter(
	con *ParticleSplitterConfig, ref *RefinementConfig, log logrus.FieldLogger,
) *particles.Splitter {
	rr := geom.NewBox([6]float64{0, 0, 0, 1, 1, 1})
	if box := staticRefineRegion(ref); box != nil {
		rr = *box
	}
	return &particles.Splitter{
		Separation:   con.ChildrenParticleSeparation,
		Iterations:   con.Iterations,
		Seed:         uint64(con.RandomSeed),
		Fraction:     con.Fraction,
		Center:       [3]float64{con.CenterX, con.CenterY, con.CenterZ},
		CenterRegion: con.CenterRegion,
		RefineRegion: rr,
		Log:          log,
	}
}

// SplitterAt returns the particle splitter for the regions resolved in st.
// The evolving RefineRegion replaces the static one when st has it.
func (s *Setup) SplitterAt(st *regions.State) *particles.Splitter {
	sp := *s.Splitter
	if st != nil && st.Refine != nil {
		sp.RefineRegion = *st.Refine
	}
	return &sp
}

func shockTube(con *ShockTubeConfig) shocktube.Params {
	p := shocktube.DefaultParams()
	p.InitialDiscontinuity = con.InitialDiscontinuity
	p.SecondDiscontinuity = con.SecondDiscontinuity
	p.Left = shocktube.State{
		Density: con.LeftDensity, Pressure: con.LeftPressure,
		Velocity: [3]float64{
			con.LeftVelocityX, con.LeftVelocityY, con.LeftVelocityZ,
		},
	}
	p.Center = shocktube.State{
		Density: con.CenterDensity, Pressure: con.CenterPressure,
		Velocity: [3]float64{
			con.CenterVelocityX, con.CenterVelocityY, con.CenterVelocityZ,
		},
	}
	p.Right = shocktube.State{
		Density: con.RightDensity, Pressure: con.RightPressure,
		Velocity: [3]float64{
			con.RightVelocityX, con.RightVelocityY, con.RightVelocityZ,
		},
	}
	p.Gamma = con.Gamma
	p.Rank = con.Rank
	p.DualEnergy = con.DualEnergyFormalism
	p.ShockMethod = con.ShockMethod
	p.StorePreShockFields = con.StorePreShockFields
	p.TracerFluids = con.TracerFluidFields
	return p
}
