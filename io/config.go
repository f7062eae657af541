package io

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

// ErrConfig is returned for malformed parameter and region files.
var ErrConfig = errors.New("invalid configuration")

const (
	ExampleParameterFile = `[Refinement]

#######################
# Required Parameters #
#######################

# The deepest level that any grid may be refined to.
MaximumRefinementLevel = 6

# Global flagging methods. Each method goes on its own line. Methods that
# only appear in regions are added automatically.
#  0 - No-op         2 - Baryon mass        4 - Particle mass
#  8 - Must-refine particles               12 - MustRefineRegion
# 13 - Metallicity  14 - Shockwaves         20 - MultiRefineRegion
CellFlaggingMethod = 2
CellFlaggingMethod = 4

#######################
# Optional Parameters #
#######################

# RefineBy = 2

# Mass thresholds, parallel to CellFlaggingMethod. The threshold at level L
# is MinimumMassForRefinement * RefineBy^(L * Exponent).
# MinimumMassForRefinement = 1e-4
# MinimumMassForRefinement = 1e-5
# MinimumMassForRefinementLevelExponent = 0
# MinimumMassForRefinementLevelExponent = 0

# Evolving MultiRefineRegion tracks. The format is either "text" or "cdf".
# TimeType is 0 for code time and 1 for redshift. It only applies to text
# files: cdf files store their own time type.
# MultiRefineRegionFile = tracks.txt
# MultiRefineRegionFileFormat = text
# MultiRefineRegionTimeType = 0

# Cells are refined to at least the minimum outer level when no region
# asks for more. The maximum outer level defaults to
# MaximumRefinementLevel and does not affect flagging.
# MultiRefineRegionMinimumOuterLevel = 0
# MultiRefineRegionMaximumOuterLevel = 6

# MultiRefineRegionSpatiallyVaryingStarMass = false
# StarMakerMinimumMass = 1e9

# MetallicityRefinementMinLevel = 0
# MetallicityRefinementMinMetallicity = 1e-5
# MetallicityRefinementMinDensity = 0
# ShockwaveRefinementMaxLevel = 0
# ShockwaveRefinementMinMach = 1.3

# MustRefineParticlesRefineToLevel = 0
# MustRefineParticlesCreateParticles = 0

# Static RefineRegion, as six numbers: the left edge then the right edge.
# StaticRefineRegion = 0
# StaticRefineRegion = 0
# StaticRefineRegion = 0
# StaticRefineRegion = 1
# StaticRefineRegion = 1
# StaticRefineRegion = 1

# MaxTracks = 0
# MaxTimeEntries = 0
# MaxFlaggingMethods = 9

[MultiRefineRegion "halo"]
XLeft = 0.4
YLeft = 0.4
ZLeft = 0.4
XRight = 0.6
YRight = 0.6
ZRight = 0.6
FlaggingMethod = 20
MinimumLevel = 2
MaximumLevel = 4
# MinimumStarMass = 0

# [EvolveRegion "MustRefineRegion"]
# File = must_refine.txt
# TimeType = 0

# [Cosmology]
# ComovingCoordinates = true
# InitialRedshift = 99
# ExpansionFile = expansion.txt

# [Bounds]
# ApplyDensityFloor = true
# DensityFloor = 1e-5
# ApplyDensityCeiling = true
# DensityCeiling = 1e15
# ApplyInternalEnergyFloor = false
# InternalEnergyFloor = 1e-20
# ApplyInternalEnergyCeiling = true
# InternalEnergyCeiling = 1e10
# ApplyVelocityCeiling = true
# VelocityCeiling = 1e5
# HydrogenFractionByMass = 0.76

# [ParticleSplitter]
# ChildrenParticleSeparation = 1
# Iterations = 1
# RandomSeed = 0
# Fraction = 1
# CenterX = -1
# CenterY = -1
# CenterZ = -1
# CenterRegion = -1
# MaximumNumberOfNewParticles = 1000000

# [ShockTube]
# Cells = 100
# InitialDiscontinuity = 0.5
# SecondDiscontinuity = -1
# LeftDensity = 1
# LeftPressure = 1
# RightDensity = 0.125
# RightPressure = 0.1
# Gamma = 1.4`
)

type RefinementConfig struct {
	// Required
	MaximumRefinementLevel int
	CellFlaggingMethod     []int

	// Optional
	RefineBy                              float64
	MinimumMassForRefinement              []float64
	MinimumMassForRefinementLevelExponent []float64

	MultiRefineRegionFile                     string
	MultiRefineRegionFileFormat               string
	MultiRefineRegionTimeType                 int
	MultiRefineRegionMinimumOuterLevel        int
	MultiRefineRegionMaximumOuterLevel        int
	MultiRefineRegionSpatiallyVaryingStarMass bool
	StarMakerMinimumMass                      float64

	MetallicityRefinementMinLevel       int
	MetallicityRefinementMinMetallicity float64
	MetallicityRefinementMinDensity     float64
	ShockwaveRefinementMaxLevel         int
	ShockwaveRefinementMinMach          float64

	MustRefineParticlesRefineToLevel   int
	MustRefineParticlesCreateParticles int

	StaticRefineRegion []float64

	MaxTracks, MaxTimeEntries, MaxFlaggingMethods int
}

func (con *RefinementConfig) ValidMaximumRefinementLevel() bool {
	return con.MaximumRefinementLevel >= 0
}
func (con *RefinementConfig) ValidRefineBy() bool {
	return con.RefineBy > 1
}
func (con *RefinementConfig) ValidMultiRefineRegionFile() bool {
	return con.MultiRefineRegionFile != ""
}
func (con *RefinementConfig) ValidMultiRefineRegionFileFormat() bool {
	f := strings.ToLower(con.MultiRefineRegionFileFormat)
	return f == "text" || f == "cdf"
}
func (con *RefinementConfig) ValidMultiRefineRegionTimeType() bool {
	t := regions.TimeBasis(con.MultiRefineRegionTimeType)
	return t == regions.CodeTime || t == regions.Redshift
}
func (con *RefinementConfig) ValidStaticRefineRegion() bool {
	return len(con.StaticRefineRegion) == 6
}

// FlaggingMethods returns CellFlaggingMethod as method IDs.
func (con *RefinementConfig) FlaggingMethods() ([]methods.ID, error) {
	return methods.FromInts(con.CellFlaggingMethod)
}

type StaticRegionConfig struct {
	// Required
	XLeft, YLeft, ZLeft, XRight, YRight, ZRight float64
	FlaggingMethod, MinimumLevel, MaximumLevel  []int

	// Optional
	MinimumStarMass float64
	Disabled        bool
}

type EvolveRegionConfig struct {
	File     string
	TimeType int
}

type CosmologyConfig struct {
	ComovingCoordinates bool
	InitialRedshift     float64
	ExpansionFile       string
}

func (con *CosmologyConfig) ValidExpansionFile() bool {
	return con.ExpansionFile != ""
}

type BoundsConfig struct {
	ApplyDensityFloor, ApplyDensityCeiling               bool
	DensityFloor, DensityCeiling                         float64
	ApplyInternalEnergyFloor, ApplyInternalEnergyCeiling bool
	InternalEnergyFloor, InternalEnergyCeiling           float64
	ApplyVelocityCeiling                                 bool
	VelocityCeiling                                      float64
	HydrogenFractionByMass                               float64
}

type ParticleSplitterConfig struct {
	ChildrenParticleSeparation  float64
	Iterations                  int
	RandomSeed                  int64
	Fraction                    float64
	CenterX, CenterY, CenterZ   float64
	CenterRegion                float64
	MaximumNumberOfNewParticles int
}

func (con *ParticleSplitterConfig) ValidChildrenParticleSeparation() bool {
	return con.ChildrenParticleSeparation > 0
}
func (con *ParticleSplitterConfig) ValidIterations() bool {
	return con.Iterations >= 0
}
func (con *ParticleSplitterConfig) ValidFraction() bool {
	return con.Fraction > 0 && con.Fraction <= 1
}
func (con *ParticleSplitterConfig) ValidMaximumNumberOfNewParticles() bool {
	return con.MaximumNumberOfNewParticles > 0
}

type ShockTubeConfig struct {
	Cells int

	InitialDiscontinuity, SecondDiscontinuity float64

	LeftDensity, LeftPressure                   float64
	LeftVelocityX, LeftVelocityY, LeftVelocityZ float64

	RightDensity, RightPressure                    float64
	RightVelocityX, RightVelocityY, RightVelocityZ float64

	CenterDensity, CenterPressure                     float64
	CenterVelocityX, CenterVelocityY, CenterVelocityZ float64

	Gamma               float64
	Rank                int
	DualEnergyFormalism bool
	ShockMethod         bool
	StorePreShockFields bool
	TracerFluidFields   int
}

func (con *ShockTubeConfig) ValidCells() bool {
	return con.Cells > 0
}

// ParameterWrapper is the full contents of a parameter file.
type ParameterWrapper struct {
	Refinement        RefinementConfig
	MultiRefineRegion map[string]*StaticRegionConfig
	EvolveRegion      map[string]*EvolveRegionConfig
	Cosmology         CosmologyConfig
	Bounds            BoundsConfig
	ParticleSplitter  ParticleSplitterConfig
	ShockTube         ShockTubeConfig
}

// DefaultParameterWrapper returns a wrapper with every optional parameter
// set to its default. Multi-valued parameters are left empty, since gcfg
// appends to them.
func DefaultParameterWrapper() *ParameterWrapper {
	ref := RefinementConfig{}
	ref.RefineBy = 2
	ref.MultiRefineRegionFileFormat = "text"
	ref.MultiRefineRegionTimeType = int(regions.CodeTime)
	ref.MultiRefineRegionMaximumOuterLevel = -1
	ref.StarMakerMinimumMass = 1e9
	ref.MetallicityRefinementMinMetallicity = 1e-5
	ref.ShockwaveRefinementMinMach = 1.3
	ref.MaxFlaggingMethods = 9

	bc := BoundsConfig{}
	bc.ApplyDensityFloor, bc.ApplyDensityCeiling = true, true
	bc.DensityFloor, bc.DensityCeiling = 1e-5, 1e15
	bc.ApplyInternalEnergyCeiling = true
	bc.InternalEnergyFloor, bc.InternalEnergyCeiling = 1e-20, 1e10
	bc.ApplyVelocityCeiling, bc.VelocityCeiling = true, 1e5
	bc.HydrogenFractionByMass = 0.76

	ps := ParticleSplitterConfig{}
	ps.ChildrenParticleSeparation = 1
	ps.Iterations = 1
	ps.Fraction = 1
	ps.CenterX, ps.CenterY, ps.CenterZ = -1, -1, -1
	ps.CenterRegion = -1
	ps.MaximumNumberOfNewParticles = 1000000

	st := ShockTubeConfig{}
	st.Cells = 100
	st.InitialDiscontinuity, st.SecondDiscontinuity = 0.5, -1
	st.LeftDensity, st.RightDensity, st.CenterDensity = 1, 1, 1
	st.LeftPressure, st.RightPressure, st.CenterPressure = 1, 1, 1
	st.Gamma = 5.0 / 3
	st.Rank = 1

	return &ParameterWrapper{
		Refinement:       ref,
		Bounds:           bc,
		ParticleSplitter: ps,
		ShockTube:        st,
	}
}

// ReadParameters reads and checks a parameter file.
func ReadParameters(fname string) (*ParameterWrapper, error) {
	wrap := DefaultParameterWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err.Error())
	}
	wrap.fillDefaults()
	if err := wrap.Check(); err != nil {
		return nil, err
	}
	return wrap, nil
}

// ReadParameterString is ReadParameters for a parameter file held in
// memory.
func ReadParameterString(text string) (*ParameterWrapper, error) {
	wrap := DefaultParameterWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err.Error())
	}
	wrap.fillDefaults()
	if err := wrap.Check(); err != nil {
		return nil, err
	}
	return wrap, nil
}

func (wrap *ParameterWrapper) fillDefaults() {
	ref := &wrap.Refinement
	if len(ref.CellFlaggingMethod) == 0 {
		ref.CellFlaggingMethod = []int{int(methods.NoOp)}
	}
	if ref.MultiRefineRegionMaximumOuterLevel < 0 {
		ref.MultiRefineRegionMaximumOuterLevel = ref.MaximumRefinementLevel
	}
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Check returns an error describing the first invalid parameter.
func (wrap *ParameterWrapper) Check() error {
	ref := &wrap.Refinement
	switch {
	case !ref.ValidMaximumRefinementLevel():
		return configErrorf("MaximumRefinementLevel = %d is negative.",
			ref.MaximumRefinementLevel)
	case !ref.ValidRefineBy():
		return configErrorf("RefineBy = %g, but it must be larger than 1.",
			ref.RefineBy)
	case !ref.ValidMultiRefineRegionFileFormat():
		return configErrorf("MultiRefineRegionFileFormat = '%s', but only "+
			"'text' and 'cdf' are supported.", ref.MultiRefineRegionFileFormat)
	case !ref.ValidMultiRefineRegionTimeType():
		return configErrorf("MultiRefineRegionTimeType = %d, but it must "+
			"be 0 or 1.", ref.MultiRefineRegionTimeType)
	case len(ref.StaticRefineRegion) > 0 && !ref.ValidStaticRefineRegion():
		return configErrorf("StaticRefineRegion has %d values, but needs 6.",
			len(ref.StaticRefineRegion))
	case len(ref.MinimumMassForRefinement) > len(ref.CellFlaggingMethod):
		return configErrorf("%d MinimumMassForRefinement values given for "+
			"%d methods.", len(ref.MinimumMassForRefinement),
			len(ref.CellFlaggingMethod))
	case len(ref.MinimumMassForRefinementLevelExponent) >
		len(ref.CellFlaggingMethod):
		return configErrorf("%d MinimumMassForRefinementLevelExponent "+
			"values given for %d methods.",
			len(ref.MinimumMassForRefinementLevelExponent),
			len(ref.CellFlaggingMethod))
	case ref.MaxFlaggingMethods > 0 &&
		len(ref.CellFlaggingMethod) > ref.MaxFlaggingMethods:
		return configErrorf("%d CellFlaggingMethods given, but "+
			"MaxFlaggingMethods = %d.", len(ref.CellFlaggingMethod),
			ref.MaxFlaggingMethods)
	}

	if _, err := ref.FlaggingMethods(); err != nil {
		return fmt.Errorf("%w: CellFlaggingMethod: %s", ErrConfig, err.Error())
	}

	for name, reg := range wrap.MultiRefineRegion {
		if err := reg.check(name); err != nil {
			return err
		}
	}
	for name, ev := range wrap.EvolveRegion {
		if _, ok := regions.FamilyFromName(name); !ok {
			return configErrorf("Unrecognized EvolveRegion '%s'. Only "+
				"RefineRegion, MustRefineRegion, and CoolingRefineRegion "+
				"are supported.", name)
		} else if ev.File == "" {
			return configErrorf("EvolveRegion '%s' has no File.", name)
		}
		b := regions.TimeBasis(ev.TimeType)
		if b != regions.CodeTime && b != regions.Redshift {
			return configErrorf("EvolveRegion '%s' has TimeType = %d, but "+
				"it must be 0 or 1.", name, ev.TimeType)
		}
	}

	if wrap.Cosmology.ComovingCoordinates &&
		!wrap.Cosmology.ValidExpansionFile() {
		return configErrorf("ComovingCoordinates is set, but no " +
			"ExpansionFile was given.")
	}

	ps := &wrap.ParticleSplitter
	switch {
	case !ps.ValidChildrenParticleSeparation():
		return configErrorf("ChildrenParticleSeparation = %g, but it must "+
			"be positive.", ps.ChildrenParticleSeparation)
	case !ps.ValidIterations():
		return configErrorf("Iterations = %d is negative.", ps.Iterations)
	case !ps.ValidFraction():
		return configErrorf("Fraction = %g is not in (0, 1].", ps.Fraction)
	case !ps.ValidMaximumNumberOfNewParticles():
		return configErrorf("MaximumNumberOfNewParticles = %d, but it "+
			"must be positive.", ps.MaximumNumberOfNewParticles)
	}

	if !wrap.ShockTube.ValidCells() {
		return configErrorf("ShockTube Cells = %d, but it must be positive.",
			wrap.ShockTube.Cells)
	}

	return nil
}

func (reg *StaticRegionConfig) check(name string) error {
	n := len(reg.FlaggingMethod)
	if n == 0 {
		return configErrorf("MultiRefineRegion '%s' has no FlaggingMethod.",
			name)
	} else if len(reg.MinimumLevel) != n || len(reg.MaximumLevel) != n {
		return configErrorf("MultiRefineRegion '%s' has %d methods, but "+
			"%d MinimumLevels and %d MaximumLevels.", name, n,
			len(reg.MinimumLevel), len(reg.MaximumLevel))
	}
	return nil
}
