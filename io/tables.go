package io

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/enzoref/cosmo"
	"github.com/phil-mansfield/enzoref/feedback"
	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

// ReadEvolvingRegion reads the keyframes of a single evolving region.
// Rows are "time xl yl zl xr yr zr" followed, for MustRefineRegion, by the
// minimum level. CoolingRefineRegion files carry an unused eighth column.
func ReadEvolvingRegion(
	fname string, fam regions.Family, basis regions.TimeBasis, maxLevel int,
) (*regions.Track, error) {
	colIdxs := []int{0, 1, 2, 3, 4, 5, 6}
	if fam == regions.FamilyMustRefine {
		colIdxs = append(colIdxs, 7)
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}
	if len(cols[0]) == 0 {
		return nil, fmt.Errorf("%w: '%s' has no rows", ErrConfig, fname)
	}

	tr := &regions.Track{Name: fam.String(), Enabled: true, Basis: basis}
	if fam == regions.FamilyMustRefine {
		tr.Methods = []methods.ID{methods.MustRefineRegion}
	}

	for i := range cols[0] {
		kf := regions.Keyframe{
			Time: cols[0][i],
			Box: geom.NewBox([6]float64{
				cols[1][i], cols[2][i], cols[3][i],
				cols[4][i], cols[5][i], cols[6][i],
			}),
		}
		if fam == regions.FamilyMustRefine {
			kf.MinLevel = []int{int(cols[7][i])}
			kf.MaxLevel = []int{maxLevel}
		}
		tr.Keyframes = append(tr.Keyframes, kf)
	}

	if err := tr.Validate(maxLevel); err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", ErrConfig, fname, err)
	}
	return tr, nil
}

// ReadExpansionTable reads a two-column "t a" table of code times and
// code-unit expansion factors.
func ReadExpansionTable(fname string, initialRedshift float64) (*cosmo.Cosmology, error) {
	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}
	c, err := cosmo.New(initialRedshift, cols[0], cols[1])
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}
	return c, nil
}

const (
	feedbackMet      = "indexer_initial_metal_fraction"
	feedbackAge      = "indexer_population_age"
	feedbackMass     = "SB99_models_wind_mass_rate"
	feedbackMetal    = "SB99_models_wind_metal_mass_rate"
	feedbackMomentum = "SB99_models_wind_and_Lbol_momentum"
)

// ReadFeedbackTable reads a pre-supernova feedback table from a netCDF
// file.
func ReadFeedbackTable(fname string) (*feedback.Table, error) {
	ff, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}

	nMet, nAge := varSize(f, feedbackMet), varSize(f, feedbackAge)
	met, age := make([]float64, nMet), make([]float64, nAge)
	mass := make([]float64, nMet*nAge)
	metal := make([]float64, nMet*nAge)
	mom := make([]float64, nMet*nAge)

	vars := []struct {
		name string
		buf  []float64
	}{
		{feedbackMet, met}, {feedbackAge, age},
		{feedbackMass, mass}, {feedbackMetal, metal}, {feedbackMomentum, mom},
	}
	for _, v := range vars {
		if err := readCDFVar(f, v.name, len(v.buf), v.buf); err != nil {
			return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
		}
	}

	tab, err := feedback.NewTable(met, age, mass, metal, mom)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}
	return tab, nil
}

func varSize(f *cdf.File, name string) int {
	n := 0
	if lengths := f.Header.Lengths(name); len(lengths) > 0 {
		n = 1
		for _, l := range lengths {
			n *= l
		}
	}
	return n
}

// WriteFeedbackTable writes tab to a netCDF file.
func WriteFeedbackTable(fname string, tab *feedback.Table) error {
	h := cdf.NewHeader(
		[]string{"n_met", "n_age"},
		[]int{len(tab.Metallicity), len(tab.Age)},
	)
	h.AddAttribute("", "comment", "Pre-supernova feedback rates")
	h.AddVariable(feedbackMet, []string{"n_met"}, []float64{0})
	h.AddVariable(feedbackAge, []string{"n_age"}, []float64{0})
	for _, name := range []string{feedbackMass, feedbackMetal, feedbackMomentum} {
		h.AddVariable(name, []string{"n_met", "n_age"}, []float64{0})
	}
	h.Define()

	ff, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer ff.Close()

	f, err := cdf.Create(ff, h)
	if err != nil {
		return err
	}

	vars := []struct {
		name string
		data []float64
	}{
		{feedbackMet, tab.Metallicity}, {feedbackAge, tab.Age},
		{feedbackMass, tab.MassRate}, {feedbackMetal, tab.MetalMassRate},
		{feedbackMomentum, tab.Momentum},
	}
	for _, v := range vars {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		if _, err := f.Writer(v.name, start, end).Write(v.data); err != nil {
			return fmt.Errorf("Writing %s to '%s': %w", v.name, fname, err)
		}
	}

	return cdf.UpdateNumRecs(ff)
}
