package io

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

// Names used in netCDF track files. Each track's arrays are prefixed by
// its name, e.g. Track_0003_Position.
const (
	cdfSixDim = "six"

	cdfNTracks  = "NTracks"
	cdfTimeType = "TimeType"

	cdfEnabled     = "_Enabled"
	cdfNRef        = "_NRef"
	cdfNTimes      = "_NTimes"
	cdfRefTypes    = "_RefTypes"
	cdfTimeValue   = "_TimeValue"
	cdfMinStarMass = "_MinStarMass"
	cdfPosition    = "_Position"
	cdfMinLevels   = "_MinLevels"
	cdfMaxLevels   = "_MaxLevels"
)

// WriteTrackCDF writes tracks to a netCDF file. Disabled tracks are
// written as a bare Enabled = 0 flag.
func WriteTrackCDF(fname string, tracks []regions.Track) error {
	dims, lengths := []string{cdfSixDim}, []int{6}
	for i := range tracks {
		tr := &tracks[i]
		if !tr.Enabled {
			continue
		}
		if len(tr.Keyframes) == 0 || len(tr.Methods) == 0 {
			return fmt.Errorf("Track '%s' has %d time entries and %d "+
				"methods, but needs at least one of each.", tr.Name,
				len(tr.Keyframes), len(tr.Methods))
		}
		name := TrackName(i)
		dims = append(dims, name+cdfNTimes, name+cdfNRef)
		lengths = append(lengths, len(tr.Keyframes), len(tr.Methods))
	}

	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "comment", "MultiRefineRegion tracks")
	h.AddAttribute("", cdfNTracks, []int32{int32(len(tracks))})

	for i := range tracks {
		tr, name := &tracks[i], TrackName(i)
		if !tr.Enabled {
			h.AddAttribute("", name+cdfEnabled, []int32{0})
			continue
		}

		nTimes, nRef := name+cdfNTimes, name+cdfNRef
		h.AddAttribute("", name+cdfEnabled, []int32{1})
		h.AddAttribute("", name+cdfNRef, []int32{int32(len(tr.Methods))})
		h.AddAttribute("", name+cdfNTimes, []int32{int32(len(tr.Keyframes))})
		h.AddAttribute("", name+cdfTimeType, []int32{int32(tr.Basis)})

		h.AddVariable(name+cdfRefTypes, []string{nRef}, []int32{0})
		h.AddVariable(name+cdfTimeValue, []string{nTimes}, []float64{0})
		h.AddVariable(name+cdfMinStarMass, []string{nTimes}, []float64{0})
		h.AddVariable(name+cdfPosition, []string{nTimes, cdfSixDim}, []float64{0})
		h.AddVariable(name+cdfMinLevels, []string{nTimes, nRef}, []int32{0})
		h.AddVariable(name+cdfMaxLevels, []string{nTimes, nRef}, []int32{0})
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

	for i := range tracks {
		tr := &tracks[i]
		if !tr.Enabled {
			continue
		}
		if err := writeTrackCDF(f, TrackName(i), tr); err != nil {
			return fmt.Errorf("Writing track '%s' to '%s': %w",
				tr.Name, fname, err)
		}
	}

	return cdf.UpdateNumRecs(ff)
}

func writeTrackCDF(f *cdf.File, name string, tr *regions.Track) error {
	nRef := len(tr.Methods)
	refs := make([]int32, nRef)
	for m, id := range tr.Methods {
		refs[m] = int32(id)
	}

	n := len(tr.Keyframes)
	times, mass := make([]float64, n), make([]float64, n)
	pos := make([]float64, 6*n)
	lo, hi := make([]int32, n*nRef), make([]int32, n*nRef)
	for k := range tr.Keyframes {
		kf := &tr.Keyframes[k]
		if len(kf.MinLevel) != nRef || len(kf.MaxLevel) != nRef {
			return fmt.Errorf("time entry %d has %d/%d level bounds for %d "+
				"methods", k, len(kf.MinLevel), len(kf.MaxLevel), nRef)
		}
		times[k], mass[k] = kf.Time, kf.MinStarMass
		box := kf.Box.Flat()
		copy(pos[6*k:6*k+6], box[:])
		for m := 0; m < nRef; m++ {
			lo[k*nRef+m] = int32(kf.MinLevel[m])
			hi[k*nRef+m] = int32(kf.MaxLevel[m])
		}
	}

	vars := []struct {
		suffix string
		data   interface{}
	}{
		{cdfRefTypes, refs},
		{cdfTimeValue, times},
		{cdfMinStarMass, mass},
		{cdfPosition, pos},
		{cdfMinLevels, lo},
		{cdfMaxLevels, hi},
	}
	for _, v := range vars {
		end := f.Header.Lengths(name + v.suffix)
		start := make([]int, len(end))
		if _, err := f.Writer(name+v.suffix, start, end).Write(v.data); err != nil {
			return fmt.Errorf("variable %s: %w", name+v.suffix, err)
		}
	}
	return nil
}

// ReadTrackCDF reads a netCDF track file. Tracks use basis unless the file
// records its own time type. Enabled tracks are validated against
// maxLevel.
func ReadTrackCDF(
	fname string, basis regions.TimeBasis, maxLevel int,
) ([]regions.Track, error) {
	ff, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}

	nTracks, ok := cdfInt(f, cdfNTracks)
	if !ok || nTracks < 0 {
		return nil, fmt.Errorf("%w: '%s' has no valid %s attribute",
			ErrConfig, fname, cdfNTracks)
	}
	if b, ok := cdfInt(f, cdfTimeType); ok {
		basis = regions.TimeBasis(b)
	}

	tracks := make([]regions.Track, nTracks)
	for i := range tracks {
		tr, err := readTrackCDF(f, TrackName(i), basis)
		if err != nil {
			return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
		}
		if tr.Enabled {
			if err := tr.Validate(maxLevel); err != nil {
				return nil, fmt.Errorf("%w: '%s': %w", ErrConfig, fname, err)
			}
		}
		tracks[i] = *tr
	}
	return tracks, nil
}

func readTrackCDF(
	f *cdf.File, name string, basis regions.TimeBasis,
) (*regions.Track, error) {
	tr := &regions.Track{Name: name, Basis: basis}

	enabled, ok := cdfInt(f, name+cdfEnabled)
	if !ok {
		return nil, fmt.Errorf("no %s attribute", name+cdfEnabled)
	}
	if tr.Enabled = enabled != 0; !tr.Enabled {
		return tr, nil
	}

	if b, ok := cdfInt(f, name+cdfTimeType); ok {
		tr.Basis = regions.TimeBasis(b)
	}
	nRef, ok1 := cdfInt(f, name+cdfNRef)
	nTimes, ok2 := cdfInt(f, name+cdfNTimes)
	if !ok1 || !ok2 || nRef <= 0 || nTimes <= 0 {
		return nil, fmt.Errorf("%s needs positive %s and %s attributes",
			name, name+cdfNRef, name+cdfNTimes)
	}

	refs := make([]int32, nRef)
	times, mass := make([]float64, nTimes), make([]float64, nTimes)
	pos := make([]float64, 6*nTimes)
	lo, hi := make([]int32, nTimes*nRef), make([]int32, nTimes*nRef)

	vars := []struct {
		suffix string
		n      int
		buf    interface{}
	}{
		{cdfRefTypes, nRef, refs},
		{cdfTimeValue, nTimes, times},
		{cdfMinStarMass, nTimes, mass},
		{cdfPosition, 6 * nTimes, pos},
		{cdfMinLevels, nTimes * nRef, lo},
		{cdfMaxLevels, nTimes * nRef, hi},
	}
	for _, v := range vars {
		if err := readCDFVar(f, name+v.suffix, v.n, v.buf); err != nil {
			return nil, err
		}
	}

	ids := make([]int, nRef)
	for m := range refs {
		ids[m] = int(refs[m])
	}
	var err error
	if tr.Methods, err = methods.FromInts(ids); err != nil {
		return nil, fmt.Errorf("%s: %s", name+cdfRefTypes, err.Error())
	}

	tr.Keyframes = make([]regions.Keyframe, nTimes)
	for k := range tr.Keyframes {
		var box [6]float64
		copy(box[:], pos[6*k:6*k+6])
		kf := regions.Keyframe{
			Time:        times[k],
			Box:         geom.NewBox(box),
			MinLevel:    make([]int, nRef),
			MaxLevel:    make([]int, nRef),
			MinStarMass: mass[k],
		}
		for m := 0; m < nRef; m++ {
			kf.MinLevel[m] = int(lo[k*nRef+m])
			kf.MaxLevel[m] = int(hi[k*nRef+m])
		}
		tr.Keyframes[k] = kf
	}

	return tr, nil
}

// cdfInt returns the first value of an int32 global attribute.
func cdfInt(f *cdf.File, name string) (int, bool) {
	x, ok := f.Header.GetAttribute("", name).([]int32)
	if !ok || len(x) == 0 {
		return 0, false
	}
	return int(x[0]), true
}

// readCDFVar reads all n values of a variable into buf.
func readCDFVar(f *cdf.File, name string, n int, buf interface{}) error {
	lengths := f.Header.Lengths(name)
	if lengths == nil {
		return fmt.Errorf("missing variable %s", name)
	}
	size := 1
	for _, l := range lengths {
		size *= l
	}
	if size != n {
		return fmt.Errorf("variable %s has %d values, but %d were expected",
			name, size, n)
	}

	if _, err := f.Reader(name, nil, nil).Read(buf); err != nil {
		return fmt.Errorf("variable %s: %s", name, err.Error())
	}
	return nil
}
