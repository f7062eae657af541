package io

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
	"github.com/phil-mansfield/enzoref/regions"
)

// textTrackColumns is the number of columns in a track row:
// id time xl yl zl xr yr zr min max star_mass
const textTrackColumns = 11

// TrackName returns the name given to the i-th track of a track file.
func TrackName(i int) string { return fmt.Sprintf("Track_%04d", i) }

// ReadTrackText reads a text MultiRefineRegion track file. Every track
// declares only the MultiRefineRegion method. The tracks are validated
// against maxLevel.
//
// The file starts with the number of tracks and the number of time
// entries per track, each on its own line, followed by one row per time
// entry with the rows of each track contiguous. Blank lines and lines
// starting with '#' are skipped.
func ReadTrackText(
	fname string, basis regions.TimeBasis, maxLevel int,
) ([]regions.Track, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, lines, err := textRows(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}
	tracks, err := parseTrackRows(rows, lines, basis)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrConfig, fname, err.Error())
	}

	for i := range tracks {
		if err := tracks[i].Validate(maxLevel); err != nil {
			return nil, fmt.Errorf("%w: '%s': %w", ErrConfig, fname, err)
		}
	}
	return tracks, nil
}

// textRows splits the non-comment lines of a file into fields, also
// returning the 1-indexed line number of each.
func textRows(sc *bufio.Scanner) ([][]string, []int, error) {
	var rows [][]string
	var lines []int
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		rows = append(rows, strings.Fields(line))
		lines = append(lines, n)
	}
	return rows, lines, sc.Err()
}

func parseTrackRows(
	rows [][]string, lines []int, basis regions.TimeBasis,
) ([]regions.Track, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("missing track and time entry counts")
	}
	nTracks, err := headerInt(rows[0], lines[0], "number of tracks")
	if err != nil {
		return nil, err
	}
	nTimes, err := headerInt(rows[1], lines[1], "number of time entries")
	if err != nil {
		return nil, err
	}

	body, bodyLines := rows[2:], lines[2:]
	if len(body) != nTracks*nTimes {
		return nil, fmt.Errorf("%d tracks with %d time entries need %d "+
			"rows, but %d were found", nTracks, nTimes, nTracks*nTimes,
			len(body))
	}

	tracks := make([]regions.Track, nTracks)
	for i := range tracks {
		tracks[i] = regions.Track{
			Name:      TrackName(i),
			Enabled:   true,
			Basis:     basis,
			Methods:   []methods.ID{methods.MultiRefineRegion},
			Keyframes: make([]regions.Keyframe, nTimes),
		}
	}

	var bad []string
	for r, row := range body {
		trackIdx, timeIdx := r/nTimes, r%nTimes
		kf, err := parseTrackRow(row, trackIdx)
		if err != nil {
			bad = append(bad, fmt.Sprintf("line %d: %s", bodyLines[r], err.Error()))
			continue
		}
		tracks[trackIdx].Keyframes[timeIdx] = kf
	}

	if len(bad) > 0 {
		return nil, fmt.Errorf("%d malformed lines: %s",
			len(bad), strings.Join(bad, "; "))
	}
	return tracks, nil
}

// parseTrackRow parses a single track row belonging to track trackIdx.
func parseTrackRow(row []string, trackIdx int) (regions.Keyframe, error) {
	if len(row) != textTrackColumns {
		return regions.Keyframe{}, fmt.Errorf("%d columns, but %d are needed",
			len(row), textTrackColumns)
	}

	id, err := strconv.Atoi(row[0])
	if err != nil {
		return regions.Keyframe{}, fmt.Errorf(
			"could not parse track id '%s'", row[0])
	} else if id != trackIdx {
		return regions.Keyframe{}, fmt.Errorf(
			"track id %d, but the row belongs to track %d", id, trackIdx)
	}

	var x [7]float64
	for j := range x {
		if x[j], err = strconv.ParseFloat(row[1+j], 64); err != nil {
			return regions.Keyframe{}, fmt.Errorf(
				"could not parse '%s' in column %d", row[1+j], 2+j)
		}
	}
	lo, err1 := strconv.Atoi(row[8])
	hi, err2 := strconv.Atoi(row[9])
	if err1 != nil || err2 != nil {
		return regions.Keyframe{}, fmt.Errorf(
			"could not parse levels '%s' and '%s'", row[8], row[9])
	}
	mass, err := strconv.ParseFloat(row[10], 64)
	if err != nil {
		return regions.Keyframe{}, fmt.Errorf(
			"could not parse star mass '%s'", row[10])
	}

	return regions.Keyframe{
		Time:        x[0],
		Box:         geom.NewBox([6]float64{x[1], x[2], x[3], x[4], x[5], x[6]}),
		MinLevel:    []int{lo},
		MaxLevel:    []int{hi},
		MinStarMass: mass,
	}, nil
}

func headerInt(row []string, line int, name string) (int, error) {
	if len(row) != 1 {
		return 0, fmt.Errorf("line %d should only contain the %s", line, name)
	}
	n, err := strconv.Atoi(row[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("line %d: the %s, '%s', is not a positive "+
			"integer", line, name, row[0])
	}
	return n, nil
}

// WriteTrackText writes tracks in the text track format. Every track must
// have the same number of keyframes and declare only MultiRefineRegion.
func WriteTrackText(fname string, tracks []regions.Track) error {
	if len(tracks) == 0 {
		return fmt.Errorf("No tracks to write to '%s'.", fname)
	}
	nTimes := len(tracks[0].Keyframes)
	for i := range tracks {
		tr := &tracks[i]
		if len(tr.Keyframes) != nTimes {
			return fmt.Errorf("Track '%s' has %d time entries, but the "+
				"text format needs %d for every track.", tr.Name,
				len(tr.Keyframes), nTimes)
		}
		if len(tr.Methods) != 1 || tr.Methods[0] != methods.MultiRefineRegion {
			return fmt.Errorf("Track '%s' declares methods %v, but the text "+
				"format only supports MultiRefineRegion.", tr.Name, tr.Methods)
		}
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "%d\n%d\n", len(tracks), nTimes)
	for i := range tracks {
		for _, kf := range tracks[i].Keyframes {
			l, r := kf.Box.Left, kf.Box.Right
			fmt.Fprintf(w, "%d %.17g %.17g %.17g %.17g %.17g %.17g %.17g "+
				"%d %d %.17g\n", i, kf.Time, l[0], l[1], l[2], r[0], r[1],
				r[2], kf.MinLevel[0], kf.MaxLevel[0], kf.MinStarMass)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
