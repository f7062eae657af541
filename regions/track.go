/*package regions holds refinement regions: static boxes and tracks whose
position, per-method level bounds and star-mass threshold evolve through a
list of keyframes. It resolves tracks at a given time and reduces the
resolved regions overlapping a grid into that grid's flagging method table.
*/
package regions

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
)

// MaxStarMass is the largest allowed minimum star mass threshold.
const MaxStarMass = 1e20

var (
	// ErrTemporalRange is returned when a track is resolved at a time outside
	// of the span covered by its keyframes.
	ErrTemporalRange = errors.New("time outside of track span")
	// ErrInvalidTrack is returned when a track breaks one of its invariants.
	ErrInvalidTrack = errors.New("invalid region track")
)

// TimeBasis is the time coordinate a track's keyframes are written in.
type TimeBasis int

const (
	// Static tracks have one keyframe which applies at all times.
	Static   TimeBasis = -1
	CodeTime TimeBasis = 0
	Redshift TimeBasis = 1
)

func (b TimeBasis) String() string {
	switch b {
	case Static:
		return "static"
	case CodeTime:
		return "code time"
	case Redshift:
		return "redshift"
	}
	return fmt.Sprintf("TimeBasis(%d)", int(b))
}

// Keyframe is the state of a track at a single time. MinLevel and MaxLevel
// are parallel to the owning Track's Methods.
type Keyframe struct {
	Time               float64
	Box                geom.Box
	MinLevel, MaxLevel []int
	MinStarMass        float64
}

// Track is a region whose extent and refinement bounds change over time.
type Track struct {
	Name      string
	Enabled   bool
	Basis     TimeBasis
	Methods   []methods.ID
	Keyframes []Keyframe
}

// Validate checks that the track is well formed for a simulation whose
// deepest level is maxLevel.
func (tr *Track) Validate(maxLevel int) error {
	if len(tr.Keyframes) == 0 {
		return tr.errorf("has no keyframes")
	}
	if tr.Basis == Static && len(tr.Keyframes) != 1 {
		return tr.errorf("is static but has %d keyframes", len(tr.Keyframes))
	}
	if tr.Basis != Static && tr.Basis != CodeTime && tr.Basis != Redshift {
		return tr.errorf("has unrecognized time basis %d", int(tr.Basis))
	}

	for _, id := range tr.Methods {
		if !id.Valid() {
			return tr.errorf("declares unknown flagging method %d", int(id))
		}
	}

	for k := range tr.Keyframes {
		kf := &tr.Keyframes[k]
		if err := kf.Box.CheckUnit(); err != nil {
			return tr.errorf("time entry %d: %s", k, err.Error())
		}
		if tr.Basis != Static && kf.Time < 0 {
			return tr.errorf("time entry %d has negative time %g", k, kf.Time)
		}
		if kf.MinStarMass < 0 || kf.MinStarMass > MaxStarMass {
			return tr.errorf(
				"time entry %d has minimum star mass %g outside [0, %g]",
				k, kf.MinStarMass, MaxStarMass,
			)
		}
		if len(kf.MinLevel) != len(tr.Methods) ||
			len(kf.MaxLevel) != len(tr.Methods) {
			return tr.errorf(
				"time entry %d has %d/%d level bounds for %d methods",
				k, len(kf.MinLevel), len(kf.MaxLevel), len(tr.Methods),
			)
		}
		for m := range tr.Methods {
			lo, hi := kf.MinLevel[m], kf.MaxLevel[m]
			if lo < 0 || lo > hi || hi > maxLevel {
				return tr.errorf(
					"time entry %d, method %v: need 0 <= min (%d) <= "+
						"max (%d) <= MaximumRefinementLevel (%d)",
					k, tr.Methods[m], lo, hi, maxLevel,
				)
			}
		}

		if k == 0 {
			continue
		}
		prev := tr.Keyframes[k-1].Time
		if tr.Basis == CodeTime && kf.Time <= prev {
			return tr.errorf(
				"code times must be strictly increasing, but entry %d "+
					"(%g) follows %g", k, kf.Time, prev,
			)
		} else if tr.Basis == Redshift && kf.Time >= prev {
			return tr.errorf(
				"redshifts must be strictly decreasing, but entry %d "+
					"(%g) follows %g", k, kf.Time, prev,
			)
		}
	}

	return nil
}

func (tr *Track) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: track '%s' %s", ErrInvalidTrack, tr.Name,
		fmt.Sprintf(format, args...))
}

// Span returns the first and last keyframe times. A track without
// keyframes, such as a disabled track read from a file, spans [0, 0].
func (tr *Track) Span() (first, last float64) {
	if len(tr.Keyframes) == 0 {
		return 0, 0
	}
	return tr.Keyframes[0].Time, tr.Keyframes[len(tr.Keyframes)-1].Time
}

// Bracket returns the index of the keyframe at or before t under the track's
// time ordering. An error wrapping ErrTemporalRange is returned if t is
// outside the track's span.
func (tr *Track) Bracket(t float64) (int, error) {
	n := len(tr.Keyframes)
	if tr.Basis == Static {
		return 0, nil
	}

	first, last := tr.Span()
	if tr.Basis == Redshift {
		if t > first || t < last {
			return -1, fmt.Errorf(
				"%w: redshift %g is outside track '%s' range [%g, %g]",
				ErrTemporalRange, t, tr.Name, first, last,
			)
		}
	} else if t < first || t > last {
		return -1, fmt.Errorf(
			"%w: time %g is outside track '%s' range [%g, %g]",
			ErrTemporalRange, t, tr.Name, first, last,
		)
	}

	i := 0
	for ; i < n; i++ {
		ti := tr.Keyframes[i].Time
		if tr.Basis == Redshift && t > ti || tr.Basis == CodeTime && t < ti {
			break
		}
	}
	return i - 1, nil
}

// Resolve evaluates the track at time t, given in the track's own basis.
// Positions and star masses are interpolated linearly between the
// bracketing keyframes and level bounds are taken from the earlier one.
// At the last keyframe the keyframe is used as is.
func (tr *Track) Resolve(t float64) (Region, error) {
	i, err := tr.Bracket(t)
	if err != nil {
		return Region{}, err
	}

	kf := &tr.Keyframes[i]
	reg := Region{
		Name:        tr.Name,
		Box:         kf.Box,
		Methods:     tr.Methods,
		MinLevel:    kf.MinLevel,
		MaxLevel:    kf.MaxLevel,
		MinStarMass: kf.MinStarMass,
	}
	if i == len(tr.Keyframes)-1 {
		return reg, nil
	}

	next := &tr.Keyframes[i+1]
	f := (t - kf.Time) / (next.Time - kf.Time)
	reg.Box = kf.Box.Lerp(next.Box, f)
	reg.MinStarMass = kf.MinStarMass + f*(next.MinStarMass-kf.MinStarMass)

	return reg, nil
}

// Region is a track resolved at a single time.
type Region struct {
	Name               string
	Box                geom.Box
	Methods            []methods.ID
	MinLevel, MaxLevel []int
	MinStarMass        float64
}

// Bounds returns the level bounds the region declares for id.
func (r *Region) Bounds(id methods.ID) (min, max int, ok bool) {
	for i, m := range r.Methods {
		if m == id {
			return r.MinLevel[i], r.MaxLevel[i], true
		}
	}
	return 0, 0, false
}
