package regions

import (
	"fmt"

	"github.com/phil-mansfield/enzoref/methods"
)

// Limits are the configured maxima a Store is checked against. A zero
// field is not checked.
type Limits struct {
	MaxLevel       int
	MaxTracks      int
	MaxTimeEntries int
	MaxMethods     int
}

// Store is the validated set of static regions and evolving tracks. It is
// not modified after construction.
type Store struct {
	Static []Track
	Tracks []Track
	Limits Limits
}

// NewStore validates static regions and tracks and returns a Store
// containing them.
func NewStore(static, tracks []Track, lim Limits) (*Store, error) {
	if lim.MaxTracks > 0 && len(tracks) > lim.MaxTracks {
		return nil, fmt.Errorf(
			"%w: %d tracks given, but at most %d are allowed",
			ErrInvalidTrack, len(tracks), lim.MaxTracks,
		)
	}

	for i := range static {
		if static[i].Basis != Static {
			return nil, fmt.Errorf(
				"%w: static region '%s' has time basis %v",
				ErrInvalidTrack, static[i].Name, static[i].Basis,
			)
		}
		if err := checkTrack(&static[i], lim); err != nil {
			return nil, err
		}
	}

	for i := range tracks {
		if tracks[i].Basis == Static {
			return nil, fmt.Errorf(
				"%w: track '%s' needs a code time or redshift basis",
				ErrInvalidTrack, tracks[i].Name,
			)
		}
		if err := checkTrack(&tracks[i], lim); err != nil {
			return nil, err
		}
	}

	return &Store{Static: static, Tracks: tracks, Limits: lim}, nil
}

func checkTrack(tr *Track, lim Limits) error {
	if !tr.Enabled {
		return nil
	}
	if lim.MaxTimeEntries > 0 && len(tr.Keyframes) > lim.MaxTimeEntries {
		return tr.errorf("has %d time entries, but at most %d are allowed",
			len(tr.Keyframes), lim.MaxTimeEntries)
	}
	if lim.MaxMethods > 0 && len(tr.Methods) > lim.MaxMethods {
		return tr.errorf("declares %d methods, but at most %d are allowed",
			len(tr.Methods), lim.MaxMethods)
	}
	return tr.Validate(lim.MaxLevel)
}

// Enabled calls f on every enabled static region and track, statics first.
func (s *Store) Enabled(f func(tr *Track)) {
	for i := range s.Static {
		if s.Static[i].Enabled {
			f(&s.Static[i])
		}
	}
	for i := range s.Tracks {
		if s.Tracks[i].Enabled {
			f(&s.Tracks[i])
		}
	}
}

// RegisterMethods returns the global flagging method list extended with
// every method referenced by an enabled region that isn't already in it.
// New methods fill Undefined slots first and are appended afterwards. An
// error is returned if the list would hold more than Limits.MaxMethods
// entries.
func (s *Store) RegisterMethods(global []methods.ID) ([]methods.ID, error) {
	out := append([]methods.ID{}, global...)

	var err error
	s.Enabled(func(tr *Track) {
		if err != nil {
			return
		}
		for _, id := range tr.Methods {
			if methods.Contains(out, id) {
				continue
			}

			slot := -1
			for i := range out {
				if out[i] == methods.Undefined {
					slot = i
					break
				}
			}

			if slot >= 0 {
				out[slot] = id
			} else if s.Limits.MaxMethods > 0 &&
				len(out) >= s.Limits.MaxMethods {
				err = fmt.Errorf(
					"Region '%s' needs flagging method %v, but all %d "+
						"CellFlaggingMethod slots are in use.",
					tr.Name, id, s.Limits.MaxMethods,
				)
				return
			} else {
				out = append(out, id)
			}
		}
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
