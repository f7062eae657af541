/*package history keeps the regions resolved at each cycle of a run in a
badger database.
*/
package history

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/enzoref/regions"
)

// ErrNotFound is returned when no snapshot was stored for a cycle.
var ErrNotFound = errors.New("no snapshot for cycle")

// Store is a cycle-indexed collection of region snapshots.
type Store struct {
	DB  *badger.DB
	Log logrus.FieldLogger
}

// Snapshot is the stored state of one cycle.
type Snapshot struct {
	Cycle int
	State regions.State
}

// Open opens or creates the store at path. An empty path gives an
// in-memory store.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	opts := badger.DefaultOptions(path).
		WithInMemory(path == "").
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(quietLogger{log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("Could not open history store '%s': %w", path, err)
	}
	log.WithField("path", path).Debug("Opened history store.")
	return &Store{DB: db, Log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.DB.Close() }

func cycleKey(cycle int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(cycle))
	return key
}

func encode(snap *Snapshot) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := gob.NewEncoder(buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(val []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	err := gob.NewDecoder(bytes.NewReader(val)).Decode(snap)
	return snap, err
}

// Record stores st as the snapshot of cycle, replacing any earlier one.
func (s *Store) Record(cycle int, st *regions.State) error {
	if cycle < 0 {
		return fmt.Errorf("Cycle %d is negative.", cycle)
	}
	val, err := encode(&Snapshot{Cycle: cycle, State: *st})
	if err != nil {
		return fmt.Errorf("Could not encode cycle %d: %w", cycle, err)
	}

	err = s.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(cycleKey(cycle), val)
	})
	if err != nil {
		return fmt.Errorf("Could not store cycle %d: %w", cycle, err)
	}

	s.Log.WithFields(logrus.Fields{
		"cycle": cycle, "regions": len(st.Regions),
	}).Debug("Recorded region snapshot.")
	return nil
}

// Get returns the snapshot of cycle.
func (s *Store) Get(cycle int) (*Snapshot, error) {
	var snap *Snapshot
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cycleKey(cycle))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w %d", ErrNotFound, cycle)
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snap, err = decode(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Range calls f on every snapshot with from <= cycle < to, in cycle
// order. Iteration stops at the first error returned by f.
func (s *Store) Range(from, to int, f func(snap *Snapshot) error) error {
	if from < 0 {
		from = 0
	}
	end := cycleKey(to)

	return s.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(cycleKey(from)); it.Valid(); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key(), end) >= 0 {
				break
			}

			var snap *Snapshot
			err := item.Value(func(val []byte) error {
				var err error
				snap, err = decode(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("Could not decode cycle %d: %w",
					binary.BigEndian.Uint64(item.Key()), err)
			}
			if err := f(snap); err != nil {
				return err
			}
		}
		return nil
	})
}

// quietLogger passes badger's own messages to logrus, demoting its info
// messages to debug.
type quietLogger struct {
	log logrus.FieldLogger
}

func (l quietLogger) Errorf(f string, v ...interface{})   { l.log.Errorf(f, v...) }
func (l quietLogger) Warningf(f string, v ...interface{}) { l.log.Warnf(f, v...) }
func (l quietLogger) Infof(f string, v ...interface{})    { l.log.Debugf(f, v...) }
func (l quietLogger) Debugf(f string, v ...interface{})   { l.log.Debugf(f, v...) }
