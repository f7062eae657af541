package regions

import (
	"github.com/phil-mansfield/enzoref/geom"
	"github.com/phil-mansfield/enzoref/methods"
)

// Defaults are the global settings used for methods that no overlapping
// region declares.
type Defaults struct {
	Methods             []methods.ID
	MaxLevel            int
	MetallicityMinLevel int
	ShockwaveMaxLevel   int
}

// Entry is one method in a grid's flagging table.
type Entry struct {
	Method             methods.ID
	MinLevel, MaxLevel int
}

// Table is the set of flagging methods that apply to a single grid.
type Table struct {
	Entries []Entry

	// MustRefineMin and MustRefineMax are the MustRefineRegion bounds for
	// this grid. MustRefineMax caps every other method.
	MustRefineMin, MustRefineMax int

	// Effective metallicity minimum level and shockwave maximum level for
	// this grid.
	MetallicityMinLevel int
	ShockwaveMaxLevel   int
}

// Methods returns the methods in the table, in order.
func (t *Table) Methods() []methods.ID {
	out := make([]methods.ID, len(t.Entries))
	for i := range t.Entries {
		out[i] = t.Entries[i].Method
	}
	return out
}

// Lookup returns the entry for id.
func (t *Table) Lookup(id methods.ID) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Method == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve reduces the regions overlapping box into the flagging table for
// a grid at the given level.
//
// For each method declared by overlapping regions the largest minimum
// level and the largest maximum level win. Global methods that no region
// declares are added with the default bounds. Methods whose maximum level
// has been reached are dropped, except MustRefineRegion, which is kept
// while level is below its minimum and whose maximum caps all other
// methods. If nothing is left the table contains only NoOp.
func Resolve(box geom.Box, level int, regs []Region, def Defaults) Table {
	var found []Entry
	for i := range regs {
		reg := &regs[i]
		if !box.Overlaps(reg.Box) {
			continue
		}
		for m, id := range reg.Methods {
			lo, hi := reg.MinLevel[m], reg.MaxLevel[m]
			j := entryIndex(found, id)
			if j < 0 {
				found = append(found, Entry{id, lo, hi})
				continue
			}
			if lo > found[j].MinLevel {
				found[j].MinLevel = lo
			}
			if hi > found[j].MaxLevel {
				found[j].MaxLevel = hi
			}
		}
	}

	for _, id := range def.Methods {
		if id == methods.Undefined || entryIndex(found, id) >= 0 {
			continue
		}
		e := Entry{id, 0, def.MaxLevel}
		switch id {
		case methods.Metallicity:
			e.MinLevel = def.MetallicityMinLevel
		case methods.Shockwaves:
			e.MaxLevel = def.ShockwaveMaxLevel
		}
		found = append(found, e)
	}

	t := Table{
		MustRefineMax:       def.MaxLevel,
		MetallicityMinLevel: def.MetallicityMinLevel,
		ShockwaveMaxLevel:   def.ShockwaveMaxLevel,
	}
	if j := entryIndex(found, methods.MustRefineRegion); j >= 0 {
		t.MustRefineMin = found[j].MinLevel
		t.MustRefineMax = found[j].MaxLevel
	}

	for _, e := range found {
		if e.Method == methods.MustRefineRegion {
			if level < t.MustRefineMin {
				t.Entries = append(t.Entries, e)
			}
			continue
		}
		if level >= e.MaxLevel || level >= t.MustRefineMax {
			continue
		}

		switch e.Method {
		case methods.Metallicity:
			t.MetallicityMinLevel = e.MinLevel
		case methods.Shockwaves:
			t.ShockwaveMaxLevel = e.MaxLevel
			if t.MustRefineMax < t.ShockwaveMaxLevel {
				t.ShockwaveMaxLevel = t.MustRefineMax
			}
		}
		t.Entries = append(t.Entries, e)
	}

	if len(t.Entries) == 0 {
		t.Entries = []Entry{{methods.NoOp, 0, def.MaxLevel}}
	}
	return t
}

func entryIndex(es []Entry, id methods.ID) int {
	for i := range es {
		if es[i].Method == id {
			return i
		}
	}
	return -1
}
