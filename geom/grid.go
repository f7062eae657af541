package geom

// Grid provides an interface for reasoning over a 1D field slice as if it
// were a 3D block of cells. The block includes ghost zones; only the cells
// between Start and End (inclusive) are active.
type Grid struct {
	CellBounds
	Dims                 [3]int
	Length, Area, Volume int

	// Left is the left edge of the first active cell and CellWidth the
	// width of a cell, both in normalized domain coordinates.
	Left, CellWidth [3]float64

	uBounds [3]int
}

// CellBounds represents a range of active cells: Origin is the first active
// index along each axis and Width the number of active cells.
type CellBounds struct {
	Origin, Width [3]int
}

// NewGrid returns a new Grid instance. dims includes ghost zones, start and
// end are the inclusive active index ranges.
func NewGrid(dims, start, end [3]int, left, cellWidth [3]float64) *Grid {
	g := &Grid{}
	g.Init(dims, start, end, left, cellWidth)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(dims, start, end [3]int, left, cellWidth [3]float64) {
	g.Dims = dims
	g.Left, g.CellWidth = left, cellWidth

	g.Length = dims[0]
	g.Area = dims[0] * dims[1]
	g.Volume = dims[0] * dims[1] * dims[2]

	for i := 0; i < 3; i++ {
		g.Origin[i] = start[i]
		g.Width[i] = end[i] - start[i] + 1
		g.uBounds[i] = end[i] + 1
	}
}

// Start returns the first active index along each axis.
func (g *Grid) Start() [3]int { return g.Origin }

// End returns the last active index along each axis.
func (g *Grid) End() [3]int {
	return [3]int{g.uBounds[0] - 1, g.uBounds[1] - 1, g.uBounds[2] - 1}
}

// Idx returns the field index corresponding to a set of cell coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return x + y*g.Length + z*g.Area
}

// IdxCheck returns an index and true if the given coordinates are an active
// cell and false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are an active cell and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] && z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a cell from its field index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx % g.Length
	y = (idx % g.Area) / g.Length
	z = idx / g.Area
	return x, y, z
}

// CellCenter returns the position of the center of a cell.
func (g *Grid) CellCenter(x, y, z int) [3]float64 {
	idx := [3]int{x, y, z}
	var pos [3]float64
	for i := 0; i < 3; i++ {
		pos[i] = g.Left[i] + (float64(idx[i]-g.Origin[i])+0.5)*g.CellWidth[i]
	}
	return pos
}

// CellOf returns the coordinates of the active cell containing pos and
// true, or false if pos is not inside an active cell.
func (g *Grid) CellOf(pos [3]float64) (x, y, z int, ok bool) {
	var idx [3]int
	for i := 0; i < 3; i++ {
		f := (pos[i] - g.Left[i]) / g.CellWidth[i]
		if f < 0 {
			return -1, -1, -1, false
		}
		idx[i] = int(f) + g.Origin[i]
	}
	if !g.BoundsCheck(idx[0], idx[1], idx[2]) {
		return -1, -1, -1, false
	}
	return idx[0], idx[1], idx[2], true
}

// CellVolume returns the volume of a single cell.
func (g *Grid) CellVolume() float64 {
	return g.CellWidth[0] * g.CellWidth[1] * g.CellWidth[2]
}

// Box returns the region spanned by the active cells.
func (g *Grid) Box() Box {
	b := Box{Left: g.Left}
	for i := 0; i < 3; i++ {
		b.Right[i] = g.Left[i] + float64(g.Width[i])*g.CellWidth[i]
	}
	return b
}

// ActiveIdxs calls f on the field index of every active cell, with x
// varying fastest.
func (g *Grid) ActiveIdxs(f func(idx, x, y, z int)) {
	for z := g.Origin[2]; z < g.uBounds[2]; z++ {
		for y := g.Origin[1]; y < g.uBounds[1]; y++ {
			for x := g.Origin[0]; x < g.uBounds[0]; x++ {
				f(g.Idx(x, y, z), x, y, z)
			}
		}
	}
}
