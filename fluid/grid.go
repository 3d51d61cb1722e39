package fluid

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/cellflow/fixed"
)

// Material tags with built-in meaning. Any other printable byte is a
// material whose behavior is defined by its density alone.
const (
	Wall   byte = '#'
	Air    byte = ' '
	Liquid byte = '.'
)

var errEmptyGrid = errors.New("fluid: empty grid")

// Grid is the rectangular cell state: kinds, pressures, open-neighbor counts
// and visitation stamps. Coordinates are (row, column).
type Grid struct {
	rows, cols   int
	kinds        []byte
	pressure     []fixed.Num
	prevPressure []fixed.Num
	open         []int

	// lastUse holds the stamp a traversal last left on each cell. A cell at
	// stamp-1 is on the current path, a cell at stamp is resolved.
	lastUse []int
	stamp   int
}

// NewGrid builds a grid from text rows with pressures in format pf.
func NewGrid(rows []string, pf fixed.Format) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errEmptyGrid
	}
	cols := len(rows[0])
	g := &Grid{
		rows:         len(rows),
		cols:         cols,
		kinds:        make([]byte, len(rows)*cols),
		pressure:     make([]fixed.Num, len(rows)*cols),
		prevPressure: make([]fixed.Num, len(rows)*cols),
		open:         make([]int, len(rows)*cols),
		lastUse:      make([]int, len(rows)*cols),
	}
	for x, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("fluid: row %d has %d cells, want %d", x, len(row), cols)
		}
		copy(g.kinds[x*cols:], row)
	}
	zero := fixed.Zero(pf)
	for i := range g.pressure {
		g.pressure[i] = zero
		g.prevPressure[i] = zero
	}
	for x := 0; x < g.rows; x++ {
		for y := 0; y < g.cols; y++ {
			if g.IsWall(x, y) {
				continue
			}
			for _, d := range Directions {
				if nx, ny := d.Step(x, y); !g.IsWall(nx, ny) {
					g.open[x*cols+y]++
				}
			}
		}
	}
	return g, nil
}

// Size returns the row and column counts.
func (g *Grid) Size() (rows, cols int) { return g.rows, g.cols }

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && x < g.rows && y >= 0 && y < g.cols
}

func (g *Grid) index(x, y int) int { return x*g.cols + y }

// Kind returns the material tag at (x, y). Cells outside the grid are walls.
func (g *Grid) Kind(x, y int) byte {
	if !g.inside(x, y) {
		return Wall
	}
	return g.kinds[g.index(x, y)]
}

// IsWall reports whether (x, y) blocks flow.
func (g *Grid) IsWall(x, y int) bool {
	return g.Kind(x, y) == Wall
}

// Pressure returns the current pressure at (x, y).
func (g *Grid) Pressure(x, y int) fixed.Num {
	return g.pressure[g.index(x, y)]
}

// SetPressure overwrites the pressure at (x, y).
func (g *Grid) SetPressure(x, y int, p fixed.Num) {
	i := g.index(x, y)
	g.pressure[i] = p.To(g.pressure[i].Format())
}

func (g *Grid) addPressure(x, y int, dp fixed.Num) {
	i := g.index(x, y)
	g.pressure[i] = g.pressure[i].Add(dp.To(g.pressure[i].Format()))
}

// OpenNeighbors returns how many of the four neighbors of (x, y) are not walls.
func (g *Grid) OpenNeighbors(x, y int) int {
	return g.open[g.index(x, y)]
}

func (g *Grid) used(x, y int) int { return g.lastUse[g.index(x, y)] }

func (g *Grid) mark(x, y, stamp int) { g.lastUse[g.index(x, y)] = stamp }

// snapshotPressure copies the current pressures into the previous-tick buffer.
func (g *Grid) snapshotPressure() {
	copy(g.prevPressure, g.pressure)
}

// swap exchanges the kind and pressure of two cells.
func (g *Grid) swap(ax, ay, bx, by int) {
	a, b := g.index(ax, ay), g.index(bx, by)
	g.kinds[a], g.kinds[b] = g.kinds[b], g.kinds[a]
	g.pressure[a], g.pressure[b] = g.pressure[b], g.pressure[a]
}

// Rows renders the kinds back into text rows.
func (g *Grid) Rows() []string {
	out := make([]string, g.rows)
	for x := range out {
		out[x] = string(g.kinds[x*g.cols : (x+1)*g.cols])
	}
	return out
}

// Count returns how many cells hold material tag k.
func (g *Grid) Count(k byte) int {
	n := 0
	for _, c := range g.kinds {
		if c == k {
			n++
		}
	}
	return n
}
