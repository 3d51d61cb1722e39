package fluid

import (
	"fmt"

	"github.com/pthm-cable/cellflow/fixed"
)

// Direction is one of the four cardinal neighbor directions.
type Direction uint8

// Iteration order matters: it breaks ties in flow routing and movement.
const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in iteration order.
var Directions = [4]Direction{Up, Down, Left, Right}

// deltas are (row, column) offsets indexed by Direction.
var deltas = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Delta returns the (row, column) offset of d.
func (d Direction) Delta() (dx, dy int) {
	return deltas[d][0], deltas[d][1]
}

// Step returns the neighbor of (x, y) in direction d.
func (d Direction) Step(x, y int) (int, int) {
	return x + deltas[d][0], y + deltas[d][1]
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// DirectionOf maps a unit delta to its direction. Any other delta is a
// programming error and panics.
func DirectionOf(dx, dy int) Direction {
	for i, dd := range deltas {
		if dd[0] == dx && dd[1] == dy {
			return Direction(i)
		}
	}
	panic(fmt.Sprintf("fluid: no direction for delta (%d, %d)", dx, dy))
}

// Vector holds one value per direction.
type Vector [4]fixed.Num

// Field is a per-cell, per-direction quantity in a single fixed-point format.
type Field struct {
	rows, cols int
	format     fixed.Format
	v          []Vector
}

// NewField allocates a zeroed field.
func NewField(rows, cols int, f fixed.Format) *Field {
	field := &Field{
		rows:   rows,
		cols:   cols,
		format: f,
		v:      make([]Vector, rows*cols),
	}
	field.Reset()
	return field
}

// Format returns the field's number format.
func (f *Field) Format() fixed.Format { return f.format }

// Get returns the value at (x, y) in direction d.
func (f *Field) Get(x, y int, d Direction) fixed.Num {
	return f.v[x*f.cols+y][d]
}

// Set stores v, converted into the field's format.
func (f *Field) Set(x, y int, d Direction, v fixed.Num) {
	f.v[x*f.cols+y][d] = v.To(f.format)
}

// Add adds dv to the value at (x, y) in direction d and returns the result.
func (f *Field) Add(x, y int, d Direction, dv fixed.Num) fixed.Num {
	p := &f.v[x*f.cols+y][d]
	*p = p.Add(dv.To(f.format))
	return *p
}

// Vector returns a pointer to the four values of (x, y).
func (f *Field) Vector(x, y int) *Vector {
	return &f.v[x*f.cols+y]
}

// Reset zeroes every value.
func (f *Field) Reset() {
	zero := fixed.Zero(f.format)
	for i := range f.v {
		f.v[i] = Vector{zero, zero, zero, zero}
	}
}
