package ui

import (
	"fmt"

	"github.com/pthm-cable/cellflow/fluid"
)

// Inspector shows the state of one selected cell.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32

	selected bool
	row, col int
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Select picks the cell to inspect.
func (ins *Inspector) Select(row, col int) {
	ins.selected = true
	ins.row, ins.col = row, col
}

// Clear drops the selection.
func (ins *Inspector) Clear() { ins.selected = false }

// Selected returns the inspected cell.
func (ins *Inspector) Selected() (row, col int, ok bool) {
	return ins.row, ins.col, ins.selected
}

// Draw renders the panel for the selected cell, if any.
func (ins *Inspector) Draw(sim *fluid.Simulator) {
	if !ins.selected {
		return
	}
	r := ins.renderer
	pad := r.Theme.Padding
	g := sim.Grid()
	x, y := ins.row, ins.col

	r.DrawPanel(ins.x, ins.y, ins.width, 170)
	cx := ins.x + pad
	cy := ins.y + pad
	content := ins.width - pad*2

	cy = r.DrawSectionHeader(cx, cy, fmt.Sprintf("Cell (%d, %d)", x, y))
	cy = r.DrawLabelValue(cx, cy, "Kind", fmt.Sprintf("%q", g.Kind(x, y)))
	if g.IsWall(x, y) {
		return
	}
	cy = r.DrawLabelValue(cx, cy, "Pressure", g.Pressure(x, y).String())
	cy = r.DrawLabelValue(cx, cy, "Open", fmt.Sprintf("%d", g.OpenNeighbors(x, y)))
	cy += 4

	cy = r.DrawSectionHeader(cx, cy, "Velocity")
	var limit float32
	for _, d := range fluid.Directions {
		if v := abs32(sim.Velocity(x, y, d).Float32()); v > limit {
			limit = v
		}
	}
	for _, d := range fluid.Directions {
		cy = r.DrawCenteredBar(cx, cy, d.String(), sim.Velocity(x, y, d).Float32(), limit, content)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
