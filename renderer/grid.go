// Package renderer draws the simulation grid with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellflow/camera"
	"github.com/pthm-cable/cellflow/fluid"
)

// Overlay selects what the cell colors show.
type Overlay int

const (
	OverlayKinds Overlay = iota
	OverlayPressure
	NumOverlays
)

func (o Overlay) String() string {
	switch o {
	case OverlayKinds:
		return "materials"
	case OverlayPressure:
		return "pressure"
	}
	return "unknown"
}

var (
	wallColor   = rl.Color{R: 70, G: 66, B: 60, A: 255}
	airColor    = rl.Color{R: 18, G: 22, B: 30, A: 255}
	liquidColor = rl.Color{R: 40, G: 110, B: 200, A: 255}
	otherColor  = rl.Color{R: 200, G: 170, B: 60, A: 255}
	gridLine    = rl.Color{R: 0, G: 0, B: 0, A: 60}
)

// GridRenderer draws cells as filled squares.
type GridRenderer struct {
	// Grid lines are drawn once cells are at least this many pixels wide.
	LineThreshold float32
}

// NewGridRenderer creates a grid renderer.
func NewGridRenderer() *GridRenderer {
	return &GridRenderer{LineThreshold: 8}
}

// Draw renders the visible part of the grid.
func (r *GridRenderer) Draw(g *fluid.Grid, cam *camera.Camera, overlay Overlay) {
	row0, row1, col0, col1 := cam.VisibleCells()
	size := cam.Zoom

	var pmax float64
	if overlay == OverlayPressure {
		pmax = maxAbsPressure(g, row0, row1, col0, col1)
	}

	for x := row0; x < row1; x++ {
		for y := col0; y < col1; y++ {
			sx, sy := cam.WorldToScreen(float32(y), float32(x))
			color := kindColor(g.Kind(x, y))
			if overlay == OverlayPressure && !g.IsWall(x, y) {
				color = pressureColor(g.Pressure(x, y).Float64(), pmax)
			}
			rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: size, Y: size}, color)
			if size >= r.LineThreshold {
				rl.DrawRectangleLinesEx(rl.Rectangle{X: sx, Y: sy, Width: size, Height: size}, 1, gridLine)
			}
		}
	}
}

func kindColor(k byte) rl.Color {
	switch k {
	case fluid.Wall:
		return wallColor
	case fluid.Air:
		return airColor
	case fluid.Liquid:
		return liquidColor
	}
	return otherColor
}

func maxAbsPressure(g *fluid.Grid, row0, row1, col0, col1 int) float64 {
	var m float64
	for x := row0; x < row1; x++ {
		for y := col0; y < col1; y++ {
			if g.IsWall(x, y) {
				continue
			}
			m = math.Max(m, math.Abs(g.Pressure(x, y).Float64()))
		}
	}
	return m
}

// pressureColor maps negative pressure to blue and positive to red.
func pressureColor(p, pmax float64) rl.Color {
	if pmax == 0 {
		return airColor
	}
	t := float32(math.Min(math.Abs(p)/pmax, 1))
	if p < 0 {
		return lerpColor(airColor, rl.Color{R: 60, G: 140, B: 255, A: 255}, t)
	}
	return lerpColor(airColor, rl.Color{R: 255, G: 90, B: 50, A: 255}, t)
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	mix := func(x, y uint8) uint8 { return uint8(float32(x) + (float32(y)-float32(x))*t) }
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
