package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellflow/camera"
	"github.com/pthm-cable/cellflow/fluid"
)

// FlowRenderer draws each open cell's net velocity as a line from its center.
type FlowRenderer struct {
	Color rl.Color
	// Scale converts velocity to cells of line length.
	Scale float32
}

// NewFlowRenderer creates a flow renderer.
func NewFlowRenderer() *FlowRenderer {
	return &FlowRenderer{
		Color: rl.Color{R: 230, G: 230, B: 230, A: 180},
		Scale: 0.5,
	}
}

// Draw renders velocity lines over the visible cells.
func (r *FlowRenderer) Draw(sim *fluid.Simulator, cam *camera.Camera) {
	g := sim.Grid()
	row0, row1, col0, col1 := cam.VisibleCells()

	rl.BeginBlendMode(rl.BlendAdditive)
	for x := row0; x < row1; x++ {
		for y := col0; y < col1; y++ {
			if g.IsWall(x, y) {
				continue
			}
			// Net velocity in (column, row) space
			var vx, vy float32
			for _, d := range fluid.Directions {
				v := sim.Velocity(x, y, d).Float32()
				dx, dy := d.Delta()
				vx += v * float32(dy)
				vy += v * float32(dx)
			}
			if vx == 0 && vy == 0 {
				continue
			}
			cx, cy := cam.WorldToScreen(float32(y)+0.5, float32(x)+0.5)
			ex := cx + vx*r.Scale*cam.Zoom
			ey := cy + vy*r.Scale*cam.Zoom
			rl.DrawLineEx(rl.Vector2{X: cx, Y: cy}, rl.Vector2{X: ex, Y: ey}, 1.5, r.Color)
			rl.DrawCircleV(rl.Vector2{X: ex, Y: ey}, 1.5, r.Color)
		}
	}
	rl.EndBlendMode()
}
