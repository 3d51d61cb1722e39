package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxSpeed is the largest number of ticks run per frame.
const MaxSpeed = 20

// ControlsState is the state the control panel edits.
type ControlsState struct {
	Paused   bool
	Speed    int
	ShowFlow bool
}

// ControlsActions are one-shot requests from a frame of the panel.
type ControlsActions struct {
	Step         bool
	CycleOverlay bool
	ResetView    bool
	SaveSnapshot bool
}

// ControlsPanel renders raygui buttons and a speed slider.
type ControlsPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width float32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y float32) {
	c.x = x
	c.y = y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel.
func (c *ControlsPanel) Contains(p rl.Vector2) bool {
	return c.visible && rl.CheckCollisionPointRec(p, c.bounds())
}

func (c *ControlsPanel) bounds() rl.Rectangle {
	return rl.Rectangle{X: c.x, Y: c.y, Width: c.width, Height: 190}
}

// Draw renders the panel, updating state and returning requested actions.
func (c *ControlsPanel) Draw(state *ControlsState) ControlsActions {
	var act ControlsActions
	if !c.visible {
		return act
	}

	r := c.renderer
	b := c.bounds()
	r.DrawPanel(int32(b.X), int32(b.Y), int32(b.Width), int32(b.Height))

	pad := float32(r.Theme.Padding)
	x := c.x + pad
	y := c.y + pad
	half := (c.width - pad*3) / 2

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + pad, Y: y, Width: half, Height: 26}, "Step") {
		act.Step = true
	}
	y += 34

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, "Overlay") {
		act.CycleOverlay = true
	}
	if gui.Button(rl.Rectangle{X: x + half + pad, Y: y, Width: half, Height: 26}, toggleText(state.ShowFlow, "Hide flow", "Show flow")) {
		state.ShowFlow = !state.ShowFlow
	}
	y += 34

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, "Reset view") {
		act.ResetView = true
	}
	if gui.Button(rl.Rectangle{X: x + half + pad, Y: y, Width: half, Height: 26}, "Snapshot") {
		act.SaveSnapshot = true
	}
	y += 38

	rl.DrawText("Ticks per frame", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	speed := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: c.width - pad*2 - 40, Height: 18},
		"", "",
		float32(state.Speed), 1, MaxSpeed,
	)
	state.Speed = int(speed + 0.5)
	rl.DrawText(fmt.Sprintf("%d", state.Speed), int32(c.x+c.width-pad-30), int32(y+2), 14, r.Theme.ValueColor)

	return act
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
