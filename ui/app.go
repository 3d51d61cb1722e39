package ui

import (
	"context"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellflow/camera"
	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/game"
	"github.com/pthm-cable/cellflow/renderer"
)

const controlsHelp = "[Space] pause  [N] step  [O] overlay  [F] flow  [,/.] speed  [Arrows/RMB] pan  [Wheel] zoom  [Home] reset  [Tab] panel  [Click] inspect"

// App is the raylib viewer around a running game. Create it after
// rl.InitWindow.
type App struct {
	game *game.Game

	cam       *camera.Camera
	grid      *renderer.GridRenderer
	flow      *renderer.FlowRenderer
	hud       *HUD
	controls  *ControlsPanel
	inspector *Inspector

	state   ControlsState
	overlay renderer.Overlay

	screenWidth, screenHeight float32
}

// NewApp creates the viewer for g.
func NewApp(g *game.Game) *App {
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	rows, cols := g.Sim().Grid().Size()

	a := &App{
		game:         g,
		cam:          camera.New(w, h, rows, cols),
		grid:         renderer.NewGridRenderer(),
		flow:         renderer.NewFlowRenderer(),
		hud:          NewHUD(),
		controls:     NewControlsPanel(w-250, 10, 240),
		inspector:    NewInspector(int32(w)-250, 210, 240),
		state:        ControlsState{Speed: 1},
		screenWidth:  w,
		screenHeight: h,
	}
	if size := g.Config().Screen.CellSize; size > 0 {
		a.cam.SetZoom(float32(size))
	}
	return a
}

// Update handles input and advances the simulation by the current speed.
func (a *App) Update(ctx context.Context) {
	a.handleResize()
	a.handleInput()
	a.game.Perf().RecordFrame()

	if a.state.Paused || a.game.Done() {
		return
	}
	for i := 0; i < a.state.Speed && !a.game.Done(); i++ {
		a.game.Step(ctx)
	}
}

// Draw renders the grid and all panels.
func (a *App) Draw(ctx context.Context) {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	sim := a.game.Sim()
	a.grid.Draw(sim.Grid(), a.cam, a.overlay)
	if a.state.ShowFlow {
		a.flow.Draw(sim, a.cam)
	}
	if row, col, ok := a.inspector.Selected(); ok {
		sx, sy := a.cam.WorldToScreen(float32(col), float32(row))
		rl.DrawRectangleLinesEx(rl.Rectangle{X: sx, Y: sy, Width: a.cam.Zoom, Height: a.cam.Zoom}, 2, rl.Yellow)
	}

	last := a.game.LastTick()
	formats := sim.Formats()
	a.hud.Draw(HUDData{
		Title:       "cellflow",
		Tick:        a.game.Tick(),
		MaxTicks:    a.game.Config().Simulation.Ticks,
		Speed:       a.state.Speed,
		FPS:         rl.GetFPS(),
		Paused:      a.state.Paused,
		Overlay:     a.overlay.String(),
		Moves:       last.Moves,
		Sweeps:      last.Sweeps,
		LiquidCells: sim.Grid().Count(fluid.Liquid),
		Seed:        sim.Seed(),
		Formats:     fmt.Sprintf("p %v | v %v | flow %v", formats.Pressure, formats.Velocity, formats.Flow),
	})
	a.hud.DrawControls(int32(a.screenHeight), controlsHelp)

	act := a.controls.Draw(&a.state)
	a.inspector.Draw(sim)
	rl.EndDrawing()

	// Panel actions apply after the frame so the grid drawn matches the HUD.
	if act.Step {
		a.game.Step(ctx)
	}
	if act.CycleOverlay {
		a.cycleOverlay()
	}
	if act.ResetView {
		a.cam.Reset()
	}
	if act.SaveSnapshot {
		a.game.SaveSnapshot(ctx)
	}
}

func (a *App) cycleOverlay() {
	a.overlay = (a.overlay + 1) % renderer.NumOverlays
}

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.state.Paused = !a.state.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) && a.state.Paused {
		a.game.Step(context.Background())
	}
	if rl.IsKeyPressed(rl.KeyO) {
		a.cycleOverlay()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		a.state.ShowFlow = !a.state.ShowFlow
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		a.controls.Toggle()
	}

	// Ticks-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && a.state.Speed > 1 {
		a.state.Speed--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && a.state.Speed < MaxSpeed {
		a.state.Speed++
	}

	a.handleCameraInput()

	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !a.controls.Contains(mouse) {
		if row, col, ok := a.cam.CellAt(mouse.X, mouse.Y); ok {
			a.inspector.Select(row, col)
		} else {
			a.inspector.Clear()
		}
	}
}

// handleCameraInput processes camera pan/zoom controls.
func (a *App) handleCameraInput() {
	const panSpeed = 8

	if rl.IsKeyDown(rl.KeyRight) {
		a.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.cam.Pan(0, -panSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		a.cam.Pan(-d.X, -d.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		a.cam.Reset()
	}
}

// handleResize propagates window size changes to the camera and panels.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth, a.screenHeight = w, h
	a.cam.Resize(w, h)
	a.controls.SetPosition(w-250, 10)
	a.inspector.SetPosition(int32(w)-250, 210)
}
