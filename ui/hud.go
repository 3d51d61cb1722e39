package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Tick        int
	MaxTicks    int
	Speed       int
	FPS         int32
	Paused      bool
	Overlay     string
	Moves       int
	Sweeps      int
	LiquidCells int
	Seed        int64
	Formats     string
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD { return &HUD{} }

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	tick := fmt.Sprintf("Tick: %d", data.Tick)
	if data.MaxTicks > 0 {
		tick = fmt.Sprintf("Tick: %d/%d", data.Tick, data.MaxTicks)
	}
	rl.DrawText(
		fmt.Sprintf("%s | Speed: %dx | FPS: %d | Seed: %d", tick, data.Speed, data.FPS, data.Seed),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Moves: %d | Sweeps: %d | Liquid: %d | View: %s", data.Moves, data.Sweeps, data.LiquidCells, data.Overlay),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(data.Formats, 10, 75, 14, rl.Gray)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, 10, 93, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}
