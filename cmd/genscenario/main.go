// Scenario generator with an optional interactive preview.
//
// Usage:
//
//	go run ./cmd/genscenario -out cave.json -seed 7
//	go run ./cmd/genscenario -preview
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellflow/scenario"
)

const (
	windowWidth  = 1280
	windowHeight = 640
	panelWidth   = 300
	sliderWidth  = panelWidth - 90
)

func main() {
	defaults := scenario.DefaultGenerateOptions()

	out := flag.String("out", "input.json", "Output scenario file")
	preview := flag.Bool("preview", false, "Tune parameters in a window before saving")
	rows := flag.Int("rows", defaults.Rows, "Grid rows")
	cols := flag.Int("cols", defaults.Cols, "Grid columns")
	seed := flag.Int64("seed", defaults.Seed, "Noise seed")
	scale := flag.Float64("scale", defaults.Scale, "Noise frequency per cell")
	octaves := flag.Int("octaves", defaults.Octaves, "Noise octaves")
	wall := flag.Float64("wall", defaults.WallLevel, "Noise level above which cells become wall")
	fill := flag.Float64("fill", defaults.FillRatio, "Share of open cells filled with liquid")
	gravity := flag.Float64("g", defaults.Gravity, "Gravity constant")
	flag.Parse()

	opts := defaults
	opts.Rows, opts.Cols, opts.Seed = *rows, *cols, *seed
	opts.Scale, opts.Octaves = *scale, *octaves
	opts.WallLevel, opts.FillRatio, opts.Gravity = *wall, *fill, *gravity

	if *preview {
		opts = runPreview(opts, *out)
	}

	sc, err := scenario.Generate(opts)
	if err != nil {
		slog.Error("failed to generate scenario", "error", err)
		os.Exit(1)
	}
	if err := sc.Save(*out); err != nil {
		slog.Error("failed to save scenario", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario written", "path", *out, "rows", opts.Rows, "cols", opts.Cols, "seed", opts.Seed)
}

// runPreview shows the generated field next to parameter sliders until the
// window is closed, and returns the final parameters.
func runPreview(opts scenario.GenerateOptions, out string) scenario.GenerateOptions {
	rl.InitWindow(windowWidth, windowHeight, "cellflow scenario preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	sc, _ := scenario.Generate(opts)
	status := ""

	for !rl.WindowShouldClose() {
		next := opts

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		drawField(sc)

		panelX := float32(windowWidth - panelWidth)
		panelY := float32(10)
		rl.DrawText("Generator", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, value string, v, lo, hi float32) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v = gui.SliderBar(rl.Rectangle{X: panelX, Y: panelY, Width: sliderWidth, Height: 20}, "", "", v, lo, hi)
			rl.DrawText(value, int32(panelX+sliderWidth+10), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		next.Scale = float64(slider("Scale", fmt.Sprintf("%.3f", opts.Scale), float32(opts.Scale), 0.02, 0.5))
		next.Octaves = int(slider("Octaves", fmt.Sprintf("%d", opts.Octaves), float32(opts.Octaves), 1, 6))
		next.WallLevel = float64(slider("Wall level", fmt.Sprintf("%.2f", opts.WallLevel), float32(opts.WallLevel), -0.5, 1))
		next.FillRatio = float64(slider("Liquid fill", fmt.Sprintf("%.2f", opts.FillRatio), float32(opts.FillRatio), 0, 1))
		next.Seed = int64(slider("Seed", fmt.Sprintf("%d", opts.Seed), float32(opts.Seed), 0, 99999))

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			next.Seed = int64(rl.GetRandomValue(0, 99999))
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Save") {
			if err := sc.Save(out); err != nil {
				status = err.Error()
			} else {
				status = "saved " + out
			}
		}
		panelY += 45
		rl.DrawText(status, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.EndDrawing()

		if next != opts {
			if regen, err := scenario.Generate(next); err == nil {
				opts, sc = next, regen
				status = ""
			}
		}
	}
	return opts
}

func drawField(sc *scenario.Scenario) {
	if sc == nil || len(sc.Field) == 0 {
		return
	}
	rows, cols := len(sc.Field), len(sc.Field[0])
	cell := min((windowWidth-panelWidth-20)/cols, (windowHeight-20)/rows)
	for r, row := range sc.Field {
		for c := 0; c < len(row); c++ {
			var col rl.Color
			switch row[c] {
			case scenario.TagWall:
				col = rl.DarkGray
			case scenario.TagLiquid:
				col = rl.Blue
			default:
				continue
			}
			rl.DrawRectangle(int32(10+c*cell), int32(10+r*cell), int32(cell), int32(cell), col)
		}
	}
	rl.DrawRectangleLines(10, 10, int32(cols*cell), int32(rows*cell), rl.Gray)
}
