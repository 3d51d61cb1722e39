// Package tui shows a running simulation in the terminal with tcell.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/game"
)

const (
	frameInterval = 50 * time.Millisecond
	maxSpeed      = 50
	helpLine      = "[space] pause  [n] step  [+/-] speed  [s] snapshot  [q/esc] quit"
)

var (
	wallStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorDarkSlateGray)
	airStyle    = tcell.StyleDefault
	liquidStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue)
	otherStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	headerStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	helpStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Viewer draws the grid as text, one terminal cell per grid cell.
type Viewer struct {
	screen tcell.Screen
	game   *game.Game

	paused bool
	speed  int
}

// New creates a viewer on an initialized screen.
func New(screen tcell.Screen, g *game.Game) *Viewer {
	return &Viewer{screen: screen, game: g, speed: 1}
}

// Run steps and redraws until the run finishes and the user quits, or ctx
// is cancelled. The caller owns the screen and calls Fini.
func (v *Viewer) Run(ctx context.Context) error {
	return runLoop(ctx, v.screen, v.Draw,
		func(ev tcell.Event) bool { return v.handleEvent(ctx, ev) },
		func() { v.advance(ctx) })
}

// advance runs speed ticks unless paused or finished.
func (v *Viewer) advance(ctx context.Context) {
	if v.paused {
		return
	}
	for i := 0; i < v.speed && !v.game.Done(); i++ {
		v.game.Step(ctx)
	}
}

// handleEvent applies one input event. Returns false to quit.
func (v *Viewer) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			case 'n':
				if !v.game.Done() {
					v.game.Step(ctx)
				}
			case '+', '=':
				v.speed = min(v.speed+1, maxSpeed)
			case '-':
				v.speed = max(v.speed-1, 1)
			case 's':
				v.game.SaveSnapshot(ctx)
			}
		}
	}
	return true
}

// Draw renders the header, the grid and the key help.
func (v *Viewer) Draw() {
	s := v.screen
	s.Clear()

	sim := v.game.Sim()
	last := v.game.LastTick()
	status := "running"
	switch {
	case v.game.Done():
		status = "done"
	case v.paused:
		status = "paused"
	}
	header := fmt.Sprintf("tick %d/%d  moves %d  sweeps %d  speed %dx  seed %d  %s",
		v.game.Tick(), v.game.Config().Simulation.Ticks, last.Moves, last.Sweeps, v.speed, sim.Seed(), status)
	drawText(s, 0, 0, header, headerStyle)

	rows := drawField(s, sim.Grid().Rows())
	drawText(s, 0, rows+2, helpLine, helpStyle)
	s.Show()
}

func cellStyle(k byte) tcell.Style {
	switch k {
	case fluid.Wall:
		return wallStyle
	case fluid.Air:
		return airStyle
	case fluid.Liquid:
		return liquidStyle
	}
	return otherStyle
}
