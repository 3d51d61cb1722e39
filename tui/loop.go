package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
)

// runLoop polls screen events on a goroutine and multiplexes them with a
// frame ticker. onEvent returns false to quit.
func runLoop(ctx context.Context, screen tcell.Screen, draw func(), onEvent func(tcell.Event) bool, onFrame func()) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
			if !onEvent(ev) {
				return nil
			}
			draw()
		case <-ticker.C:
			onFrame()
			draw()
		}
	}
}

// drawField draws text rows below the header line and returns the row count.
func drawField(s tcell.Screen, field []string) int {
	for x, row := range field {
		for y := 0; y < len(row); y++ {
			s.SetContent(y, x+1, rune(row[y]), nil, cellStyle(row[y]))
		}
	}
	return len(field)
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
