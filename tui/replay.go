package tui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/cellflow/fluid"
)

const replayHelp = "[space] play  [left/right] frame  [home/end] first/last  [q/esc] quit"

// Replay steps through saved snapshots of a finished run.
type Replay struct {
	screen  tcell.Screen
	frames  []fluid.Snapshot
	index   int
	playing bool
}

// NewReplay creates a replay viewer. frames must be in tick order.
func NewReplay(screen tcell.Screen, frames []fluid.Snapshot) *Replay {
	return &Replay{screen: screen, frames: frames}
}

// Run shows frames until the user quits or ctx is cancelled.
func (r *Replay) Run(ctx context.Context) error {
	return runLoop(ctx, r.screen, r.Draw, r.handleEvent, r.advance)
}

func (r *Replay) advance() {
	if !r.playing {
		return
	}
	if r.index < len(r.frames)-1 {
		r.index++
	} else {
		r.playing = false
	}
}

func (r *Replay) seek(i int) {
	r.index = max(0, min(i, len(r.frames)-1))
}

// handleEvent applies one input event. Returns false to quit.
func (r *Replay) handleEvent(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRight:
		r.seek(r.index + 1)
	case tcell.KeyLeft:
		r.seek(r.index - 1)
	case tcell.KeyHome:
		r.seek(0)
	case tcell.KeyEnd:
		r.seek(len(r.frames) - 1)
	case tcell.KeyRune:
		switch key.Rune() {
		case 'q':
			return false
		case ' ':
			r.playing = !r.playing
		case 'l':
			r.seek(r.index + 1)
		case 'h':
			r.seek(r.index - 1)
		}
	}
	return true
}

// Draw renders the current frame.
func (r *Replay) Draw() {
	s := r.screen
	s.Clear()
	if len(r.frames) == 0 {
		drawText(s, 0, 0, "no snapshots", headerStyle)
		s.Show()
		return
	}

	snap := r.frames[r.index]
	status := "paused"
	if r.playing {
		status = "playing"
	}
	header := fmt.Sprintf("frame %d/%d  tick %d  g %g  %s", r.index+1, len(r.frames), snap.Tick, snap.Gravity, status)
	drawText(s, 0, 0, header, headerStyle)

	rows := drawField(s, snap.Field)
	drawText(s, 0, rows+2, replayHelp, helpStyle)
	s.Show()
}
