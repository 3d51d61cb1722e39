package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSurge         BookmarkType = "surge"
	BookmarkSettled       BookmarkType = "settled"
	BookmarkPressureSpike BookmarkType = "pressure_spike"
)

// Bookmark marks a window worth a closer look.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int          `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector watches window stats for movement surges, the fluid
// coming to rest and pressure spikes.
type BookmarkDetector struct {
	history     []WindowStats
	historyIdx  int
	historyFull bool

	wasMoving bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{history: make([]WindowStats, historySize)}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkSurge,
		bd.checkSettled,
		bd.checkPressureSpike,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % len(bd.history)
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
	bd.wasMoving = stats.Moves > 0
	return bookmarks
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkSurge fires when moves exceed twice the rolling average.
func (bd *BookmarkDetector) checkSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	var total int
	for _, h := range history {
		total += h.Moves
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 || stats.Moves < 10 || float64(stats.Moves) <= avg*2 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSurge,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d moves is %.1fx average (%.1f)", stats.Moves, float64(stats.Moves)/avg, avg),
	}
}

// checkSettled fires on the first quiet window after movement.
func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if !bd.wasMoving || stats.Moves > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No moves over %d ticks", stats.Ticks),
	}
}

// checkPressureSpike fires when peak pressure exceeds twice its rolling average.
func (bd *BookmarkDetector) checkPressureSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	var total float64
	for _, h := range history {
		total += h.PressureMax
	}
	avg := total / float64(len(history))
	if avg <= 0 || stats.PressureMax < 1 || stats.PressureMax <= avg*2 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPressureSpike,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Peak pressure %.2f is %.1fx average (%.2f)", stats.PressureMax, stats.PressureMax/avg, avg),
	}
}
