package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Surge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: i * 100, Ticks: 100, Moves: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Ticks: 100, Moves: 40})
	if !hasBookmark(bookmarks, BookmarkSurge) {
		t.Error("expected surge bookmark")
	}
}

func TestBookmarkDetector_SurgeNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{Moves: 1})

	if bookmarks := bd.Check(WindowStats{Moves: 100}); hasBookmark(bookmarks, BookmarkSurge) {
		t.Error("surge should need at least three windows of history")
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(5)

	if bookmarks := bd.Check(WindowStats{Ticks: 100}); hasBookmark(bookmarks, BookmarkSettled) {
		t.Error("quiet start should not count as settling")
	}
	bd.Check(WindowStats{WindowEndTick: 200, Ticks: 100, Moves: 12})

	bookmarks := bd.Check(WindowStats{WindowEndTick: 300, Ticks: 100})
	if !hasBookmark(bookmarks, BookmarkSettled) {
		t.Fatal("expected settled bookmark")
	}
	if bookmarks[0].Tick != 300 {
		t.Errorf("bookmark tick = %d, want 300", bookmarks[0].Tick)
	}

	// Fires once per transition.
	if bookmarks := bd.Check(WindowStats{WindowEndTick: 400, Ticks: 100}); hasBookmark(bookmarks, BookmarkSettled) {
		t.Error("settled should not repeat while still at rest")
	}
}

func TestBookmarkDetector_PressureSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{PressureMax: 2, Moves: 1})
	}

	if bookmarks := bd.Check(WindowStats{PressureMax: 3, Moves: 1}); hasBookmark(bookmarks, BookmarkPressureSpike) {
		t.Error("1.5x average should not trigger")
	}
	if bookmarks := bd.Check(WindowStats{PressureMax: 10, Moves: 1}); !hasBookmark(bookmarks, BookmarkPressureSpike) {
		t.Error("expected pressure_spike bookmark")
	}
}
