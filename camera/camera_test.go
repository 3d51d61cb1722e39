package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNewFitsGrid(t *testing.T) {
	// 36x84 grid in a 1260x720 viewport: width limits at 15 px per cell.
	cam := New(1260, 720, 36, 84)

	if cam.X != 42 || cam.Y != 18 {
		t.Errorf("expected center (42, 18), got (%f, %f)", cam.X, cam.Y)
	}
	if !near(cam.Zoom, 15) {
		t.Errorf("expected zoom 15, got %f", cam.Zoom)
	}

	// Grid corners land inside the viewport
	sx, sy := cam.WorldToScreen(0, 0)
	if !near(sx, 0) || sy < 0 {
		t.Errorf("top-left corner at (%f, %f)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(84, 36)
	if !near(sx, 1260) || sy > 720 {
		t.Errorf("bottom-right corner at (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 36, 84)
	cam.ZoomBy(2)
	cam.Pan(100, -40)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)", tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestCellAt(t *testing.T) {
	cam := New(100, 50, 5, 10) // 10 px per cell, grid fills the viewport

	tests := []struct {
		sx, sy   float32
		row, col int
		ok       bool
	}{
		{5, 5, 0, 0, true},
		{95, 45, 4, 9, true},
		{55, 25, 2, 5, true},
		{-1, 5, 0, 0, false},
		{100, 5, 0, 0, false},
		{5, 50, 0, 0, false},
	}
	for _, tt := range tests {
		row, col, ok := cam.CellAt(tt.sx, tt.sy)
		if ok != tt.ok || (ok && (row != tt.row || col != tt.col)) {
			t.Errorf("CellAt(%v, %v) = %d, %d, %v; want %d, %d, %v", tt.sx, tt.sy, row, col, ok, tt.row, tt.col, tt.ok)
		}
	}
}

func TestPanStaysOnGrid(t *testing.T) {
	cam := New(100, 50, 5, 10)

	cam.Pan(-10000, 0)
	if cam.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", cam.X)
	}
	cam.Pan(0, 10000)
	if cam.Y != 5 {
		t.Errorf("expected Y clamped to 5, got %f", cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(100, 50, 5, 10)

	cam.SetZoom(0.1)
	if cam.Zoom != 5 {
		t.Errorf("expected zoom clamped to 5, got %f", cam.Zoom)
	}
	cam.SetZoom(1000)
	if cam.Zoom != 80 {
		t.Errorf("expected zoom clamped to 80, got %f", cam.Zoom)
	}
}

func TestVisibleCells(t *testing.T) {
	cam := New(100, 50, 5, 10)

	row0, row1, col0, col1 := cam.VisibleCells()
	if row0 != 0 || row1 != 5 || col0 != 0 || col1 != 10 {
		t.Errorf("fitted view = rows [%d,%d) cols [%d,%d)", row0, row1, col0, col1)
	}

	cam.SetZoom(20) // 5x2.5 cells visible around (5, 2.5)
	row0, row1, col0, col1 = cam.VisibleCells()
	if col0 != 2 || col1 != 8 || row0 != 1 || row1 != 4 {
		t.Errorf("zoomed view = rows [%d,%d) cols [%d,%d)", row0, row1, col0, col1)
	}
}

func TestResizeAndReset(t *testing.T) {
	cam := New(100, 50, 5, 10)
	cam.ZoomBy(3)
	cam.Pan(30, 10)

	cam.Resize(200, 100)
	if cam.MinZoom != 10 || cam.MaxZoom != 160 {
		t.Errorf("zoom limits after resize = %f..%f", cam.MinZoom, cam.MaxZoom)
	}

	cam.Reset()
	if cam.X != 5 || cam.Y != 2.5 || cam.Zoom != 20 {
		t.Errorf("after reset: (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}
}
