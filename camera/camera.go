// Package camera maps between screen pixels and grid cells for the viewers.
package camera

// Camera is a pan and zoom view onto a bounded rows×cols grid.
type Camera struct {
	// Position is the view center in world coordinates (cell units)
	X, Y float32

	// Zoom is screen pixels per cell.
	Zoom float32

	ViewportW, ViewportH float32
	Rows, Cols           int

	MinZoom, MaxZoom float32
	fitZoom          float32
}

// New creates a camera that shows the whole grid centered in the viewport.
func New(viewportW, viewportH float32, rows, cols int) *Camera {
	c := &Camera{ViewportW: viewportW, ViewportH: viewportH, Rows: rows, Cols: cols}
	c.refit()
	c.Reset()
	return c
}

// refit recomputes the zoom that fits the grid and the zoom limits.
func (c *Camera) refit() {
	zx := c.ViewportW / float32(max(c.Cols, 1))
	zy := c.ViewportH / float32(max(c.Rows, 1))
	c.fitZoom = min(zx, zy)
	c.MinZoom = c.fitZoom / 2
	c.MaxZoom = c.fitZoom * 8
}

// WorldToScreen converts a point in cell units (column, row) to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen pixels to a point in cell units.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// CellAt returns the grid cell under a screen position.
func (c *Camera) CellAt(sx, sy float32) (row, col int, ok bool) {
	wx, wy := c.ScreenToWorld(sx, sy)
	if wx < 0 || wy < 0 {
		return 0, 0, false
	}
	row, col = int(wy), int(wx)
	if row >= c.Rows || col >= c.Cols {
		return 0, 0, false
	}
	return row, col, true
}

// VisibleCells returns the half-open row and column ranges on screen,
// clipped to the grid.
func (c *Camera) VisibleCells() (row0, row1, col0, col1 int) {
	minX, minY := c.ScreenToWorld(0, 0)
	maxX, maxY := c.ScreenToWorld(c.ViewportW, c.ViewportH)
	row0 = clampInt(int(minY), 0, c.Rows)
	row1 = clampInt(int(maxY)+1, 0, c.Rows)
	col0 = clampInt(int(minX), 0, c.Cols)
	col1 = clampInt(int(maxX)+1, 0, c.Cols)
	return
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.refit()
	c.SetZoom(c.Zoom)
}

// Pan moves the view by a delta in screen pixels. The center stays on the grid.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, float32(c.Cols))
	c.Y = clamp(c.Y+dy/c.Zoom, 0, float32(c.Rows))
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the grid and fits it to the viewport.
func (c *Camera) Reset() {
	c.X = float32(c.Cols) / 2
	c.Y = float32(c.Rows) / 2
	c.Zoom = c.fitZoom
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
