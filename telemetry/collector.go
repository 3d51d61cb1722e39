package telemetry

import "github.com/pthm-cable/cellflow/fluid"

// Collector accumulates tick results within windows and produces WindowStats.
type Collector struct {
	windowTicks     int
	windowStartTick int

	// Counters for current window
	ticks           int
	attempts        int
	moves           int
	swaps           int
	stops           int
	sweeps          int
	maxSweeps       int
	gravityInjected float64
	routedFlow      float64
	clamped         float64
	totalDeltaP     float64
}

// NewCollector creates a collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// Record adds one tick's results to the current window.
func (c *Collector) Record(st fluid.TickStats) {
	c.ticks++
	c.attempts += st.Attempts
	c.moves += st.Moves
	c.swaps += st.Swaps
	c.stops += st.Stops
	c.sweeps += st.Sweeps
	if st.Sweeps > c.maxSweeps {
		c.maxSweeps = st.Sweeps
	}
	c.gravityInjected += st.GravityInjected.Float64()
	c.routedFlow += st.RoutedFlow.Float64()
	c.clamped += st.Clamped.Float64()
	c.totalDeltaP += st.TotalDeltaP.Float64()
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats from the window counters and the field state
// at currentTick, then starts a new window.
func (c *Collector) Flush(currentTick int, pressures, speeds []float64, liquidCells int) WindowStats {
	var avgSweeps float64
	if c.ticks > 0 {
		avgSweeps = float64(c.sweeps) / float64(c.ticks)
	}
	p := ComputeFieldStats(pressures)
	v := ComputeFieldStats(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Ticks:           c.ticks,

		Attempts: c.attempts,
		Moves:    c.moves,
		Swaps:    c.swaps,
		Stops:    c.stops,

		AvgSweeps:       avgSweeps,
		MaxSweeps:       c.maxSweeps,
		GravityInjected: c.gravityInjected,
		RoutedFlow:      c.routedFlow,
		Clamped:         c.clamped,
		TotalDeltaP:     c.totalDeltaP,

		PressureMean: p.Mean,
		PressureStd:  p.Std,
		PressureP10:  p.P10,
		PressureP50:  p.P50,
		PressureP90:  p.P90,
		PressureMax:  p.Max,
		SpeedMean:    v.Mean,
		SpeedMax:     v.Max,

		LiquidCells: liquidCells,
	}

	*c = Collector{windowTicks: c.windowTicks, windowStartTick: currentTick}
	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
