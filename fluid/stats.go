package fluid

import (
	"log/slog"

	"github.com/pthm-cable/cellflow/fixed"
)

// TickStats summarizes one tick.
type TickStats struct {
	Tick     int
	Sweeps   int // flow sweeps until convergence
	Attempts int // cells whose move draw succeeded
	Moves    int // chains that closed
	Swaps    int
	Stops    int

	GravityInjected fixed.Num // velocity added by gravity
	Outgoing        fixed.Num // positive velocity before the clamp, in flow format
	RoutedFlow      fixed.Num
	Clamped         fixed.Num // Outgoing - RoutedFlow
	TotalDeltaP     fixed.Num
}

// LogValue implements slog.LogValuer.
func (st TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", st.Tick),
		slog.Int("sweeps", st.Sweeps),
		slog.Int("attempts", st.Attempts),
		slog.Int("moves", st.Moves),
		slog.Int("swaps", st.Swaps),
		slog.Int("stops", st.Stops),
		slog.Float64("gravity_injected", st.GravityInjected.Float64()),
		slog.Float64("routed_flow", st.RoutedFlow.Float64()),
		slog.Float64("clamped", st.Clamped.Float64()),
		slog.Float64("total_delta_p", st.TotalDeltaP.Float64()),
	)
}

// Snapshot is the diagnostic state written every save interval. It holds
// what is needed to view the grid, not to resume the simulation. The JSON
// form loads back as a scenario.
type Snapshot struct {
	Gravity float64            `json:"g"`
	Density map[string]float64 `json:"rho"`
	Field   []string           `json:"field"`
	Tick    int                `json:"tick"`
}
