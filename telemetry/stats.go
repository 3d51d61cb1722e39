package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`
	Ticks           int `csv:"ticks"`

	// Movement during window
	Attempts int `csv:"attempts"`
	Moves    int `csv:"moves"`
	Swaps    int `csv:"swaps"`
	Stops    int `csv:"stops"`

	// Flow accounting during window
	AvgSweeps       float64 `csv:"avg_sweeps"`
	MaxSweeps       int     `csv:"max_sweeps"`
	GravityInjected float64 `csv:"gravity_injected"`
	RoutedFlow      float64 `csv:"routed_flow"`
	Clamped         float64 `csv:"clamped"`
	TotalDeltaP     float64 `csv:"total_delta_p"`

	// Field distribution (sampled at window end)
	PressureMean float64 `csv:"pressure_mean"`
	PressureStd  float64 `csv:"pressure_std"`
	PressureP10  float64 `csv:"pressure_p10"`
	PressureP50  float64 `csv:"pressure_p50"`
	PressureP90  float64 `csv:"pressure_p90"`
	PressureMax  float64 `csv:"pressure_max"`
	SpeedMean    float64 `csv:"speed_mean"`
	SpeedMax     float64 `csv:"speed_max"`

	LiquidCells int `csv:"liquid_cells"`
}

// FieldStats summarizes a distribution of per-cell values.
type FieldStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// ComputeFieldStats calculates mean, sample standard deviation, empirical
// quantiles and maximum. Empty input yields zeros.
func ComputeFieldStats(values []float64) FieldStats {
	n := len(values)
	if n == 0 {
		return FieldStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var fs FieldStats
	if n == 1 {
		fs.Mean = sorted[0]
	} else {
		fs.Mean, fs.Std = stat.MeanStdDev(sorted, nil)
	}
	fs.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	fs.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	fs.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	fs.Max = floats.Max(sorted)
	return fs
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("ticks", s.Ticks),
		slog.Int("attempts", s.Attempts),
		slog.Int("moves", s.Moves),
		slog.Int("swaps", s.Swaps),
		slog.Int("stops", s.Stops),
		slog.Float64("avg_sweeps", s.AvgSweeps),
		slog.Int("max_sweeps", s.MaxSweeps),
		slog.Float64("gravity_injected", s.GravityInjected),
		slog.Float64("routed_flow", s.RoutedFlow),
		slog.Float64("clamped", s.Clamped),
		slog.Float64("total_delta_p", s.TotalDeltaP),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Float64("pressure_std", s.PressureStd),
		slog.Float64("pressure_p50", s.PressureP50),
		slog.Float64("pressure_max", s.PressureMax),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Int("liquid_cells", s.LiquidCells),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"moves", s.Moves,
		"swaps", s.Swaps,
		"stops", s.Stops,
		"avg_sweeps", s.AvgSweeps,
		"max_sweeps", s.MaxSweeps,
		"routed_flow", s.RoutedFlow,
		"clamped", s.Clamped,
		"total_delta_p", s.TotalDeltaP,
		"pressure_mean", s.PressureMean,
		"pressure_p90", s.PressureP90,
		"pressure_max", s.PressureMax,
		"speed_max", s.SpeedMax,
	)
}
