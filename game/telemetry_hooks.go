package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/cellflow/fluid"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry(ctx context.Context) {
	tick := g.sim.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.sim.Pressures(), g.sim.Speeds(), g.sim.Grid().Count(fluid.Liquid))
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if err := g.archive.SaveWindow(ctx, stats); err != nil {
		slog.Error("failed to archive stats", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		// Interval snapshots already cover this tick.
		if n := g.cfg.Simulation.SaveInterval; n > 0 && tick%n == 0 {
			continue
		}
		g.saveSnapshot(ctx, g.sim.Snapshot(), &bm)
	}
}
