// Package game drives a simulation run: it loads the scenario, steps the
// simulator and feeds telemetry, snapshots and the archive. Viewers call
// Step once per frame; headless runs call Run.
package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/cellflow/config"
	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/scenario"
	"github.com/pthm-cable/cellflow/store"
	"github.com/pthm-cable/cellflow/telemetry"
)

// bookmarkHistory is the number of windows bookmarks compare against.
const bookmarkHistory = 10

// Options holds runtime options not covered by the config file.
type Options struct {
	LogStats bool // Log window and perf stats at every stats interval

	// Scenario overrides cfg.Scenario.Path when set.
	Scenario *scenario.Scenario

	// StatsCallback, if set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the state of one run.
type Game struct {
	cfg *config.Config
	sim *fluid.Simulator

	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	archive          *store.Archive

	snapshotDir   string
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	lastTick  fluid.TickStats
	lastStats telemetry.WindowStats
	closed    bool
}

// NewGame builds a run from the configuration. Scenario and physical
// constant errors are returned before any output is created.
func NewGame(ctx context.Context, cfg *config.Config, opts Options) (*Game, error) {
	sc := opts.Scenario
	if sc == nil {
		var err error
		if sc, err = scenario.Load(cfg.Scenario.Path, cfg.Derived.Limits); err != nil {
			return nil, err
		}
	}

	g := &Game{
		cfg:              cfg,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(bookmarkHistory),
		snapshotDir:      cfg.Output.SnapshotDir,
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
	}
	if cfg.Telemetry.StatsInterval > 0 {
		g.collector = telemetry.NewCollector(cfg.Telemetry.StatsInterval)
	}

	simOpts := cfg.SimOptions()
	simOpts.OnPhase = g.perfCollector.StartPhase
	sim, err := fluid.New(sc, simOpts)
	if err != nil {
		return nil, err
	}
	g.sim = sim

	rows, cols := sim.Grid().Size()
	formats := sim.Formats()
	slog.Info("simulation configured",
		"seed", sim.Seed(),
		"rows", rows,
		"cols", cols,
		"p_type", formats.Pressure.String(),
		"v_type", formats.Velocity.String(),
		"v_flow_type", formats.Flow.String(),
		"ticks", cfg.Simulation.Ticks,
		"save_interval", cfg.Simulation.SaveInterval,
	)

	if g.outputManager, err = telemetry.NewOutputManager(cfg.Output.TelemetryDir); err != nil {
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if err := g.openArchive(ctx); err != nil {
		g.outputManager.Close()
		return nil, err
	}
	return g, nil
}

func (g *Game) openArchive(ctx context.Context) error {
	archive, err := store.Open(ctx, g.cfg.Output.ArchiveDSN)
	if err != nil {
		return err
	}
	if err := archive.Migrate(ctx); err != nil {
		archive.Close()
		return err
	}
	if _, err := archive.StartRun(ctx, g.sim.Seed(), g.cfg.Scenario.Path, g.sim.Formats()); err != nil {
		archive.Close()
		return err
	}
	g.archive = archive
	return nil
}

// Run steps the simulation until the configured tick count or until ctx is
// cancelled.
func (g *Game) Run(ctx context.Context) error {
	remaining := g.cfg.Simulation.Ticks - g.sim.Tick()
	if remaining <= 0 {
		return nil
	}
	g.perfCollector.StartTick()
	return g.sim.Run(ctx, remaining, g.cfg.Simulation.SaveInterval, fluid.Hooks{
		OnTick: func(st fluid.TickStats) error {
			g.afterTick(ctx, st)
			g.perfCollector.StartTick()
			return nil
		},
		OnSnapshot: func(snap fluid.Snapshot) error {
			g.saveSnapshot(ctx, snap, nil)
			return nil
		},
	})
}

// Step advances one tick with the same outputs as Run.
func (g *Game) Step(ctx context.Context) fluid.TickStats {
	g.perfCollector.StartTick()
	st := g.sim.Step()
	g.afterTick(ctx, st)

	if n := g.cfg.Simulation.SaveInterval; n > 0 && g.sim.Tick()%n == 0 {
		g.saveSnapshot(ctx, g.sim.Snapshot(), nil)
	}
	if st.Moves > 0 && slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("tick", "tick", st.Tick, "field", g.sim.Grid().Rows())
	}
	return st
}

// afterTick records a finished tick. Output failures are logged; only
// configuration errors end a run.
func (g *Game) afterTick(ctx context.Context, st fluid.TickStats) {
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.lastTick = st

	if err := g.outputManager.WriteTick(st); err != nil {
		slog.Error("failed to write tick", "error", err)
	}
	if g.collector != nil {
		g.collector.Record(st)
		g.flushTelemetry(ctx)
	}
	g.perfCollector.EndTick()
}

// saveSnapshot writes a snapshot to the snapshot dir and the archive.
func (g *Game) saveSnapshot(ctx context.Context, snap fluid.Snapshot, bookmark *telemetry.Bookmark) {
	if g.snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(snap, g.snapshotDir)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			attrs := []any{"path", path, "tick", snap.Tick}
			if bookmark != nil {
				attrs = append(attrs, "bookmark", string(bookmark.Type))
			}
			slog.Info("snapshot saved", attrs...)
		}
	}
	if err := g.archive.SaveSnapshot(ctx, snap); err != nil {
		slog.Error("failed to archive snapshot", "error", err)
	}
}

// Close finishes the run and releases outputs. It is safe to call twice.
func (g *Game) Close(ctx context.Context) error {
	if g.closed {
		return nil
	}
	g.closed = true

	var firstErr error
	if err := g.archive.FinishRun(ctx, g.sim.Tick()); err != nil {
		firstErr = err
	}
	if err := g.archive.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.outputManager.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing output: %w", err)
	}
	return firstErr
}

// Done reports whether the configured tick count has been reached.
func (g *Game) Done() bool {
	return g.sim.Tick() >= g.cfg.Simulation.Ticks
}

// Sim returns the simulator.
func (g *Game) Sim() *fluid.Simulator { return g.sim }

// Tick returns the number of completed ticks.
func (g *Game) Tick() int { return g.sim.Tick() }

// LastTick returns the stats of the most recent tick.
func (g *Game) LastTick() fluid.TickStats { return g.lastTick }

// LastStats returns the most recently flushed stats window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// Perf returns the rolling performance collector.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perfCollector }

// Config returns the run configuration.
func (g *Game) Config() *config.Config { return g.cfg }

// SaveSnapshot writes a snapshot of the current tick on request.
func (g *Game) SaveSnapshot(ctx context.Context) {
	g.saveSnapshot(ctx, g.sim.Snapshot(), nil)
}
