package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellflow/config"
	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/game"
	"github.com/pthm-cable/cellflow/store"
	"github.com/pthm-cable/cellflow/telemetry"
	"github.com/pthm-cable/cellflow/tui"
	"github.com/pthm-cable/cellflow/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	useTUI := flag.Bool("tui", false, "Show the grid in the terminal instead of a window")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	scenarioPath := flag.String("scenario", "", "Scenario JSON/YAML file (empty = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	archiveDSN := flag.String("archive-dsn", "", "PostgreSQL connection string for the run archive")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config; config 0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = use config)")
	saveInterval := flag.Int("save-interval", -1, "Ticks between snapshots (-1 = use config, 0 = never)")
	pType := flag.String("p-type", "", "Pressure number format, e.g. FIXED(32,16)")
	vType := flag.String("v-type", "", "Velocity number format")
	vFlowType := flag.String("v-flow-type", "", "Flow number format")
	replayDir := flag.String("replay", "", "Replay snapshots from this directory in the terminal")
	replayRun := flag.Int64("replay-run", 0, "Replay an archived run by id (needs -archive-dsn)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Command-line overrides
	setString(&cfg.Scenario.Path, *scenarioPath)
	setString(&cfg.Output.SnapshotDir, *snapshotDir)
	setString(&cfg.Output.TelemetryDir, *outputDir)
	setString(&cfg.Output.ArchiveDSN, *archiveDSN)
	setString(&cfg.Types.Pressure, *pType)
	setString(&cfg.Types.Velocity, *vType)
	setString(&cfg.Types.Flow, *vFlowType)
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *maxTicks > 0 {
		cfg.Simulation.Ticks = *maxTicks
	}
	if *saveInterval >= 0 {
		cfg.Simulation.SaveInterval = *saveInterval
	}
	if err := cfg.Finalize(); err != nil {
		slog.Error("invalid options", "error", err)
		os.Exit(1)
	}

	logOut, closeLog, err := logDestination(cfg, *useTUI)
	if err != nil {
		slog.Error("failed to open log", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(newLogger(cfg, logOut))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *replayDir != "" || *replayRun != 0 {
		if err := runReplay(ctx, cfg, *replayDir, *replayRun); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("replay failed", "error", err)
			os.Exit(1)
		}
		return
	}

	g, err := game.NewGame(ctx, cfg, game.Options{LogStats: *logStats || *headless})
	if err != nil {
		var cerr *fluid.ConfigError
		if errors.As(err, &cerr) {
			slog.Error("refusing to start", "constant", cerr.Name, "value", cerr.Value, "format", cerr.Format.String(), "reason", cerr.Reason)
		} else {
			slog.Error("failed to start", "error", err)
		}
		os.Exit(1)
	}

	err = runMode(ctx, g, *headless, *useTUI)
	if cerr := g.Close(context.Background()); cerr != nil {
		slog.Error("failed to close run", "error", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func runMode(ctx context.Context, g *game.Game, headless, useTUI bool) error {
	cfg := g.Config()
	switch {
	case headless:
		slog.Info("starting headless simulation", "ticks", cfg.Simulation.Ticks)
		return g.Run(ctx)

	case useTUI:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("initializing terminal: %w", err)
		}
		defer screen.Fini()
		return tui.New(screen, g).Run(ctx)

	default:
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "cellflow")
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		app := ui.NewApp(g)
		for !rl.WindowShouldClose() && ctx.Err() == nil {
			app.Update(ctx)
			app.Draw(ctx)
		}
		return nil
	}
}

// runReplay shows saved snapshots, from a directory or from the archive.
func runReplay(ctx context.Context, cfg *config.Config, dir string, run int64) error {
	var frames []fluid.Snapshot
	if dir != "" {
		var err error
		if frames, err = telemetry.LoadSnapshots(dir); err != nil {
			return err
		}
	} else {
		if cfg.Output.ArchiveDSN == "" {
			return errors.New("-replay-run needs -archive-dsn")
		}
		archive, err := store.Open(ctx, cfg.Output.ArchiveDSN)
		if err != nil {
			return err
		}
		defer archive.Close()
		if frames, err = archive.Snapshots(ctx, run); err != nil {
			return fmt.Errorf("loading run %d: %w", run, err)
		}
	}
	slog.Info("replaying", "frames", len(frames))

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()
	return tui.NewReplay(screen, frames).Run(ctx)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// logDestination keeps the terminal viewer's screen clean by logging to a
// file in the output directory, or nowhere.
func logDestination(cfg *config.Config, useTUI bool) (io.Writer, func(), error) {
	if !useTUI {
		return os.Stdout, func() {}, nil
	}
	if cfg.Output.TelemetryDir == "" {
		return io.Discard, func() {}, nil
	}
	if err := os.MkdirAll(cfg.Output.TelemetryDir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(filepath.Join(cfg.Output.TelemetryDir, "run.log"))
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Derived.LogLevel}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
