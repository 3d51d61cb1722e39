package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/cellflow/config"
	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/scenario"
	"github.com/pthm-cable/cellflow/telemetry"
)

func testScenario(g float64) *scenario.Scenario {
	return scenario.New(g, map[string]float64{" ": 0.01, ".": 1000}, []string{
		"##########",
		"#...     #",
		"#...     #",
		"#...  #  #",
		"##########",
	})
}

func testConfig(t *testing.T, ticks int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Simulation.Ticks = ticks
	cfg.Simulation.SaveInterval = 5
	cfg.Simulation.Seed = 11
	cfg.Telemetry.StatsInterval = 10
	cfg.Output.SnapshotDir = filepath.Join(dir, "snapshots")
	cfg.Output.TelemetryDir = filepath.Join(dir, "telemetry")
	require.NoError(t, cfg.Finalize())
	return cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return len(strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestRunWritesOutputs(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, 20)

	var windows []telemetry.WindowStats
	g, err := NewGame(ctx, cfg, Options{
		Scenario:      testScenario(0.1),
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	require.NoError(t, err)

	require.NoError(t, g.Run(ctx))
	require.NoError(t, g.Close(ctx))

	assert.True(t, g.Done())
	assert.Equal(t, 20, g.Tick())
	require.Len(t, windows, 2)
	assert.Equal(t, 10, windows[0].WindowEndTick)
	assert.Equal(t, 20, windows[1].WindowEndTick)
	assert.Equal(t, 9, windows[1].LiquidCells)
	assert.Equal(t, windows[1], g.LastStats())

	entries, err := os.ReadDir(cfg.Output.SnapshotDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"output.json",
		"snapshot_000005.json",
		"snapshot_000010.json",
		"snapshot_000015.json",
		"snapshot_000020.json",
	}, names)

	assert.Equal(t, 21, countLines(t, filepath.Join(cfg.Output.TelemetryDir, "ticks.csv")))
	assert.Equal(t, 3, countLines(t, filepath.Join(cfg.Output.TelemetryDir, "telemetry.csv")))
	assert.Equal(t, 3, countLines(t, filepath.Join(cfg.Output.TelemetryDir, "perf.csv")))
	assert.FileExists(t, filepath.Join(cfg.Output.TelemetryDir, "config.yaml"))
}

func TestStepMatchesRun(t *testing.T) {
	ctx := context.Background()

	a, err := NewGame(ctx, testConfig(t, 25), Options{Scenario: testScenario(0.1)})
	require.NoError(t, err)
	require.NoError(t, a.Run(ctx))

	b, err := NewGame(ctx, testConfig(t, 25), Options{Scenario: testScenario(0.1)})
	require.NoError(t, err)
	for !b.Done() {
		b.Step(ctx)
	}

	assert.Equal(t, a.Sim().Snapshot(), b.Sim().Snapshot())
	assert.Equal(t, a.LastTick(), b.LastTick())
	assert.NoError(t, a.Close(ctx))
	assert.NoError(t, b.Close(ctx))
}

func TestNewGameRejectsBadConstants(t *testing.T) {
	_, err := NewGame(context.Background(), testConfig(t, 10), Options{Scenario: testScenario(0)})

	var cerr *fluid.ConfigError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, "g", cerr.Name)
}

func TestNewGameLoadsScenarioFile(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Scenario.Path = filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(cfg.Scenario.Path, []byte(`{"g": 0.1, "rho": {" ": 0.01, ".": 1000}, "field": ["####", "#. #", "####"]}`), 0644))

	g, err := NewGame(context.Background(), cfg, Options{})
	require.NoError(t, err)
	rows, cols := g.Sim().Grid().Size()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	assert.NoError(t, g.Close(context.Background()))
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, err := NewGame(ctx, testConfig(t, 100), Options{Scenario: testScenario(0.1)})
	require.NoError(t, err)

	cancel()
	assert.ErrorIs(t, g.Run(ctx), context.Canceled)
	assert.Equal(t, 0, g.Tick())
	assert.NoError(t, g.Close(context.Background()))
	assert.NoError(t, g.Close(context.Background()))
}
