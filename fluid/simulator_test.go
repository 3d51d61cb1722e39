package fluid

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/cellflow/fixed"
	"github.com/pthm-cable/cellflow/scenario"
)

var damBreak = []string{
	"##########",
	"#...     #",
	"#...     #",
	"#...  #  #",
	"#...     #",
	"##########",
}

func newSim(t *testing.T, field []string, g float64, rho map[string]float64, opts Options) *Simulator {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	s, err := New(scenario.New(g, rho, field), opts)
	require.NoError(t, err)
	return s
}

func TestNewRejectsUnusableConstants(t *testing.T) {
	q162 := fixed.MustParseFormat("FIXED(16,2)")
	coarse := Formats{Pressure: fixed.Q32_16, Velocity: q162, Flow: fixed.Q32_16}

	tests := []struct {
		name     string
		g        float64
		rho      map[string]float64
		formats  Formats
		wantName string
	}{
		{"zero gravity", 0, map[string]float64{".": 1}, Formats{}, "g"},
		{"negative gravity", -1, map[string]float64{".": 1}, Formats{}, "g"},
		{"density lost to precision", 0.5, map[string]float64{".": 0.1}, coarse, `rho['.']`},
		{"negative density", 0.5, map[string]float64{".": -2}, Formats{}, `rho['.']`},
		{"missing density", 0.5, map[string]float64{" ": 1}, Formats{}, `rho['.']`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(scenario.New(tt.g, tt.rho, []string{"###", "#.#", "###"}), Options{Formats: tt.formats, Seed: 1})
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.wantName, cfgErr.Name)
		})
	}
}

func TestNewUnusedDensityMayBeZero(t *testing.T) {
	_, err := New(scenario.New(0.5, map[string]float64{".": 1, "x": 0}, []string{"###", "#.#", "###"}), Options{Seed: 1})
	assert.NoError(t, err)
}

func TestWallsAndAirStayStill(t *testing.T) {
	field := []string{
		"#######",
		"#     #",
		"#######",
	}
	s := newSim(t, field, 0.1, map[string]float64{" ": 0.01}, Options{})

	for i := 0; i < 10; i++ {
		st := s.Step()
		assert.True(t, st.GravityInjected.IsZero())
		assert.True(t, st.TotalDeltaP.IsZero())
		assert.True(t, st.RoutedFlow.IsZero())
		assert.Zero(t, st.Moves)
		assert.Equal(t, 1, st.Sweeps)
	}
	assert.Equal(t, field, s.Grid().Rows())
	for _, p := range s.Pressures() {
		assert.Zero(t, p)
	}
}

func TestGravityAgainstFloorBecomesPressure(t *testing.T) {
	field := []string{
		"###",
		"#.#",
		"#.#",
		"###",
	}
	s := newSim(t, field, 0.25, map[string]float64{".": 4}, Options{})

	st := s.Step()

	// 0.25 of unrouted velocity times density 4, damped by 0.8, lands on the
	// bottom cell which has a single open neighbor.
	want := fixed.FromFloat(fixed.Q32_16, 0.8)
	assert.True(t, s.Grid().Pressure(2, 1).Equal(want), "got %v", s.Grid().Pressure(2, 1))
	assert.True(t, s.Grid().Pressure(1, 1).IsZero())
	assert.True(t, st.TotalDeltaP.Equal(want))
	assert.True(t, st.GravityInjected.Equal(fixed.FromFloat(fixed.Q32_16, 0.25)))
	assert.True(t, st.Clamped.Equal(fixed.FromFloat(fixed.Q32_16, 0.25)))
	assert.True(t, s.Velocity(1, 1, Down).IsZero())
	assert.Equal(t, field, s.Grid().Rows())
}

func TestPressureExchangeIsConservative(t *testing.T) {
	field := []string{
		"####",
		"#..#",
		"####",
	}
	s := newSim(t, field, 0.25, map[string]float64{".": 2}, Options{LiquidDamping: 1})
	s.Grid().SetPressure(1, 1, fixed.FromInt(fixed.Q32_16, 1))

	st := s.Step()

	assert.True(t, s.Grid().Pressure(1, 1).IsZero(), "got %v", s.Grid().Pressure(1, 1))
	assert.Equal(t, 1.0, s.Grid().Pressure(1, 2).Float64())
	assert.True(t, st.TotalDeltaP.IsZero(), "got %v", st.TotalDeltaP)
	assert.Equal(t, field, s.Grid().Rows())
}

func TestPressureAbsorbedByReverseVelocity(t *testing.T) {
	field := []string{
		"####",
		"#..#",
		"####",
	}
	s := newSim(t, field, 0.25, map[string]float64{".": 2}, Options{})
	q := fixed.Q32_16
	s.grid.SetPressure(1, 1, fixed.FromInt(q, 1))
	s.velocity.Set(1, 2, Left, fixed.FromInt(q, 1))

	var st TickStats
	s.exchangePressure(&st)

	// Force 1 fits within 1 * density 2, so the reverse velocity drops by 1/2.
	assert.Equal(t, 0.5, s.velocity.Get(1, 2, Left).Float64())
	assert.True(t, s.velocity.Get(1, 1, Right).IsZero())
	assert.Equal(t, 1.0, s.grid.Pressure(1, 1).Float64())
	assert.True(t, st.TotalDeltaP.IsZero())
}

func loopSim(t *testing.T, v int64) *Simulator {
	t.Helper()
	s := newSim(t, []string{
		"####",
		"#..#",
		"#..#",
		"####",
	}, 0.1, map[string]float64{".": 1}, Options{})
	one := fixed.FromInt(fixed.Q32_16, v)
	s.velocity.Set(1, 1, Right, one)
	s.velocity.Set(1, 2, Down, one)
	s.velocity.Set(2, 2, Left, one)
	s.velocity.Set(2, 1, Up, one)
	return s
}

func TestFlowCirculatesAroundLoop(t *testing.T) {
	s := loopSim(t, 1)
	var st TickStats
	s.propagateSweeps(&st)

	assert.Equal(t, 2, st.Sweeps)
	one := fixed.FromInt(fixed.Q32_16, 1)
	for _, e := range []struct {
		x, y int
		d    Direction
	}{{1, 1, Right}, {1, 2, Down}, {2, 2, Left}, {2, 1, Up}} {
		assert.True(t, s.flow.Get(e.x, e.y, e.d).Equal(one), "flow at (%d,%d) %v = %v", e.x, e.y, e.d, s.flow.Get(e.x, e.y, e.d))
	}
	assert.True(t, s.flow.Get(1, 1, Down).IsZero())
}

func TestFlowSweepsRepeatUntilSaturated(t *testing.T) {
	s := loopSim(t, 2)
	var st TickStats
	s.propagateSweeps(&st)

	// Each sweep routes at most one unit per edge.
	assert.Equal(t, 3, st.Sweeps)
	two := fixed.FromInt(fixed.Q32_16, 2)
	assert.True(t, s.flow.Get(1, 1, Right).Equal(two))
	assert.True(t, s.flow.Get(2, 1, Up).Equal(two))
}

func TestPropagateFlowDeadEnd(t *testing.T) {
	s := newSim(t, []string{"####", "#. #", "####"}, 0.1, map[string]float64{".": 1, " ": 1}, Options{})
	s.velocity.Set(1, 1, Right, fixed.FromInt(fixed.Q32_16, 1))
	s.grid.stamp = 2

	routed, ok, _ := s.propagateFlow(1, 1, fixed.FromInt(fixed.Q32_16, 1))
	assert.False(t, ok)
	assert.True(t, routed.IsZero())
	assert.True(t, s.flow.Get(1, 1, Right).IsZero())
	assert.Equal(t, 2, s.grid.used(1, 1))
	assert.Equal(t, 2, s.grid.used(1, 2))
}

func TestMoveSwapsAlongClosedChain(t *testing.T) {
	s := newSim(t, []string{"####", "#. #", "####"}, 0.1, map[string]float64{".": 1, " ": 1}, Options{})
	one := fixed.FromInt(fixed.Q32_16, 1)
	s.velocity.Set(1, 1, Right, one)
	s.velocity.Set(1, 2, Left, one)
	s.grid.SetPressure(1, 1, fixed.FromInt(fixed.Q32_16, 5))

	var st TickStats
	s.moveParticles(&st)

	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, 1, st.Moves)
	assert.Equal(t, 1, s.swaps)
	assert.Equal(t, []string{"# .#"}, s.grid.Rows()[1:2])
	assert.Equal(t, int64(5), s.grid.Pressure(1, 2).Int())
	assert.True(t, s.velocity.Get(1, 2, Right).Equal(one))
	assert.True(t, s.velocity.Get(1, 1, Left).Equal(one))
}

func TestStuckCellStops(t *testing.T) {
	s := newSim(t, []string{"###", "#.#", "###"}, 0.1, map[string]float64{".": 1}, Options{})

	var st TickStats
	s.moveParticles(&st)

	assert.Zero(t, st.Attempts)
	assert.Equal(t, 1, st.Stops)
	assert.Equal(t, s.grid.stamp, s.grid.used(1, 1))
}

func TestPick(t *testing.T) {
	q := fixed.Q32_16
	n := func(v float64) fixed.Num { return fixed.FromFloat(q, v) }

	tests := []struct {
		name string
		cum  [4]fixed.Num
		draw fixed.Num
		want Direction
	}{
		{"only right", [4]fixed.Num{n(0), n(0), n(0), n(1)}, n(0.5), Right},
		{"first bucket", [4]fixed.Num{n(1), n(1), n(2), n(2)}, n(0), Up},
		{"boundary goes up", [4]fixed.Num{n(1), n(1), n(2), n(2)}, n(1), Left},
		{"draw at total", [4]fixed.Num{n(0), n(1), n(1), n(1)}, n(1), Down},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pick(tt.cum, tt.draw))
		})
	}
}

func TestFlowAccountingCloses(t *testing.T) {
	rho := map[string]float64{" ": 0.01, ".": 1000}
	s := newSim(t, damBreak, 0.1, rho, Options{Seed: 7})
	liquid := s.Grid().Count(Liquid)

	assert.NotPanics(t, func() {
		for i := 0; i < 30; i++ {
			st := s.Step()
			assert.True(t, st.Outgoing.Equal(st.RoutedFlow.Add(st.Clamped)),
				"tick %d: outgoing %v, routed %v, clamped %v", st.Tick, st.Outgoing, st.RoutedFlow, st.Clamped)
			assert.GreaterOrEqual(t, st.Sweeps, 1)
			assert.Equal(t, liquid, s.Grid().Count(Liquid), "tick %d", st.Tick)
		}
	})
	assert.Equal(t, 30, s.Tick())
}

func TestSameSeedSameSnapshots(t *testing.T) {
	rho := map[string]float64{" ": 0.01, ".": 1000}
	run := func() [][]byte {
		s := newSim(t, damBreak, 0.1, rho, Options{Seed: 42})
		var out [][]byte
		err := s.Run(context.Background(), 40, 10, Hooks{
			OnSnapshot: func(snap Snapshot) error {
				data, err := json.Marshal(snap)
				out = append(out, data)
				return err
			},
		})
		require.NoError(t, err)
		return out
	}

	a, b := run(), run()
	require.Len(t, a, 4)
	assert.Equal(t, a, b)
}

func TestRunHooksAndCancellation(t *testing.T) {
	s := newSim(t, damBreak, 0.1, map[string]float64{" ": 0.01, ".": 1000}, Options{Seed: 3})

	var phases []string
	s.onPhase = func(p string) { phases = append(phases, p) }

	var ticks []int
	err := s.Run(context.Background(), 3, 0, Hooks{
		OnTick: func(st TickStats) error {
			ticks = append(ticks, st.Tick)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ticks)
	assert.Equal(t, Phases, phases[:len(Phases)])
	assert.Len(t, phases, 3*len(Phases))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Run(ctx, 5, 0, Hooks{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, s.Tick())

	boom := errors.New("boom")
	err = s.Run(context.Background(), 5, 0, Hooks{OnTick: func(TickStats) error { return boom }})
	assert.ErrorIs(t, err, boom)
}

func TestSnapshot(t *testing.T) {
	s := newSim(t, damBreak, 0.1, map[string]float64{" ": 0.01, ".": 1000}, Options{Seed: 9})
	s.Step()

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Tick)
	assert.InDelta(t, 0.1, snap.Gravity, 1e-4)
	assert.Equal(t, 1000.0, snap.Density["."])
	assert.Equal(t, s.Grid().Rows(), snap.Field)

	// Snapshots load back as scenarios.
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	sc, err := scenario.Parse(data, scenario.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, snap.Field, sc.Field)
	assert.Equal(t, snap.Gravity, sc.G())
}
