// Package fluid implements a cellular fluid simulation on a rectangular grid
// of walls, air and liquid.
//
// Each tick injects gravity into downward velocities, converts pressure
// differences into velocity, routes velocity through the grid with repeated
// flow sweeps, turns unrouted velocity back into pressure and finally moves
// cell contents along randomly chosen chains. All quantities are fixed-point
// numbers whose formats are chosen at construction.
package fluid

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/cellflow/fixed"
	"github.com/pthm-cable/cellflow/scenario"
)

// Phase names reported through Options.OnPhase.
const (
	PhaseGravity   = "gravity"
	PhasePressure  = "pressure"
	PhasePropagate = "propagate"
	PhaseClamp     = "clamp"
	PhaseMovement  = "movement"
)

// Phases lists the phases of a tick in execution order.
var Phases = []string{PhaseGravity, PhasePressure, PhasePropagate, PhaseClamp, PhaseMovement}

// DefaultLiquidDamping scales pressure produced by unrouted liquid velocity.
const DefaultLiquidDamping = 0.8

// Formats selects the number formats of pressure, velocity and routed flow.
type Formats struct {
	Pressure fixed.Format
	Velocity fixed.Format
	Flow     fixed.Format
}

// DefaultFormats uses FIXED(32,16) for everything.
func DefaultFormats() Formats {
	return Formats{Pressure: fixed.Q32_16, Velocity: fixed.Q32_16, Flow: fixed.Q32_16}
}

// Options configures a Simulator.
type Options struct {
	Formats Formats

	// Seed for the movement RNG. Zero picks a time-based seed.
	Seed int64

	// LiquidDamping defaults to DefaultLiquidDamping when zero.
	LiquidDamping float64

	// OnPhase, if set, is called as each tick phase begins.
	OnPhase func(phase string)
}

// ConfigError reports a physical constant that is unusable in the chosen
// number format. The simulation refuses to start.
type ConfigError struct {
	Name   string
	Value  float64
	Format fixed.Format
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fluid: %s = %v in %v: %s", e.Name, e.Value, e.Format, e.Reason)
}

// Simulator owns the grid and velocity state of one run.
type Simulator struct {
	formats  Formats
	grid     *Grid
	velocity *Field
	flow     *Field

	gravity   fixed.Num
	rho       [256]fixed.Num
	densities map[string]float64
	damping   float64

	rng     *rand.Rand
	seed    int64
	tick    int
	swaps   int
	onPhase func(string)
}

// New validates the scenario constants and builds a simulator. A constant
// that is not positive after quantization yields a *ConfigError.
func New(sc *scenario.Scenario, opts Options) (*Simulator, error) {
	f := opts.Formats
	if f == (Formats{}) {
		f = DefaultFormats()
	}
	for _, ff := range []fixed.Format{f.Pressure, f.Velocity, f.Flow} {
		if err := ff.Validate(); err != nil {
			return nil, fmt.Errorf("fluid: %w", err)
		}
	}

	grid, err := NewGrid(sc.Field, f.Pressure)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		formats:   f,
		grid:      grid,
		velocity:  NewField(grid.rows, grid.cols, f.Velocity),
		flow:      NewField(grid.rows, grid.cols, f.Flow),
		densities: make(map[string]float64, len(sc.Density)),
		damping:   opts.LiquidDamping,
		seed:      opts.Seed,
		onPhase:   opts.OnPhase,
	}
	if s.damping == 0 {
		s.damping = DefaultLiquidDamping
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(s.seed))

	s.gravity = fixed.FromFloat(f.Velocity, sc.G())
	if s.gravity.Sign() <= 0 {
		return nil, &ConfigError{Name: "g", Value: sc.G(), Format: f.Velocity, Reason: "gravity must be positive"}
	}
	for i := range s.rho {
		s.rho[i] = fixed.Zero(f.Velocity)
	}
	for key, v := range sc.Density {
		if len(key) != 1 {
			return nil, &ConfigError{Name: fmt.Sprintf("rho[%q]", key), Value: v, Format: f.Velocity, Reason: "material tags are single characters"}
		}
		q := fixed.FromFloat(f.Velocity, v)
		s.rho[key[0]] = q
		s.densities[key] = q.Float64()
	}
	for _, tag := range sc.Materials() {
		if tag == Wall {
			continue
		}
		v, ok := sc.DensityOf(tag)
		if !ok {
			return nil, &ConfigError{Name: fmt.Sprintf("rho[%q]", tag), Format: f.Velocity, Reason: "material has no density"}
		}
		if s.rho[tag].Sign() <= 0 {
			return nil, &ConfigError{Name: fmt.Sprintf("rho[%q]", tag), Value: v, Format: f.Velocity, Reason: "density must be positive"}
		}
	}
	return s, nil
}

func (s *Simulator) density(tag byte) fixed.Num { return s.rho[tag] }

func (s *Simulator) phase(name string) {
	if s.onPhase != nil {
		s.onPhase(name)
	}
}

// Step advances the simulation by one tick.
func (s *Simulator) Step() TickStats {
	st := TickStats{Tick: s.tick}
	swaps := s.swaps

	s.phase(PhaseGravity)
	s.applyGravity(&st)

	s.phase(PhasePressure)
	s.exchangePressure(&st)

	s.phase(PhasePropagate)
	s.propagateSweeps(&st)

	s.phase(PhaseClamp)
	s.clampVelocity(&st)

	s.phase(PhaseMovement)
	s.moveParticles(&st)

	st.Swaps = s.swaps - swaps
	s.tick++
	return st
}

// Hooks receive per-tick results from Run. Either may be nil.
type Hooks struct {
	OnTick     func(TickStats) error
	OnSnapshot func(Snapshot) error
}

// Run steps the simulation ticks times, emitting a snapshot every
// saveInterval ticks. The context is checked between ticks only.
func (s *Simulator) Run(ctx context.Context, ticks, saveInterval int, hooks Hooks) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := s.Step()
		if hooks.OnTick != nil {
			if err := hooks.OnTick(st); err != nil {
				return fmt.Errorf("tick %d: %w", st.Tick, err)
			}
		}
		if saveInterval > 0 && (i+1)%saveInterval == 0 && hooks.OnSnapshot != nil {
			if err := hooks.OnSnapshot(s.Snapshot()); err != nil {
				return fmt.Errorf("snapshot at tick %d: %w", st.Tick, err)
			}
		}
		if st.Moves > 0 && slog.Default().Enabled(ctx, slog.LevelDebug) {
			slog.Debug("tick", "tick", st.Tick, "field", s.grid.Rows())
		}
	}
	slog.Info("end", "ticks", s.tick)
	return nil
}

// Snapshot captures the diagnostic state at the current tick boundary.
func (s *Simulator) Snapshot() Snapshot {
	rho := make(map[string]float64, len(s.densities))
	for k, v := range s.densities {
		rho[k] = v
	}
	return Snapshot{
		Tick:    s.tick,
		Gravity: s.gravity.Float64(),
		Density: rho,
		Field:   s.grid.Rows(),
	}
}

// Grid exposes the cell state for rendering and inspection.
func (s *Simulator) Grid() *Grid { return s.grid }

// Tick returns the number of completed ticks.
func (s *Simulator) Tick() int { return s.tick }

// Seed returns the RNG seed in use.
func (s *Simulator) Seed() int64 { return s.seed }

// Formats returns the number formats in use.
func (s *Simulator) Formats() Formats { return s.formats }

// Velocity returns the velocity of (x, y) toward d.
func (s *Simulator) Velocity(x, y int, d Direction) fixed.Num {
	return s.velocity.Get(x, y, d)
}

// Pressures returns the pressure of every open cell.
func (s *Simulator) Pressures() []float64 {
	g := s.grid
	out := make([]float64, 0, len(g.kinds))
	for i, k := range g.kinds {
		if k != Wall {
			out = append(out, g.pressure[i].Float64())
		}
	}
	return out
}

// Speeds returns the total positive outgoing velocity of every open cell.
func (s *Simulator) Speeds() []float64 {
	g := s.grid
	out := make([]float64, 0, len(g.kinds))
	for x := 0; x < g.rows; x++ {
		for y := 0; y < g.cols; y++ {
			if g.IsWall(x, y) {
				continue
			}
			var sum float64
			for _, v := range s.velocity.Vector(x, y) {
				if v.Sign() > 0 {
					sum += v.Float64()
				}
			}
			out = append(out, sum)
		}
	}
	return out
}
