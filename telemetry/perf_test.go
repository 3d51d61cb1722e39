package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/cellflow/fluid"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhasePropagate)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(fluid.PhaseMovement)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.MinTickDuration > stats.AvgTickDuration || stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("min/avg/max out of order: %v/%v/%v", stats.MinTickDuration, stats.AvgTickDuration, stats.MaxTickDuration)
	}
	for _, phase := range []string{fluid.PhasePropagate, fluid.PhaseMovement} {
		if stats.PhaseAvg[phase] <= 0 {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if _, ok := stats.PhaseAvg[fluid.PhaseGravity]; ok {
		t.Error("phases that never ran should not appear")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhaseGravity)
		pc.EndTick()
	}
	if pc.count != 5 {
		t.Errorf("count = %d, want 5", pc.count)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestPerfCollector_SimulatorHook(t *testing.T) {
	pc := NewPerfCollector(4)
	sim := newTestSimulator(t, fluid.Options{Seed: 3, OnPhase: pc.StartPhase})

	for i := 0; i < 4; i++ {
		pc.StartTick()
		sim.Step()
		pc.StartPhase(PhaseTelemetry)
		pc.EndTick()
	}

	stats := pc.Stats()
	for _, phase := range reportedPhases {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %s not recorded", phase)
		}
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		PhasePct: map[string]float64{
			fluid.PhasePropagate: 60,
			fluid.PhaseMovement:  30,
			PhaseTelemetry:       10,
		},
	}
	row := s.ToCSV(200)
	if row.WindowEnd != 200 || row.AvgTickUS != 1500 {
		t.Errorf("row = %+v", row)
	}
	if row.PropagatePct != 60 || row.MovementPct != 30 || row.TelemetryPct != 10 || row.GravityPct != 0 {
		t.Errorf("phase pct = %+v", row)
	}
}
