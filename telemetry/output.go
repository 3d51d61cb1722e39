package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/cellflow/config"
	"github.com/pthm-cable/cellflow/fluid"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	ticks     *csvLog
	telemetry *csvLog
	perf      *csvLog
	bookmarks *csvLog
}

// csvLog appends records to one CSV file, writing the header once.
type csvLog struct {
	f             *os.File
	headerWritten bool
}

func (l *csvLog) write(records any) error {
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.f); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

// TickRecord is the per-tick CSV row.
type TickRecord struct {
	Tick            int     `csv:"tick"`
	Sweeps          int     `csv:"sweeps"`
	Attempts        int     `csv:"attempts"`
	Moves           int     `csv:"moves"`
	Swaps           int     `csv:"swaps"`
	Stops           int     `csv:"stops"`
	GravityInjected float64 `csv:"gravity_injected"`
	RoutedFlow      float64 `csv:"routed_flow"`
	Clamped         float64 `csv:"clamped"`
	TotalDeltaP     float64 `csv:"total_delta_p"`
}

// NewTickRecord flattens tick stats for CSV export.
func NewTickRecord(st fluid.TickStats) TickRecord {
	return TickRecord{
		Tick:            st.Tick,
		Sweeps:          st.Sweeps,
		Attempts:        st.Attempts,
		Moves:           st.Moves,
		Swaps:           st.Swaps,
		Stops:           st.Stops,
		GravityInjected: st.GravityInjected.Float64(),
		RoutedFlow:      st.RoutedFlow.Float64(),
		Clamped:         st.Clamped.Float64(),
		TotalDeltaP:     st.TotalDeltaP.Float64(),
	}
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, out := range []struct {
		name string
		dst  **csvLog
	}{
		{"ticks.csv", &om.ticks},
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		*out.dst = &csvLog{f: f}
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTick writes one tick's stats to ticks.csv.
func (om *OutputManager) WriteTick(st fluid.TickStats) error {
	if om == nil {
		return nil
	}
	if err := om.ticks.write([]TickRecord{NewTickRecord(st)}); err != nil {
		return fmt.Errorf("writing tick: %w", err)
	}
	return nil
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, l := range []*csvLog{om.ticks, om.telemetry, om.perf, om.bookmarks} {
		if l == nil {
			continue
		}
		if err := l.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
