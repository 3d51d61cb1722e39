package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/cellflow/fixed"
	"github.com/pthm-cable/cellflow/fluid"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteTick(fluid.TickStats{}); err != nil {
		t.Errorf("nil manager WriteTick: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Errorf("nil manager WriteBookmark: %v", err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should have empty dir")
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager Close: %v", err)
	}
}

func TestOutputManager_HeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}

	for tick := 0; tick < 3; tick++ {
		st := fluid.TickStats{Tick: tick, Sweeps: 1, RoutedFlow: fixed.FromFloat(fixed.Q32_16, 0.25)}
		if err := om.WriteTick(st); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 3, Ticks: 3}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSettled, Tick: 3, Description: "quiet"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("ticks.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tick,sweeps,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "2,1,") || !strings.Contains(lines[3], "0.25") {
		t.Errorf("last row = %q", lines[3])
	}

	data, err = os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "type,tick,description\nsettled,3,quiet" {
		t.Errorf("bookmarks.csv = %q", got)
	}
}
