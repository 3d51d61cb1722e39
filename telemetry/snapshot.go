package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pthm-cable/cellflow/fluid"
)

// ErrNoSnapshots is returned when a directory holds no per-tick snapshots.
var ErrNoSnapshots = errors.New("no snapshots found")

// LatestSnapshotName is overwritten with every saved snapshot.
const LatestSnapshotName = "output.json"

// SaveSnapshot writes a snapshot to dir as snapshot_<tick>.json and refreshes
// the latest copy. Returns the path of the per-tick file.
func SaveSnapshot(snapshot fluid.Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%06d.json", snapshot.Tick))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, LatestSnapshotName), data, 0644); err != nil {
		return "", fmt.Errorf("write latest snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*fluid.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot fluid.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// LoadSnapshots reads every snapshot_<tick>.json in dir in tick order.
func LoadSnapshots(dir string) ([]fluid.Snapshot, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "snapshot_*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSnapshots)
	}
	sort.Strings(paths)

	out := make([]fluid.Snapshot, 0, len(paths))
	for _, path := range paths {
		snap, err := LoadSnapshot(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, *snap)
	}
	return out, nil
}
