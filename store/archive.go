// Package store archives runs, snapshots and window stats in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/telemetry"
)

const (
	dbTimeout    = 5 * time.Second
	pingAttempts = 10
)

var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS cellflow`,
	`CREATE TABLE IF NOT EXISTS cellflow.run (
		id          BIGSERIAL PRIMARY KEY,
		seed        BIGINT NOT NULL,
		scenario    TEXT NOT NULL,
		p_type      TEXT NOT NULL,
		v_type      TEXT NOT NULL,
		v_flow_type TEXT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished_at TIMESTAMPTZ,
		ticks       INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS cellflow.snapshot (
		run   BIGINT NOT NULL REFERENCES cellflow.run(id),
		tick  INTEGER NOT NULL,
		g     DOUBLE PRECISION NOT NULL,
		rho   JSONB NOT NULL,
		field TEXT[] NOT NULL,
		PRIMARY KEY (run, tick)
	)`,
	`CREATE TABLE IF NOT EXISTS cellflow.window_stats (
		run          BIGINT NOT NULL REFERENCES cellflow.run(id),
		window_end   INTEGER NOT NULL,
		moves        INTEGER NOT NULL,
		swaps        INTEGER NOT NULL,
		avg_sweeps   DOUBLE PRECISION NOT NULL,
		routed_flow  DOUBLE PRECISION NOT NULL,
		clamped      DOUBLE PRECISION NOT NULL,
		pressure_max DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run, window_end)
	)`,
}

// Archive writes run history to a database. All methods are safe on a nil
// *Archive, which disables archiving.
type Archive struct {
	db    *sql.DB
	runID int64
}

// New wraps an open database handle.
func New(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// Open connects to PostgreSQL, waiting for the server to accept connections.
// An empty dsn returns a nil archive.
func Open(ctx context.Context, dsn string) (*Archive, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	// The database may still be starting up.
	for i := 0; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, dbTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			break
		}
		if i == pingAttempts-1 || ctx.Err() != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to archive: %w", err)
		}
		slog.Warn("archive not ready", "attempt", i+1, "error", err)
		time.Sleep(time.Second)
	}
	return New(db), nil
}

// Migrate creates the archive tables if they do not exist.
func (a *Archive) Migrate(ctx context.Context) error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if err1 := tx.Rollback(); err1 != nil {
				return err1
			}
			return fmt.Errorf("migrating archive: %w", err)
		}
	}
	return tx.Commit()
}

// StartRun records a new run. Later writes are attributed to it.
func (a *Archive) StartRun(ctx context.Context, seed int64, scenarioPath string, formats fluid.Formats) (int64, error) {
	if a == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := a.db.QueryRowContext(ctx,
		`INSERT INTO cellflow.run (seed, scenario, p_type, v_type, v_flow_type) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		seed,
		scenarioPath,
		formats.Pressure.String(),
		formats.Velocity.String(),
		formats.Flow.String(),
	).Scan(&a.runID)
	if err != nil {
		return 0, fmt.Errorf("starting run: %w", err)
	}
	slog.Info("archive run started", "run", a.runID)
	return a.runID, nil
}

// RunID returns the current run, or zero before StartRun.
func (a *Archive) RunID() int64 {
	if a == nil {
		return 0
	}
	return a.runID
}

// SaveSnapshot stores a snapshot of the current run. A tick that is
// already stored is left as it is.
func (a *Archive) SaveSnapshot(ctx context.Context, snap fluid.Snapshot) error {
	if a == nil {
		return nil
	}
	rho, err := json.Marshal(snap.Density)
	if err != nil {
		return fmt.Errorf("encoding densities: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := a.db.ExecContext(ctx,
		`INSERT INTO cellflow.snapshot (run, tick, g, rho, field) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (run, tick) DO NOTHING`,
		a.runID,
		snap.Tick,
		snap.Gravity,
		rho,
		pq.Array(snap.Field),
	); err != nil {
		return fmt.Errorf("archiving snapshot %d: %w", snap.Tick, err)
	}
	return nil
}

// SaveWindow stores the headline numbers of a telemetry window.
func (a *Archive) SaveWindow(ctx context.Context, stats telemetry.WindowStats) error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := a.db.ExecContext(ctx,
		`INSERT INTO cellflow.window_stats (run, window_end, moves, swaps, avg_sweeps, routed_flow, clamped, pressure_max) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.runID,
		stats.WindowEndTick,
		stats.Moves,
		stats.Swaps,
		stats.AvgSweeps,
		stats.RoutedFlow,
		stats.Clamped,
		stats.PressureMax,
	); err != nil {
		return fmt.Errorf("archiving window %d: %w", stats.WindowEndTick, err)
	}
	return nil
}

// FinishRun stamps the run with its final tick count.
func (a *Archive) FinishRun(ctx context.Context, ticks int) error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := a.db.ExecContext(ctx,
		`UPDATE cellflow.run SET finished_at = now(), ticks = $2 WHERE id = $1`,
		a.runID,
		ticks,
	); err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Snapshots returns the archived snapshots of a run in tick order.
func (a *Archive) Snapshots(ctx context.Context, run int64) ([]fluid.Snapshot, error) {
	if a == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := a.db.QueryContext(ctx,
		`SELECT tick, g, rho, field FROM cellflow.snapshot WHERE run = $1 ORDER BY tick`,
		run,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fluid.Snapshot
	for rows.Next() {
		var (
			snap fluid.Snapshot
			rho  []byte
		)
		if err := rows.Scan(&snap.Tick, &snap.Gravity, &rho, pq.Array(&snap.Field)); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rho, &snap.Density); err != nil {
			return nil, fmt.Errorf("decoding densities at tick %d: %w", snap.Tick, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}
