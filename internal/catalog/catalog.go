// Package catalog persists one row per tile of a build run to DuckDB,
// holding whichever TileRecord fields the caller fills in; a failed tile's
// row has a non-empty Error column.
// Post-run SQL analytics are exposed through `tile3d stats`.
//
// One *sql.DB singleton per process, opened lazily, DuckDB as the storage
// engine via the standard database/sql driver interface.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Open returns the singleton DuckDB connection backing the tile catalog,
// creating the on-disk database under dataDir/duckdb/tile3d.duckdb and its
// schema on first use.
func Open(dataDir string) (*sql.DB, error) {
	once.Do(func() {
		dir := filepath.Join(dataDir, "duckdb")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			initErr = fmt.Errorf("catalog: create %s: %w", dir, err)
			return
		}
		path := filepath.Join(dir, "tile3d.duckdb")
		instance, initErr = sql.Open("duckdb", path)
		if initErr != nil {
			return
		}
		initErr = migrate(instance)
	})
	return instance, initErr
}

// Close closes the singleton connection, if one was opened.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  TIMESTAMP,
			finished_at TIMESTAMP,
			input_path  TEXT,
			out_dir     TEXT
		);
		CREATE TABLE IF NOT EXISTS tiles (
			run_id          TEXT,
			address         TEXT,
			level           INTEGER,
			triangle_count  INTEGER,
			geometric_error DOUBLE,
			byte_size       BIGINT,
			texture_format  TEXT,
			error           TEXT,
			PRIMARY KEY (run_id, address)
		);
	`)
	if err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// TileRecord is one row of the tiles table.
type TileRecord struct {
	RunID          string
	Address        string
	Level          int
	TriangleCount  int
	GeometricError float64
	ByteSize       int64
	TextureFormat  string
	Error          string // empty unless the tile's subtree failed
}

// BeginRun inserts a run header row.
func BeginRun(db *sql.DB, runID, inputPath, outDir string) error {
	_, err := db.Exec(
		`INSERT INTO runs (run_id, started_at, input_path, out_dir) VALUES (?, now(), ?, ?)`,
		runID, inputPath, outDir,
	)
	if err != nil {
		return fmt.Errorf("catalog: begin run %s: %w", runID, err)
	}
	return nil
}

// FinishRun stamps a run's completion time.
func FinishRun(db *sql.DB, runID string) error {
	_, err := db.Exec(`UPDATE runs SET finished_at = now() WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("catalog: finish run %s: %w", runID, err)
	}
	return nil
}

// RecordTile upserts one TileRecord.
func RecordTile(db *sql.DB, rec TileRecord) error {
	_, err := db.Exec(`
		INSERT INTO tiles (run_id, address, level, triangle_count, geometric_error, byte_size, texture_format, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, address) DO UPDATE SET
			level = excluded.level,
			triangle_count = excluded.triangle_count,
			geometric_error = excluded.geometric_error,
			byte_size = excluded.byte_size,
			texture_format = excluded.texture_format,
			error = excluded.error
	`, rec.RunID, rec.Address, rec.Level, rec.TriangleCount, rec.GeometricError, rec.ByteSize, rec.TextureFormat, rec.Error)
	if err != nil {
		return fmt.Errorf("catalog: record tile %s/%s: %w", rec.RunID, rec.Address, err)
	}
	return nil
}

// RunStats summarizes one run's tiles table for `tile3d stats`.
type RunStats struct {
	RunID        string
	TileCount    int
	FailureCount int
	TotalBytes   int64
	MaxLevel     int
}

// Stats computes RunStats for runID.
func Stats(db *sql.DB, runID string) (RunStats, error) {
	stats := RunStats{RunID: runID}
	row := db.QueryRow(`
		SELECT count(*),
		       count(*) FILTER (WHERE error <> ''),
		       coalesce(sum(byte_size), 0),
		       coalesce(max(level), 0)
		FROM tiles WHERE run_id = ?
	`, runID)
	if err := row.Scan(&stats.TileCount, &stats.FailureCount, &stats.TotalBytes, &stats.MaxLevel); err != nil {
		return RunStats{}, fmt.Errorf("catalog: stats for run %s: %w", runID, err)
	}
	return stats, nil
}
