// Package sqlitedb stores grid results in a SQLite database
// whose schema is managed by embedded migrations.
package sqlitedb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"log/slog"
	_ "modernc.org/sqlite"
	"os"
	"path/filepath"
	"time"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*sql.DB
	logger *slog.Logger
}

// Open opens the database at path and migrates it to the latest schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; workers take turns on a single connection.
	db.SetMaxOpenConns(1)
	d := &DB{DB: db, logger: slog.With("store", "sqlite", "path", path)}
	if err := d.MigrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// MigrateUp runs all pending migrations. No pending migrations is not an error.
func (d *DB) MigrateUp() error {
	m, err := d.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current schema version, 0 if none is applied.
func (d *DB) MigrateVersion() (uint, bool, error) {
	m, err := d.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (d *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(d.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: d.logger}
	return m, nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// WriteGrid replaces the grid's rows in one transaction.
func (d *DB) WriteGrid(ctx context.Context, result *segment.GridResult) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := writeGrid(ctx, tx, result); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write grid %s: %w", result.GridID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write grid %s: %w", result.GridID, err)
	}
	d.logger.Debug("Stored grid", "grid", result.GridID, "segments", len(result.Segments))
	return nil
}

func writeGrid(ctx context.Context, tx *sql.Tx, result *segment.GridResult) error {
	grid := result.GridID.String()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO runs (run_id) VALUES (?)`, result.RunID); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM segments WHERE grid_id = ?`,
		`DELETE FROM cluster_summaries WHERE grid_id = ?`,
		`DELETE FROM grids WHERE grid_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, grid); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO grids (grid_id, run_id, status, point_count, started, finished) VALUES (?, ?, ?, ?, ?, ?)`,
		grid, result.RunID, string(result.Status), result.PointCount,
		result.Started.UTC().Format(time.RFC3339Nano), result.Finished.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	segStmt, err := tx.PrepareContext(ctx, `INSERT INTO segments
		(grid_id, segment_id, run_id, object_id, name, start_ms, end_ms, point_count, closed_by, quality_flag, cluster_label, features, points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer segStmt.Close()
	for _, s := range result.Segments {
		points, err := json.Marshal(s.Points)
		if err != nil {
			return err
		}
		var features, label any
		if s.Features != nil {
			b, err := json.Marshal(s.Features)
			if err != nil {
				return err
			}
			features = string(b)
		}
		if l, ok := s.Label(); ok {
			label = l
		}
		var startMs, endMs int64
		if !s.IsEmpty() {
			startMs, endMs = s.Points[0].Timestamp, s.Points[len(s.Points)-1].Timestamp
		}
		_, err = segStmt.ExecContext(ctx, grid, s.ID, result.RunID, s.ObjectID.String(), s.Name,
			startMs, endMs, s.PointCount(), string(s.ClosedBy), s.QualityFlag.String(), label, features, string(points))
		if err != nil {
			return err
		}
	}

	for _, c := range result.Summaries {
		centroid, err := json.Marshal(c.Centroid)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO cluster_summaries
			(grid_id, label, run_id, centroid, member_count, speed_range, behavior_label)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			grid, c.Label, result.RunID, string(centroid), c.MemberCount, c.SpeedRange, c.BehaviorLabel)
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

const headerQuery = `SELECT g.grid_id, g.run_id, g.status, g.point_count, g.started, g.finished,
	(SELECT COUNT(*) FROM segments s WHERE s.grid_id = g.grid_id),
	(SELECT COUNT(*) FROM segments s WHERE s.grid_id = g.grid_id AND s.quality_flag = ?),
	(SELECT COUNT(*) FROM segments s WHERE s.grid_id = g.grid_id AND s.cluster_label = ?),
	(SELECT COUNT(*) FROM cluster_summaries c WHERE c.grid_id = g.grid_id AND c.label <> ?)
	FROM grids g`

type scanner interface {
	Scan(dest ...any) error
}

func scanHeader(row scanner) (segment.GridHeader, error) {
	h := segment.GridHeader{}
	var grid, status, started, finished string
	err := row.Scan(&grid, &h.RunID, &status, &h.PointCount, &started, &finished,
		&h.SegmentCount, &h.ValidSegments, &h.NoiseSegments, &h.ClusterCount)
	if err != nil {
		return h, err
	}
	h.GridID = conceptual.GridID(grid)
	h.Status = segment.GridStatus(status)
	if h.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return h, err
	}
	if h.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return h, err
	}
	return h, nil
}

func headerArgs() []any {
	return []any{segment.QualityValid.String(), segment.NoiseLabel, segment.NoiseLabel}
}

// Grids returns every stored grid header ordered by grid id.
func (d *DB) Grids(ctx context.Context) ([]segment.GridHeader, error) {
	rows, err := d.QueryContext(ctx, headerQuery+` ORDER BY g.grid_id`, headerArgs()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []segment.GridHeader{}
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (d *DB) Grid(ctx context.Context, id conceptual.GridID) (segment.GridHeader, error) {
	row := d.QueryRowContext(ctx, headerQuery+` WHERE g.grid_id = ?`, append(headerArgs(), id.String())...)
	h, err := scanHeader(row)
	if errors.Is(err, sql.ErrNoRows) {
		return h, fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
	}
	return h, err
}

// Segments returns the grid's segments ordered by segment id.
func (d *DB) Segments(ctx context.Context, id conceptual.GridID) ([]*segment.TrajectorySegment, error) {
	if _, err := d.Grid(ctx, id); err != nil {
		return nil, err
	}
	rows, err := d.QueryContext(ctx, `SELECT segment_id, object_id, name, closed_by, quality_flag, cluster_label, features, points
		FROM segments WHERE grid_id = ? ORDER BY segment_id`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*segment.TrajectorySegment{}
	for rows.Next() {
		s := &segment.TrajectorySegment{GridID: id}
		var objectID, closedBy, quality, points string
		var name, features sql.NullString
		var label sql.NullInt64
		if err := rows.Scan(&s.ID, &objectID, &name, &closedBy, &quality, &label, &features, &points); err != nil {
			return nil, err
		}
		s.ObjectID = conceptual.ObjectID(objectID)
		s.Name = name.String
		s.ClosedBy = segment.CloseReason(closedBy)
		if s.QualityFlag, err = segment.ParseQualityFlag(quality); err != nil {
			return nil, err
		}
		if label.Valid {
			s.SetLabel(int(label.Int64))
		}
		if features.Valid {
			if err := json.Unmarshal([]byte(features.String), &s.Features); err != nil {
				return nil, err
			}
		}
		s.Points = trackpoint.RawPoints{}
		if err := json.Unmarshal([]byte(points), &s.Points); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Clusters returns the grid's summaries ordered by label.
func (d *DB) Clusters(ctx context.Context, id conceptual.GridID) ([]segment.ClusterSummary, error) {
	h, err := d.Grid(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := d.QueryContext(ctx, `SELECT label, centroid, member_count, speed_range, behavior_label
		FROM cluster_summaries WHERE grid_id = ? ORDER BY label`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []segment.ClusterSummary{}
	for rows.Next() {
		c := segment.ClusterSummary{RunID: h.RunID, GridID: id}
		var centroid string
		if err := rows.Scan(&c.Label, &centroid, &c.MemberCount, &c.SpeedRange, &c.BehaviorLabel); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(centroid), &c.Centroid); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var (
	_ trackdb.Sink   = (*DB)(nil)
	_ trackdb.Reader = (*DB)(nil)
)
