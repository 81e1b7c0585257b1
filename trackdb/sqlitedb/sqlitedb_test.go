package sqlitedb

import (
	"context"
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/rotblauer/trackclust/testing/testdata"
	"github.com/rotblauer/trackclust/trackdb"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "results.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Migrates(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 || dirty {
		t.Errorf("version %d dirty %v", version, dirty)
	}
	// Re-running is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"runs", "grids", "segments", "cluster_summaries"} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("table %s: %d %v", table, n, err)
		}
	}
}

func TestDB_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	result := testdata.GridResult("run-1", "89c25")
	if err := db.WriteGrid(ctx, result); err != nil {
		t.Fatal(err)
	}

	headers, err := db.Grids(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 1 {
		t.Fatalf("headers: %d", len(headers))
	}
	if diff := cmp.Diff(result.Header(), headers[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	segs, err := db.Segments(ctx, "89c25")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(result.Segments, segs); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	clusters, err := db.Clusters(ctx, "89c25")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(result.Summaries, clusters); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}
}

func TestDB_Replace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.WriteGrid(ctx, testdata.GridResult("run-1", "g")); err != nil {
		t.Fatal(err)
	}
	second := testdata.GridResult("run-2", "g")
	second.Segments = second.Segments[:2]
	second.Summaries = second.Summaries[1:]
	if err := db.WriteGrid(ctx, second); err != nil {
		t.Fatal(err)
	}

	h, err := db.Grid(ctx, "g")
	if err != nil {
		t.Fatal(err)
	}
	if h.RunID != "run-2" || h.SegmentCount != 2 || h.NoiseSegments != 0 {
		t.Errorf("header: %+v", h)
	}
	var runs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Errorf("runs: %d", runs)
	}
}

func TestDB_NotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if _, err := db.Grid(ctx, "nope"); !errors.Is(err, trackdb.ErrGridNotFound) {
		t.Errorf("grid: %v", err)
	}
	if _, err := db.Segments(ctx, "nope"); !errors.Is(err, trackdb.ErrGridNotFound) {
		t.Errorf("segments: %v", err)
	}
	if _, err := db.Clusters(ctx, "nope"); !errors.Is(err, trackdb.ErrGridNotFound) {
		t.Errorf("clusters: %v", err)
	}
}

func TestDB_CancelledWrite(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := db.WriteGrid(ctx, testdata.GridResult("run", "g")); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
	headers, err := db.Grids(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 0 {
		t.Errorf("cancelled grid persisted: %v", headers)
	}
}
