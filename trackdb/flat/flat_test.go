package flat

import (
	"context"
	"errors"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/testing/testdata"
	"github.com/rotblauer/trackclust/trackdb"
	"os"
	"path/filepath"
	"testing"
)

func TestSink_WriteGrid(t *testing.T) {
	ctx := context.Background()
	s, err := NewSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	result := testdata.GridResult("run-1", "89c25")
	if err := s.WriteGrid(ctx, result); err != nil {
		t.Fatal(err)
	}

	features, err := s.ReadSegmentFeatures(ctx, "89c25")
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != len(result.Segments) {
		t.Fatalf("features: got %d, want %d", len(features), len(result.Segments))
	}
	if got := features[0].Properties.MustString("object_id"); got != "car-1" {
		t.Errorf("object_id: %s", got)
	}
	if got := features[3].Properties.MustString("quality_flag"); got != "stationary" {
		t.Errorf("quality_flag: %s", got)
	}
	if _, ok := features[3].Properties["cluster_label"]; ok {
		t.Error("unclustered segment has a label")
	}

	clusters, err := s.ReadClusters("89c25")
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 || clusters[1].MemberCount != 2 {
		t.Errorf("clusters: %+v", clusters)
	}

	dir := filepath.Join(s.Flat.Path(), params.GridsDir, "89c25")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestSink_CancelledWriteLeavesPrevious(t *testing.T) {
	s, err := NewSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	first := testdata.GridResult("run-1", "g")
	if err := s.WriteGrid(context.Background(), first); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := testdata.GridResult("run-2", "g")
	second.Summaries = second.Summaries[:1]
	if err := s.WriteGrid(ctx, second); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}

	clusters, err := s.ReadClusters("g")
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 || clusters[0].RunID != "run-1" {
		t.Errorf("previous result not kept: %+v", clusters)
	}
}

func TestSink_GridDirStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewSink(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteGrid(context.Background(), testdata.GridResult("run-1", "../escape")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, params.GridsDir, "_escape", params.ClustersGZFileName)); err != nil {
		t.Fatalf("grid not written under its sanitized dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape")); !os.IsNotExist(err) {
		t.Fatalf("grid escaped the grids dir: %v", err)
	}
	clusters, err := s.ReadClusters("../escape")
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 {
		t.Errorf("clusters: %+v", clusters)
	}
}

func TestSink_NotFound(t *testing.T) {
	s, err := NewSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReadClusters("nope"); !errors.Is(err, trackdb.ErrGridNotFound) {
		t.Errorf("clusters: %v", err)
	}
	if _, err := s.ReadSegmentFeatures(context.Background(), "nope"); !errors.Is(err, trackdb.ErrGridNotFound) {
		t.Errorf("segments: %v", err)
	}
}
