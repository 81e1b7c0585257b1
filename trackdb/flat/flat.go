// Package flat writes grid results as gzipped files, one directory per grid.
package flat

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/stream"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/trackz"
	"github.com/rotblauer/trackclust/types/segment"
	"log/slog"
	"os"
)

// Sink writes grids/<grid>/segments.geojson.gz, one GeoJSON feature per line,
// and grids/<grid>/clusters.json.gz next to it.
type Sink struct {
	Flat   *trackz.Flat
	config *trackz.GZFileWriterConfig
	logger *slog.Logger
}

func NewSink(root string) (*Sink, error) {
	f := trackz.NewFlatWithRoot(root)
	if err := f.MkdirAll(); err != nil {
		return nil, err
	}
	return &Sink{
		Flat:   f,
		config: trackz.DefaultGZFileWriterConfig(),
		logger: slog.With("store", "flat", "root", f.Path()),
	}, nil
}

// gridFlat is the grid's directory; ids are sanitized into a single path element.
func (s *Sink) gridFlat(id conceptual.GridID) *trackz.Flat {
	return s.Flat.Joining(params.GridsDir, names.SanitizeName(id.String()))
}

// WriteGrid writes both files under temporary names and renames them
// only once both are complete.
func (s *Sink) WriteGrid(ctx context.Context, result *segment.GridResult) error {
	dir := s.gridFlat(result.GridID)
	segW, err := dir.NamedAtomicGZWriter(params.SegmentsGZFileName, s.config)
	if err != nil {
		return err
	}
	clusterW, err := dir.NamedAtomicGZWriter(params.ClustersGZFileName, s.config)
	if err != nil {
		segW.Abort()
		return err
	}
	abort := func(err error) error {
		segW.Abort()
		clusterW.Abort()
		return fmt.Errorf("write grid %s: %w", result.GridID, err)
	}

	enc := json.NewEncoder(segW)
	for _, seg := range result.Segments {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		if err := enc.Encode(seg.Feature()); err != nil {
			return abort(err)
		}
	}
	if err := json.NewEncoder(clusterW).Encode(result.Summaries); err != nil {
		return abort(err)
	}
	if err := ctx.Err(); err != nil {
		return abort(err)
	}
	if err := segW.Commit(); err != nil {
		clusterW.Abort()
		return fmt.Errorf("write grid %s: %w", result.GridID, err)
	}
	if err := clusterW.Commit(); err != nil {
		return fmt.Errorf("write grid %s: %w", result.GridID, err)
	}
	s.logger.Debug("Wrote grid", "grid", result.GridID, "dir", dir.Path())
	return nil
}

func (s *Sink) Close() error {
	return nil
}

// ReadSegmentFeatures reads back the segment features written for a grid.
func (s *Sink) ReadSegmentFeatures(ctx context.Context, id conceptual.GridID) ([]*geojson.Feature, error) {
	r, err := s.gridFlat(id).NamedGZReader(params.SegmentsGZFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
		}
		return nil, err
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	out := []*geojson.Feature{}
	lines, errs := stream.Lines(ctx, r)
	for line := range lines {
		f, err := geojson.UnmarshalFeature(line)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return out, nil
}

// ReadClusters reads back the cluster summaries written for a grid.
func (s *Sink) ReadClusters(id conceptual.GridID) ([]segment.ClusterSummary, error) {
	r, err := s.gridFlat(id).NamedGZReader(params.ClustersGZFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
		}
		return nil, err
	}
	defer r.Close()
	out := []segment.ClusterSummary{}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ trackdb.Sink = (*Sink)(nil)
