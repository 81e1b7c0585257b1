package api

import (
	"context"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/cluster"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/features"
	"github.com/rotblauer/trackclust/geo/cleaner"
	"github.com/rotblauer/trackclust/geo/distance"
	"github.com/rotblauer/trackclust/geo/segmenter"
	"github.com/rotblauer/trackclust/labeler"
	"github.com/rotblauer/trackclust/metrics"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/stream"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"log/slog"
	"time"
)

// Grid runs the whole pipeline over the points of one grid.
// A Grid is not safe for concurrent use; different Grids are independent.
type Grid struct {
	ID       conceptual.GridID
	RunID    string
	Config   *params.PipelineConfig
	Seq      segmenter.IDGenerator
	Resolver names.Resolver

	logger *slog.Logger
}

func NewGrid(id conceptual.GridID, runID string, config *params.PipelineConfig, seq segmenter.IDGenerator, resolver names.Resolver) *Grid {
	if resolver == nil {
		resolver = names.Nop{}
	}
	return &Grid{
		ID:       id,
		RunID:    runID,
		Config:   config,
		Seq:      seq,
		Resolver: resolver,
		logger:   slog.With("grid", id),
	}
}

// Process segments, filters, featurizes, clusters and labels points.
// A grid without any featurized segment is reported with GridStatusNoValidSegments, not an error.
// If ctx is cancelled the partial result is discarded and ctx.Err() returned.
func (g *Grid) Process(ctx context.Context, points trackpoint.RawPoints) (*segment.GridResult, error) {
	result := &segment.GridResult{
		RunID:      g.RunID,
		GridID:     g.ID,
		PointCount: len(points),
		Segments:   []*segment.TrajectorySegment{},
		Summaries:  []segment.ClusterSummary{},
		Started:    time.Now().UTC(),
	}
	metrics.Points.Inc(int64(len(points)))
	metrics.PointsMeter.Mark(int64(len(points)))

	// 1. Segmenter, one object at a time.
	byObject, objects := stream.GroupBy(points, func(p trackpoint.RawPoint) conceptual.ObjectID {
		return p.ObjectID
	})
	for _, id := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, _ := g.Resolver.Resolve(id)
		for _, s := range segmenter.Segment(byObject[id], g.Config.Segmenter, g.Seq) {
			s.GridID = g.ID
			s.Name = name
			result.Segments = append(result.Segments, s)
		}
	}
	metrics.Segments.Inc(int64(len(result.Segments)))

	// 2. Quality filter.
	// 3. Feature extraction for valid segments.
	featured := make([]*segment.TrajectorySegment, 0, len(result.Segments))
	for _, s := range result.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cleaner.Apply(s, g.Config.Quality) {
			continue
		}
		metrics.SegmentsValid.Inc(1)
		v, err := g.extract(s)
		if err != nil {
			metrics.SegmentsFailed.Inc(1)
			g.logger.Warn("Excluding segment, feature extraction failed",
				"segment", s.ID, "object", s.ObjectID, "error", err)
			continue
		}
		s.Features = v
		featured = append(featured, s)
	}

	if len(featured) == 0 {
		result.Status = segment.GridStatusNoValidSegments
		result.Finished = time.Now().UTC()
		g.logger.Info("No valid segments", "points", len(points), "segments", len(result.Segments))
		return result, ctx.Err()
	}

	// 4. Distance engine, when a shape metric is selected.
	// 5. Clusterer.
	labels, err := g.cluster(featured)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([]segment.FeatureVector, len(featured))
	for i, s := range featured {
		s.SetLabel(labels[i])
		vectors[i] = s.Features
		if labels[i] == segment.NoiseLabel {
			metrics.SegmentsNoise.Inc(1)
		}
	}

	// 6. Label generator.
	summaries, err := labeler.Summarize(g.ID, vectors, labels, g.Config.Label)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].RunID = g.RunID
	}
	result.Summaries = summaries
	result.Status = segment.GridStatusOK
	result.Finished = time.Now().UTC()

	g.logger.Info("Processed grid",
		"points", len(points),
		"segments", len(result.Segments),
		"featured", len(featured),
		"clusters", cluster.Count(labels),
		"elapsed", result.Finished.Sub(result.Started).Round(time.Millisecond))
	return result, ctx.Err()
}

// extract turns a panic in feature extraction into an error for that segment alone.
func (g *Grid) extract(s *segment.TrajectorySegment) (v segment.FeatureVector, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("feature extraction panic: %v", r)
		}
	}()
	return features.Extract(s, g.Config.Features)
}

func (g *Grid) cluster(segs []*segment.TrajectorySegment) ([]int, error) {
	c, err := cluster.New(g.Config.Cluster)
	if err != nil {
		return nil, err
	}
	metric, err := distance.ParseMetric(g.Config.Cluster.Metric)
	if err != nil {
		return nil, err
	}
	if !metric.IsShape() {
		rows := make([][]float64, len(segs))
		for i, s := range segs {
			rows[i] = s.Features
		}
		return c.Fit(rows)
	}

	fn, err := distance.NewMeasure(g.Config.Cluster).Func(metric)
	if err != nil {
		return nil, err
	}
	lines := make([]orb.LineString, len(segs))
	for i, s := range segs {
		lines[i] = s.LineString()
	}
	return c.FitDistances(distance.Pairwise(lines, fn))
}
