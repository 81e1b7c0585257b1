package api

import (
	"context"
	"errors"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/events"
	"github.com/rotblauer/trackclust/labeler"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/source"
	"github.com/rotblauer/trackclust/testing/testdata"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"sync"
	"testing"
	"time"
)

// twoFlows returns six identical eastbound objects at 10 m/s,
// six identical northbound objects at 2.5 m/s and one parked object.
func twoFlows() trackpoint.RawPoints {
	var out trackpoint.RawPoints
	flow := func(prefix string, speed, heading float64) {
		for i := 0; i < 6; i++ {
			out = append(out, testdata.Track{
				ObjectID: conceptual.ObjectID(prefix + string(rune('a'+i))),
				Start:    testdata.Origin,
				T0:       1_700_000_000_000,
				Interval: time.Second,
				Speed:    speed,
				Heading:  heading,
				N:        20,
			}.Points()...)
		}
	}
	flow("east-", 10, 0)
	flow("north-", 2.5, math.Pi/2)
	out = append(out, testdata.Stationary("parked", testdata.Origin, 10)...)
	return out
}

func TestSequence(t *testing.T) {
	seq := NewSequence()
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				seq.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), seq.Last())
	assert.Equal(t, int64(801), seq.Next())
}

func TestGrid_Process(t *testing.T) {
	config := params.DefaultPipelineConfig()
	resolver := names.Map{"east-a": "Eastbound A"}
	g := NewGrid("g", "run", config, NewSequence(), resolver)

	result, err := g.Process(context.Background(), twoFlows())
	require.NoError(t, err)
	assert.Equal(t, segment.GridStatusOK, result.Status)
	assert.Equal(t, 20*12+10, result.PointCount)
	require.Len(t, result.Segments, 13)

	h := result.Header()
	assert.Equal(t, 12, h.ValidSegments)
	assert.Equal(t, 0, h.NoiseSegments)
	assert.Equal(t, 2, h.ClusterCount)

	ids := map[int64]bool{}
	for _, s := range result.Segments {
		assert.False(t, ids[s.ID], "segment id %d reused", s.ID)
		ids[s.ID] = true
		assert.Equal(t, conceptual.GridID("g"), s.GridID)
		if s.ObjectID == "parked" {
			assert.Equal(t, segment.QualityStationary, s.QualityFlag)
			assert.Nil(t, s.Features)
			_, ok := s.Label()
			assert.False(t, ok, "unclustered segment labeled")
			continue
		}
		assert.Equal(t, segment.QualityValid, s.QualityFlag)
		assert.Len(t, s.Features, segment.EnhancedFeatureLen)
	}
	assert.Equal(t, "Eastbound A", result.Segments[0].Name)
	assert.Empty(t, result.Segments[1].Name)

	require.Len(t, result.Summaries, 2)
	east, north := result.Summaries[0], result.Summaries[1]
	assert.Equal(t, 0, east.Label)
	assert.Equal(t, 6, east.MemberCount)
	assert.Equal(t, labeler.SpeedMedium, east.SpeedRange)
	assert.Equal(t, labeler.BehaviorThrough, east.BehaviorLabel)
	assert.Equal(t, 1, north.Label)
	assert.Equal(t, labeler.SpeedLow, north.SpeedRange)
	assert.Equal(t, "run", east.RunID)
	assert.InDelta(t, 10, east.Centroid[segment.FeatureMeanSpeed], 0.01)
}

func TestGrid_Process_ShapeMetric(t *testing.T) {
	for _, metric := range []string{"frechet", "hausdorff", "traclus"} {
		t.Run(metric, func(t *testing.T) {
			config := params.DefaultPipelineConfig()
			config.Cluster.Metric = metric
			config.Cluster.Eps = 5
			result, err := NewGrid("g", "run", config, NewSequence(), nil).Process(context.Background(), twoFlows())
			require.NoError(t, err)
			assert.Equal(t, 2, result.Header().ClusterCount)
		})
	}
}

func TestGrid_Process_Hierarchical(t *testing.T) {
	config := params.DefaultPipelineConfig()
	config.Cluster.Method = params.ClusterMethodHierarchical
	config.Cluster.NClusters = 2
	result, err := NewGrid("g", "run", config, NewSequence(), nil).Process(context.Background(), twoFlows())
	require.NoError(t, err)
	require.Len(t, result.Summaries, 2)
	assert.Equal(t, 6, result.Summaries[0].MemberCount)
	assert.Equal(t, 6, result.Summaries[1].MemberCount)
}

func TestGrid_Process_FeatureFailureExcludesSegment(t *testing.T) {
	points := twoFlows()
	for i := range points {
		if points[i].ObjectID == "east-a" {
			points[i].Heading, points[i].HasHeading = math.Inf(1), true
		}
	}

	result, err := NewGrid("g", "run", params.DefaultPipelineConfig(), NewSequence(), nil).Process(context.Background(), points)
	require.NoError(t, err)
	assert.Equal(t, segment.GridStatusOK, result.Status)
	require.Len(t, result.Segments, 13)

	featured := 0
	for _, s := range result.Segments {
		_, labeled := s.Label()
		if s.ObjectID == "east-a" {
			assert.Equal(t, segment.QualityValid, s.QualityFlag)
			assert.Nil(t, s.Features)
			assert.False(t, labeled, "segment without features labeled")
			continue
		}
		if s.Features != nil {
			featured++
			assert.True(t, labeled, "segment %s unlabeled", s.ObjectID)
		}
	}
	assert.Equal(t, 12-1, featured)

	require.Len(t, result.Summaries, 2)
	assert.Equal(t, 0, result.Summaries[0].Label)
	assert.Equal(t, 5, result.Summaries[0].MemberCount)
	assert.Equal(t, 1, result.Summaries[1].Label)
	assert.Equal(t, 6, result.Summaries[1].MemberCount)
}

func TestGrid_Process_NoValidSegments(t *testing.T) {
	points := testdata.Stationary("parked", testdata.Origin, 10)
	result, err := NewGrid("g", "run", params.DefaultPipelineConfig(), NewSequence(), nil).Process(context.Background(), points)
	require.NoError(t, err)
	assert.Equal(t, segment.GridStatusNoValidSegments, result.Status)
	assert.Empty(t, result.Summaries)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, segment.QualityStationary, result.Segments[0].QualityFlag)

	result, err = NewGrid("g", "run", params.DefaultPipelineConfig(), NewSequence(), nil).Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, segment.GridStatusNoValidSegments, result.Status)
}

func TestGrid_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewGrid("g", "run", params.DefaultPipelineConfig(), NewSequence(), nil).Process(ctx, twoFlows())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

type memorySink struct {
	mu    sync.Mutex
	grids map[conceptual.GridID]*segment.GridResult
}

func (m *memorySink) WriteGrid(_ context.Context, result *segment.GridResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grids == nil {
		m.grids = map[conceptual.GridID]*segment.GridResult{}
	}
	m.grids[result.GridID] = result
	return nil
}

func (m *memorySink) Close() error { return nil }

func testSource() *source.Memory {
	mem := source.NewMemory()
	mem.Add("a-flows", twoFlows()...)
	mem.Add("b-parked", testdata.Stationary("parked", testdata.Origin, 10)...)
	return mem
}

func TestRunner_Run(t *testing.T) {
	sink := &memorySink{}
	config := params.DefaultPipelineConfig()
	config.Workers = 2
	r := NewRunner(config, testSource(), sink, nil)

	completed := make(chan *segment.GridResult, 10)
	sub := events.GridCompletedFeed.Subscribe(completed)
	defer sub.Unsubscribe()

	reports, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.NoError(t, Errors(reports))

	assert.Equal(t, conceptual.GridID("a-flows"), reports[0].GridID)
	assert.Equal(t, 2, reports[0].Header.ClusterCount)
	assert.Equal(t, segment.GridStatusNoValidSegments, reports[1].Header.Status)
	assert.Equal(t, reports[0].RunID, reports[1].RunID)
	assert.NotEmpty(t, reports[0].RunID)

	assert.Len(t, sink.grids, 2)
	assert.Len(t, completed, 2)

	// Segment ids are unique across the grids of a run.
	ids := map[int64]bool{}
	for _, res := range sink.grids {
		for _, s := range res.Segments {
			assert.False(t, ids[s.ID])
			ids[s.ID] = true
		}
	}
	assert.Len(t, ids, 14)
}

func TestRunner_Run_GridFailureIsolated(t *testing.T) {
	sink := &memorySink{}
	r := NewRunner(params.DefaultPipelineConfig(), testSource(), sink, nil)
	reports, err := r.Run(context.Background(), []conceptual.GridID{"a-flows", "missing"})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.False(t, reports[0].Failed())
	assert.True(t, reports[1].Failed())
	assert.ErrorIs(t, reports[1].Err, source.ErrUnknownGrid)
	assert.ErrorIs(t, Errors(reports), source.ErrUnknownGrid)
	assert.Len(t, sink.grids, 1)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	sink := &memorySink{}
	r := NewRunner(params.DefaultPipelineConfig(), testSource(), sink, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := r.Run(ctx, []conceptual.GridID{"a-flows", "b-parked"})
	require.NoError(t, err)
	for _, rep := range reports {
		assert.True(t, errors.Is(rep.Err, context.Canceled), "grid %s: %v", rep.GridID, rep.Err)
	}
	assert.Empty(t, sink.grids)
}

func TestRunner_Run_InvalidConfig(t *testing.T) {
	config := params.DefaultPipelineConfig()
	config.Workers = 0
	_, err := NewRunner(config, testSource(), nil, nil).Run(context.Background(), nil)
	assert.ErrorIs(t, err, params.ErrInvalidConfig)
}
