package testdata

import (
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/types/segment"
	"math"
	"time"
)

// GridResult returns a small processed grid: two clustered segments,
// one noise segment and one stationary segment left unclustered.
func GridResult(runID string, grid conceptual.GridID) *segment.GridResult {
	track := func(id conceptual.ObjectID, heading float64) Track {
		return Track{
			ObjectID: id,
			Start:    Origin,
			T0:       1_700_000_000_000,
			Interval: time.Second,
			Speed:    10,
			Heading:  heading,
			N:        10,
		}
	}
	vector := func(speed float64) segment.FeatureVector {
		v := make(segment.FeatureVector, segment.EnhancedFeatureLen)
		v[segment.FeatureMeanSpeed] = speed
		v[segment.FeatureMaxSpeed] = speed
		v[segment.FeatureMinSpeed] = speed
		v[segment.FeatureDirectionCos] = 1
		v[segment.FeatureTortuosity] = 1
		return v
	}

	segs := []*segment.TrajectorySegment{
		{ID: 1, ObjectID: "car-1", Name: "Car One", Points: track("car-1", 0).Points(), ClosedBy: segment.ClosedByEnd, QualityFlag: segment.QualityValid, Features: vector(10)},
		{ID: 2, ObjectID: "car-2", Points: track("car-2", 0).Points(), ClosedBy: segment.ClosedByEnd, QualityFlag: segment.QualityValid, Features: vector(10)},
		{ID: 3, ObjectID: "car-3", Points: track("car-3", math.Pi/2).Points(), ClosedBy: segment.ClosedByGap, QualityFlag: segment.QualityValid, Features: vector(20)},
		{ID: 4, ObjectID: "parked", Points: Stationary("parked", Origin, 10), ClosedBy: segment.ClosedByEnd, QualityFlag: segment.QualityStationary},
	}
	for _, s := range segs {
		s.GridID = grid
	}
	segs[0].SetLabel(0)
	segs[1].SetLabel(0)
	segs[2].SetLabel(segment.NoiseLabel)

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &segment.GridResult{
		RunID:      runID,
		GridID:     grid,
		Status:     segment.GridStatusOK,
		PointCount: 40,
		Segments:   segs,
		Summaries: []segment.ClusterSummary{
			{RunID: runID, GridID: grid, Label: segment.NoiseLabel, Centroid: vector(20), MemberCount: 1, SpeedRange: "high", BehaviorLabel: "noise/anomaly"},
			{RunID: runID, GridID: grid, Label: 0, Centroid: vector(10), MemberCount: 2, SpeedRange: "medium", BehaviorLabel: "through traffic"},
		},
		Started:  started,
		Finished: started.Add(time.Second),
	}
}
