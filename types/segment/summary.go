package segment

import (
	"github.com/rotblauer/trackclust/conceptual"
	"time"
)

// NoiseLabel is the cluster label of segments no cluster claimed.
// No real cluster ever uses it.
const NoiseLabel = -1

// ClusterSummary describes one distinct cluster label of a grid.
type ClusterSummary struct {
	RunID         string            `json:"run_id,omitempty"`
	GridID        conceptual.GridID `json:"grid_id"`
	Label         int               `json:"label"`
	Centroid      []float64         `json:"centroid"`
	MemberCount   int               `json:"member_count"`
	SpeedRange    string            `json:"speed_range"`
	BehaviorLabel string            `json:"behavior_label"`
}

func (c ClusterSummary) IsNoise() bool {
	return c.Label == NoiseLabel
}

type GridStatus string

const (
	GridStatusOK              GridStatus = "ok"
	GridStatusNoValidSegments GridStatus = "no valid segments"
)

// GridResult is everything one grid's pipeline run produced.
type GridResult struct {
	RunID      string               `json:"run_id"`
	GridID     conceptual.GridID    `json:"grid_id"`
	Status     GridStatus           `json:"status"`
	PointCount int                  `json:"point_count"`
	Segments   []*TrajectorySegment `json:"segments,omitempty"`
	Summaries  []ClusterSummary     `json:"summaries"`
	Started    time.Time            `json:"started"`
	Finished   time.Time            `json:"finished"`
}

// GridHeader is a GridResult without its segments.
type GridHeader struct {
	RunID         string            `json:"run_id"`
	GridID        conceptual.GridID `json:"grid_id"`
	Status        GridStatus        `json:"status"`
	PointCount    int               `json:"point_count"`
	SegmentCount  int               `json:"segment_count"`
	ValidSegments int               `json:"valid_segments"`
	NoiseSegments int               `json:"noise_segments"`
	ClusterCount  int               `json:"cluster_count"`
	Started       time.Time         `json:"started"`
	Finished      time.Time         `json:"finished"`
}

func (r *GridResult) Header() GridHeader {
	h := GridHeader{
		RunID:        r.RunID,
		GridID:       r.GridID,
		Status:       r.Status,
		PointCount:   r.PointCount,
		SegmentCount: len(r.Segments),
		Started:      r.Started,
		Finished:     r.Finished,
	}
	for _, s := range r.Segments {
		if s.QualityFlag.IsValid() {
			h.ValidSegments++
		}
		if s.IsNoise() {
			h.NoiseSegments++
		}
	}
	for _, c := range r.Summaries {
		if !c.IsNoise() {
			h.ClusterCount++
		}
	}
	return h
}
