package segment

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"time"
)

// CloseReason records which segmenter rule ended a segment.
type CloseReason string

const (
	ClosedByGap      CloseReason = "gap"
	ClosedByDistance CloseReason = "distance"
	ClosedByDuration CloseReason = "duration"
	ClosedByEnd      CloseReason = "end"
)

// TrajectorySegment is a bounded, time-ordered run of points from one object.
// The segmenter creates it, the quality filter sets QualityFlag,
// the feature extractor sets Features and the clusterer sets ClusterLabel.
type TrajectorySegment struct {
	ID       int64                `json:"id"`
	ObjectID conceptual.ObjectID  `json:"object_id"`
	GridID   conceptual.GridID    `json:"grid_id"`
	Name     string               `json:"name,omitempty"`
	Points   trackpoint.RawPoints `json:"points"`
	ClosedBy CloseReason          `json:"closed_by"`

	QualityFlag  QualityFlag   `json:"quality_flag"`
	Features     FeatureVector `json:"feature_vector,omitempty"`
	ClusterLabel *int          `json:"cluster_label,omitempty"`
}

func (s *TrajectorySegment) PointCount() int {
	return len(s.Points)
}

func (s *TrajectorySegment) IsEmpty() bool {
	return s == nil || len(s.Points) == 0
}

func (s *TrajectorySegment) StartTime() time.Time {
	if s.IsEmpty() {
		return time.Time{}
	}
	return s.Points[0].Time()
}

func (s *TrajectorySegment) EndTime() time.Time {
	if s.IsEmpty() {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Time()
}

func (s *TrajectorySegment) Duration() time.Duration {
	if s.IsEmpty() {
		return 0
	}
	return s.Points[len(s.Points)-1].Since(s.Points[0])
}

func (s *TrajectorySegment) LineString() orb.LineString {
	return s.Points.LineString()
}

// Label returns the cluster label and whether clustering has assigned one.
func (s *TrajectorySegment) Label() (int, bool) {
	if s.ClusterLabel == nil {
		return 0, false
	}
	return *s.ClusterLabel, true
}

func (s *TrajectorySegment) SetLabel(label int) {
	s.ClusterLabel = &label
}

func (s *TrajectorySegment) IsNoise() bool {
	l, ok := s.Label()
	return ok && l == NoiseLabel
}
