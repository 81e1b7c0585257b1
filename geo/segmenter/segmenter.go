// Package segmenter cuts one object's time-ordered point stream into
// bounded segments.
//
// Each point transition is checked against three rules, in this order:
//
//  1. gap: the time since the previous point exceeds TimeGapThreshold,
//  2. distance: the path accumulated since the segment start, including
//     the step to the new point, reaches MinDistance,
//  3. duration: the time since the segment start reaches MaxDuration.
//
// The first rule that fires closes the open segment without the new point,
// and the new point starts the next segment. Distance is checked before
// duration, so when both would fire on the same point the segment is
// recorded as a distance cut. That precedence is part of the contract.
// Because the triggering point is always excluded, an emitted segment
// never spans MaxDuration or more.
//
// Segments (including the trailing one) with fewer than MinPoints points
// are dropped, never merged into a neighbor.
package segmenter

import (
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"slices"
)

// IDGenerator hands out segment ids. Implementations shared between
// goroutines must be safe for concurrent use.
type IDGenerator interface {
	Next() int64
}

type State struct {
	Config params.SegmenterConfig

	// Points is the open segment.
	Points trackpoint.RawPoints

	// Distance is the path length in meters accumulated since the open segment's first point.
	Distance float64

	// Dropped counts points discarded with too-short segments.
	Dropped int

	seq  IDGenerator
	done []*segment.TrajectorySegment
}

func NewState(config params.SegmenterConfig, seq IDGenerator) *State {
	return &State{
		Config: config,
		Points: make(trackpoint.RawPoints, 0),
		seq:    seq,
		done:   make([]*segment.TrajectorySegment, 0),
	}
}

// Add feeds the next point. Points must arrive in timestamp order.
func (s *State) Add(p trackpoint.RawPoint) {
	if len(s.Points) == 0 {
		s.Points = append(s.Points, p)
		s.Distance = 0
		return
	}
	step := common.Haversine(s.Points[len(s.Points)-1].Point(), p.Point(), s.Config.EarthRadius)
	if reason, cut := s.trigger(p, step); cut {
		s.close(reason)
		s.Points = append(s.Points, p)
		return
	}
	s.Distance += step
	s.Points = append(s.Points, p)
}

func (s *State) trigger(p trackpoint.RawPoint, step float64) (segment.CloseReason, bool) {
	prev := s.Points[len(s.Points)-1]
	start := s.Points[0]

	// Zero and negative deltas never break a segment.
	if p.Since(prev) > s.Config.TimeGapThreshold {
		return segment.ClosedByGap, true
	}
	if s.Distance+step >= s.Config.MinDistance {
		return segment.ClosedByDistance, true
	}
	if p.Since(start) >= s.Config.MaxDuration {
		return segment.ClosedByDuration, true
	}
	return "", false
}

// close emits or drops the open segment and resets the accumulator.
func (s *State) close(reason segment.CloseReason) {
	if len(s.Points) >= s.Config.MinPoints {
		pts := make(trackpoint.RawPoints, len(s.Points))
		copy(pts, s.Points)
		s.done = append(s.done, &segment.TrajectorySegment{
			ID:       s.seq.Next(),
			ObjectID: pts[0].ObjectID,
			Points:   pts,
			ClosedBy: reason,
		})
	} else {
		s.Dropped += len(s.Points)
	}
	s.Points = s.Points[:0]
	s.Distance = 0
}

// Flush closes the open segment, if any, as the end of the stream.
func (s *State) Flush() {
	if len(s.Points) == 0 {
		return
	}
	s.close(segment.ClosedByEnd)
}

// Segments returns the segments emitted so far.
func (s *State) Segments() []*segment.TrajectorySegment {
	return s.done
}

// Segment sorts a copy of one object's points by time and cuts it into segments.
// The input slice is not modified.
func Segment(points trackpoint.RawPoints, config params.SegmenterConfig, seq IDGenerator) []*segment.TrajectorySegment {
	sorted := slices.Clone(points)
	sorted.SortByTime()
	st := NewState(config, seq)
	for _, p := range sorted {
		st.Add(p)
	}
	st.Flush()
	return st.Segments()
}
