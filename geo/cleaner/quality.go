// Package cleaner decides whether a segment is worth featurizing.
//
// The checks run in a fixed order and the first failure wins:
// insufficient_points, stationary, gps_jump, excessive_speed.
package cleaner

import (
	"github.com/montanaflynn/stats"
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
)

// Check returns whether seg passes, and the flag describing why not.
func Check(seg *segment.TrajectorySegment, config params.QualityConfig) (bool, segment.QualityFlag) {
	if seg.PointCount() < config.MinPoints {
		return false, segment.QualityInsufficientPoints
	}

	ls := seg.LineString()
	if common.PathLength(ls, config.EarthRadius) < config.MinMovementMeters {
		return false, segment.QualityStationary
	}

	// Teleportation.
	if common.MaxStep(ls, config.EarthRadius) > config.MaxJumpMeters {
		return false, segment.QualityGPSJump
	}

	if mean, ok := meanReportedSpeed(seg.Points); ok && mean > config.MaxSpeed {
		return false, segment.QualityExcessiveSpeed
	}
	return true, segment.QualityValid
}

// Apply runs Check and records the flag on the segment.
func Apply(seg *segment.TrajectorySegment, config params.QualityConfig) bool {
	ok, flag := Check(seg, config)
	seg.QualityFlag = flag
	return ok
}

// meanReportedSpeed averages the speeds points actually carry.
// It reports false when none do.
func meanReportedSpeed(points trackpoint.RawPoints) (float64, bool) {
	speeds := make(stats.Float64Data, 0, len(points))
	for _, p := range points {
		if p.HasSpeed {
			speeds = append(speeds, p.Speed)
		}
	}
	if len(speeds) == 0 {
		return 0, false
	}
	mean, err := speeds.Mean()
	return mean, err == nil
}
