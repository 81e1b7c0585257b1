// Package features turns a trajectory segment into a fixed-length vector.
//
// The basic variant describes kinematics (speed, acceleration, yaw rate, coarse direction).
// The enhanced variant appends seven shape descriptors computed from coordinates alone.
package features

import (
	"errors"
	"fmt"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"math"
)

var (
	ErrTooFewPoints = errors.New("too few points for features")
	ErrNonFinite    = errors.New("non-finite feature value")
)

// Extract computes the vector variant named by config.
func Extract(seg *segment.TrajectorySegment, config params.FeatureConfig) (segment.FeatureVector, error) {
	switch config.Variant {
	case params.FeatureVariantBasic:
		return ExtractBasic(seg, config)
	case params.FeatureVariantEnhanced, "":
		return ExtractEnhanced(seg, config)
	}
	return nil, fmt.Errorf("%w: unknown feature variant %q", params.ErrInvalidConfig, config.Variant)
}

// ExtractBasic returns the 10 kinematic dimensions.
func ExtractBasic(seg *segment.TrajectorySegment, config params.FeatureConfig) (segment.FeatureVector, error) {
	if seg.PointCount() < 2 {
		return nil, fmt.Errorf("%w: segment %d has %d", ErrTooFewPoints, seg.ID, seg.PointCount())
	}
	k := newKinematics(seg.Points, config)
	out := make(segment.FeatureVector, segment.BasicFeatureLen)
	k.fill(out)
	return out, checkFinite(out)
}

// ExtractEnhanced returns the 10 kinematic dimensions followed by the 7 shape dimensions.
func ExtractEnhanced(seg *segment.TrajectorySegment, config params.FeatureConfig) (segment.FeatureVector, error) {
	if seg.PointCount() < 2 {
		return nil, fmt.Errorf("%w: segment %d has %d", ErrTooFewPoints, seg.ID, seg.PointCount())
	}
	k := newKinematics(seg.Points, config)
	out := make(segment.FeatureVector, segment.EnhancedFeatureLen)
	k.fill(out)

	ls := seg.LineString()
	out[segment.FeatureCurvature] = Curvature(ls, config)
	out[segment.FeatureTortuosity] = Tortuosity(ls, config.EarthRadius)
	out[segment.FeatureDirectionEntropy] = DirectionEntropy(ls)
	out[segment.FeatureSpeedEntropy] = SpeedEntropy(k.speeds)
	out[segment.FeatureStopRatio] = StopRatio(k.speeds, config.StopSpeed)
	out[segment.FeatureAccelPeaks] = float64(AccelPeaks(k.accels, config.AccelPeakThreshold))
	out[segment.FeatureEnvelopeArea] = EnvelopeArea(ls, config.DegreeLength)
	return out, checkFinite(out)
}

func checkFinite(v segment.FeatureVector) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNonFinite, v.Names()[i], x)
		}
	}
	return nil
}
