package segment

import (
	"errors"
	"fmt"
)

var ErrFeatureLength = errors.New("feature vector has wrong length")

// Feature vector dimensions. The first ten are the basic variant.
const (
	FeatureMeanSpeed = iota
	FeatureStdSpeed
	FeatureMaxSpeed
	FeatureMinSpeed
	FeatureMeanAcceleration
	FeatureStdAcceleration
	FeatureMeanAbsYawRate
	FeatureStdYaw
	FeatureDirectionCos
	FeatureDirectionSin

	FeatureCurvature
	FeatureTortuosity
	FeatureDirectionEntropy
	FeatureSpeedEntropy
	FeatureStopRatio
	FeatureAccelPeaks
	FeatureEnvelopeArea
)

const (
	BasicFeatureLen    = FeatureDirectionSin + 1
	EnhancedFeatureLen = FeatureEnvelopeArea + 1
)

var EnhancedFeatureNames = []string{
	"mean_speed",
	"std_speed",
	"max_speed",
	"min_speed",
	"mean_acceleration",
	"std_acceleration",
	"mean_abs_yaw_rate",
	"std_yaw",
	"direction_cos",
	"direction_sin",
	"curvature",
	"tortuosity",
	"direction_entropy",
	"speed_entropy",
	"stop_ratio",
	"accel_peaks",
	"envelope_area",
}

var BasicFeatureNames = EnhancedFeatureNames[:BasicFeatureLen]

// FeatureVector is a fixed-length numeric summary of a segment.
type FeatureVector []float64

func (v FeatureVector) Validate() error {
	if len(v) != BasicFeatureLen && len(v) != EnhancedFeatureLen {
		return fmt.Errorf("%w: %d", ErrFeatureLength, len(v))
	}
	return nil
}

func (v FeatureVector) IsEnhanced() bool {
	return len(v) == EnhancedFeatureLen
}

func (v FeatureVector) Names() []string {
	if v.IsEnhanced() {
		return EnhancedFeatureNames
	}
	return BasicFeatureNames
}

// Map returns the vector keyed by dimension name.
func (v FeatureVector) Map() map[string]float64 {
	names := v.Names()
	m := make(map[string]float64, len(v))
	for i, x := range v {
		if i < len(names) {
			m[names[i]] = x
		}
	}
	return m
}
