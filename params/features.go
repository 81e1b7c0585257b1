package params

import (
	"fmt"
	"github.com/rotblauer/trackclust/common"
)

const (
	FeatureVariantBasic    = "basic"
	FeatureVariantEnhanced = "enhanced"
)

type FeatureConfig struct {
	// Variant is either "basic" (10 dimensions) or "enhanced" (17).
	Variant string `mapstructure:"variant"`

	// TimeEpsilon (seconds) replaces zero or negative time deltas
	// in acceleration and yaw-rate quotients.
	TimeEpsilon float64 `mapstructure:"time_epsilon"`

	// StopSpeed is the speed (m/s) below which a sample counts toward stop_ratio.
	StopSpeed float64 `mapstructure:"stop_speed"`

	// AccelPeakThreshold is the minimum |acceleration| (m/s²) for a local extremum to count as a peak.
	AccelPeakThreshold float64 `mapstructure:"accel_peak_threshold"`

	// CurvatureMinArea is the triangle area (m²) at or below which
	// a point triple is degenerate and left out of the curvature mean.
	CurvatureMinArea float64 `mapstructure:"curvature_min_area"`

	// DegreeLength converts degrees to meters for envelope_area.
	DegreeLength float64 `mapstructure:"degree_length"`

	EarthRadius float64 `mapstructure:"earth_radius"`
}

var DefaultFeatureConfig = FeatureConfig{
	Variant:            FeatureVariantEnhanced,
	TimeEpsilon:        1e-6,
	StopSpeed:          1.0,
	AccelPeakThreshold: 2.0,
	CurvatureMinArea:   0,
	DegreeLength:       111_320,
	EarthRadius:        common.EarthRadius,
}

func (c FeatureConfig) Validate() error {
	switch c.Variant {
	case FeatureVariantBasic, FeatureVariantEnhanced:
	default:
		return fmt.Errorf("%w: unknown feature variant %q", ErrInvalidConfig, c.Variant)
	}
	if c.TimeEpsilon <= 0 {
		return fmt.Errorf("%w: time_epsilon must be positive, got %v", ErrInvalidConfig, c.TimeEpsilon)
	}
	if c.DegreeLength <= 0 || c.EarthRadius <= 0 {
		return fmt.Errorf("%w: degree_length and earth_radius must be positive", ErrInvalidConfig)
	}
	if c.CurvatureMinArea < 0 {
		return fmt.Errorf("%w: curvature_min_area must not be negative", ErrInvalidConfig)
	}
	return nil
}

type TraclusConfig struct {
	PerpWeight     float64 `mapstructure:"perp_weight"`
	ParallelWeight float64 `mapstructure:"parallel_weight"`
	AngleWeight    float64 `mapstructure:"angle_weight"`

	// AngleAmplification scales the angular term (radians times mean chord length).
	// It is a tuning knob without a derivation; 10 reproduces historical runs.
	AngleAmplification float64 `mapstructure:"angle_amplification"`
}

var DefaultTraclusConfig = TraclusConfig{
	PerpWeight:         0.6,
	ParallelWeight:     0.3,
	AngleWeight:        0.1,
	AngleAmplification: 10,
}
