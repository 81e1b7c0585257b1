package params

import (
	"fmt"
	"github.com/rotblauer/trackclust/common"
)

const (
	ClusterMethodDBSCAN       = "dbscan"
	ClusterMethodHierarchical = "hierarchical"
)

type ClusterConfig struct {
	// Method is "dbscan" or "hierarchical".
	Method string `mapstructure:"method"`

	// Metric is "euclidean" (standardized feature space) or a shape metric
	// ("frechet", "hausdorff", "traclus") over segment polylines.
	Metric string `mapstructure:"metric"`

	// Eps is the DBSCAN neighborhood radius, in standardized units for the
	// euclidean metric and in meters for shape metrics.
	Eps float64 `mapstructure:"eps"`

	// MinSamples is the neighborhood size (self included) that makes a core point.
	MinSamples int `mapstructure:"min_samples"`

	NClusters int `mapstructure:"n_clusters"`

	// Linkage is one of "single", "complete", "average", "ward".
	Linkage string `mapstructure:"linkage"`

	Traclus TraclusConfig `mapstructure:"traclus"`

	EarthRadius float64 `mapstructure:"earth_radius"`
}

var DefaultClusterConfig = ClusterConfig{
	Method:      ClusterMethodDBSCAN,
	Metric:      "euclidean",
	Eps:         0.5,
	MinSamples:  5,
	NClusters:   5,
	Linkage:     "ward",
	Traclus:     DefaultTraclusConfig,
	EarthRadius: common.EarthRadius,
}

func (c ClusterConfig) Validate() error {
	switch c.Method {
	case ClusterMethodDBSCAN:
		if c.Eps <= 0 {
			return fmt.Errorf("%w: eps must be positive, got %v", ErrInvalidConfig, c.Eps)
		}
		if c.MinSamples < 1 {
			return fmt.Errorf("%w: min_samples must be at least 1, got %d", ErrInvalidConfig, c.MinSamples)
		}
	case ClusterMethodHierarchical:
		if c.NClusters < 1 {
			return fmt.Errorf("%w: n_clusters must be at least 1, got %d", ErrInvalidConfig, c.NClusters)
		}
		switch c.Linkage {
		case "single", "complete", "average", "ward":
		default:
			return fmt.Errorf("%w: unknown linkage %q", ErrInvalidConfig, c.Linkage)
		}
	default:
		return fmt.Errorf("%w: unknown cluster method %q", ErrInvalidConfig, c.Method)
	}
	switch c.Metric {
	case "euclidean", "frechet", "hausdorff", "traclus":
	default:
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, c.Metric)
	}
	return nil
}

type LabelConfig struct {
	// Speed range upper bounds (m/s, exclusive) for the very-low, low, medium and high buckets.
	// Anything at or above HighBelow is "fast".
	VeryLowBelow float64 `mapstructure:"very_low_below"`
	LowBelow     float64 `mapstructure:"low_below"`
	MediumBelow  float64 `mapstructure:"medium_below"`
	HighBelow    float64 `mapstructure:"high_below"`

	// YawRateHigh (rad/s) marks turning or lane-changing clusters.
	YawRateHigh float64 `mapstructure:"yaw_rate_high"`
	// BrakeAccel (m/s², negative) marks braking clusters.
	BrakeAccel float64 `mapstructure:"brake_accel"`
	// AccelerateAccel (m/s²) marks accelerating clusters.
	AccelerateAccel float64 `mapstructure:"accelerate_accel"`
	// SlowSpeed (m/s) marks slow movement.
	SlowSpeed float64 `mapstructure:"slow_speed"`
}

var DefaultLabelConfig = LabelConfig{
	VeryLowBelow:    common.SpeedOfRunningMin,
	LowBelow:        common.SpeedOfDrivingMin,
	MediumBelow:     common.SpeedOfDrivingCityUSMean,
	HighBelow:       common.SpeedOfDrivingHighwayMin,
	YawRateHigh:     0.1,
	BrakeAccel:      -0.5,
	AccelerateAccel: 0.5,
	SlowSpeed:       common.SpeedOfRunningMin,
}

func (c LabelConfig) Validate() error {
	if !(c.VeryLowBelow < c.LowBelow && c.LowBelow < c.MediumBelow && c.MediumBelow < c.HighBelow) {
		return fmt.Errorf("%w: speed range bounds must increase", ErrInvalidConfig)
	}
	if c.BrakeAccel >= 0 || c.AccelerateAccel <= 0 || c.YawRateHigh <= 0 {
		return fmt.Errorf("%w: behavior thresholds out of range", ErrInvalidConfig)
	}
	return nil
}
