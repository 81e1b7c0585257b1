package params

import (
	"errors"
	"fmt"
	"github.com/rotblauer/trackclust/common"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

type SegmenterConfig struct {
	// MinDistance is the accumulated path length, in meters, at which a segment is cut.
	// It takes precedence over MaxDuration when both would fire on the same point.
	MinDistance float64 `mapstructure:"min_distance"`

	// MaxDuration caps the time elapsed since the segment's first point.
	MaxDuration time.Duration `mapstructure:"max_duration"`

	// TimeGapThreshold breaks a segment when consecutive points are further apart in time.
	// Signal loss, parking, tunnels.
	TimeGapThreshold time.Duration `mapstructure:"time_gap_threshold"`

	// MinPoints is the fewest points a segment may have. Shorter segments are discarded.
	MinPoints int `mapstructure:"min_points"`

	// EarthRadius is the sphere radius in meters for haversine distances.
	EarthRadius float64 `mapstructure:"earth_radius"`
}

var DefaultSegmenterConfig = SegmenterConfig{
	MinDistance:      500,
	MaxDuration:      5 * time.Minute,
	TimeGapThreshold: 60 * time.Second,
	MinPoints:        5,
	EarthRadius:      common.EarthRadius,
}

func (c SegmenterConfig) Validate() error {
	if c.MinDistance <= 0 {
		return fmt.Errorf("%w: segmenter min_distance must be positive, got %v", ErrInvalidConfig, c.MinDistance)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("%w: segmenter max_duration must be positive, got %v", ErrInvalidConfig, c.MaxDuration)
	}
	if c.TimeGapThreshold <= 0 {
		return fmt.Errorf("%w: segmenter time_gap_threshold must be positive, got %v", ErrInvalidConfig, c.TimeGapThreshold)
	}
	if c.MinPoints < 1 {
		return fmt.Errorf("%w: segmenter min_points must be at least 1, got %d", ErrInvalidConfig, c.MinPoints)
	}
	if c.EarthRadius <= 0 {
		return fmt.Errorf("%w: earth_radius must be positive, got %v", ErrInvalidConfig, c.EarthRadius)
	}
	return nil
}

type QualityConfig struct {
	// MinPoints rejects segments with fewer points as insufficient_points.
	MinPoints int `mapstructure:"min_points"`

	// MinMovementMeters rejects segments whose total path is shorter as stationary.
	MinMovementMeters float64 `mapstructure:"min_movement_meters"`

	// MaxJumpMeters rejects segments with any single step longer than this as gps_jump.
	// Teleportation, basically.
	MaxJumpMeters float64 `mapstructure:"max_jump_meters"`

	// MaxSpeed rejects segments whose mean reported speed (m/s) exceeds it as excessive_speed.
	// Segments without reported speeds skip this check.
	MaxSpeed float64 `mapstructure:"max_speed"`

	EarthRadius float64 `mapstructure:"earth_radius"`
}

var DefaultQualityConfig = QualityConfig{
	MinPoints:         5,
	MinMovementMeters: 10,
	MaxJumpMeters:     200,
	MaxSpeed:          50,
	EarthRadius:       common.EarthRadius,
}

func (c QualityConfig) Validate() error {
	if c.MinPoints < 1 {
		return fmt.Errorf("%w: quality min_points must be at least 1, got %d", ErrInvalidConfig, c.MinPoints)
	}
	if c.MinMovementMeters < 0 || c.MaxJumpMeters <= 0 || c.MaxSpeed <= 0 {
		return fmt.Errorf("%w: quality thresholds must be positive", ErrInvalidConfig)
	}
	if c.EarthRadius <= 0 {
		return fmt.Errorf("%w: earth_radius must be positive, got %v", ErrInvalidConfig, c.EarthRadius)
	}
	return nil
}
