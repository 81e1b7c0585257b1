// Package labeler names clusters by their centroid's speed and behavior.
package labeler

import (
	"errors"
	"fmt"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"gonum.org/v1/gonum/floats"
	"math"
	"slices"
)

var ErrLengthMismatch = errors.New("vectors and labels differ in length")

const (
	SpeedVeryLow = "very-low"
	SpeedLow     = "low"
	SpeedMedium  = "medium"
	SpeedHigh    = "high"
	SpeedFast    = "fast"
)

const (
	BehaviorNoise      = "noise/anomaly"
	BehaviorTurning    = "turning/lane-change"
	BehaviorBraking    = "decelerating/braking"
	BehaviorAccelerate = "accelerating"
	BehaviorSlow       = "slow movement"
	BehaviorThrough    = "through traffic"
)

// SpeedRange buckets a centroid by its mean speed dimension.
func SpeedRange(centroid segment.FeatureVector, config params.LabelConfig) string {
	v := centroid[segment.FeatureMeanSpeed]
	switch {
	case v < config.VeryLowBelow:
		return SpeedVeryLow
	case v < config.LowBelow:
		return SpeedLow
	case v < config.MediumBelow:
		return SpeedMedium
	case v < config.HighBelow:
		return SpeedHigh
	}
	return SpeedFast
}

// Behavior applies the first matching rule: noise, turning, braking, accelerating, slow,
// and otherwise through traffic.
func Behavior(label int, centroid segment.FeatureVector, config params.LabelConfig) string {
	switch {
	case label == segment.NoiseLabel:
		return BehaviorNoise
	case math.Abs(centroid[segment.FeatureMeanAbsYawRate]) > config.YawRateHigh:
		return BehaviorTurning
	case centroid[segment.FeatureMeanAcceleration] < config.BrakeAccel:
		return BehaviorBraking
	case centroid[segment.FeatureMeanAcceleration] > config.AccelerateAccel:
		return BehaviorAccelerate
	case centroid[segment.FeatureMeanSpeed] < config.SlowSpeed:
		return BehaviorSlow
	}
	return BehaviorThrough
}

// Summarize returns one summary per distinct label, noise included, sorted by label.
// Centroids are means of the raw vectors.
func Summarize(grid conceptual.GridID, vectors []segment.FeatureVector, labels []int, config params.LabelConfig) ([]segment.ClusterSummary, error) {
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("%w: %d vectors, %d labels", ErrLengthMismatch, len(vectors), len(labels))
	}

	sums := map[int][]float64{}
	counts := map[int]int{}
	for i, l := range labels {
		if err := vectors[i].Validate(); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		sum, ok := sums[l]
		if !ok {
			sum = make([]float64, len(vectors[i]))
			sums[l] = sum
		} else if len(sum) != len(vectors[i]) {
			return nil, fmt.Errorf("vector %d: %w", i, segment.ErrFeatureLength)
		}
		floats.Add(sum, vectors[i])
		counts[l]++
	}

	keys := make([]int, 0, len(sums))
	for l := range sums {
		keys = append(keys, l)
	}
	slices.Sort(keys)

	out := make([]segment.ClusterSummary, 0, len(keys))
	for _, l := range keys {
		centroid := segment.FeatureVector(sums[l])
		floats.Scale(1/float64(counts[l]), centroid)
		out = append(out, segment.ClusterSummary{
			GridID:        grid,
			Label:         l,
			Centroid:      centroid,
			MemberCount:   counts[l],
			SpeedRange:    SpeedRange(centroid, config),
			BehaviorLabel: Behavior(l, centroid, config),
		})
	}
	return out, nil
}
