/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"github.com/rotblauer/trackclust/params"
	"github.com/spf13/pflag"
)

// pipelineFlags returns a flag for every pipeline threshold, named by its config key.
func pipelineFlags() *pflag.FlagSet {
	d := params.DefaultPipelineConfig()
	fs := pflag.NewFlagSet("pipeline", pflag.ContinueOnError)

	fs.Int("workers", d.Workers, "Grids processed in parallel")
	fs.Int("grid_level", d.GridLevel, "S2 cell level points are bucketed into grids at")
	fs.Float64("earth_radius", d.Segmenter.EarthRadius, "Sphere radius (m) for every distance")

	fs.Float64("segmenter.min_distance", d.Segmenter.MinDistance, "Close a segment once it covers this many meters")
	fs.Duration("segmenter.max_duration", d.Segmenter.MaxDuration, "Close a segment once it spans this long")
	fs.Duration("segmenter.time_gap_threshold", d.Segmenter.TimeGapThreshold, "Close a segment at a time gap this long")
	fs.Int("segmenter.min_points", d.Segmenter.MinPoints, "Drop segments with fewer points")

	fs.Int("quality.min_points", d.Quality.MinPoints, "Segments with fewer points are insufficient_points")
	fs.Float64("quality.min_movement_meters", d.Quality.MinMovementMeters, "Segments moving less are stationary")
	fs.Float64("quality.max_jump_meters", d.Quality.MaxJumpMeters, "A step longer than this is a gps_jump")
	fs.Float64("quality.max_speed", d.Quality.MaxSpeed, "A mean speed (m/s) above this is excessive_speed")

	fs.String("features.variant", d.Features.Variant, "Feature vector: basic or enhanced")
	fs.Float64("features.time_epsilon", d.Features.TimeEpsilon, "Smallest time delta (s) used as a divisor")
	fs.Float64("features.stop_speed", d.Features.StopSpeed, "Speeds (m/s) below this count as stopped")
	fs.Float64("features.accel_peak_threshold", d.Features.AccelPeakThreshold, "Acceleration (m/s²) magnitude counted as a peak")
	fs.Float64("features.curvature_min_area", d.Features.CurvatureMinArea, "Triangle area below which curvature is zero")
	fs.Float64("features.degree_length", d.Features.DegreeLength, "Meters per degree for planar approximations")

	fs.String("cluster.method", d.Cluster.Method, "Clustering: dbscan or hierarchical")
	fs.String("cluster.metric", d.Cluster.Metric, "Distance: euclidean, frechet, hausdorff or traclus")
	fs.Float64("cluster.eps", d.Cluster.Eps, "DBSCAN neighborhood radius")
	fs.Int("cluster.min_samples", d.Cluster.MinSamples, "DBSCAN core point neighborhood size")
	fs.Int("cluster.n_clusters", d.Cluster.NClusters, "Hierarchical cluster count")
	fs.String("cluster.linkage", d.Cluster.Linkage, "Hierarchical linkage: ward, complete, average or single")
	fs.Float64("cluster.traclus.perp_weight", d.Cluster.Traclus.PerpWeight, "TRACLUS perpendicular weight")
	fs.Float64("cluster.traclus.parallel_weight", d.Cluster.Traclus.ParallelWeight, "TRACLUS parallel weight")
	fs.Float64("cluster.traclus.angle_weight", d.Cluster.Traclus.AngleWeight, "TRACLUS angular weight")
	fs.Float64("cluster.traclus.angle_amplification", d.Cluster.Traclus.AngleAmplification, "TRACLUS angular term scale")

	fs.Float64("label.very_low_below", d.Label.VeryLowBelow, "Upper bound (m/s) of the very_low speed range")
	fs.Float64("label.low_below", d.Label.LowBelow, "Upper bound (m/s) of the low speed range")
	fs.Float64("label.medium_below", d.Label.MediumBelow, "Upper bound (m/s) of the medium speed range")
	fs.Float64("label.high_below", d.Label.HighBelow, "Upper bound (m/s) of the high speed range")
	fs.Float64("label.yaw_rate_high", d.Label.YawRateHigh, "Yaw rate (rad/s) marking turning clusters")
	fs.Float64("label.brake_accel", d.Label.BrakeAccel, "Acceleration (m/s²) marking braking clusters")
	fs.Float64("label.accelerate_accel", d.Label.AccelerateAccel, "Acceleration (m/s²) marking accelerating clusters")
	fs.Float64("label.slow_speed", d.Label.SlowSpeed, "Speed (m/s) marking slow clusters")
	return fs
}
