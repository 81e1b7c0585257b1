// Package distance compares segment polylines.
//
// Every function returns meters on a sphere of the configured radius,
// and +Inf when one side is too short to compare.
package distance

import (
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/params"
	"gonum.org/v1/gonum/mat"
	"math"
)

// Func is a symmetric polyline distance.
type Func func(a, b orb.LineString) float64

type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricFrechet   Metric = "frechet"
	MetricHausdorff Metric = "hausdorff"
	MetricTraclus   Metric = "traclus"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricEuclidean, MetricFrechet, MetricHausdorff, MetricTraclus:
		return m, nil
	case "":
		return MetricEuclidean, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", params.ErrInvalidConfig, s)
}

// IsShape reports whether the metric compares polylines rather than feature vectors.
func (m Metric) IsShape() bool {
	return m == MetricFrechet || m == MetricHausdorff || m == MetricTraclus
}

// Measure binds the distances to an earth radius and TRACLUS weights.
type Measure struct {
	Radius  float64
	Weights params.TraclusConfig
}

var DefaultMeasure = Measure{Radius: common.EarthRadius, Weights: params.DefaultTraclusConfig}

// NewMeasure reads the radius and TRACLUS weights of a cluster config.
func NewMeasure(config params.ClusterConfig) Measure {
	m := Measure{Radius: config.EarthRadius, Weights: config.Traclus}
	if m.Radius <= 0 {
		m.Radius = common.EarthRadius
	}
	return m
}

// Func returns the polyline distance for a shape metric.
func (m Measure) Func(metric Metric) (Func, error) {
	switch metric {
	case MetricFrechet:
		return m.Frechet, nil
	case MetricHausdorff:
		return m.Hausdorff, nil
	case MetricTraclus:
		return m.Traclus, nil
	}
	return nil, fmt.Errorf("%w: %q is not a polyline metric", params.ErrInvalidConfig, metric)
}

func Frechet(a, b orb.LineString) float64   { return DefaultMeasure.Frechet(a, b) }
func Hausdorff(a, b orb.LineString) float64 { return DefaultMeasure.Hausdorff(a, b) }
func Traclus(a, b orb.LineString) float64   { return DefaultMeasure.Traclus(a, b) }

// Frechet is the discrete Fréchet distance, filled row by row.
// Only the previous row of the coupling table is kept.
func (m Measure) Frechet(a, b orb.LineString) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	prev := make([]float64, len(b))
	curr := make([]float64, len(b))
	for i := range a {
		for j := range b {
			d := common.Haversine(a[i], b[j], m.Radius)
			switch {
			case i == 0 && j == 0:
				curr[j] = d
			case i == 0:
				curr[j] = math.Max(curr[j-1], d)
			case j == 0:
				curr[j] = math.Max(prev[0], d)
			default:
				curr[j] = math.Max(min(prev[j], prev[j-1], curr[j-1]), d)
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)-1]
}

// Hausdorff is the larger of the two directed Hausdorff distances.
func (m Measure) Hausdorff(a, b orb.LineString) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	return math.Max(m.directedHausdorff(a, b), m.directedHausdorff(b, a))
}

func (m Measure) directedHausdorff(a, b orb.LineString) float64 {
	worst := 0.0
	for _, p := range a {
		nearest := math.Inf(1)
		for _, q := range b {
			if d := common.Haversine(p, q, m.Radius); d < nearest {
				nearest = d
			}
		}
		if nearest > worst {
			worst = nearest
		}
	}
	return worst
}

// Pairwise fills the symmetric matrix of fn over every pair of lines.
// The diagonal is zero. No lines give a nil matrix.
func Pairwise(lines []orb.LineString, fn Func) *mat.SymDense {
	n := len(lines)
	if n == 0 {
		return nil
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out.SetSym(i, j, fn(lines[i], lines[j]))
		}
	}
	return out
}
