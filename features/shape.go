package features

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/params"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"math"
	"slices"
)

const (
	directionBins = 8
	speedBins     = 10
)

// Curvature is the mean Menger curvature 4*area/(a*b*c) over consecutive point triples,
// measured in meters in a frame tangent at the first point.
// Triples with area at or below config.CurvatureMinArea are skipped; 0 when none remain.
func Curvature(ls orb.LineString, config params.FeatureConfig) float64 {
	if len(ls) < 3 {
		return 0
	}
	xy := common.NewLocalFrame(ls[0], config.EarthRadius).ProjectLineString(ls)
	sum, n := 0.0, 0
	for i := 2; i < len(xy); i++ {
		p, q, r := xy[i-2], xy[i-1], xy[i]
		a, b, c := planar.Distance(p, q), planar.Distance(q, r), planar.Distance(p, r)
		abc := a * b * c
		if abc == 0 {
			continue
		}
		area := math.Abs((q[0]-p[0])*(r[1]-p[1])-(r[0]-p[0])*(q[1]-p[1])) / 2
		if area <= config.CurvatureMinArea {
			continue
		}
		sum += 4 * area / abc
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Tortuosity is path length over start-to-end distance, or 1 when the ends are within a meter.
func Tortuosity(ls orb.LineString, radius float64) float64 {
	if len(ls) < 2 {
		return 1
	}
	chord := common.Haversine(ls[0], ls[len(ls)-1], radius)
	if chord < 1 {
		return 1
	}
	return common.PathLength(ls, radius) / chord
}

// DirectionEntropy is the base-2 entropy of per-step bearings, atan2(dlat, dlon),
// in 8 equal bins over [-pi, pi]. Zero-length steps have no bearing and are skipped
// rather than binned at 0, so a track with pauses scores the same as one without.
func DirectionEntropy(ls orb.LineString) float64 {
	bearings := make([]float64, 0, len(ls))
	for i := 1; i < len(ls); i++ {
		dlon, dlat := ls[i][0]-ls[i-1][0], ls[i][1]-ls[i-1][1]
		if dlon == 0 && dlat == 0 {
			continue
		}
		bearings = append(bearings, math.Atan2(dlat, dlon))
	}
	return histogramEntropy(bearings, -math.Pi, math.Pi, directionBins)
}

// SpeedEntropy is the base-2 entropy of speeds in 10 equal bins over their own range.
// Fewer than two samples, or a single value, give 0.
func SpeedEntropy(speeds []float64) float64 {
	if len(speeds) < 2 {
		return 0
	}
	lo, hi := floats.Min(speeds), floats.Max(speeds)
	if lo == hi {
		return 0
	}
	return histogramEntropy(speeds, lo, hi, speedBins)
}

// histogramEntropy bins values into n equal bins over [lo, hi], the last bin closed.
func histogramEntropy(values []float64, lo, hi float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	x := slices.Clone(values)
	slices.Sort(x)
	dividers := floats.Span(make([]float64, n+1), lo, hi)
	dividers[0] = math.Min(dividers[0], x[0])
	dividers[n] = math.Nextafter(math.Max(hi, x[len(x)-1]), math.Inf(1))
	counts := stat.Histogram(nil, dividers, x, nil)
	floats.Scale(1/floats.Sum(counts), counts)
	return stat.Entropy(counts) / math.Ln2
}

// StopRatio is the fraction of speeds below stop.
func StopRatio(speeds []float64, stop float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	n := 0
	for _, s := range speeds {
		if s < stop {
			n++
		}
	}
	return float64(n) / float64(len(speeds))
}

// AccelPeaks counts strict local maxima and minima of accels whose magnitude exceeds threshold.
func AccelPeaks(accels []float64, threshold float64) int {
	n := 0
	for i := 1; i < len(accels)-1; i++ {
		a := accels[i]
		if math.Abs(a) <= threshold {
			continue
		}
		prev, next := accels[i-1], accels[i+1]
		if (a > prev && a > next) || (a < prev && a < next) {
			n++
		}
	}
	return n
}

// EnvelopeArea is the shoelace area of the coordinates closed back to the start,
// in square degrees scaled by degreeLength squared. Fewer than 3 points give 0.
func EnvelopeArea(ls orb.LineString, degreeLength float64) float64 {
	if len(ls) < 3 {
		return 0
	}
	ring := make(orb.Ring, 0, len(ls)+1)
	ring = append(ring, ls...)
	if !ring.Closed() {
		ring = append(ring, ls[0])
	}
	return math.Abs(planar.Area(ring)) * degreeLength * degreeLength
}
