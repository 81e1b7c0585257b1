package features

import (
	"github.com/montanaflynn/stats"
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"math"
)

// kinematics holds the per-point and per-transition series of a segment.
// speeds and headings have one value per point; accels and yawRates one per transition.
type kinematics struct {
	points   trackpoint.RawPoints
	speeds   []float64
	headings []float64
	accels   []float64
	yawRates []float64
}

func newKinematics(points trackpoint.RawPoints, config params.FeatureConfig) *kinematics {
	k := &kinematics{points: points}
	k.speeds = speedSeries(points, config.EarthRadius)
	k.headings = headingSeries(points)

	n := len(points)
	k.accels = make([]float64, 0, n-1)
	k.yawRates = make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		dt := flooredSeconds(points[i], points[i-1], config.TimeEpsilon)
		k.accels = append(k.accels, (k.speeds[i]-k.speeds[i-1])/dt)
		k.yawRates = append(k.yawRates, WrapAngle(k.headings[i]-k.headings[i-1])/dt)
	}
	return k
}

func (k *kinematics) fill(out segment.FeatureVector) {
	speeds := stats.Float64Data(k.speeds)
	out[segment.FeatureMeanSpeed] = must(speeds.Mean)
	out[segment.FeatureStdSpeed] = must(speeds.StandardDeviationPopulation)
	out[segment.FeatureMaxSpeed] = must(speeds.Max)
	out[segment.FeatureMinSpeed] = must(speeds.Min)

	accels := stats.Float64Data(k.accels)
	out[segment.FeatureMeanAcceleration] = must(accels.Mean)
	out[segment.FeatureStdAcceleration] = must(accels.StandardDeviationPopulation)

	abs := make(stats.Float64Data, len(k.yawRates))
	for i, y := range k.yawRates {
		abs[i] = math.Abs(y)
	}
	out[segment.FeatureMeanAbsYawRate] = must(abs.Mean)
	out[segment.FeatureStdYaw] = must(stats.Float64Data(k.yawRates).StandardDeviationPopulation)

	first, last := k.points[0], k.points[len(k.points)-1]
	dir := math.Atan2(last.Lat-first.Lat, last.Lon-first.Lon)
	out[segment.FeatureDirectionCos] = math.Cos(dir)
	out[segment.FeatureDirectionSin] = math.Sin(dir)
}

// speedSeries returns reported speeds when every point has one.
// Otherwise it derives them from step length over time; a step without elapsed
// time repeats the previous speed, and the first point copies the second.
func speedSeries(points trackpoint.RawPoints, radius float64) []float64 {
	out := make([]float64, len(points))
	if allHave(points, func(p trackpoint.RawPoint) bool { return p.HasSpeed }) {
		for i, p := range points {
			out[i] = p.Speed
		}
		return out
	}
	for i := 1; i < len(points); i++ {
		dt := points[i].Seconds() - points[i-1].Seconds()
		if dt <= 0 {
			out[i] = out[i-1]
			continue
		}
		out[i] = common.Haversine(points[i-1].Point(), points[i].Point(), radius) / dt
	}
	out[0] = out[1]
	return out
}

// headingSeries returns reported headings when every point has one.
// Otherwise each point takes the bearing of the step arriving at it, and the first copies the second.
func headingSeries(points trackpoint.RawPoints) []float64 {
	out := make([]float64, len(points))
	if allHave(points, func(p trackpoint.RawPoint) bool { return p.HasHeading }) {
		for i, p := range points {
			out[i] = p.Heading
		}
		return out
	}
	for i := 1; i < len(points); i++ {
		out[i] = math.Atan2(points[i].Lat-points[i-1].Lat, points[i].Lon-points[i-1].Lon)
	}
	out[0] = out[1]
	return out
}

func allHave(points trackpoint.RawPoints, has func(trackpoint.RawPoint) bool) bool {
	for _, p := range points {
		if !has(p) {
			return false
		}
	}
	return true
}

func flooredSeconds(p, prev trackpoint.RawPoint, epsilon float64) float64 {
	dt := p.Seconds() - prev.Seconds()
	if dt <= 0 {
		return epsilon
	}
	return dt
}

// WrapAngle maps a radian difference into (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// must unwraps a stats result; the only error it can see is empty input, which reads as 0.
func must(fn func() (float64, error)) float64 {
	out, err := fn()
	if err != nil {
		return 0
	}
	return out
}
