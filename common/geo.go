package common

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"math"
)

// EarthRadius is the default sphere radius in meters used for haversine distances.
const EarthRadius = 6_371_000.0

// Haversine returns the great-circle distance in meters between a and b
// on a sphere of the given radius.
// orb computes with its own (WGS84 equatorial) radius, so the result is rescaled.
func Haversine(a, b orb.Point, radius float64) float64 {
	return geo.DistanceHaversine(a, b) / orb.EarthRadius * radius
}

// PathLength is the sum of consecutive haversine distances along ls.
func PathLength(ls orb.LineString, radius float64) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		total += Haversine(ls[i-1], ls[i], radius)
	}
	return total
}

// MaxStep returns the largest haversine distance between consecutive points of ls.
func MaxStep(ls orb.LineString, radius float64) float64 {
	max := 0.0
	for i := 1; i < len(ls); i++ {
		if d := Haversine(ls[i-1], ls[i], radius); d > max {
			max = d
		}
	}
	return max
}

// LocalFrame is an equirectangular plane in meters tangent at Origin.
// It is good for shape measures over a few kilometers, not for continents.
type LocalFrame struct {
	Origin orb.Point
	mx, my float64
}

func NewLocalFrame(origin orb.Point, radius float64) LocalFrame {
	my := radius * math.Pi / 180
	return LocalFrame{
		Origin: origin,
		mx:     my * math.Cos(origin.Lat()*math.Pi/180),
		my:     my,
	}
}

// Project returns p as meters east (x) and north (y) of the frame origin.
func (f LocalFrame) Project(p orb.Point) orb.Point {
	return orb.Point{(p[0] - f.Origin[0]) * f.mx, (p[1] - f.Origin[1]) * f.my}
}

func (f LocalFrame) ProjectLineString(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[i] = f.Project(p)
	}
	return out
}
