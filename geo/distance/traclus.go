package distance

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/trackclust/common"
	"math"
)

// chord is a polyline's start-to-end segment in a local metric frame.
type chord struct {
	start, end orb.Point
	dx, dy     float64
	length     float64
}

func newChord(xy orb.LineString) chord {
	c := chord{start: xy[0], end: xy[len(xy)-1]}
	c.dx, c.dy = c.end[0]-c.start[0], c.end[1]-c.start[1]
	c.length = math.Hypot(c.dx, c.dy)
	return c
}

// param is the position of p's projection along the chord, 0 at start and 1 at end.
func (c chord) param(p orb.Point) float64 {
	return ((p[0]-c.start[0])*c.dx + (p[1]-c.start[1])*c.dy) / (c.length * c.length)
}

// perpendicular is the distance from p to the chord's line, or to its start when the chord is a point.
func (c chord) perpendicular(p orb.Point) float64 {
	if c.length == 0 {
		return planar.Distance(p, c.start)
	}
	return math.Abs(c.dx*(p[1]-c.start[1])-c.dy*(p[0]-c.start[0])) / c.length
}

// overshoot is how far p's projection falls beyond either end of the chord.
func (c chord) overshoot(p orb.Point) float64 {
	if c.length == 0 {
		return 0
	}
	t := c.param(p)
	switch {
	case t < 0:
		return -t * c.length
	case t > 1:
		return (t - 1) * c.length
	}
	return 0
}

// Traclus is the weighted sum of perpendicular, parallel and angular terms between
// two polylines projected into a frame tangent midway between their first points.
// The perpendicular and parallel terms average each side's points against the other's chord,
// so Traclus(a, b) == Traclus(b, a).
func (m Measure) Traclus(a, b orb.LineString) float64 {
	if len(a) < 2 || len(b) < 2 {
		return math.Inf(1)
	}
	origin := orb.Point{(a[0][0] + b[0][0]) / 2, (a[0][1] + b[0][1]) / 2}
	frame := common.NewLocalFrame(origin, m.Radius)
	xa, xb := frame.ProjectLineString(a), frame.ProjectLineString(b)
	ca, cb := newChord(xa), newChord(xb)

	perp := (meanOver(xa, cb.perpendicular) + meanOver(xb, ca.perpendicular)) / 2
	parallel := (meanOver(xa, cb.overshoot) + meanOver(xb, ca.overshoot)) / 2

	angle := 0.0
	if ca.length > 0 && cb.length > 0 {
		cos := (ca.dx*cb.dx + ca.dy*cb.dy) / (ca.length * cb.length)
		cos = math.Max(-1, math.Min(1, cos))
		angle = math.Acos(cos) * (ca.length + cb.length) / 2 * m.Weights.AngleAmplification
	}

	w := m.Weights
	return w.PerpWeight*perp + w.ParallelWeight*parallel + w.AngleWeight*angle
}

func meanOver(xy orb.LineString, fn func(orb.Point) float64) float64 {
	sum := 0.0
	for _, p := range xy {
		sum += fn(p)
	}
	return sum / float64(len(xy))
}
