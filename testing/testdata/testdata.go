package testdata

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"math"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(basepath, rel)
}

// Source_MixedSmall is a plain NDJSON file of two objects (flat points and
// GeoJSON features mixed), one duplicated line and one line without coordinates.
var Source_MixedSmall = "./mixed_small.ndjson"

// Origin is somewhere in Minneapolis.
var Origin = orb.Point{-93.2650, 44.9778}

// Counter is a trivial segment id generator.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

// Offset returns the point dx meters east and dy meters north of p,
// using the default earth radius.
func Offset(p orb.Point, dx, dy float64) orb.Point {
	m := common.EarthRadius * math.Pi / 180
	return orb.Point{
		p[0] + dx/(m*math.Cos(p[1]*math.Pi/180)),
		p[1] + dy/m,
	}
}

// Track describes a synthetic object moving at constant speed and heading.
type Track struct {
	ObjectID conceptual.ObjectID
	Start    orb.Point
	T0       int64         // unix millis
	Interval time.Duration // between samples
	Speed    float64       // m/s
	Heading  float64       // radians, math convention: 0 east, pi/2 north
	N        int

	// WithSpeed and WithHeading set the reported Speed and Heading fields.
	WithSpeed   bool
	WithHeading bool
}

// Points renders the track.
func (t Track) Points() trackpoint.RawPoints {
	out := make(trackpoint.RawPoints, 0, t.N)
	step := t.Speed * t.Interval.Seconds()
	p := t.Start
	for i := 0; i < t.N; i++ {
		rp := trackpoint.RawPoint{
			ObjectID:  t.ObjectID,
			Lon:       p[0],
			Lat:       p[1],
			Timestamp: t.T0 + int64(i)*t.Interval.Milliseconds(),
		}
		if t.WithSpeed {
			rp.Speed, rp.HasSpeed = t.Speed, true
		}
		if t.WithHeading {
			rp.Heading, rp.HasHeading = t.Heading, true
		}
		out = append(out, rp)
		p = Offset(p, step*math.Cos(t.Heading), step*math.Sin(t.Heading))
	}
	return out
}

// Stationary returns n points at the same place, one second apart, reporting zero speed.
func Stationary(id conceptual.ObjectID, at orb.Point, n int) trackpoint.RawPoints {
	return Track{
		ObjectID:  id,
		Start:     at,
		T0:        1_700_000_000_000,
		Interval:  time.Second,
		N:         n,
		WithSpeed: true,
	}.Points()
}
