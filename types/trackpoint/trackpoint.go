package trackpoint

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/tidwall/gjson"
	"slices"
	"time"
)

var (
	ErrMissingCoordinates = errors.New("missing coordinates")
	ErrMissingTimestamp   = errors.New("missing timestamp")
	ErrMissingObjectID    = errors.New("missing object id")
)

// RawPoint is one positional sample of one object.
// Timestamp is Unix milliseconds regardless of the unit the source used.
type RawPoint struct {
	ObjectID  conceptual.ObjectID `json:"object_id"`
	Lon       float64             `json:"lon"`
	Lat       float64             `json:"lat"`
	Timestamp int64               `json:"timestamp"`

	Speed      float64 `json:"speed,omitempty"`   // units/second
	Heading    float64 `json:"heading,omitempty"` // radians
	HasSpeed   bool    `json:"has_speed,omitempty"`
	HasHeading bool    `json:"has_heading,omitempty"`
}

func (p RawPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p RawPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// Seconds returns the timestamp as fractional Unix seconds.
func (p RawPoint) Seconds() float64 {
	return float64(p.Timestamp) / 1000
}

// Since returns the time elapsed from q to p.
func (p RawPoint) Since(q RawPoint) time.Duration {
	return time.Duration(p.Timestamp-q.Timestamp) * time.Millisecond
}

type RawPoints []RawPoint

// SortByTime sorts points by timestamp, keeping the input order of equal timestamps.
func (ps RawPoints) SortByTime() {
	slices.SortStableFunc(ps, func(a, b RawPoint) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
}

func (ps RawPoints) LineString() orb.LineString {
	ls := make(orb.LineString, len(ps))
	for i, p := range ps {
		ls[i] = p.Point()
	}
	return ls
}

// TimeUnit is the unit of integer timestamps in source data.
type TimeUnit int

const (
	// TimeUnitAuto treats magnitudes above 1e11 as milliseconds, else seconds.
	// 1e11 seconds is the year 5138; 1e11 milliseconds is March 1973.
	TimeUnitAuto TimeUnit = iota
	TimeUnitSeconds
	TimeUnitMillis
)

func ParseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "", "auto":
		return TimeUnitAuto, nil
	case "s", "sec", "seconds":
		return TimeUnitSeconds, nil
	case "ms", "millis", "milliseconds":
		return TimeUnitMillis, nil
	}
	return TimeUnitAuto, fmt.Errorf("unknown time unit %q", s)
}

func (u TimeUnit) toMillis(v float64) int64 {
	switch u {
	case TimeUnitSeconds:
		return int64(v * 1000)
	case TimeUnitMillis:
		return int64(v)
	}
	if v > 1e11 || v < -1e11 {
		return int64(v)
	}
	return int64(v * 1000)
}

var (
	objectIDKeys  = []string{"object_id", "objectId", "uuid", "UUID", "id", "name", "Name"}
	lonKeys       = []string{"lon", "lng", "long", "longitude"}
	latKeys       = []string{"lat", "latitude"}
	timestampKeys = []string{"timestamp", "time", "Time", "t", "unix_time", "UnixTime"}
	speedKeys     = []string{"speed", "Speed"}
	headingKeys   = []string{"heading"}
)

// Decode reads one point from a JSON object.
// Flat objects and GeoJSON Point Features are both accepted;
// for Features, coordinates come from the geometry and everything else from properties.
// Numeric timestamps are interpreted with unit; strings must be RFC3339.
func Decode(data []byte, unit TimeUnit) (RawPoint, error) {
	p := RawPoint{}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return p, fmt.Errorf("decode point: not a JSON object")
	}

	attrs := root
	if root.Get("type").String() == "Feature" {
		attrs = root.Get("properties")
		coords := root.Get("geometry.coordinates")
		if !coords.IsArray() || len(coords.Array()) < 2 {
			return p, ErrMissingCoordinates
		}
		p.Lon = coords.Get("0").Float()
		p.Lat = coords.Get("1").Float()
		if id := root.Get("id"); id.Exists() && first(attrs, objectIDKeys).Type == gjson.Null {
			p.ObjectID = conceptual.ObjectID(id.String())
		}
	} else {
		lon, lat := first(attrs, lonKeys), first(attrs, latKeys)
		if lon.Type != gjson.Number || lat.Type != gjson.Number {
			return p, ErrMissingCoordinates
		}
		p.Lon, p.Lat = lon.Float(), lat.Float()
	}

	if id := first(attrs, objectIDKeys); id.Exists() && id.Type != gjson.Null {
		p.ObjectID = conceptual.ObjectID(id.String())
	}
	if p.ObjectID.IsEmpty() {
		return p, ErrMissingObjectID
	}

	ts := first(attrs, timestampKeys)
	switch ts.Type {
	case gjson.Number:
		p.Timestamp = unit.toMillis(ts.Float())
	case gjson.String:
		t, err := time.Parse(time.RFC3339, ts.String())
		if err != nil {
			return p, fmt.Errorf("decode point: %w", err)
		}
		p.Timestamp = t.UnixMilli()
	default:
		return p, ErrMissingTimestamp
	}

	if v := first(attrs, speedKeys); v.Type == gjson.Number && v.Float() >= 0 {
		p.Speed, p.HasSpeed = v.Float(), true
	}
	if v := first(attrs, headingKeys); v.Type == gjson.Number {
		p.Heading, p.HasHeading = v.Float(), true
	}
	return p, nil
}

func first(r gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
