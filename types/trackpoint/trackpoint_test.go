package trackpoint

import (
	"errors"
	"testing"
	"time"
)

var pointJSONFlat = `{"object_id":"veh-17","lon":-93.259307861328125,"lat":44.985164642333984,"timestamp":1731711463,"speed":1.1056904792785645,"heading":0.5}`

var pointJSONFeature = `{"id":0,"type":"Feature","geometry":{"type":"Point","coordinates":[-111.6902967,45.5710024]},"properties":{"Accuracy":4.9,"Name":"ia","Speed":0.45,"Time":"2024-02-04T18:04:31.172Z","UUID":"63b2bab96ca49573"}}`

func TestDecode_Flat(t *testing.T) {
	p, err := Decode([]byte(pointJSONFlat), TimeUnitAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ObjectID != "veh-17" {
		t.Errorf("expected object id 'veh-17', got %q", p.ObjectID)
	}
	if p.Lon != -93.259307861328125 {
		t.Errorf("expected lon -93.259307861328125, got %v", p.Lon)
	}
	if p.Lat != 44.985164642333984 {
		t.Errorf("expected lat 44.985164642333984, got %v", p.Lat)
	}
	if p.Timestamp != 1731711463000 {
		t.Errorf("expected seconds normalized to millis, got %d", p.Timestamp)
	}
	if !p.HasSpeed || p.Speed != 1.1056904792785645 {
		t.Errorf("expected speed 1.1056904792785645, got %v (has=%v)", p.Speed, p.HasSpeed)
	}
	if !p.HasHeading || p.Heading != 0.5 {
		t.Errorf("expected heading 0.5, got %v (has=%v)", p.Heading, p.HasHeading)
	}
}

func TestDecode_Feature(t *testing.T) {
	p, err := Decode([]byte(pointJSONFeature), TimeUnitAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ObjectID != "63b2bab96ca49573" {
		t.Errorf("expected object id from UUID, got %q", p.ObjectID)
	}
	if p.Lon != -111.6902967 || p.Lat != 45.5710024 {
		t.Errorf("unexpected coordinates %v %v", p.Lon, p.Lat)
	}
	want, _ := time.Parse(time.RFC3339, "2024-02-04T18:04:31.172Z")
	if !p.Time().Equal(want) {
		t.Errorf("expected time %v, got %v", want, p.Time())
	}
	if p.HasHeading {
		t.Errorf("expected no heading")
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want error
	}{
		{"no coordinates", `{"object_id":"a","timestamp":1}`, ErrMissingCoordinates},
		{"null coordinates", `{"object_id":"a","lon":null,"lat":1,"timestamp":1}`, ErrMissingCoordinates},
		{"no timestamp", `{"object_id":"a","lon":1,"lat":1}`, ErrMissingTimestamp},
		{"no object", `{"lon":1,"lat":1,"timestamp":1}`, ErrMissingObjectID},
		{"feature without geometry", `{"type":"Feature","properties":{"Name":"a"}}`, ErrMissingCoordinates},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode([]byte(c.data), TimeUnitAuto)
			if !errors.Is(err, c.want) {
				t.Errorf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestTimeUnit(t *testing.T) {
	cases := []struct {
		unit TimeUnit
		in   float64
		want int64
	}{
		{TimeUnitAuto, 1_700_000_000, 1_700_000_000_000},
		{TimeUnitAuto, 1_700_000_000_123, 1_700_000_000_123},
		{TimeUnitSeconds, 12, 12_000},
		{TimeUnitMillis, 12, 12},
	}
	for _, c := range cases {
		if got := c.unit.toMillis(c.in); got != c.want {
			t.Errorf("unit %d: toMillis(%v) = %d, want %d", c.unit, c.in, got, c.want)
		}
	}
}

func TestRawPoints_SortByTime(t *testing.T) {
	ps := RawPoints{
		{ObjectID: "a", Timestamp: 3000, Lon: 3},
		{ObjectID: "a", Timestamp: 1000, Lon: 1},
		{ObjectID: "a", Timestamp: 2000, Lon: 2},
		{ObjectID: "a", Timestamp: 1000, Lon: 1.5},
	}
	ps.SortByTime()
	wantLon := []float64{1, 1.5, 2, 3}
	for i, p := range ps {
		if p.Lon != wantLon[i] {
			t.Fatalf("index %d: expected lon %v, got %v", i, wantLon[i], p.Lon)
		}
	}
	if d := ps[2].Since(ps[0]); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
}
