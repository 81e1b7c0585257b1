package segment

import (
	"github.com/paulmach/orb/geojson"
)

// Feature encodes the segment polyline with its attributes as properties.
func (s *TrajectorySegment) Feature() *geojson.Feature {
	f := geojson.NewFeature(s.LineString())
	f.ID = s.ID
	f.Properties["id"] = s.ID
	f.Properties["object_id"] = s.ObjectID.String()
	f.Properties["grid_id"] = s.GridID.String()
	if s.Name != "" {
		f.Properties["name"] = s.Name
	}
	f.Properties["start_time"] = s.StartTime()
	f.Properties["end_time"] = s.EndTime()
	f.Properties["duration"] = s.Duration().Seconds()
	f.Properties["point_count"] = s.PointCount()
	f.Properties["closed_by"] = string(s.ClosedBy)
	f.Properties["quality_flag"] = s.QualityFlag.String()
	if s.Features != nil {
		f.Properties["feature_vector"] = []float64(s.Features)
		for k, v := range s.Features.Map() {
			f.Properties[k] = v
		}
	}
	if l, ok := s.Label(); ok {
		f.Properties["cluster_label"] = l
	}
	return f
}

// FeatureCollection encodes segments as one collection.
func FeatureCollection(segments []*TrajectorySegment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range segments {
		fc.Append(s.Feature())
	}
	return fc
}
