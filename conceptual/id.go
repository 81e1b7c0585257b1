package conceptual

// ObjectID identifies one moving object (vehicle, cat, vessel).
type ObjectID string

func (o ObjectID) String() string {
	return string(o)
}

func (o ObjectID) IsEmpty() bool {
	return o == ""
}

// GridID identifies a spatial region processed as one batch.
type GridID string

func (g GridID) String() string {
	return string(g)
}

func (g GridID) IsEmpty() bool {
	return g == ""
}
