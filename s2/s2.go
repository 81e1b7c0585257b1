/*
Package s2 assigns points to grids using the S2 Geometry Library.

A grid is an S2 cell at a fixed level, identified by its cell token.
Every point falls in exactly one grid per level, so grids partition the input
and can be processed independently.
*/
package s2

import (
	"errors"
	"fmt"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/conceptual"
)

var ErrInvalidGridID = errors.New("invalid grid id")

// CellLevel represents the S2 cell level, from 0-30.
type CellLevel int

const (
	// CellLevel8 is about a day's ride.
	CellLevel8 CellLevel = 8

	// CellLevel11 is a small town.
	CellLevel11 CellLevel = 11

	// CellLevel13 is about a kilometer on an edge, a 1/2 section.
	CellLevel13 CellLevel = 13

	// CellLevel16 is approximately 140m on an edge.
	CellLevel16 CellLevel = 16

	CellLevelMax CellLevel = 30
)

func (l CellLevel) Validate() error {
	if l < 0 || l > CellLevelMax {
		return fmt.Errorf("cell level %d out of range [0, %d]", l, CellLevelMax)
	}
	return nil
}

// CellIDWithLevel returns the cellID truncated to the given level.
// https://docs.s2cell.aliddell.com/en/stable/s2_concepts.html#truncation
func CellIDWithLevel(cellID s2.CellID, level CellLevel) s2.CellID {
	var lsb uint64 = 1 << (2 * (30 - level))
	truncatedCellID := (uint64(cellID) & -lsb) | lsb
	return s2.CellID(truncatedCellID)
}

// CellIDForPoint returns the cellID at some level for the given point.
func CellIDForPoint(pt orb.Point, level CellLevel) s2.CellID {
	return CellIDWithLevel(s2.CellIDFromLatLng(s2.LatLngFromDegrees(pt.Lat(), pt.Lon())), level)
}

// GridIDForPoint names the grid containing pt at level.
func GridIDForPoint(pt orb.Point, level CellLevel) conceptual.GridID {
	return conceptual.GridID(CellIDForPoint(pt, level).ToToken())
}

// CellID parses a grid id back into its cell.
func CellID(id conceptual.GridID) (s2.CellID, error) {
	cellID := s2.CellIDFromToken(id.String())
	if !cellID.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGridID, id)
	}
	return cellID, nil
}

// CellPolygon returns the grid's cell outline as a closed ring of lon, lat vertices.
func CellPolygon(id conceptual.GridID) (orb.Polygon, error) {
	cellID, err := CellID(id)
	if err != nil {
		return nil, err
	}
	cell := s2.CellFromCellID(cellID)

	ring := make(orb.Ring, 0, 5)
	for i := 0; i < 4; i++ {
		ll := s2.LatLngFromPoint(cell.Vertex(i))
		ring = append(ring, orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}, nil
}
