// Package trackdb persists grid results.
package trackdb

import (
	"context"
	"errors"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/types/segment"
)

var ErrGridNotFound = errors.New("grid not found")

// Sink stores one grid result at a time.
// A grid is written atomically and replaces any earlier result for the same grid id.
type Sink interface {
	WriteGrid(ctx context.Context, result *segment.GridResult) error
	Close() error
}

// Reader reads stored grid results back.
type Reader interface {
	Grids(ctx context.Context) ([]segment.GridHeader, error)
	Grid(ctx context.Context, id conceptual.GridID) (segment.GridHeader, error)
	Segments(ctx context.Context, id conceptual.GridID) ([]*segment.TrajectorySegment, error)
	Clusters(ctx context.Context, id conceptual.GridID) ([]segment.ClusterSummary, error)
}

// Multi writes every grid to each sink in order, stopping at the first error.
type Multi []Sink

func (m Multi) WriteGrid(ctx context.Context, result *segment.GridResult) error {
	for _, s := range m {
		if err := s.WriteGrid(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Discard is a Sink that stores nothing.
type Discard struct{}

func (Discard) WriteGrid(ctx context.Context, _ *segment.GridResult) error { return ctx.Err() }
func (Discard) Close() error                                               { return nil }
