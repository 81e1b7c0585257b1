// Package boltdb stores grid results in a bbolt database.
//
// The grids bucket maps a grid id to its header,
// the clusters bucket maps a grid id to its summaries,
// and the segments bucket holds one nested bucket per grid keyed by segment id.
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/types/segment"
	"go.etcd.io/bbolt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type Store struct {
	DB     *bbolt.DB
	rOnly  bool
	logger *slog.Logger
}

// Open opens or creates the database at path.
// A writable store holds an exclusive file lock until closed.
func Open(path string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		ReadOnly: readOnly,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	s := &Store{DB: db, rOnly: readOnly, logger: slog.With("store", "bolt")}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{params.BoltBucketGrids, params.BoltBucketSegments, params.BoltBucketClusters} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func segmentKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

// WriteGrid replaces everything stored for the grid in one transaction.
func (s *Store) WriteGrid(ctx context.Context, result *segment.GridResult) error {
	if s.rOnly {
		return fmt.Errorf("write grid %s: store is read-only", result.GridID)
	}
	header, err := json.Marshal(result.Header())
	if err != nil {
		return err
	}
	summaries, err := json.Marshal(result.Summaries)
	if err != nil {
		return err
	}
	key := []byte(result.GridID)

	err = s.DB.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(params.BoltBucketGrids).Put(key, header); err != nil {
			return err
		}
		if err := tx.Bucket(params.BoltBucketClusters).Put(key, summaries); err != nil {
			return err
		}
		segments := tx.Bucket(params.BoltBucketSegments)
		if segments.Bucket(key) != nil {
			if err := segments.DeleteBucket(key); err != nil {
				return err
			}
		}
		grid, err := segments.CreateBucket(key)
		if err != nil {
			return err
		}
		for _, seg := range result.Segments {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := json.Marshal(seg)
			if err != nil {
				return err
			}
			if err := grid.Put(segmentKey(seg.ID), b); err != nil {
				return fmt.Errorf("bbolt put: %w", err)
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return fmt.Errorf("write grid %s: %w", result.GridID, err)
	}
	s.logger.Debug("Stored grid", "grid", result.GridID, "segments", len(result.Segments))
	return nil
}

// Grids returns every stored grid header ordered by grid id.
func (s *Store) Grids(ctx context.Context) ([]segment.GridHeader, error) {
	out := []segment.GridHeader{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.BoltBucketGrids)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h := segment.GridHeader{}
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			out = append(out, h)
			return nil
		})
	})
	return out, err
}

func (s *Store) Grid(ctx context.Context, id conceptual.GridID) (segment.GridHeader, error) {
	h := segment.GridHeader{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		v := s.get(tx, params.BoltBucketGrids, id)
		if v == nil {
			return fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
		}
		return json.Unmarshal(v, &h)
	})
	return h, err
}

// Segments returns the grid's segments ordered by segment id.
func (s *Store) Segments(ctx context.Context, id conceptual.GridID) ([]*segment.TrajectorySegment, error) {
	out := []*segment.TrajectorySegment{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		segments := tx.Bucket(params.BoltBucketSegments)
		if segments == nil {
			return fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
		}
		grid := segments.Bucket([]byte(id))
		if grid == nil {
			return fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
		}
		return grid.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seg := &segment.TrajectorySegment{}
			if err := json.Unmarshal(v, seg); err != nil {
				return err
			}
			out = append(out, seg)
			return nil
		})
	})
	return out, err
}

func (s *Store) Clusters(ctx context.Context, id conceptual.GridID) ([]segment.ClusterSummary, error) {
	out := []segment.ClusterSummary{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		v := s.get(tx, params.BoltBucketClusters, id)
		if v == nil {
			return fmt.Errorf("%w: %s", trackdb.ErrGridNotFound, id)
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

func (s *Store) get(tx *bbolt.Tx, bucket []byte, id conceptual.GridID) []byte {
	b := tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.Get([]byte(id))
}

var (
	_ trackdb.Sink   = (*Store)(nil)
	_ trackdb.Reader = (*Store)(nil)
)
