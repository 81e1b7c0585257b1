// Package source supplies raw points to the pipeline, grouped by grid.
package source

import (
	"context"
	"errors"
	"fmt"
	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/s2"
	"github.com/rotblauer/trackclust/stream"
	"github.com/rotblauer/trackclust/trackz"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

var ErrUnknownGrid = errors.New("unknown grid")

// Source is where a run reads its points from.
type Source interface {
	Grids(ctx context.Context) ([]conceptual.GridID, error)
	Points(ctx context.Context, grid conceptual.GridID) (trackpoint.RawPoints, error)
}

// Memory is a Source over points held in memory.
type Memory struct {
	mu    sync.RWMutex
	grids map[conceptual.GridID]trackpoint.RawPoints
}

func NewMemory() *Memory {
	return &Memory{grids: map[conceptual.GridID]trackpoint.RawPoints{}}
}

// Add appends points to a grid.
func (m *Memory) Add(grid conceptual.GridID, points ...trackpoint.RawPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grids[grid] = append(m.grids[grid], points...)
}

// Grids returns the grid ids in lexical order.
func (m *Memory) Grids(ctx context.Context) ([]conceptual.GridID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.grids)), nil
}

// Points returns a copy of the grid's points in insertion order.
func (m *Memory) Points(ctx context.Context, grid conceptual.GridID) (trackpoint.RawPoints, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps, ok := m.grids[grid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGrid, grid)
	}
	return slices.Clone(ps), nil
}

// Len returns the total number of points held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ps := range m.grids {
		n += len(ps)
	}
	return n
}

// Options configure NDJSON loading.
type Options struct {
	Unit trackpoint.TimeUnit

	// GridLevel is the S2 level points are bucketed at.
	GridLevel s2.CellLevel

	// FixedGrid, if set, puts every point in this grid instead.
	FixedGrid conceptual.GridID

	// DedupeCacheSize bounds the exact-duplicate LRU. Zero disables dropping duplicates.
	DedupeCacheSize int
}

func DefaultOptions() Options {
	return Options{
		Unit:            trackpoint.TimeUnitAuto,
		GridLevel:       s2.CellLevel(params.DefaultGridLevel),
		DedupeCacheSize: params.DefaultDedupeCacheSize,
	}
}

func (o Options) grid(p trackpoint.RawPoint) conceptual.GridID {
	if !o.FixedGrid.IsEmpty() {
		return o.FixedGrid
	}
	return s2.GridIDForPoint(p.Point(), o.GridLevel)
}

// Stats counts what loading did with the input.
type Stats struct {
	Lines      int64 `json:"lines"`
	Bad        int64 `json:"bad"`
	Duplicates int64 `json:"duplicates"`
	Points     int64 `json:"points"`
}

// NewDedupePassLRUFunc returns a predicate that is false for a point
// already seen among the last size points.
func NewDedupePassLRUFunc(size int) func(trackpoint.RawPoint) bool {
	cache := lru.New(size)
	return func(p trackpoint.RawPoint) bool {
		hash, err := hashstructure.Hash(p, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		if _, ok := cache.Get(hash); ok {
			return false
		}
		cache.Add(hash, true)
		return true
	}
}

type decoded struct {
	point trackpoint.RawPoint
	err   error
}

// LoadNDJSON reads newline delimited points from r, plain or gzipped.
// Lines that do not decode to a point are counted and dropped.
func LoadNDJSON(ctx context.Context, r io.Reader, opts Options) (*Memory, Stats, error) {
	if err := opts.GridLevel.Validate(); err != nil && opts.FixedGrid.IsEmpty() {
		return nil, Stats{}, err
	}
	r, err := trackz.MaybeGZReader(r)
	if err != nil {
		return nil, Stats{}, err
	}

	var lines, bad, dupes atomic.Int64
	lineCh, errs := stream.Lines(ctx, r)
	decodedCh := stream.Transform(ctx, func(line []byte) decoded {
		lines.Add(1)
		p, err := trackpoint.Decode(line, opts.Unit)
		return decoded{point: p, err: err}
	}, lineCh)
	goodCh := stream.Filter(ctx, func(d decoded) bool {
		if d.err != nil {
			bad.Add(1)
			slog.Debug("Dropping undecodable line", "error", d.err)
			return false
		}
		return true
	}, decodedCh)
	pointCh := stream.Transform(ctx, func(d decoded) trackpoint.RawPoint {
		return d.point
	}, goodCh)
	if opts.DedupeCacheSize > 0 {
		pass := NewDedupePassLRUFunc(opts.DedupeCacheSize)
		pointCh = stream.Filter(ctx, func(p trackpoint.RawPoint) bool {
			if pass(p) {
				return true
			}
			dupes.Add(1)
			return false
		}, pointCh)
	}

	mem := NewMemory()
	for _, p := range stream.Collect(ctx, pointCh) {
		mem.Add(opts.grid(p), p)
	}
	stats := Stats{
		Lines:      lines.Load(),
		Bad:        bad.Load(),
		Duplicates: dupes.Load(),
		Points:     int64(mem.Len()),
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if err := <-errs; err != nil {
		return nil, stats, fmt.Errorf("read points: %w", err)
	}
	return mem, stats, nil
}

// OpenFile loads NDJSON points from path; ~ is expanded and gzip is detected.
func OpenFile(ctx context.Context, path string, opts Options) (*Memory, Stats, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, Stats{}, err
	}
	f, err := trackz.OpenMaybeGZ(expanded)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()
	return LoadNDJSON(ctx, f, opts)
}
