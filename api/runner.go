package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/events"
	"github.com/rotblauer/trackclust/metrics"
	"github.com/rotblauer/trackclust/metrics/influxdb"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/source"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/types/segment"
	"log/slog"
	"sync"
	"time"
)

// GridReport is the outcome of one grid within a run.
// Err is set when the grid failed; other grids are unaffected.
type GridReport struct {
	RunID   string             `json:"run_id"`
	GridID  conceptual.GridID  `json:"grid_id"`
	Header  segment.GridHeader `json:"header"`
	Elapsed time.Duration      `json:"elapsed"`
	Err     error              `json:"-"`
}

func (r GridReport) Failed() bool {
	return r.Err != nil
}

// Runner processes many grids in parallel, bounded by Config.Workers.
type Runner struct {
	Config   *params.PipelineConfig
	Source   source.Source
	Sink     trackdb.Sink
	Resolver names.Resolver

	// ExportInfluxDB posts cluster summaries when an InfluxDB endpoint is configured.
	ExportInfluxDB bool

	logger *slog.Logger
}

func NewRunner(config *params.PipelineConfig, src source.Source, sink trackdb.Sink, resolver names.Resolver) *Runner {
	if sink == nil {
		sink = trackdb.Discard{}
	}
	if resolver == nil {
		resolver = names.Nop{}
	}
	return &Runner{
		Config:   config,
		Source:   src,
		Sink:     sink,
		Resolver: resolver,
		logger:   slog.With("component", "runner"),
	}
}

// Run processes grids, or every grid of the source when grids is empty.
// Reports come back in the order of the grids processed.
// The returned error is only for failing to list grids or an invalid config.
func (r *Runner) Run(ctx context.Context, grids []conceptual.GridID) ([]GridReport, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	if len(grids) == 0 {
		var err error
		grids, err = r.Source.Grids(ctx)
		if err != nil {
			return nil, fmt.Errorf("list grids: %w", err)
		}
	}

	runID := uuid.NewString()
	seq := NewSequence()
	reports := make([]GridReport, len(grids))
	r.logger.Info("Starting run", "run", runID, "grids", len(grids), "workers", r.Config.Workers)

	type workT struct {
		i    int
		grid conceptual.GridID
	}
	workersWG := new(sync.WaitGroup)
	workCh := make(chan workT, r.Config.Workers)

	for i := 0; i < r.Config.Workers; i++ {
		workerI := i + 1
		go func() {
			for w := range workCh {
				reports[w.i] = r.runGrid(ctx, runID, seq, w.grid)
				if reports[w.i].Failed() {
					r.logger.Error("Grid failed", "worker", workerI, "grid", w.grid, "error", reports[w.i].Err)
				}
				workersWG.Done()
			}
		}()
	}

	for i, g := range grids {
		workersWG.Add(1)
		workCh <- workT{i: i, grid: g}
	}
	close(workCh)
	workersWG.Wait()

	failed := 0
	for _, rep := range reports {
		if rep.Failed() {
			failed++
		}
	}
	r.logger.Info("Run done", "run", runID, "grids", len(grids), "failed", failed, "segments", seq.Last())
	events.RunCompletedFeed.Send(runID)
	return reports, nil
}

func (r *Runner) runGrid(ctx context.Context, runID string, seq *Sequence, id conceptual.GridID) GridReport {
	start := time.Now()
	rep := GridReport{RunID: runID, GridID: id}

	result, err := r.processGrid(ctx, runID, seq, id)
	if err != nil {
		rep.Err = err
		rep.Elapsed = time.Since(start)
		metrics.GridsFailed.Inc(1)
		return rep
	}
	rep.Header = result.Header()
	rep.Elapsed = time.Since(start)
	metrics.GridsDone.Inc(1)
	metrics.GridTimer.Update(rep.Elapsed)

	events.GridCompletedFeed.Send(result)
	if r.ExportInfluxDB && influxdb.Enabled() {
		if err := influxdb.ExportGridResult(result); err != nil {
			r.logger.Warn("InfluxDB export failed", "grid", id, "error", err)
		}
	}
	return rep
}

// processGrid reads, processes and stores one grid.
// Nothing is stored for a grid whose context was cancelled.
func (r *Runner) processGrid(ctx context.Context, runID string, seq *Sequence, id conceptual.GridID) (*segment.GridResult, error) {
	points, err := r.Source.Points(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read grid %s: %w", id, err)
	}
	result, err := NewGrid(id, runID, r.Config, seq, r.Resolver).Process(ctx, points)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Sink.WriteGrid(ctx, result); err != nil {
		return nil, fmt.Errorf("store grid %s: %w", id, err)
	}
	return result, nil
}

// Errors joins the errors of failed reports.
func Errors(reports []GridReport) error {
	var errs []error
	for _, rep := range reports {
		if rep.Err != nil {
			errs = append(errs, rep.Err)
		}
	}
	return errors.Join(errs...)
}
