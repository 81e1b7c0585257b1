// Package metrics counts what the pipeline does and logs it periodically.
package metrics

import (
	"context"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trackclust/common"
	_ "github.com/rotblauer/trackclust/params" // enables go-ethereum metrics
	"log/slog"
	"time"
)

// Registry holds every pipeline metric.
var Registry = metrics.NewRegistry()

var (
	Points         = metrics.NewRegisteredCounter("points", Registry)
	PointsMeter    = metrics.NewRegisteredMeter("points.meter", Registry)
	Segments       = metrics.NewRegisteredCounter("segments", Registry)
	SegmentsValid  = metrics.NewRegisteredCounter("segments.valid", Registry)
	SegmentsNoise  = metrics.NewRegisteredCounter("segments.noise", Registry)
	SegmentsFailed = metrics.NewRegisteredCounter("segments.failed", Registry)
	GridsDone      = metrics.NewRegisteredCounter("grids.done", Registry)
	GridsFailed    = metrics.NewRegisteredCounter("grids.failed", Registry)
	GridTimer      = metrics.NewRegisteredTimer("grid.timer", Registry)
)

// Snapshot flattens the registry for reporting.
func Snapshot() map[string]any {
	out := map[string]any{}
	Registry.Each(func(name string, m any) {
		switch v := m.(type) {
		case metrics.Counter:
			out[name] = v.Snapshot().Count()
		case metrics.Meter:
			s := v.Snapshot()
			out[name] = map[string]any{"count": s.Count(), "rate1": s.Rate1()}
		case metrics.Timer:
			s := v.Snapshot()
			out[name] = map[string]any{
				"count": s.Count(),
				"mean":  time.Duration(s.Mean()).String(),
				"p95":   time.Duration(s.Percentile(0.95)).String(),
			}
		}
	})
	return out
}

// LogEvery logs a humanized progress line at every interval until ctx is done.
func LogEvery(ctx context.Context, interval time.Duration) {
	started := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logProgress(started)
			return
		case <-ticker.C:
			logProgress(started)
		}
	}
}

func logProgress(started time.Time) {
	pointsSnap := PointsMeter.Snapshot()
	timerSnap := GridTimer.Snapshot()
	slog.Info("Progress",
		"points", humanize.Comma(Points.Snapshot().Count()),
		"pps", common.DecimalToFixed(pointsSnap.Rate1(), 0),
		"segments", humanize.Comma(Segments.Snapshot().Count()),
		"valid", humanize.Comma(SegmentsValid.Snapshot().Count()),
		"grids", humanize.Comma(GridsDone.Snapshot().Count()),
		"grids.failed", GridsFailed.Snapshot().Count(),
		"grid.mean", time.Duration(timerSnap.Mean()).Round(time.Millisecond),
		"running", time.Since(started).Round(time.Second))
}
