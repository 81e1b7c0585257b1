/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/trackclust/api"
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/metrics"
	"github.com/rotblauer/trackclust/metrics/influxdb"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/s2"
	"github.com/rotblauer/trackclust/source"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/trackdb/boltdb"
	"github.com/rotblauer/trackclust/trackdb/flat"
	"github.com/rotblauer/trackclust/trackdb/sqlitedb"
	"github.com/rotblauer/trackclust/types/trackpoint"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var optInput string
var optTimeUnit string
var optDatadir string
var optSinks []string
var optGrids []string
var optNamesFile string
var optDedupeCacheSize int
var optProgressInterval time.Duration

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Cluster the trajectories of an NDJSON point file",
	Long: `
Points are read as JSON lines (flat objects or GeoJSON Point features, optionally gzipped)
from --input, or stdin when --input is "-". Undecodable lines are dropped, as are exact duplicates.
Each point is assigned to the S2 cell at --grid_level containing it, and every grid is then
segmented, filtered, featurized, clustered and labeled independently, --workers grids at a time.

Results go to every --sink under --datadir:

  bolt     results.db, a bbolt store also served by 'trackclust serve'
  flat     grids/<grid>/segments.geojson.gz and clusters.json.gz
  sqlite   results.sqlite, relational tables for ad hoc queries

Cluster summaries are also posted to InfluxDB when INFLUXDB_URL is set.
One grid failing does not stop the others; the command exits non-zero if any failed.

Examples:

  zcat points.ndjson.gz | trackclust run --sink bolt --sink flat --cluster.eps 0.3
  trackclust run --input points.ndjson --cluster.method hierarchical --cluster.n_clusters 4
  trackclust run --input points.ndjson --cluster.metric traclus --cluster.eps 25 --grids 89c25
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config, _, err := loadPipelineConfig(cmd)
		if err != nil {
			log.Fatalln(err)
		}
		unit, err := trackpoint.ParseTimeUnit(optTimeUnit)
		if err != nil {
			log.Fatalln(err)
		}

		ctx, ctxCanceler := context.WithCancel(context.Background())
		defer ctxCanceler()
		interrupt := common.Interrupted()
		go func() {
			for i := 0; i < 2; i++ {
				sig := <-interrupt
				slog.Warn("Received signal", "signal", sig, "i", i)
				if i == 0 {
					ctxCanceler()
				} else {
					log.Fatalln("Force exit")
				}
			}
		}()

		opts := source.Options{
			Unit:            unit,
			GridLevel:       s2.CellLevel(config.GridLevel),
			DedupeCacheSize: optDedupeCacheSize,
		}
		var mem *source.Memory
		var stats source.Stats
		if optInput == "-" {
			mem, stats, err = source.LoadNDJSON(ctx, os.Stdin, opts)
		} else {
			mem, stats, err = source.OpenFile(ctx, optInput, opts)
		}
		if err != nil {
			log.Fatalln(err)
		}
		slog.Info("Read points",
			"lines", humanize.Comma(stats.Lines),
			"bad", humanize.Comma(stats.Bad),
			"duplicates", humanize.Comma(stats.Duplicates),
			"points", humanize.Comma(stats.Points))

		sink, err := openSinks(optDatadir, optSinks)
		if err != nil {
			log.Fatalln(err)
		}
		defer func() {
			if err := sink.Close(); err != nil {
				slog.Error("Failed to close sinks", "error", err)
			}
		}()

		var resolver names.Resolver = names.Nop{}
		if optNamesFile != "" {
			m, err := names.LoadMap(optNamesFile)
			if err != nil {
				log.Fatalln(err)
			}
			resolver = names.NewCached(m, params.CacheResolverTTL)
		}

		grids := make([]conceptual.GridID, 0, len(optGrids))
		for _, g := range optGrids {
			grids = append(grids, conceptual.GridID(g))
		}

		go metrics.LogEvery(ctx, optProgressInterval)

		runner := api.NewRunner(config, mem, sink, resolver)
		runner.ExportInfluxDB = influxdb.Enabled()
		started := time.Now()
		reports, err := runner.Run(ctx, grids)
		if err != nil {
			log.Fatalln(err)
		}

		failed := 0
		for _, rep := range reports {
			if rep.Failed() {
				failed++
				slog.Error("Grid failed", "grid", rep.GridID, "error", rep.Err)
			}
		}
		slog.Info("Run done",
			"grids", len(reports),
			"failed", failed,
			"elapsed", time.Since(started).Round(time.Millisecond))
		if failed > 0 {
			ctxCanceler()
			_ = sink.Close()
			log.Fatalln(fmt.Errorf("%d grids failed: %w", failed, api.Errors(reports)))
		}
	},
}

// openSinks opens each named sink under datadir.
func openSinks(datadir string, kinds []string) (trackdb.Multi, error) {
	if err := os.MkdirAll(datadir, 0770); err != nil {
		return nil, err
	}
	var sinks trackdb.Multi
	for _, kind := range kinds {
		var sink trackdb.Sink
		var err error
		switch kind {
		case "bolt":
			sink, err = boltdb.Open(filepath.Join(datadir, params.BoltDBName), false)
		case "flat":
			sink, err = flat.NewSink(datadir)
		case "sqlite":
			sink, err = sqlitedb.Open(filepath.Join(datadir, params.SQLiteDBName))
		default:
			err = fmt.Errorf("unknown sink %q", kind)
		}
		if err != nil {
			return nil, errors.Join(err, sinks.Close())
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringVar(&optInput, "input", "-", "NDJSON points file, optionally gzipped; - reads stdin")
	flags.StringVar(&optTimeUnit, "unit", "auto", "Numeric timestamp unit: auto, s or ms")
	flags.StringVar(&optDatadir, "datadir", params.DatadirRoot, "Directory results are written under")
	flags.StringSliceVar(&optSinks, "sink", []string{"bolt"}, "Result sinks: bolt, flat, sqlite")
	flags.StringSliceVar(&optGrids, "grids", nil, "Only process these grid ids")
	flags.StringVar(&optNamesFile, "names", "", "JSON object mapping object ids to display names")
	flags.IntVar(&optDedupeCacheSize, "dedupe-cache", params.DefaultDedupeCacheSize, "Duplicate point LRU size; 0 keeps duplicates")
	flags.DurationVar(&optProgressInterval, "progress", 10*time.Second, "Progress log interval")
	flags.AddFlagSet(pipelineFlags())
}
