package influxdb

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/types/segment"
	"sync"
	"time"
)

// Enabled reports whether an InfluxDB endpoint is configured.
func Enabled() bool {
	return params.INFLUXDB_URL != ""
}

// SummaryPoint builds the InfluxDB point for one cluster summary.
func SummaryPoint(s segment.ClusterSummary, at time.Time) *write.Point {
	p := influxdb2.NewPointWithMeasurement("cluster_summary").
		SetTime(at).
		AddTag("grid", s.GridID.String()).
		AddTag("run", s.RunID).
		AddTag("speed_range", s.SpeedRange).
		AddTag("behavior", s.BehaviorLabel).
		AddField("label", s.Label).
		AddField("member_count", s.MemberCount)
	if s.IsNoise() {
		p.AddField("noise", 1)
	}
	for i, v := range s.Centroid {
		if i >= len(segment.EnhancedFeatureNames) {
			break
		}
		p.AddField(segment.EnhancedFeatureNames[i], v)
	}
	return p
}

// ExportGridResult exports the grid's summaries stamped with its finish time.
func ExportGridResult(result *segment.GridResult) error {
	at := result.Finished
	if at.IsZero() {
		at = time.Now()
	}
	return ExportSummaries(result.Summaries, at)
}

// ExportSummaries posts cluster summaries to an InfluxDB Write API.
// The last error encountered is returned.
func ExportSummaries(summaries []segment.ClusterSummary, at time.Time) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(params.INFLUXDB_URL, params.INFLUXDB_TOKEN, opts)
	writeAPI := client.WriteAPI(params.INFLUXDB_ORG, params.INFLUXDB_BUCKET)

	// The errors chan is unbuffered and must be drained or the writer will block.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, s := range summaries {
		writeAPI.WritePoint(SummaryPoint(s, at))
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
