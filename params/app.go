package params

import (
	"compress/gzip"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mitchellh/go-homedir"
	"os"
	"path/filepath"
	"time"
)

func init() {
	metrics.Enabled = true
}

const (
	GridsDir = "grids"

	SegmentsGZFileName = "segments.geojson.gz"
	ClustersGZFileName = "clusters.json.gz"

	BoltDBName   = "results.db"
	SQLiteDBName = "results.sqlite"

	DefaultConfigFile = "~/.trackclust.yaml"
	EnvPrefix         = "TRACKCLUST"
)

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".trackclust")
}()

var (
	BoltBucketGrids    = []byte("grids")
	BoltBucketSegments = []byte("segments")
	BoltBucketClusters = []byte("clusters")
)

var DefaultGZipCompressionLevel = gzip.BestCompression

// DefaultDedupeCacheSize bounds the LRU used to drop duplicate points while reading a source.
var DefaultDedupeCacheSize = 100_000

// DefaultGridLevel is the S2 cell level used to assign points to grids.
// Level 13 cells are about a kilometer across.
var DefaultGridLevel = 13

var (
	CacheResolverTTL     = 24 * time.Hour
	CacheGridResultsSize = 256
)

// INFLUXDB_* configure the optional cluster summary export.
// Export is skipped when INFLUXDB_URL is empty.
var (
	INFLUXDB_URL    = os.Getenv("INFLUXDB_URL")
	INFLUXDB_TOKEN  = os.Getenv("INFLUXDB_TOKEN")
	INFLUXDB_ORG    = os.Getenv("INFLUXDB_ORG")
	INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
)
