package params

import (
	"errors"
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"io/fs"
	"strings"
)

// PipelineConfig holds every threshold of a run.
type PipelineConfig struct {
	Segmenter SegmenterConfig `mapstructure:"segmenter"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Features  FeatureConfig   `mapstructure:"features"`
	Cluster   ClusterConfig   `mapstructure:"cluster"`
	Label     LabelConfig     `mapstructure:"label"`

	// Workers bounds the number of grids processed at once.
	Workers int `mapstructure:"workers"`

	// GridLevel is the S2 cell level sources use to assign points to grids.
	GridLevel int `mapstructure:"grid_level"`
}

func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Segmenter: DefaultSegmenterConfig,
		Quality:   DefaultQualityConfig,
		Features:  DefaultFeatureConfig,
		Cluster:   DefaultClusterConfig,
		Label:     DefaultLabelConfig,
		Workers:   4,
		GridLevel: DefaultGridLevel,
	}
}

// SetEarthRadius applies one sphere radius to every section.
func (c *PipelineConfig) SetEarthRadius(radius float64) {
	c.Segmenter.EarthRadius = radius
	c.Quality.EarthRadius = radius
	c.Features.EarthRadius = radius
	c.Cluster.EarthRadius = radius
}

func (c *PipelineConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.GridLevel < 0 || c.GridLevel > 30 {
		return fmt.Errorf("%w: grid_level must be within [0, 30], got %d", ErrInvalidConfig, c.GridLevel)
	}
	return errors.Join(
		c.Segmenter.Validate(),
		c.Quality.Validate(),
		c.Features.Validate(),
		c.Cluster.Validate(),
		c.Label.Validate(),
	)
}

// NewViper returns a viper instance reading TRACKCLUST_* env vars
// and, if it exists, the config file at path (~ is expanded).
// A missing default config file is not an error; a missing explicit one is.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("read config %s: %w", expanded, err)
		}
	}
	return v, nil
}

// LoadPipelineConfig decodes v over the defaults and validates the result.
func LoadPipelineConfig(v *viper.Viper) (*PipelineConfig, error) {
	c := DefaultPipelineConfig()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if v.IsSet("earth_radius") {
		c.SetEarthRadius(v.GetFloat64("earth_radius"))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
