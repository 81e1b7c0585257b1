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
	"fmt"
	"github.com/rotblauer/trackclust/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
)

var optConfigFile string
var optVerbosity int
var optLogJSON bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trackclust",
	Short: "Segment, featurize and cluster moving-object trajectories per spatial grid",
	Long: `trackclust reads positional points of moving objects, splits them into
trajectory segments per spatial grid, extracts kinematic features, clusters
the segments by behavior and labels the clusters.

Thresholds come from flags, TRACKCLUST_* environment variables and an optional
YAML config file (default ~/.trackclust.yaml), in that order of precedence.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&optConfigFile, "config", "", fmt.Sprintf("Config file (default %s)", params.DefaultConfigFile))
	pFlags.IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo), "Log level: -4 debug, 0 info, 4 warn, 8 error")
	pFlags.BoolVar(&optLogJSON, "log-json", false, "Log JSON lines instead of text")
}

// setDefaultSlog installs the process logger at --verbosity.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	opts := &slog.HandlerOptions{Level: slog.Level(optVerbosity)}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if optLogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("cmd", cmd.Name()))
}

// loadPipelineConfig layers the config file, env and cmd's flags over the defaults.
// Pipeline flags are named by their config keys, eg. --cluster.eps.
func loadPipelineConfig(cmd *cobra.Command) (*params.PipelineConfig, *viper.Viper, error) {
	v, err := params.NewViper(optConfigFile)
	if err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, nil, err
	}
	config, err := params.LoadPipelineConfig(v)
	if err != nil {
		return nil, nil, err
	}
	return config, v, nil
}
