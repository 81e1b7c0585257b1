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
	"github.com/rotblauer/trackclust/common"
	"github.com/rotblauer/trackclust/daemon/webd"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"os"
)

var optHTTPAddr string
var optWebDatadir string
var optWebNamesFile string

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"webd"},
	Short:   "Start the webserver",
	Long: `Serves stored grid results over HTTP and streams newly completed grids over /socket.

Grids can also be processed synchronously by POSTing NDJSON points to /grids/{grid}/process.
If TRACKCLUST_TOKEN is set, that endpoint requires it as a bearer token.
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")

		pipeline, v, err := loadPipelineConfig(cmd)
		if err != nil {
			log.Fatalln(err)
		}
		config := params.DefaultWebDaemonConfig()
		config.Address = optHTTPAddr
		config.DataDir = optWebDatadir
		config.Pipeline = pipeline
		config.Token = v.GetString("token")
		if err := os.MkdirAll(config.DataDir, 0770); err != nil {
			log.Fatalln(err)
		}

		server, err := webd.NewWebDaemon(config)
		if err != nil {
			log.Fatalln(err)
		}
		defer server.Close()
		if optWebNamesFile != "" {
			m, err := names.LoadMap(optWebNamesFile)
			if err != nil {
				log.Fatalln(err)
			}
			server.Resolver = names.NewCached(m, params.CacheResolverTTL)
		}

		ctx, ctxCanceler := context.WithCancel(context.Background())
		defer ctxCanceler()
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			ctxCanceler()
		}()

		if err := server.Run(ctx); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	flags := webdCmd.Flags()
	flags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	flags.StringVar(&optWebDatadir, "datadir", defaults.DataDir, "Directory holding the bolt results store")
	flags.StringVar(&optWebNamesFile, "names", "", "JSON object mapping object ids to display names")
	flags.AddFlagSet(pipelineFlags())
}
