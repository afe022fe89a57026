// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/server"
	"github.com/spf13/cobra"
)

const (
	defaultAddr = "localhost:8080"
	addrEnv     = "KMEANSLAB_ADDR"
)

type serveOptions struct {
	Addr          string
	K             int
	Strategy      string
	MaxIterations int
	Workers       int
}

var serveOpts = &serveOptions{}

// listenAddr picks the explicit flag, then the environment, then the default.
func listenAddr(flag string, changed bool) string {
	if changed {
		return flag
	}

	if env := os.Getenv(addrEnv); env != "" {
		return env
	}

	return defaultAddr
}

func (o *serveOptions) config() (kmeans.Config, error) {
	cfg := kmeans.DefaultConfig()
	cfg.K = o.K
	cfg.MaxIterations = o.MaxIterations
	cfg.Workers = o.Workers

	strategy, err := kmeans.ParseStrategy(o.Strategy)
	if err != nil {
		return cfg, err
	}

	cfg.Strategy = strategy

	return cfg, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive clustering web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := serveOpts.config()
		if err != nil {
			return err
		}

		// validate the defaults before any session is created
		if _, err := kmeans.NewEngine(cfg, nil); err != nil {
			return fmt.Errorf("session defaults: %w", err)
		}

		addr := listenAddr(serveOpts.Addr, cmd.Flags().Changed("addr"))
		log.Printf("🚀 Starting kmeanslab server on http://%s", addr)

		return server.NewServer(cfg).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", defaultAddr,
		"listen address (env "+addrEnv+" is used when the flag is not set)")
	serveCmd.Flags().IntVarP(&serveOpts.K, "clusters", "k", 3, "default number of clusters of new sessions")
	serveCmd.Flags().StringVar(&serveOpts.Strategy, "strategy", "random",
		"default initialization strategy (manual, random, farthest, kmeans++)")
	serveCmd.Flags().IntVar(&serveOpts.MaxIterations, "max-iterations", kmeans.DefaultMaxIterations,
		"iteration cap of run to convergence")
	serveCmd.Flags().IntVar(&serveOpts.Workers, "workers", 1, "goroutines used by the assignment step")
}
