// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command srm runs spike response model simulations and analyzes spike
// count matrices.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/emer/srm/config"
	"github.com/emer/srm/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "srm",
		Short: "Spike response model neuron simulator",
		Long: `srm simulates a single neuron under the Spike Response Model with
escape noise, driven by presynaptic input spike trains.

It writes the membrane potential trace and output spikes as tab-separated
tables, optionally plots them and archives runs in a SQLite database.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSimulateCmd(),
		newInputsCmd(),
		newAnalyzeCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

// loadConfig reads --config if given, otherwise the defaults, and
// applies the environment.
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.Load(path)
	}
	cf := config.Default()
	if err := cf.ApplyEnv(); err != nil {
		return nil, err
	}
	return cf, nil
}

// newLogger logs to stderr at --log-level, falling back to the config level
func newLogger(cmd *cobra.Command, cf *config.File) *slog.Logger {
	lvl, _ := cmd.Flags().GetString("log-level")
	if lvl == "" {
		lvl = cf.Logging.Level
	}
	return logging.NewLogger(lvl, cmd.ErrOrStderr())
}
