// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c2h5oh/datasize"
	"github.com/dustin/go-humanize"
	"github.com/emer/srm/config"
	"github.com/emer/srm/inputs"
	"github.com/emer/srm/srm"
	"github.com/emer/srm/store"
	"github.com/emer/srm/tracelog"
	"github.com/emer/srm/vplot"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

// traceBytes estimates the memory held by a trace of n steps: the Vm
// slice plus the time column built for output.
func traceBytes(n int) datasize.ByteSize {
	return datasize.ByteSize(uint64(n+1) * 2 * 8)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate the neuron and write its potential trace and spikes",
		Long: `Simulate drives the neuron with input spike trains, either read from
--inputs or generated from the configured Poisson process, and writes
trace.tsv and spikes.tsv into --out.

A numerical failure stops the run; the partial trace is still written
and archived, and the command exits with the error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := simulateFlags(cmd, cf); err != nil {
				return err
			}
			if err := cf.Validate(); err != nil {
				return err
			}
			maxTrace, _ := cmd.Flags().GetString("max-trace")
			var lim datasize.ByteSize
			if err := lim.UnmarshalText([]byte(maxTrace)); err != nil {
				return fmt.Errorf("invalid --max-trace %q: %w", maxTrace, err)
			}
			return runSimulate(cmd, cf, lim)
		},
	}

	cmd.Flags().Float64("T", 0, "Simulation horizon (overrides config)")
	cmd.Flags().Uint64("seed", 0, "Seed for spike trials (overrides config)")
	cmd.Flags().String("rand", "", "Spike trial source: gonum or emergent (overrides config)")
	cmd.Flags().Uint64("input-seed", 0, "Seed for generated inputs (overrides config)")
	cmd.Flags().String("inputs", "", "Read input trains from this file instead of generating them")
	cmd.Flags().String("form", "", "Input formulation: event or convolution")
	cmd.Flags().Int("workers", 0, "Goroutines for per-channel input sums")
	cmd.Flags().String("out", "", "Output directory")
	cmd.Flags().String("plot", "", "Plot format: png, svg or pdf")
	cmd.Flags().String("archive", "", "SQLite archive to record the run in")
	cmd.Flags().String("max-trace", "512MB", "Refuse runs whose trace would exceed this size")

	return cmd
}

// simulateFlags applies the flags that were set on the command line over cf
func simulateFlags(cmd *cobra.Command, cf *config.File) error {
	fl := cmd.Flags()
	if fl.Changed("T") {
		cf.Run.T, _ = fl.GetFloat64("T")
	}
	if fl.Changed("seed") {
		cf.Run.Seed, _ = fl.GetUint64("seed")
	}
	if fl.Changed("rand") {
		cf.Run.Rand, _ = fl.GetString("rand")
	}
	if fl.Changed("input-seed") {
		cf.Run.InputSeed, _ = fl.GetUint64("input-seed")
	}
	if fl.Changed("inputs") {
		cf.Run.InputsFile, _ = fl.GetString("inputs")
	}
	if fl.Changed("form") {
		s, _ := fl.GetString("form")
		f, err := srm.ParseFormulation(s)
		if err != nil {
			return err
		}
		cf.Model.Form = f
	}
	if fl.Changed("workers") {
		cf.Model.Workers, _ = fl.GetInt("workers")
	}
	if fl.Changed("out") {
		cf.Run.Out, _ = fl.GetString("out")
	}
	if fl.Changed("plot") {
		cf.Run.Plot, _ = fl.GetString("plot")
	}
	if fl.Changed("archive") {
		cf.Run.Archive, _ = fl.GetString("archive")
	}
	return nil
}

// loadInputs reads cf.Run.InputsFile, or generates trains over the run
// horizon from cf.Inputs seeded with cf.Run.InputSeed.
func loadInputs(cf *config.File, lg *slog.Logger) ([][]float64, error) {
	if cf.Run.InputsFile != "" {
		f, err := os.Open(cf.Run.InputsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open inputs: %w", err)
		}
		defer f.Close()
		trains, err := inputs.Read(f)
		if err != nil {
			return nil, err
		}
		lg.Info("inputs loaded", "file", cf.Run.InputsFile, "channels", len(trains))
		return trains, nil
	}
	ip := cf.Inputs
	ip.T = cf.Run.T
	trains := ip.Generate(rand.NewSource(cf.Run.InputSeed))
	lg.Info("inputs generated", "channels", len(trains), "seed", cf.Run.InputSeed)
	return trains, nil
}

func runSimulate(cmd *cobra.Command, cf *config.File, lim datasize.ByteSize) error {
	lg := newLogger(cmd, cf)
	trains, err := loadInputs(cf, lg)
	if err != nil {
		return err
	}
	// the model always has exactly as many channels as it is given
	cf.Model.NInputs = len(trains)

	nst := cf.Model.NSteps(cf.Run.T)
	if sz := traceBytes(nst); sz > lim {
		return fmt.Errorf("trace of %s steps needs %s, over the --max-trace limit of %s",
			humanize.Comma(int64(nst)), sz.HumanReadable(), lim.HumanReadable())
	}
	lg.Info("simulate", "steps", humanize.Comma(int64(nst)), "trace", traceBytes(nst).HumanReadable(), "form", cf.Model.Form)

	rnd, err := cf.Run.NewRand()
	if err != nil {
		return err
	}
	mdl, err := srm.NewModel(cf.Model, rnd)
	if err != nil {
		return err
	}
	mdl.Log = lg
	rs, simErr := mdl.Simulate(cf.Run.T, trains)
	if rs == nil {
		return simErr
	}
	var se *srm.StepError
	if simErr != nil && !errors.As(simErr, &se) {
		return simErr
	}
	if se != nil {
		lg.Error("simulation stopped", "step", se.Step, "t", se.Time, "err", se.Err)
	}

	if err := writeOutputs(cf, rs, trains); err != nil {
		return err
	}
	if cf.Run.Archive != "" {
		id, err := archiveRun(cmd, cf, rs, trains, simErr)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archived run %s\n", id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s steps, %d spikes, outputs in %s\n",
		humanize.Comma(int64(rs.Steps)), len(rs.Spikes)-1, cf.Run.Out)
	return simErr
}

func writeOutputs(cf *config.File, rs *srm.Result, trains [][]float64) error {
	out := cf.Run.Out
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := tracelog.Save(filepath.Join(out, "trace.tsv"), tracelog.TraceTable(rs)); err != nil {
		return err
	}
	if err := tracelog.Save(filepath.Join(out, "spikes.tsv"), tracelog.SpikeTable(rs.Spikes)); err != nil {
		return err
	}
	if cf.Run.Plot == "" {
		return nil
	}
	if err := vplot.Trace(rs.Times(), rs.Vm, rs.Spikes, vplot.Name(out, "trace", cf.Run.Plot)); err != nil {
		return err
	}
	if len(trains) > 0 {
		if err := vplot.Raster(trains, vplot.Name(out, "inputs", cf.Run.Plot)); err != nil {
			return err
		}
	}
	return nil
}

func archiveRun(cmd *cobra.Command, cf *config.File, rs *srm.Result, trains [][]float64, simErr error) (string, error) {
	st, err := store.Open(cf.Run.Archive)
	if err != nil {
		return "", err
	}
	defer st.Close()
	rn := &store.Run{
		Seed:   cf.Run.Seed,
		T:      cf.Run.T,
		Params: cf.Model,
		Inputs: trains,
		Result: rs,
	}
	if simErr != nil {
		rn.Err = simErr.Error()
	}
	return st.Save(cmd.Context(), rn)
}
