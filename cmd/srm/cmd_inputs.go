// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/emer/srm/analysis"
	"github.com/emer/srm/inputs"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

func newInputsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inputs",
		Short: "Generate random input spike trains",
		Long: `Inputs draws a Poisson number of channels and fills each with Bernoulli
spikes per time bin, using the [inputs] section of the config.  Trains are
written one channel per line.  With --counts the binned spike counts are
written instead, in the matrix format read by 'srm analyze'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			ip := cf.Inputs
			ip.T = cf.Run.T
			if fl.Changed("T") {
				ip.T, _ = fl.GetFloat64("T")
			}
			seed := cf.Run.InputSeed
			if fl.Changed("seed") {
				seed, _ = fl.GetUint64("seed")
			}
			if err := ip.Validate(); err != nil {
				return err
			}
			src := rand.NewSource(seed)
			var trains [][]float64
			if fl.Changed("channels") {
				n, _ := fl.GetInt("channels")
				if n < 0 {
					return fmt.Errorf("--channels must be >= 0, got %d", n)
				}
				trains = ip.GenerateN(n, src)
			} else {
				trains = ip.Generate(src)
			}

			var w io.Writer = cmd.OutOrStdout()
			if path, _ := fl.GetString("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()
				w = f
			}
			if counts, _ := fl.GetBool("counts"); counts {
				return analysis.WriteMatrix(w, inputs.Counts(trains, ip.Dt, ip.T))
			}
			return inputs.Write(w, trains)
		},
	}

	cmd.Flags().String("out", "", "Output file (default stdout)")
	cmd.Flags().Float64("T", 0, "Duration (overrides config run.t)")
	cmd.Flags().Uint64("seed", 0, "Seed (overrides config run.input_seed)")
	cmd.Flags().Int("channels", 0, "Fixed number of channels instead of a Poisson draw")
	cmd.Flags().Bool("counts", false, "Write binned spike counts instead of spike times")

	return cmd
}
