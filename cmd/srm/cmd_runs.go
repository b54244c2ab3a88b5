// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/emer/srm/store"
	"github.com/emer/srm/tracelog"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived simulation runs",
	}
	cmd.PersistentFlags().String("archive", "srm.db", "SQLite run archive")
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd(), newRunsDeleteCmd())
	return cmd
}

func openArchive(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("archive")
	return store.Open(path)
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			sums, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs archived.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSEED\tT\tSTEPS\tSPIKES\tERROR")
			for _, sm := range sums {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%s\t%d\t%s\n", sm.ID, humanize.Time(sm.CreatedAt),
					sm.Seed, sm.T, humanize.Comma(int64(sm.Steps)), sm.NSpikes, sm.Err)
			}
			return tw.Flush()
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			rn, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run %s\n", rn.ID)
			fmt.Fprintf(w, "created: %s (%s)\n", rn.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(rn.CreatedAt))
			fmt.Fprintf(w, "seed: %d  T: %g  inputs: %d channels\n", rn.Seed, rn.T, len(rn.Inputs))
			fmt.Fprintf(w, "steps: %s  spikes: %d\n", humanize.Comma(int64(rn.Result.Steps)), len(rn.Result.Spikes)-1)
			if rn.Err != "" {
				fmt.Fprintf(w, "error: %s\n", rn.Err)
			}
			pars, err := json.MarshalIndent(rn.Params, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "params: %s\n", pars)

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err := os.MkdirAll(out, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				if err := tracelog.Save(filepath.Join(out, "trace.tsv"), tracelog.TraceTable(rn.Result)); err != nil {
					return err
				}
				if err := tracelog.Save(filepath.Join(out, "spikes.tsv"), tracelog.SpikeTable(rn.Result.Spikes)); err != nil {
					return err
				}
				fmt.Fprintf(w, "trace written to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "", "Also write the run's trace.tsv and spikes.tsv into this directory")
	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		},
	}
}
