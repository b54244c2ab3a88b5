// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/emer/srm/analysis"
	"github.com/emer/srm/vplot"
	"github.com/spf13/cobra"
)

// pairXCorr is the cross-correlation of one strongly correlated pair
type pairXCorr struct {
	I    int       `json:"i"`
	J    int       `json:"j"`
	R    float64   `json:"r"`
	Lags []int     `json:"lags"`
	CC   []float64 `json:"cc"`
}

// analyzeOutput is the JSON form of an analysis
type analyzeOutput struct {
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Pairs   int         `json:"pairs"`
	Strong  []pairXCorr `json:"strong"`
	Windows []int       `json:"windows"`
	Fano    []*float64  `json:"fano"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <matrix>",
		Short: "Correlation and Fano factor analysis of a spike count matrix",
		Long: `Analyze reads a matrix with one row of spike counts per neuron or channel
(whitespace-separated, "-" for stdin) and reports:

  - the Pearson correlation of every pair of rows,
  - the strongly correlated pairs (r^2 above --r2) with their
    cross-correlation over lags -maxlag..maxlag,
  - the Fano factor of the counts in non-overlapping windows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMatrixArg(cmd, args[0])
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			r2, _ := fl.GetFloat64("r2")
			maxLag, _ := fl.GetInt("maxlag")
			windows, _ := fl.GetIntSlice("windows")
			plotDir, _ := fl.GetString("plot")
			format, _ := fl.GetString("format")
			jsonOut, _ := fl.GetBool("json")
			if maxLag < 0 {
				return fmt.Errorf("--maxlag must be >= 0, got %d", maxLag)
			}

			rp := analysis.Analyze(m, r2, windows)
			out := analyzeOutput{Rows: len(m), Cols: m.Cols(), Pairs: len(rp.Pairs), Windows: rp.Windows}
			for _, p := range rp.Strong {
				lags, cc, err := analysis.CrossCorr(m[p.I], m[p.J], maxLag)
				if err != nil {
					return err
				}
				out.Strong = append(out.Strong, pairXCorr{I: p.I, J: p.J, R: p.R, Lags: lags, CC: cc})
			}
			for _, f := range rp.Fano {
				if f != f { // NaN has no JSON form
					out.Fano = append(out.Fano, nil)
					continue
				}
				out.Fano = append(out.Fano, &f)
			}

			if plotDir != "" {
				if err := plotAnalysis(plotDir, format, rp, out.Strong); err != nil {
					return err
				}
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printAnalysis(cmd.OutOrStdout(), &out)
			return nil
		},
	}

	cmd.Flags().Float64("r2", analysis.StrongR2, "Squared correlation above which a pair is strong")
	cmd.Flags().Int("maxlag", 10, "Maximum lag for cross-correlation of strong pairs")
	cmd.Flags().IntSlice("windows", analysis.FanoWindows, "Fano factor window sizes")
	cmd.Flags().String("plot", "", "Directory for plots")
	cmd.Flags().String("format", "png", "Plot format: png, svg or pdf")
	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}

func readMatrixArg(cmd *cobra.Command, path string) (analysis.Matrix, error) {
	if path == "-" {
		return analysis.ReadMatrix(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix: %w", err)
	}
	defer f.Close()
	return analysis.ReadMatrix(f)
}

func printAnalysis(w io.Writer, out *analyzeOutput) {
	fmt.Fprintf(w, "matrix: %d rows x %d cols, %d correlated pairs\n", out.Rows, out.Cols, out.Pairs)
	fmt.Fprintf(w, "strong pairs: %d\n", len(out.Strong))
	for _, p := range out.Strong {
		peak := 0
		for k := range p.CC {
			if p.CC[k] > p.CC[peak] {
				peak = k
			}
		}
		fmt.Fprintf(w, "  %d-%d  r=%.4f  peak lag %d\n", p.I, p.J, p.R, p.Lags[peak])
	}
	fmt.Fprintln(w, "fano factor:")
	for i, wn := range out.Windows {
		if out.Fano[i] == nil {
			fmt.Fprintf(w, "  window %3d  n/a\n", wn)
			continue
		}
		fmt.Fprintf(w, "  window %3d  %.4f\n", wn, *out.Fano[i])
	}
}

func plotAnalysis(dir, format string, rp *analysis.Report, strong []pairXCorr) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	if len(rp.Pairs) > 0 {
		if err := vplot.CorrHist(analysis.Coefs(rp.Pairs), 20, vplot.Name(dir, "corr", format)); err != nil {
			return err
		}
	}
	if err := vplot.Fano(rp.Windows, rp.Fano, vplot.Name(dir, "fano", format)); err != nil {
		return err
	}
	for _, p := range strong {
		nm := vplot.Name(dir, fmt.Sprintf("xcorr_%d_%d", p.I, p.J), format)
		if err := vplot.CrossCorr(p.Lags, p.CC, nm); err != nil {
			return err
		}
	}
	return nil
}
