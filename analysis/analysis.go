// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package analysis computes correlation and variability statistics over
recorded spike-count matrices: one row per trial or channel, one column
per time bin.

It reads the whitespace-delimited matrices written by the recording tools,
computes Pearson correlation for every pair of rows, the lagged
cross-correlation of strongly correlated pairs, and Fano factors of the
counts over several window widths.
*/
package analysis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StrongR2 is the default squared-correlation cutoff for a strongly correlated pair
const StrongR2 = 0.64

// FanoWindows are the default window widths, in bins, for Fano factors
var FanoWindows = []int{3, 5, 10, 20}

// ErrShape indicates a ragged or empty matrix.
var ErrShape = errors.New("analysis: bad matrix shape")

// Matrix is a row-major numeric matrix; all rows have the same length.
type Matrix [][]float64

// Cols returns the row length, 0 for an empty matrix
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// ReadMatrix reads whitespace-separated numbers, one row per line.
// Blank lines are skipped.  Rows of different lengths are an error.
func ReadMatrix(r io.Reader) (Matrix, error) {
	var m Matrix
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	ln := 0
	for sc.Scan() {
		ln++
		flds := strings.Fields(sc.Text())
		if len(flds) == 0 {
			continue
		}
		row := make([]float64, len(flds))
		for i, fs := range flds {
			v, err := strconv.ParseFloat(fs, 64)
			if err != nil {
				return nil, fmt.Errorf("analysis: line %d col %d: %w", ln, i+1, err)
			}
			row[i] = v
		}
		if len(m) > 0 && len(row) != len(m[0]) {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrShape, ln, len(row), len(m[0]))
		}
		m = append(m, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("analysis: read: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}
	return m, nil
}

// WriteMatrix writes m in the format read by ReadMatrix.
func WriteMatrix(w io.Writer, m Matrix) error {
	bw := bufio.NewWriter(w)
	for _, row := range m {
		for i, v := range row {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Pair is the correlation of rows I < J.
type Pair struct {
	I, J int
	R    float64
}

// PairCorr returns the Pearson correlation of every pair of rows I < J.
// Pairs involving a constant row have undefined correlation and are skipped.
func PairCorr(m Matrix) []Pair {
	var ps []Pair
	for i := 0; i < len(m)-1; i++ {
		for j := i + 1; j < len(m); j++ {
			r := stat.Correlation(m[i], m[j], nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			ps = append(ps, Pair{I: i, J: j, R: r})
		}
	}
	return ps
}

// Coefs returns the correlation values of ps
func Coefs(ps []Pair) []float64 {
	cs := make([]float64, len(ps))
	for i, p := range ps {
		cs[i] = p.R
	}
	return cs
}

// Strong returns the pairs whose squared correlation exceeds r2
func Strong(ps []Pair, r2 float64) []Pair {
	var st []Pair
	for _, p := range ps {
		if p.R*p.R > r2 {
			st = append(st, p)
		}
	}
	return st
}

// CrossCorr returns the cross-correlation of a and b at lags -maxLag..maxLag:
// cc[k+maxLag] = sum_n a[n+k] b[n] over the overlapping samples.
// Lag 0 is the plain dot product.
func CrossCorr(a, b []float64, maxLag int) (lags []int, cc []float64, err error) {
	if len(a) != len(b) {
		return nil, nil, fmt.Errorf("%w: lengths %d and %d differ", ErrShape, len(a), len(b))
	}
	if maxLag < 0 {
		maxLag = 0
	}
	if maxLag >= len(a) && len(a) > 0 {
		maxLag = len(a) - 1
	}
	lags = make([]int, 0, 2*maxLag+1)
	cc = make([]float64, 0, 2*maxLag+1)
	n := len(a)
	for k := -maxLag; k <= maxLag; k++ {
		lags = append(lags, k)
		if k >= 0 {
			cc = append(cc, floats.Dot(a[k:], b[:n-k]))
		} else {
			cc = append(cc, floats.Dot(a[:n+k], b[-k:]))
		}
	}
	return lags, cc, nil
}

// Fano returns the Fano factor (variance / mean) of spike counts summed
// over non-overlapping windows of the given width along each row, pooled
// across rows.  A trailing partial window is dropped.
func Fano(m Matrix, window int) (float64, error) {
	if window < 1 {
		return 0, fmt.Errorf("analysis: window must be >= 1, got %d", window)
	}
	nw := m.Cols() / window
	if nw == 0 {
		return 0, fmt.Errorf("%w: %d columns < window %d", ErrShape, m.Cols(), window)
	}
	counts := make([]float64, 0, nw*len(m))
	for _, row := range m {
		for w := 0; w < nw; w++ {
			counts = append(counts, floats.Sum(row[w*window:(w+1)*window]))
		}
	}
	mean, vr := stat.MeanVariance(counts, nil)
	if mean == 0 {
		return math.NaN(), fmt.Errorf("analysis: zero mean count for window %d", window)
	}
	return vr / mean, nil
}

// Report is the full analysis of one matrix.
type Report struct {
	Pairs   []Pair
	Strong  []Pair
	Windows []int
	Fano    []float64
}

// Analyze computes pair correlations, strong pairs above r2 and Fano
// factors for each window.  Windows wider than the matrix give NaN.
func Analyze(m Matrix, r2 float64, windows []int) *Report {
	rp := &Report{Pairs: PairCorr(m), Windows: windows}
	rp.Strong = Strong(rp.Pairs, r2)
	rp.Fano = make([]float64, len(windows))
	for i, w := range windows {
		f, err := Fano(m, w)
		if err != nil {
			f = math.NaN()
		}
		rp.Fano[i] = f
	}
	return rp
}
