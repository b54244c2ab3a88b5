// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if fi.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

func TestTrace(t *testing.T) {
	dir := t.TempDir()
	ts := []float64{0, 0.1, 0.2, 0.3}
	vm := []float64{1, 0.5, 0.25, 0.9}
	for _, ext := range []string{"png", "svg"} {
		path := Name(dir, "trace", ext)
		if err := Trace(ts, vm, []float64{0, 0.3}, path); err != nil {
			t.Fatal(err)
		}
		nonEmpty(t, path)
	}
	if err := Trace(ts, vm[:2], nil, Name(dir, "bad", "png")); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := Trace(ts, vm, nil, filepath.Join(dir, "noext")); err == nil {
		t.Error("expected missing extension error")
	}
}

func TestAnalysisPlots(t *testing.T) {
	dir := t.TempDir()
	if err := CorrHist([]float64{-0.5, 0.1, 0.2, 0.9}, 20, Name(dir, "corr", ".PNG")); err != nil {
		t.Fatal(err)
	}
	nonEmpty(t, filepath.Join(dir, "corr.png"))

	if err := CrossCorr([]int{-1, 0, 1}, []float64{0.5, 2, 0.5}, Name(dir, "xc", "png")); err != nil {
		t.Fatal(err)
	}
	nonEmpty(t, Name(dir, "xc", "png"))

	if err := Fano([]int{3, 5, 10, 20}, []float64{1.1, 0.9, 1.2, math.NaN()}, Name(dir, "fano", "svg")); err != nil {
		t.Fatal(err)
	}
	nonEmpty(t, Name(dir, "fano", "svg"))

	if err := Raster([][]float64{{0.1, 0.5}, {}, {0.3}}, Name(dir, "raster", "png")); err != nil {
		t.Fatal(err)
	}
	nonEmpty(t, Name(dir, "raster", "png"))

	if err := CorrHist(nil, 10, Name(dir, "none", "png")); err == nil {
		t.Error("expected error for empty coefficients")
	}
}
