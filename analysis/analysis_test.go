// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

const difTol = 1.0e-12

func TestReadMatrix(t *testing.T) {
	m, err := ReadMatrix(strings.NewReader("1 0 2\n\n  0\t1 1  \n3 3 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 3 || m.Cols() != 3 {
		t.Fatalf("shape %dx%d, want 3x3", len(m), m.Cols())
	}
	if m[1][0] != 0 || m[1][2] != 1 || m[2][1] != 3 {
		t.Errorf("values = %v", m)
	}

	tests := []struct {
		name, in string
	}{
		{"ragged", "1 2\n1 2 3\n"},
		{"empty", "\n\n"},
		{"bad number", "1 a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadMatrix(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := ReadMatrix(strings.NewReader("1 2\n1\n")); !errors.Is(err, ErrShape) {
		t.Errorf("ragged err = %v, want ErrShape", err)
	}
}

func TestWriteMatrix(t *testing.T) {
	m := Matrix{{1, 0.5, 2}, {0, 1, 1e-3}}
	var buf bytes.Buffer
	if err := WriteMatrix(&buf, m); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "1 0.5 2\n0 1 0.001\n"; got != want {
		t.Errorf("WriteMatrix = %q, want %q", got, want)
	}
	rd, err := ReadMatrix(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m {
		for j := range m[i] {
			if rd[i][j] != m[i][j] {
				t.Errorf("[%d][%d] = %v, want %v", i, j, rd[i][j], m[i][j])
			}
		}
	}
}

func TestPairCorr(t *testing.T) {
	m := Matrix{
		{1, 2, 3, 4},
		{2, 4, 6, 8},
		{4, 3, 2, 1},
		{5, 5, 5, 5},
	}
	ps := PairCorr(m)
	// pairs with the constant row are skipped
	if len(ps) != 3 {
		t.Fatalf("got %d pairs, want 3: %v", len(ps), ps)
	}
	cor := []Pair{{0, 1, 1}, {0, 2, -1}, {1, 2, -1}}
	for i, p := range ps {
		if p.I != cor[i].I || p.J != cor[i].J || math.Abs(p.R-cor[i].R) > difTol {
			t.Errorf("pair %d = %+v, want %+v", i, p, cor[i])
		}
	}
	if st := Strong(ps, StrongR2); len(st) != 3 {
		t.Errorf("Strong = %v, want all 3", st)
	}
	weak := []Pair{{0, 1, 0.5}, {0, 2, -0.81}, {1, 2, 0.8}}
	if st := Strong(weak, StrongR2); len(st) != 1 || st[0].J != 2 || st[0].I != 0 {
		t.Errorf("Strong(weak) = %v, want only (0,2)", st)
	}
	if cs := Coefs(weak); len(cs) != 3 || cs[1] != -0.81 {
		t.Errorf("Coefs = %v", cs)
	}
}

func TestCrossCorr(t *testing.T) {
	a := []float64{0, 1, 0, 0}
	b := []float64{1, 0, 0, 0}
	lags, cc, err := CrossCorr(a, b, 2)
	if err != nil {
		t.Fatal(err)
	}
	corLags := []int{-2, -1, 0, 1, 2}
	corCC := []float64{0, 0, 0, 1, 0}
	for i := range corLags {
		if lags[i] != corLags[i] || cc[i] != corCC[i] {
			t.Errorf("idx %d: lag %d cc %v, want lag %d cc %v", i, lags[i], cc[i], corLags[i], corCC[i])
		}
	}
	if _, _, err := CrossCorr(a, b[:2], 1); !errors.Is(err, ErrShape) {
		t.Errorf("length mismatch err = %v", err)
	}
	lags, _, _ = CrossCorr(a, b, 10)
	if len(lags) != 7 {
		t.Errorf("maxLag not clamped: %d lags", len(lags))
	}
}

func TestFano(t *testing.T) {
	m := Matrix{
		{1, 1, 0, 2, 0, 0},
		{0, 0, 0, 1, 1, 1},
	}
	// window 3 counts: 2, 2, 0, 3 -> mean 1.75, sample var 1.583333
	f, err := Fano(m, 3)
	if err != nil {
		t.Fatal(err)
	}
	mean := 1.75
	vr := ((0.25*0.25)*2 + 1.75*1.75 + 1.25*1.25) / 3
	if cor := vr / mean; math.Abs(f-cor) > difTol {
		t.Errorf("Fano(3) = %v, want %v", f, cor)
	}

	if _, err := Fano(m, 7); !errors.Is(err, ErrShape) {
		t.Errorf("wide window err = %v, want ErrShape", err)
	}
	if _, err := Fano(m, 0); err == nil {
		t.Error("expected error for window 0")
	}
	if _, err := Fano(Matrix{{0, 0, 0, 0}}, 2); err == nil {
		t.Error("expected error for zero counts")
	}
}

func TestAnalyze(t *testing.T) {
	m := Matrix{
		{1, 0, 1, 0, 1, 0, 1, 0, 1, 1},
		{1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0, 1, 0, 1, 0, 1},
	}
	rp := Analyze(m, StrongR2, FanoWindows)
	if len(rp.Pairs) != 3 || len(rp.Fano) != len(FanoWindows) {
		t.Fatalf("report = %+v", rp)
	}
	if !math.IsNaN(rp.Fano[3]) {
		t.Errorf("window 20 on 10 columns = %v, want NaN", rp.Fano[3])
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(rp.Fano[i]) {
			t.Errorf("window %d Fano is NaN", FanoWindows[i])
		}
	}
}
