// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inputs

import (
	"bytes"
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestGenerateReproducible(t *testing.T) {
	ip := Params{}
	ip.Defaults()
	ip.Rate = 0.05
	a := ip.Generate(rand.NewSource(7))
	b := ip.Generate(rand.NewSource(7))
	if len(a) != len(b) {
		t.Fatalf("channel counts differ: %d vs %d", len(a), len(b))
	}
	for ci := range a {
		if len(a[ci]) != len(b[ci]) {
			t.Fatalf("channel %d lengths differ", ci)
		}
		for j := range a[ci] {
			if a[ci][j] != b[ci][j] {
				t.Errorf("channel %d spike %d differs: %v vs %v", ci, j, a[ci][j], b[ci][j])
			}
		}
	}
}

func TestGenerateN(t *testing.T) {
	ip := Params{}
	ip.Defaults()
	ip.Rate = 0.1
	ip.T = 7
	trains := ip.GenerateN(20, rand.NewSource(1))
	if len(trains) != 20 {
		t.Fatalf("got %d channels, want 20", len(trains))
	}
	total := 0
	for ci, ch := range trains {
		for j, st := range ch {
			if st < 0 || st >= ip.T {
				t.Errorf("channel %d spike %v outside [0, T)", ci, st)
			}
			if j > 0 && !(st > ch[j-1]) {
				t.Errorf("channel %d not increasing at %d", ci, j)
			}
			if r := math.Mod(st/ip.Dt+1e-9, 1); r > 1e-6 {
				t.Errorf("channel %d spike %v not on the bin grid", ci, st)
			}
		}
		total += len(ch)
	}
	// 20 channels * 700 bins * 0.1 = 1400 expected
	if total < 1200 || total > 1600 {
		t.Errorf("total spikes %d far from expected 1400", total)
	}

	ip.Rate = 0
	for _, ch := range ip.GenerateN(3, rand.NewSource(1)) {
		if len(ch) != 0 {
			t.Errorf("rate 0 produced spikes: %v", ch)
		}
	}
	ip.Rate = 1
	ip.T = 0.05
	for _, ch := range ip.GenerateN(2, rand.NewSource(1)) {
		if len(ch) != 5 {
			t.Errorf("rate 1 produced %d spikes, want 5", len(ch))
		}
	}
}

func TestCounts(t *testing.T) {
	trains := [][]float64{{0, 0.05, 0.1, 0.29, 0.3}, {}}
	rows := Counts(trains, 0.1, 0.3)
	cor := [][]float64{{2, 1, 2}, {0, 0, 0}}
	for ri := range cor {
		for bi := range cor[ri] {
			if rows[ri][bi] != cor[ri][bi] {
				t.Errorf("row %d bin %d = %v, want %v", ri, bi, rows[ri][bi], cor[ri][bi])
			}
		}
	}
}

func TestWriteRead(t *testing.T) {
	trains := [][]float64{{0.01, 0.5}, {}, {3.25}}
	var buf bytes.Buffer
	if err := Write(&buf, trains); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "0.01 0.5\n\n3.25\n" {
		t.Errorf("Write = %q", got)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 || len(back[1]) != 0 || back[2][0] != 3.25 || back[0][1] != 0.5 {
		t.Errorf("Read = %v", back)
	}
	if _, err := Read(bytes.NewBufferString("0.1 x\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	ip := Params{}
	ip.Defaults()
	if err := ip.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	ip.Rate = 1.5
	if err := ip.Validate(); err == nil {
		t.Error("expected error for rate > 1")
	}
}
