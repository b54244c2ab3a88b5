// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/emer/srm/srm"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(t *testing.T) *Run {
	t.Helper()
	sp := srm.Params{}
	sp.Defaults()
	sp.NInputs = 1
	sp.Dt = 0.1
	sp.Form = srm.Convolution
	m, err := srm.NewModel(sp, srm.NewRand(5))
	if err != nil {
		t.Fatal(err)
	}
	in := [][]float64{{0.1, 0.4}}
	rs, err := m.Simulate(1, in)
	if err != nil {
		t.Fatal(err)
	}
	return &Run{Seed: 5, T: 1, Params: sp, Inputs: in, Result: rs}
}

func TestSaveLoad(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	rn := testRun(t)

	id, err := s.Save(ctx, rn)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" || rn.ID != id {
		t.Fatalf("Save id = %q, run id = %q", id, rn.ID)
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Seed != 5 || got.T != 1 || got.Params != rn.Params {
		t.Errorf("loaded header = seed %v T %v params %+v", got.Seed, got.T, got.Params)
	}
	if got.Params.Form != srm.Convolution {
		t.Errorf("formulation = %v, want convolution", got.Params.Form)
	}
	if len(got.Inputs) != 1 || len(got.Inputs[0]) != 2 || got.Inputs[0][1] != 0.4 {
		t.Errorf("inputs = %v", got.Inputs)
	}
	if len(got.Result.Vm) != len(rn.Result.Vm) {
		t.Fatalf("trace length %d, want %d", len(got.Result.Vm), len(rn.Result.Vm))
	}
	for i := range rn.Result.Vm {
		if got.Result.Vm[i] != rn.Result.Vm[i] {
			t.Errorf("Vm %d = %v, want %v", i, got.Result.Vm[i], rn.Result.Vm[i])
		}
	}
	if len(got.Result.Spikes) != len(rn.Result.Spikes) || got.Result.Spikes[0] != 0 {
		t.Errorf("spikes = %v, want %v", got.Result.Spikes, rn.Result.Spikes)
	}
	if got.Result.Steps != 10 || got.Result.Dt != 0.1 {
		t.Errorf("steps %d dt %v", got.Result.Steps, got.Result.Dt)
	}
}

func TestListDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	old := testRun(t)
	old.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.Save(ctx, old); err != nil {
		t.Fatal(err)
	}
	recent := testRun(t)
	recent.Err = "srm: step 4: numerical integration failed"
	if _, err := s.Save(ctx, recent); err != nil {
		t.Fatal(err)
	}

	sums, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 || sums[0].ID != recent.ID || sums[1].ID != old.ID {
		t.Fatalf("List = %+v, want newest first", sums)
	}
	if sums[0].Err == "" || sums[1].Steps != 10 {
		t.Errorf("summary fields = %+v", sums)
	}

	if err := s.Delete(ctx, old.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load deleted = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice = %v, want ErrNotFound", err)
	}
}

func TestSaveNoResult(t *testing.T) {
	s := openTest(t)
	if _, err := s.Save(context.Background(), &Run{}); err == nil {
		t.Error("expected error for run without result")
	}
}
