// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package srm simulates a single neuron under the Spike Response Model with
escape noise.

The membrane potential is the refractory kernel Eta of the time since the
last own spike plus the filtered responses to all presynaptic spikes so far
(see Potential).  In each time bin of width Dt the potential is mapped to a
spike probability by the logistic escape function (see Params.Prob), and one
Bernoulli trial from the Model's own Rand decides whether the neuron fires.
A spike resets the refractory anchor to the current time.

The simulation assumes a reference spike at t = 0, which anchors the
refractory kernel; it is always the first entry of Result.Spikes.
*/
package srm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/emer/srm/logging"
)

// Model is one SRM neuron with fixed parameters and its own random source.
// A Model is not safe for concurrent Simulate calls; use one per goroutine.
type Model struct {
	Params Params
	Rand   Rand

	// Log receives a summary per run, spikes at Debug and every step at
	// logging.LevelTrace.  Nil discards.
	Log *slog.Logger
}

// NewModel validates pars and returns a Model.  If rnd is nil the model
// uses NewRand(1).
func NewModel(pars Params, rnd Rand) (*Model, error) {
	if err := pars.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = NewRand(1)
	}
	return &Model{Params: pars, Rand: rnd, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}, nil
}

// Result is the output of one simulation run.
type Result struct {
	// Spikes are the output spike times, starting with the reference spike at 0.
	Spikes []float64

	// Vm is the membrane potential at each completed step, Vm[0] = u(0|0).
	Vm []float64

	// Steps is the number of completed steps; len(Vm) = Steps+1.
	Steps int

	Dt float64
	T  float64
}

// Time returns the time of step i
func (rs *Result) Time(i int) float64 {
	return math.Min(float64(i)*rs.Dt, rs.T)
}

// Times returns the time grid of Vm
func (rs *Result) Times() []float64 {
	ts := make([]float64, len(rs.Vm))
	for i := range ts {
		ts[i] = rs.Time(i)
	}
	return ts
}

// ValidateInputs checks the horizon T and the input trains: one channel
// per input, all times finite within [0, T] and non-decreasing.
func (m *Model) ValidateInputs(T float64, in [][]float64) error {
	if math.IsNaN(T) || math.IsInf(T, 0) || T < 0 {
		return fmt.Errorf("%w: T must be finite and >= 0, got %v", ErrInput, T)
	}
	if len(in) != m.Params.NInputs {
		return fmt.Errorf("%w: got %d input channels, model has NInputs = %d", ErrInput, len(in), m.Params.NInputs)
	}
	for ci, ch := range in {
		prv := 0.0
		for j, tij := range ch {
			if math.IsNaN(tij) || tij < 0 || tij > T {
				return fmt.Errorf("%w: channel %d spike %d at %v outside [0, %v]", ErrInput, ci, j, tij, T)
			}
			if tij < prv {
				return fmt.Errorf("%w: channel %d spike %d at %v precedes %v", ErrInput, ci, j, tij, prv)
			}
			prv = tij
		}
	}
	return nil
}

// Simulate runs the neuron for floor(T/Dt) steps of Dt on the given input
// spike trains, which are only read.  Invalid T or inputs return an error
// wrapping ErrInput and a nil Result.  A numerical failure stops the run
// and returns the Result so far along with a *StepError.
func (m *Model) Simulate(T float64, in [][]float64) (*Result, error) {
	if err := m.ValidateInputs(T, in); err != nil {
		return nil, err
	}
	sp := &m.Params
	n := sp.NSteps(T)
	rs := &Result{Dt: sp.Dt, T: T, Spikes: []float64{0}, Vm: make([]float64, 0, n+1)}
	if m.Log == nil {
		m.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	st := time.Now()
	trc := m.Log.Enabled(context.Background(), logging.LevelTrace)

	tHat := 0.0
	u, err := m.Potential(0, tHat, in)
	if err != nil {
		return rs, &StepError{Step: 0, Time: 0, Err: err}
	}
	rs.Vm = append(rs.Vm, u)

	for i := 1; i <= n; i++ {
		t := rs.Time(i)
		u, err := m.Potential(t, tHat, in)
		if err != nil {
			return rs, &StepError{Step: i, Time: t, Err: err}
		}
		p, err := sp.Prob(u)
		if err != nil {
			return rs, &StepError{Step: i, Time: t, Err: err}
		}
		fire := m.Rand.Bernoulli(p)
		if trc {
			m.Log.Log(context.Background(), logging.LevelTrace, "step", "step", i, "t", t, "u", u, "p", p)
		}
		rs.Vm = append(rs.Vm, u)
		rs.Steps = i
		if fire {
			rs.Spikes = append(rs.Spikes, t)
			tHat = t
			m.Log.Debug("spike", "step", i, "t", t, "u", u, "p", p)
		}
	}
	m.Log.Info("simulate", "steps", rs.Steps, "spikes", len(rs.Spikes)-1, "inputs", len(in), "form", sp.Form, "elapsed", time.Since(st))
	return rs, nil
}
