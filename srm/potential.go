// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package srm

import (
	"fmt"
	"math"

	"github.com/emer/srm/kernel"
	"golang.org/x/sync/errgroup"
)

// Potential returns the membrane potential u(t | tHat) given the input
// spike trains (eq. 4.34).  Only input spikes at or before t are used;
// each channel must be sorted, so iteration stops at the first later spike.
//
// With EventSum the input term is the sum over spikes of
// Epsilon(t-tHat, t-tij).  With Convolution it is the integral of
// Kappa(t-tHat, x) times the summed Alpha current at t-x, over
// x in [0, min(t-tHat, Horizon())].  Kappa vanishes for x >= t-tHat, so
// the horizon only truncates when more than HorizonTaus membrane time
// constants have passed since the last own spike; the neglected tail is
// then at most exp(-HorizonTaus)/C per input spike, and ErrTruncation is
// returned if that exceeds Integ.AbsTol * max(1, |u|).
func (m *Model) Potential(t, tHat float64, in [][]float64) (float64, error) {
	sp := &m.Params
	s := t - tHat
	u := kernel.Eta(s, sp.Ur, sp.TauM)

	sum, err := m.inputSum(t, s, in)
	if err != nil {
		return u + sum, integErr(err)
	}
	u += sum

	if sp.Form == Convolution {
		if hz := sp.Horizon(); s > hz {
			nsp := 0
			for _, ch := range in {
				nsp += admissible(ch, t)
			}
			tail := math.Exp(-hz/sp.TauM) * float64(nsp) / sp.C
			if tail > sp.Integ.AbsTol*math.Max(1, math.Abs(u)) {
				return u, fmt.Errorf("%w: tail bound %g beyond horizon %g", ErrTruncation, tail, hz)
			}
		}
	}
	return u, nil
}

// inputSum returns the total input contribution, summing channels in
// order.  With Workers > 1 the channels are evaluated concurrently into
// per-channel slots first, so the sum is identical to the sequential one.
func (m *Model) inputSum(t, s float64, in [][]float64) (float64, error) {
	nw := m.Params.Workers
	if nw <= 1 || len(in) <= 1 {
		sum := 0.0
		for _, ch := range in {
			v, err := m.chanInput(t, s, ch)
			sum += v
			if err != nil {
				return sum, err
			}
		}
		return sum, nil
	}

	vals := make([]float64, len(in))
	var g errgroup.Group
	g.SetLimit(nw)
	for ci, ch := range in {
		ci, ch := ci, ch
		g.Go(func() error {
			v, err := m.chanInput(t, s, ch)
			vals[ci] = v
			return err
		})
	}
	err := g.Wait()
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum, err
}

// chanInput is the contribution of one input channel at time t, with
// s = t - tHat
func (m *Model) chanInput(t, s float64, ch []float64) (float64, error) {
	sp := &m.Params
	na := admissible(ch, t)
	if na == 0 || s <= 0 {
		return 0, nil
	}
	if sp.Form == Convolution {
		return m.chanConv(t, s, ch[:na])
	}
	sum := 0.0
	for _, tij := range ch[:na] {
		v, err := kernel.Epsilon(s, t-tij, sp.C, sp.TauM, sp.TauS, &sp.Integ)
		sum += v
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// chanConv integrates Kappa(s, x) against the Alpha current of the given
// spikes at time t - x.  Each spike puts a kink at x = t - tij.
func (m *Model) chanConv(t, s float64, spikes []float64) (float64, error) {
	sp := &m.Params
	lim := math.Min(s, sp.Horizon())
	kinks := make([]float64, 0, len(spikes)+1)
	for _, tij := range spikes {
		kinks = append(kinks, t-tij)
	}
	kinks = append(kinks, s)
	f := func(x float64) float64 {
		k := kernel.Kappa(s, x, sp.C, sp.TauM)
		if k == 0 {
			return 0
		}
		cur := 0.0
		for _, tij := range spikes {
			cur += kernel.Alpha(t-x-tij, sp.TauS)
		}
		return k * cur
	}
	return sp.Integ.Integrate(f, 0, lim, kinks...)
}

// admissible returns the number of leading spikes in sorted ch that are <= t
func admissible(ch []float64, t float64) int {
	for i, tij := range ch {
		if tij > t {
			return i
		}
	}
	return len(ch)
}
