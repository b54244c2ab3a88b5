// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package srm

import (
	"github.com/emer/emergent/erand"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is the random source used for the per-step spike trial.
// Each Model owns its own Rand; there is no global randomness.
type Rand interface {
	// Bernoulli returns true with probability p.
	Bernoulli(p float64) bool
}

// SrcRand draws Bernoulli trials from a gonum-compatible rand.Source.
type SrcRand struct {
	Src rand.Source
}

// NewRand returns a Rand seeded with seed; equal seeds give equal sequences.
func NewRand(seed uint64) *SrcRand {
	return &SrcRand{Src: rand.NewSource(seed)}
}

func (sr *SrcRand) Bernoulli(p float64) bool {
	return distuv.Bernoulli{P: p, Src: sr.Src}.Rand() == 1
}

// ERand draws Bernoulli trials from an emergent erand.Rand, the source
// emergent environments use for their own stochastic choices.
type ERand struct {
	Rnd erand.Rand
}

// NewERand returns an ERand over an erand.SysRand seeded with seed.
func NewERand(seed int64) *ERand {
	return &ERand{Rnd: erand.NewSysRand(seed)}
}

func (er *ERand) Bernoulli(p float64) bool {
	return erand.BoolP(p, -1, er.Rnd)
}

// FixedRand replays a fixed sequence of outcomes, then returns false.
// Useful for forcing spikes at known steps.
type FixedRand struct {
	Seq []bool
	idx int
}

func (fr *FixedRand) Bernoulli(p float64) bool {
	if fr.idx >= len(fr.Seq) {
		return false
	}
	v := fr.Seq[fr.idx]
	fr.idx++
	return v
}
