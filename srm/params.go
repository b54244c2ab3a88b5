// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package srm

import (
	"fmt"
	"math"
	"strings"

	"github.com/emer/srm/integ"
	"github.com/emer/srm/kernel"
)

// Formulation selects how the input contribution to the membrane
// potential is evaluated.  Both describe the same model; they are never
// combined.
type Formulation int

const (
	// EventSum sums the Epsilon kernel over each admissible input spike.
	EventSum Formulation = iota

	// Convolution integrates Kappa against the summed Alpha input current,
	// truncated at HorizonTaus membrane time constants.
	Convolution
)

var formNames = [...]string{"event", "convolution"}

func (f Formulation) String() string {
	if f < 0 || int(f) >= len(formNames) {
		return fmt.Sprintf("Formulation(%d)", int(f))
	}
	return formNames[f]
}

// ParseFormulation maps "event" or "convolution" to a Formulation.
func ParseFormulation(s string) (Formulation, error) {
	for i, nm := range formNames {
		if strings.EqualFold(s, nm) {
			return Formulation(i), nil
		}
	}
	return EventSum, fmt.Errorf("%w: unknown formulation %q", ErrConfig, s)
}

func (f Formulation) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Formulation) UnmarshalText(b []byte) error {
	v, err := ParseFormulation(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Params are the Spike Response Model neuron parameters (Gerstner &
// Kistler ch. 4).  They are fixed when a Model is constructed.
type Params struct {
	NInputs     int          `def:"4" min:"0" desc:"number of presynaptic input channels" toml:"n_inputs" yaml:"n_inputs"`
	Threshold   float64      `def:"3" desc:"membrane potential around which spiking occurs (nu in the textbook)" toml:"threshold" yaml:"threshold"`
	Dt          float64      `def:"0.01" min:"0" desc:"discretization time step; also scales the per-bin escape probability" toml:"dt" yaml:"dt"`
	Beta        float64      `def:"1" desc:"steepness of the exponential escape rate" toml:"beta" yaml:"beta"`
	TauM        float64      `def:"0.01" min:"0" desc:"membrane time constant (eqs. 4.35-4.37)" toml:"tau_m" yaml:"tau_m"`
	TauS        float64      `def:"1" min:"0" desc:"synaptic time constant of the input current pulse (eq. 4.38)" toml:"tau_s" yaml:"tau_s"`
	Ur          float64      `def:"1" desc:"magnitude of the refractory kernel (eq. 4.35)" toml:"u_r" yaml:"u_r"`
	C           float64      `def:"1" min:"0" desc:"membrane conductance (eq. 4.36)" toml:"c" yaml:"c"`
	HorizonTaus float64      `def:"50" min:"0" desc:"Convolution only: the integral over past input current is truncated at HorizonTaus * TauM; the neglected tail is bounded and reported if it exceeds Integ.AbsTol" toml:"horizon_taus" yaml:"horizon_taus"`
	Form        Formulation  `def:"event" desc:"how input spikes enter the potential: event = sum of Epsilon per spike, convolution = Kappa integrated against the Alpha current" toml:"formulation" yaml:"formulation"`
	Workers     int          `def:"0" min:"0" desc:"if > 1, per-channel input sums are computed by this many goroutines; results are identical to sequential" toml:"workers" yaml:"workers"`
	Integ       integ.Params `view:"inline" desc:"adaptive quadrature parameters" toml:"integ" yaml:"integ"`
}

func (sp *Params) Defaults() {
	sp.NInputs = 4
	sp.Threshold = 3
	sp.Dt = 0.01
	sp.Beta = 1
	sp.TauM = 0.01
	sp.TauS = 1
	sp.Ur = 1
	sp.C = 1
	sp.HorizonTaus = 50
	sp.Form = EventSum
	sp.Workers = 0
	sp.Integ.Defaults()
}

// Kernel returns the kernel parameters
func (sp *Params) Kernel() kernel.Params {
	return kernel.Params{TauM: sp.TauM, TauS: sp.TauS, Ur: sp.Ur, C: sp.C}
}

// Horizon is the truncation bound of the convolution integral, in time units
func (sp *Params) Horizon() float64 {
	return sp.HorizonTaus * sp.TauM
}

// Validate returns an error wrapping ErrConfig if any parameter is out of range.
func (sp *Params) Validate() error {
	pos := []struct {
		nm string
		v  float64
	}{{"Dt", sp.Dt}, {"TauM", sp.TauM}, {"TauS", sp.TauS}, {"C", sp.C}, {"HorizonTaus", sp.HorizonTaus}}
	for _, p := range pos {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be finite and > 0, got %v", ErrConfig, p.nm, p.v)
		}
	}
	fin := []struct {
		nm string
		v  float64
	}{{"Threshold", sp.Threshold}, {"Beta", sp.Beta}, {"Ur", sp.Ur}}
	for _, p := range fin {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrConfig, p.nm, p.v)
		}
	}
	if sp.NInputs < 0 {
		return fmt.Errorf("%w: NInputs must be >= 0, got %d", ErrConfig, sp.NInputs)
	}
	if sp.Workers < 0 {
		return fmt.Errorf("%w: Workers must be >= 0, got %d", ErrConfig, sp.Workers)
	}
	if sp.Form != EventSum && sp.Form != Convolution {
		return fmt.Errorf("%w: unknown formulation %d", ErrConfig, int(sp.Form))
	}
	if err := sp.Integ.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

// NSteps returns the number of discretization bins floor(T/Dt).  A
// relative guard of 1e-12 absorbs representation error only, so 0.3/0.1
// gives 3 while 0.2999999999/0.1 gives 2.
func (sp *Params) NSteps(T float64) int {
	if T <= 0 {
		return 0
	}
	return int(math.Floor(T / sp.Dt * (1 + 1e-12)))
}
