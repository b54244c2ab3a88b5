// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package kernel provides the response kernels of the Spike Response Model
(Gerstner & Kistler eqs. 4.34-4.38): the refractory kernel Eta following
the neuron's own last spike, the input current pulse Alpha, the filtered
synaptic response Epsilon, and the membrane impulse response Kappa.

All kernels are pure functions taking their parameters explicitly, so they
can be evaluated in isolation or concurrently.  Params bundles the shared
time constants for convenience.
*/
package kernel

import (
	"math"

	"github.com/emer/srm/integ"
)

// Heaviside is the causal step function: 1 for s > 0, else 0.
// Heaviside(0) = 0, so an input arriving exactly now has no effect yet.
func Heaviside(s float64) float64 {
	if s > 0 {
		return 1
	}
	return 0
}

// Alpha is the input current pulse evoked by one presynaptic spike,
// s time units after it: (1/tauS) exp(-s/tauS) H(s).
// It integrates to 1 over [0, Inf).
func Alpha(s, tauS float64) float64 {
	if s <= 0 {
		return 0
	}
	return math.Exp(-s/tauS) / tauS
}

// Eta is the refractory kernel (eq. 4.35), s time units after the
// neuron's own last spike: ur exp(-s/tauM).  Eta(0) = ur.
// It is 0 for s < 0.
func Eta(s, ur, tauM float64) float64 {
	if s < 0 {
		return 0
	}
	return ur * math.Exp(-s/tauM)
}

// Kappa is the membrane impulse response (eq. 4.37) at lag t, given
// s = time since the last own spike: (1/c) exp(-t/tauM) H(s-t) H(t).
// Nonzero only inside the causal window 0 < t < s.
func Kappa(s, t, c, tauM float64) float64 {
	if t <= 0 || s-t <= 0 {
		return 0
	}
	return math.Exp(-t/tauM) / c
}

// Epsilon is the postsynaptic potential kernel (eq. 4.36):
//
//	(1/c) * integral_0^s exp(-x/tauM) Alpha(t-x) dx
//
// where s is the time since the last own spike and t is the time since
// the presynaptic spike.  The integrand drops to 0 at the causality
// boundary x = t, so the quadrature interval is split there.
func Epsilon(s, t, c, tauM, tauS float64, ip *integ.Params) (float64, error) {
	if s <= 0 || t <= 0 {
		return 0, nil
	}
	f := func(x float64) float64 {
		return math.Exp(-x/tauM) * Alpha(t-x, tauS)
	}
	v, err := ip.Integrate(f, 0, s, t)
	return v / c, err
}

// EpsilonExact is the closed form of Epsilon: the integrand is nonzero
// only for x < min(s, t), where it is a single exponential in x.
func EpsilonExact(s, t, c, tauM, tauS float64) float64 {
	if s <= 0 || t <= 0 {
		return 0
	}
	m := math.Min(s, t)
	k := 1/tauS - 1/tauM // rate of exp(x*k) after factoring out exp(-t/tauS)
	var v float64
	switch {
	case k == 0:
		v = math.Exp(-t/tauS) * m
	case k > 0: // keep exp(k*m) from overflowing; k*m - t/tauS <= -m/tauM
		v = (math.Exp(k*m-t/tauS) - math.Exp(-t/tauS)) / k
	default:
		v = math.Exp(-t/tauS) * math.Expm1(k*m) / k
	}
	return v / (tauS * c)
}

// Params are the shared kernel parameters.
type Params struct {
	TauM float64 `def:"0.01" min:"0" desc:"membrane time constant, sets decay of Eta, Epsilon and Kappa"`
	TauS float64 `def:"1" min:"0" desc:"synaptic time constant of the Alpha current pulse"`
	Ur   float64 `def:"1" desc:"magnitude of the refractory kernel Eta at the moment of the own spike"`
	C    float64 `def:"1" min:"0" desc:"membrane conductance scaling Epsilon and Kappa"`
}

func (kp *Params) Defaults() {
	kp.TauM = 0.01
	kp.TauS = 1
	kp.Ur = 1
	kp.C = 1
}

// Alpha is Alpha(s, TauS)
func (kp *Params) Alpha(s float64) float64 { return Alpha(s, kp.TauS) }

// Eta is Eta(s, Ur, TauM)
func (kp *Params) Eta(s float64) float64 { return Eta(s, kp.Ur, kp.TauM) }

// Kappa is Kappa(s, t, C, TauM)
func (kp *Params) Kappa(s, t float64) float64 { return Kappa(s, t, kp.C, kp.TauM) }

// Epsilon is Epsilon(s, t, C, TauM, TauS) using quadrature params ip
func (kp *Params) Epsilon(s, t float64, ip *integ.Params) (float64, error) {
	return Epsilon(s, t, kp.C, kp.TauM, kp.TauS, ip)
}

// EpsilonExact is EpsilonExact(s, t, C, TauM, TauS)
func (kp *Params) EpsilonExact(s, t float64) float64 {
	return EpsilonExact(s, t, kp.C, kp.TauM, kp.TauS)
}
