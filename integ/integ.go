// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package integ provides adaptive numerical quadrature for the kernel
integrals of the spike response model.

Each panel is integrated with a fixed Gauss-Legendre rule at two orders
(n and 2n points).  When the two estimates disagree by more than the
tolerance the panel is bisected, up to MaxDepth levels.  Known kinks in
the integrand (causality boundaries of the input kernel) should be passed
as break points so that the interval is split there first, rather than
relying on bisection to find them.
*/
package integ

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

var (
	// ErrNoConvergence is returned when a panel is still outside tolerance at MaxDepth.
	ErrNoConvergence = errors.New("integ: quadrature did not converge")

	// ErrNotFinite is returned when the integrand produces NaN or Inf.
	ErrNotFinite = errors.New("integ: integrand is not finite")

	// ErrParams is returned by Validate, and by Integrate for invalid Params.
	ErrParams = errors.New("integ: invalid parameters")
)

// Params are the adaptive quadrature parameters.
type Params struct {
	AbsTol   float64 `def:"1e-10" min:"0" desc:"absolute error tolerance per integral" toml:"abs_tol" yaml:"abs_tol"`
	RelTol   float64 `def:"1e-8" min:"0" desc:"relative error tolerance per integral, applied to the magnitude of the estimate" toml:"rel_tol" yaml:"rel_tol"`
	MaxDepth int     `def:"40" min:"1" desc:"maximum number of bisection levels before reporting non-convergence" toml:"max_depth" yaml:"max_depth"`
	Order    int     `def:"7" min:"2" desc:"number of Gauss-Legendre points in the coarse estimate; the fine estimate uses twice as many" toml:"order" yaml:"order"`
}

func (ip *Params) Defaults() {
	ip.AbsTol = 1e-10
	ip.RelTol = 1e-8
	ip.MaxDepth = 40
	ip.Order = 7
}

// Validate checks that the parameters can drive the integrator.
func (ip *Params) Validate() error {
	switch {
	case !(ip.AbsTol >= 0) || math.IsInf(ip.AbsTol, 0):
		return fmt.Errorf("%w: AbsTol must be finite and >= 0, got %v", ErrParams, ip.AbsTol)
	case !(ip.RelTol >= 0) || math.IsInf(ip.RelTol, 0):
		return fmt.Errorf("%w: RelTol must be finite and >= 0, got %v", ErrParams, ip.RelTol)
	case ip.AbsTol == 0 && ip.RelTol == 0:
		return fmt.Errorf("%w: AbsTol and RelTol cannot both be 0", ErrParams)
	case ip.MaxDepth < 1:
		return fmt.Errorf("%w: MaxDepth must be >= 1, got %d", ErrParams, ip.MaxDepth)
	case ip.Order < 2:
		return fmt.Errorf("%w: Order must be >= 2, got %d", ErrParams, ip.Order)
	}
	return nil
}

// tol returns the acceptance threshold for an estimate of magnitude v
func (ip *Params) tol(v float64) float64 {
	return math.Max(ip.AbsTol, ip.RelTol*math.Abs(v))
}

// Integrate returns the integral of f over [a, b].  Break points strictly
// inside (a, b) split the interval before adaptive refinement; points
// outside are ignored.  a > b gives the negated integral over [b, a].
// Invalid parameters, such as a zero Params, return the Validate error.
func (ip *Params) Integrate(f func(x float64) float64, a, b float64, breaks ...float64) (float64, error) {
	if err := ip.Validate(); err != nil {
		return 0, err
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, fmt.Errorf("%w: bounds [%v, %v]", ErrNotFinite, a, b)
	}
	if a == b {
		return 0, nil
	}
	if a > b {
		v, err := ip.Integrate(f, b, a, breaks...)
		return -v, err
	}
	pts := make([]float64, 0, len(breaks)+2)
	pts = append(pts, a)
	for _, x := range breaks {
		if x > a && x < b {
			pts = append(pts, x)
		}
	}
	pts = append(pts, b)
	sort.Float64s(pts[1 : len(pts)-1])

	sum := 0.0
	for i := 1; i < len(pts); i++ {
		if pts[i] == pts[i-1] {
			continue
		}
		v, err := ip.adapt(f, pts[i-1], pts[i], ip.MaxDepth)
		if err != nil {
			return sum, err
		}
		sum += v
	}
	return sum, nil
}

// IntegrateToInf returns the integral of f over [a, +Inf), mapping the
// half line onto [0, 1) with x = a + u/(1-u).  f must decay fast enough
// for the mapped integrand to stay finite as u -> 1.
func (ip *Params) IntegrateToInf(f func(x float64) float64, a float64) (float64, error) {
	g := func(u float64) float64 {
		w := 1 - u
		if w <= 0 {
			return 0
		}
		return f(a+u/w) / (w * w)
	}
	return ip.Integrate(g, 0, 1)
}

// adapt integrates one panel, bisecting until the coarse and fine
// Gauss-Legendre estimates agree
func (ip *Params) adapt(f func(x float64) float64, a, b float64, depth int) (float64, error) {
	coarse := quad.Fixed(f, a, b, ip.Order, quad.Legendre{}, 0)
	fine := quad.Fixed(f, a, b, 2*ip.Order, quad.Legendre{}, 0)
	if math.IsNaN(fine) || math.IsInf(fine, 0) || math.IsNaN(coarse) || math.IsInf(coarse, 0) {
		return 0, fmt.Errorf("%w: on [%v, %v]", ErrNotFinite, a, b)
	}
	if math.Abs(fine-coarse) <= ip.tol(fine) {
		return fine, nil
	}
	if depth <= 0 {
		return fine, fmt.Errorf("%w: on [%v, %v], err estimate %g", ErrNoConvergence, a, b, math.Abs(fine-coarse))
	}
	mid := 0.5 * (a + b)
	if mid <= a || mid >= b { // panel below float resolution
		return fine, fmt.Errorf("%w: panel [%v, %v] cannot be split", ErrNoConvergence, a, b)
	}
	// children share the parent's tolerance budget
	sub := *ip
	sub.AbsTol *= 0.5
	left, err := sub.adapt(f, a, mid, depth-1)
	if err != nil {
		return left, err
	}
	right, err := sub.adapt(f, mid, b, depth-1)
	return left + right, err
}
