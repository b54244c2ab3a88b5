// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package srm

import (
	"fmt"
	"math"
)

// Rate returns the escape rate rho(u) = exp(Beta (u - Threshold)).
// Returns ErrOverflow if the rate is not finite.
func (sp *Params) Rate(u float64) (float64, error) {
	r := math.Exp(sp.Beta * (u - sp.Threshold))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return r, fmt.Errorf("%w: rate at u=%v", ErrOverflow, u)
	}
	return r, nil
}

// Prob returns the probability of a spike within one time bin at
// potential u: f/(1+f) with f = exp(Beta (u - Threshold)) Dt.
// It is evaluated as the logistic of z = Beta (u - Threshold) + ln Dt,
// so large z saturates toward 1 instead of overflowing.  At
// u = Threshold it is Dt/(1+Dt).
func (sp *Params) Prob(u float64) (float64, error) {
	z := sp.Beta*(u-sp.Threshold) + math.Log(sp.Dt)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return math.NaN(), fmt.Errorf("%w: escape exponent %v at u=%v", ErrOverflow, z, u)
	}
	return Logistic(z), nil
}

// Logistic is 1/(1+exp(-z)), split on the sign of z so that exp never
// sees a large positive argument.
func Logistic(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
