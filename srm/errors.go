// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package srm

import (
	"errors"
	"fmt"

	"github.com/emer/srm/integ"
)

var (
	// ErrConfig indicates invalid model parameters at construction.
	ErrConfig = errors.New("srm: invalid configuration")

	// ErrInput indicates input spike trains or horizon that fail validation.
	ErrInput = errors.New("srm: invalid input")

	// ErrIntegration indicates a quadrature failure or an exceeded truncation bound.
	ErrIntegration = errors.New("srm: numerical integration failed")

	// ErrTruncation indicates the neglected tail of the truncated convolution
	// integral is larger than the integration tolerance.
	ErrTruncation = fmt.Errorf("%w: truncation bound exceeded", ErrIntegration)

	// ErrOverflow indicates the escape rate exponential is not finite.
	ErrOverflow = errors.New("srm: escape rate overflow")
)

// integErr wraps quadrature failures so they match ErrIntegration as well
// as the underlying integ error.
func integErr(err error) error {
	if err == nil || errors.Is(err, ErrIntegration) {
		return err
	}
	if errors.Is(err, integ.ErrNoConvergence) || errors.Is(err, integ.ErrNotFinite) {
		return fmt.Errorf("%w: %w", ErrIntegration, err)
	}
	return err
}

// StepError reports a numerical failure at one step of a simulation.
// The Result returned alongside it holds the trace up to the previous step.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("srm: step %d (t=%g): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
