// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package integ

import (
	"errors"
	"math"
	"testing"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = 1.0e-8

func TestIntegrate(t *testing.T) {
	ip := Params{}
	ip.Defaults()

	tests := []struct {
		name string
		f    func(x float64) float64
		a, b float64
		want float64
	}{
		{"constant", func(x float64) float64 { return 2 }, 0, 3, 6},
		{"poly", func(x float64) float64 { return x * x }, 0, 1, 1.0 / 3},
		{"sin", math.Sin, 0, math.Pi, 2},
		{"fast exp", func(x float64) float64 { return math.Exp(-x / 0.01) }, 0, 7, 0.01 * (1 - math.Exp(-700))},
		{"reversed", func(x float64) float64 { return x }, 1, 0, -0.5},
		{"empty", func(x float64) float64 { return 1 }, 2, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ip.Integrate(tt.f, tt.a, tt.b)
			if err != nil {
				t.Fatalf("Integrate: %v", err)
			}
			if dif := math.Abs(got - tt.want); dif > difTol {
				t.Errorf("got %v, want %v, dif %v", got, tt.want, dif)
			}
		})
	}
}

func TestIntegrateBreaks(t *testing.T) {
	ip := Params{}
	ip.Defaults()
	step := func(x float64) float64 {
		if x > 0.3 {
			return math.Exp(-(x - 0.3))
		}
		return 0
	}
	want := 1 - math.Exp(-0.7)
	got, err := ip.Integrate(step, 0, 1, 0.3, -5, 12)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if dif := math.Abs(got - want); dif > difTol {
		t.Errorf("got %v, want %v, dif %v", got, want, dif)
	}
}

func TestIntegrateToInf(t *testing.T) {
	ip := Params{}
	ip.Defaults()
	got, err := ip.IntegrateToInf(func(x float64) float64 { return math.Exp(-x / 2) / 2 }, 0)
	if err != nil {
		t.Fatalf("IntegrateToInf: %v", err)
	}
	if dif := math.Abs(got - 1); dif > 1e-7 {
		t.Errorf("got %v, want 1, dif %v", got, dif)
	}
}

func TestIntegrateErrors(t *testing.T) {
	ip := Params{}
	ip.Defaults()

	_, err := ip.Integrate(func(x float64) float64 { return math.NaN() }, 0, 1)
	if !errors.Is(err, ErrNotFinite) {
		t.Errorf("NaN integrand: got %v, want ErrNotFinite", err)
	}

	ip.MaxDepth = 1
	ip.AbsTol = 1e-15
	ip.RelTol = 0
	_, err = ip.Integrate(func(x float64) float64 { return math.Sin(1 / x) }, 1e-6, 1)
	if !errors.Is(err, ErrNoConvergence) {
		t.Errorf("oscillating integrand: got %v, want ErrNoConvergence", err)
	}
	zero := Params{}
	v, err := zero.Integrate(math.Exp, 0, 1)
	if !errors.Is(err, ErrParams) || v != 0 {
		t.Errorf("zero Params: got %v, %v; want 0, ErrParams", v, err)
	}
	if _, err := zero.IntegrateToInf(math.Exp, 0); !errors.Is(err, ErrParams) {
		t.Errorf("zero Params to inf: got %v, want ErrParams", err)
	}
}

func TestValidate(t *testing.T) {
	ip := Params{}
	ip.Defaults()
	if err := ip.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	bad := []func(p *Params){
		func(p *Params) { p.AbsTol = -1 },
		func(p *Params) { p.RelTol = math.NaN() },
		func(p *Params) { p.AbsTol, p.RelTol = 0, 0 },
		func(p *Params) { p.MaxDepth = 0 },
		func(p *Params) { p.Order = 1 },
	}
	for i, mod := range bad {
		p := ip
		mod(&p)
		if err := p.Validate(); !errors.Is(err, ErrParams) {
			t.Errorf("case %d: got %v, want ErrParams", i, err)
		}
	}
}
