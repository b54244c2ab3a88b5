// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vplot renders simulation traces and analysis results as image
// files (png, svg, pdf, ...) chosen by file extension.
package vplot

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Width and Height are the default figure size
var (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

// save writes p to path; the format is the file extension
func save(p *plot.Plot, path string) error {
	if filepath.Ext(path) == "" {
		return fmt.Errorf("vplot: %s has no extension to pick a format", path)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("vplot: save %s: %w", path, err)
	}
	return nil
}

// Trace plots the voltage trace vm over times ts, with the output spike
// times marked along the top of the trace.
func Trace(ts, vm, spikes []float64, path string) error {
	if len(ts) != len(vm) {
		return fmt.Errorf("vplot: %d times for %d voltages", len(ts), len(vm))
	}
	p := plot.New()
	p.Title.Text = "Time Course of the Voltage u"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "u"

	xys := make(plotter.XYs, len(vm))
	top := 0.0
	for i := range vm {
		xys[i].X = ts[i]
		xys[i].Y = vm[i]
		if i == 0 || vm[i] > top {
			top = vm[i]
		}
	}
	ln, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("vplot: trace line: %w", err)
	}
	p.Add(ln)

	if len(spikes) > 0 {
		sxy := make(plotter.XYs, len(spikes))
		for i, st := range spikes {
			sxy[i].X = st
			sxy[i].Y = top
		}
		sc, err := plotter.NewScatter(sxy)
		if err != nil {
			return fmt.Errorf("vplot: spike marks: %w", err)
		}
		sc.GlyphStyle.Shape = draw.PyramidGlyph{}
		p.Add(sc)
		p.Legend.Add("spikes", sc)
	}
	return save(p, path)
}

// Raster plots one row of spike marks per train.
func Raster(trains [][]float64, path string) error {
	p := plot.New()
	p.Title.Text = "Input spike trains"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "channel"
	var xys plotter.XYs
	for ci, tr := range trains {
		for _, st := range tr {
			xys = append(xys, plotter.XY{X: st, Y: float64(ci)})
		}
	}
	if len(xys) > 0 {
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("vplot: raster: %w", err)
		}
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
	}
	return save(p, path)
}

// CorrHist plots the distribution of correlation coefficients over [-1, 1].
func CorrHist(coefs []float64, bins int, path string) error {
	if len(coefs) == 0 {
		return fmt.Errorf("vplot: no correlation coefficients")
	}
	p := plot.New()
	p.Title.Text = "Correlation coefficient distribution"
	p.X.Label.Text = "r"
	h, err := plotter.NewHist(plotter.Values(coefs), bins)
	if err != nil {
		return fmt.Errorf("vplot: histogram: %w", err)
	}
	p.Add(h)
	p.X.Min, p.X.Max = -1, 1
	return save(p, path)
}

// CrossCorr plots cross-correlation values over lags.
func CrossCorr(lags []int, cc []float64, path string) error {
	if len(lags) != len(cc) {
		return fmt.Errorf("vplot: %d lags for %d values", len(lags), len(cc))
	}
	p := plot.New()
	p.Title.Text = "Cross correlation curve"
	p.X.Label.Text = "lag"
	xys := make(plotter.XYs, len(cc))
	for i := range cc {
		xys[i] = plotter.XY{X: float64(lags[i]), Y: cc[i]}
	}
	ln, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("vplot: cross correlation: %w", err)
	}
	p.Add(ln)
	return save(p, path)
}

// Fano plots the Fano factor for each window width.
func Fano(windows []int, fano []float64, path string) error {
	if len(windows) != len(fano) {
		return fmt.Errorf("vplot: %d windows for %d values", len(windows), len(fano))
	}
	p := plot.New()
	p.Title.Text = "Fano factor in some time windows"
	p.X.Label.Text = "Time window"
	p.Y.Label.Text = "Fano factor"
	var xys plotter.XYs
	for i, f := range fano {
		if f != f { // skip NaN windows
			continue
		}
		xys = append(xys, plotter.XY{X: float64(windows[i]), Y: f})
	}
	if len(xys) > 0 {
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("vplot: fano: %w", err)
		}
		p.Add(sc)
	}
	return save(p, path)
}

// Name returns base + "." + ext, lowercasing ext
func Name(dir, base, ext string) string {
	return filepath.Join(dir, base+"."+strings.ToLower(strings.TrimPrefix(ext, ".")))
}
