// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package inputs generates random presynaptic spike trains for driving an
SRM neuron, and bins spike trains into count matrices for analysis.

The number of channels is drawn from a Poisson distribution, and each
channel independently spikes in each time bin with a fixed probability.
*/
package inputs

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params control random input train generation.
type Params struct {
	MeanChannels float64 `def:"4" min:"0" desc:"mean of the Poisson distribution of the number of input channels" toml:"mean_channels" yaml:"mean_channels"`
	Rate         float64 `def:"0.003" min:"0" max:"1" desc:"probability of a spike in each time bin of each channel" toml:"rate" yaml:"rate"`
	Dt           float64 `def:"0.01" min:"0" desc:"time bin width; spike times fall on multiples of Dt" toml:"dt" yaml:"dt"`
	T            float64 `def:"7" min:"0" desc:"duration; bins j*Dt for j < floor(T/Dt)" toml:"t" yaml:"t"`
}

func (ip *Params) Defaults() {
	ip.MeanChannels = 4
	ip.Rate = 0.003
	ip.Dt = 0.01
	ip.T = 7
}

// Validate checks that the parameters describe a valid generator.
func (ip *Params) Validate() error {
	switch {
	case !(ip.MeanChannels >= 0) || math.IsInf(ip.MeanChannels, 0):
		return fmt.Errorf("inputs: MeanChannels must be finite and >= 0, got %v", ip.MeanChannels)
	case !(ip.Rate >= 0 && ip.Rate <= 1):
		return fmt.Errorf("inputs: Rate must be in [0, 1], got %v", ip.Rate)
	case !(ip.Dt > 0) || math.IsInf(ip.Dt, 0):
		return fmt.Errorf("inputs: Dt must be finite and > 0, got %v", ip.Dt)
	case !(ip.T >= 0) || math.IsInf(ip.T, 0):
		return fmt.Errorf("inputs: T must be finite and >= 0, got %v", ip.T)
	}
	return nil
}

// NBins is the number of time bins floor(T/Dt)
func (ip *Params) NBins() int {
	return int(math.Floor(ip.T / ip.Dt * (1 + 1e-12)))
}

// Generate draws the number of channels from Poisson(MeanChannels) and
// then fills each channel with GenerateN.
func (ip *Params) Generate(src rand.Source) [][]float64 {
	n := 0
	if ip.MeanChannels > 0 {
		n = int(distuv.Poisson{Lambda: ip.MeanChannels, Src: src}.Rand())
	}
	return ip.GenerateN(n, src)
}

// GenerateN returns n channels of spike times; bin j*Dt holds a spike
// with probability Rate.  Times are sorted.
func (ip *Params) GenerateN(n int, src rand.Source) [][]float64 {
	bern := distuv.Bernoulli{P: ip.Rate, Src: src}
	nb := ip.NBins()
	trains := make([][]float64, n)
	for ci := range trains {
		ch := []float64{}
		for j := 0; j < nb; j++ {
			if bern.Rand() == 1 {
				ch = append(ch, float64(j)*ip.Dt)
			}
		}
		trains[ci] = ch
	}
	return trains
}

// Counts bins each spike train into floor(T/dt) bins of width dt,
// returning one row of spike counts per train.  Spikes at exactly T go
// into the last bin.
func Counts(trains [][]float64, dt, T float64) [][]float64 {
	nb := int(math.Floor(T / dt * (1 + 1e-12)))
	rows := make([][]float64, len(trains))
	for ri, tr := range trains {
		row := make([]float64, nb)
		for _, st := range tr {
			bi := int(math.Floor(st / dt * (1 + 1e-12)))
			if bi >= nb {
				bi = nb - 1
			}
			if bi >= 0 {
				row[bi]++
			}
		}
		rows[ri] = row
	}
	return rows
}

// Write writes spike trains one channel per line, times separated by spaces.
// Empty channels are written as empty lines.
func Write(w io.Writer, trains [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, tr := range trains {
		for i, st := range tr {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(st, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Read reads spike trains written by Write: one channel per line,
// whitespace-separated times.  Every line, including empty ones, is a channel.
func Read(r io.Reader) ([][]float64, error) {
	var trains [][]float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	ln := 0
	for sc.Scan() {
		ln++
		flds := strings.Fields(sc.Text())
		ch := make([]float64, 0, len(flds))
		for _, fs := range flds {
			v, err := strconv.ParseFloat(fs, 64)
			if err != nil {
				return nil, fmt.Errorf("inputs: line %d: %w", ln, err)
			}
			ch = append(ch, v)
		}
		trains = append(trains, ch)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("inputs: read: %w", err)
	}
	return trains, nil
}
