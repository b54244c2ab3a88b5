// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracelog records simulation results in etable tables and writes
// them as tab-separated files.
package tracelog

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
	"github.com/emer/srm/srm"
)

// LogPrec is precision for saving float values in logs
const LogPrec = 10

// TraceTable returns a table with one row per step: Step, Time, Vm and
// Spike (1 if the neuron fired at that step).  The reference spike at
// t = 0 is not marked.
func TraceTable(rs *srm.Result) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", "Trace")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))
	sch := etable.Schema{
		{"Step", etensor.INT64, nil, nil},
		{"Time", etensor.FLOAT64, nil, nil},
		{"Vm", etensor.FLOAT64, nil, nil},
		{"Spike", etensor.INT64, nil, nil},
	}
	dt.SetFromSchema(sch, len(rs.Vm))
	for i, v := range rs.Vm {
		dt.SetCellFloat("Step", i, float64(i))
		dt.SetCellFloat("Time", i, rs.Time(i))
		dt.SetCellFloat("Vm", i, v)
	}
	for _, st := range rs.Spikes[1:] {
		i := StepOf(st, rs.Dt)
		if i >= 0 && i < len(rs.Vm) {
			dt.SetCellFloat("Spike", i, 1)
		}
	}
	return dt
}

// SpikeTable returns a table of output spike times, including the
// reference spike at t = 0.
func SpikeTable(spikes []float64) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", "Spikes")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))
	sch := etable.Schema{
		{"Index", etensor.INT64, nil, nil},
		{"Time", etensor.FLOAT64, nil, nil},
	}
	dt.SetFromSchema(sch, len(spikes))
	for i, st := range spikes {
		dt.SetCellFloat("Index", i, float64(i))
		dt.SetCellFloat("Time", i, st)
	}
	return dt
}

// StepOf returns the step index of a time on the dt grid
func StepOf(t, dt float64) int {
	return int(math.Round(t / dt))
}

// Write writes dt as tab-separated values with a header row.
func Write(w io.Writer, dt *etable.Table) error {
	if err := dt.WriteCSV(w, etable.Tab, true); err != nil {
		return fmt.Errorf("tracelog: write: %w", err)
	}
	return nil
}

// Save writes dt to the named file.
func Save(path string, dt *etable.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tracelog: %w", err)
	}
	if err := Write(f, dt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
