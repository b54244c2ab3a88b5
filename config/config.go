// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads simulation settings from TOML or YAML files and
// environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/emer/srm/inputs"
	"github.com/emer/srm/srm"
	"gopkg.in/yaml.v3"
)

// File is the full configuration of a simulation run.
type File struct {
	// Model are the neuron parameters.
	Model srm.Params `toml:"model" yaml:"model"`

	// Inputs control random input generation when no input file is given.
	Inputs inputs.Params `toml:"inputs" yaml:"inputs"`

	// Run controls the horizon, seeds and outputs.
	Run RunConfig `toml:"run" yaml:"run"`

	// Logging controls operational log output.
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// RunConfig controls one simulate invocation.
type RunConfig struct {
	// T is the simulation horizon; generated inputs span the same horizon.
	T float64 `toml:"t" yaml:"t"`

	// Seed seeds the model's spike trials.
	Seed uint64 `toml:"seed" yaml:"seed"`

	// Rand selects the spike trial source: "gonum" (default) or "emergent".
	Rand string `toml:"rand" yaml:"rand"`

	// InputSeed seeds input generation, independent of Seed so the same
	// inputs can be replayed under different spike noise.
	InputSeed uint64 `toml:"input_seed" yaml:"input_seed"`

	// InputsFile, if set, is read instead of generating inputs.
	InputsFile string `toml:"inputs_file" yaml:"inputs_file"`

	// Out is the directory for trace.tsv, spikes.tsv and plots.
	Out string `toml:"out" yaml:"out"`

	// Plot is the image format for plots ("png", "svg", "pdf"); empty for none.
	Plot string `toml:"plot" yaml:"plot"`

	// Archive is the SQLite run archive path; empty to skip archiving.
	Archive string `toml:"archive" yaml:"archive"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is "info" (default), "debug" (spikes) or "trace" (every step).
	Level string `toml:"level" yaml:"level"`
}

// Default returns the configuration of the reference experiment: a
// neuron with the textbook parameters driven for 7 time units by a
// Poisson number of sparse random inputs.
func Default() *File {
	cf := &File{}
	cf.Model.Defaults()
	cf.Inputs.Defaults()
	cf.Run = RunConfig{T: 7, Seed: 1, Rand: "gonum", InputSeed: 2, Out: "."}
	cf.Logging = LoggingConfig{Level: "info"}
	return cf
}

// Load reads a .toml, .yaml or .yml file over the defaults, then applies
// environment overrides.
func Load(path string) (*File, error) {
	cf := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cf); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cf); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err := cf.ApplyEnv(); err != nil {
		return nil, err
	}
	return cf, nil
}

// ApplyEnv overrides settings from SRM_SEED, SRM_INPUT_SEED, SRM_WORKERS
// and SRM_LOG_LEVEL when they are set.
func (cf *File) ApplyEnv() error {
	if v := os.Getenv("SRM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: SRM_SEED: %w", err)
		}
		cf.Run.Seed = n
	}
	if v := os.Getenv("SRM_INPUT_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: SRM_INPUT_SEED: %w", err)
		}
		cf.Run.InputSeed = n
	}
	if v := os.Getenv("SRM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SRM_WORKERS: %w", err)
		}
		cf.Model.Workers = n
	}
	if v := os.Getenv("SRM_LOG_LEVEL"); v != "" {
		cf.Logging.Level = v
	}
	return nil
}

// Validate checks the model, input and run settings.
func (cf *File) Validate() error {
	if err := cf.Model.Validate(); err != nil {
		return err
	}
	if err := cf.Inputs.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !(cf.Run.T >= 0) || math.IsInf(cf.Run.T, 0) {
		return fmt.Errorf("config: run.t must be finite and >= 0, got %v", cf.Run.T)
	}
	if _, err := cf.Run.NewRand(); err != nil {
		return err
	}
	return nil
}

// NewRand returns the spike trial source named by Rand, seeded with Seed.
func (rc *RunConfig) NewRand() (srm.Rand, error) {
	switch strings.ToLower(rc.Rand) {
	case "", "gonum":
		return srm.NewRand(rc.Seed), nil
	case "emergent":
		return srm.NewERand(int64(rc.Seed)), nil
	}
	return nil, fmt.Errorf("config: unknown run.rand %q, want gonum or emergent", rc.Rand)
}

// Write encodes cf as TOML, the format used for saved configs.
func (cf *File) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cf); err != nil {
		f.Close()
		return fmt.Errorf("config: encode: %w", err)
	}
	return f.Close()
}
