// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store archives simulation runs (parameters, inputs, spikes and
// voltage trace) in a SQLite database so they can be listed and reloaded.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emer/srm/srm"
	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	duration   REAL NOT NULL,
	steps      INTEGER NOT NULL,
	n_spikes   INTEGER NOT NULL,
	params     TEXT NOT NULL,
	inputs     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS spikes (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx    INTEGER NOT NULL,
	t      REAL NOT NULL,
	PRIMARY KEY (run_id, idx)
);
CREATE TABLE IF NOT EXISTS trace (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	step   INTEGER NOT NULL,
	u      REAL NOT NULL,
	PRIMARY KEY (run_id, step)
);
`

// Run is one archived simulation.
type Run struct {
	ID        string
	CreatedAt time.Time
	Seed      uint64
	T         float64
	Params    srm.Params
	Inputs    [][]float64
	Result    *srm.Result
	// Err is the numerical failure that ended the run early, if any
	Err string
}

// Summary is a run without its trace.
type Summary struct {
	ID        string
	CreatedAt time.Time
	Seed      uint64
	T         float64
	Steps     int
	NSpikes   int
	Err       string
}

// Store is a SQLite run archive.  It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at path.  ":memory:" gives a
// private in-memory archive.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives rn, assigning a new id and creation time when unset,
// and returns the id.
func (s *Store) Save(ctx context.Context, rn *Run) (string, error) {
	if rn.Result == nil {
		return "", fmt.Errorf("store: run has no result")
	}
	if rn.ID == "" {
		rn.ID = uuid.NewString()
	}
	if rn.CreatedAt.IsZero() {
		rn.CreatedAt = time.Now().UTC()
	}
	pars, err := json.Marshal(rn.Params)
	if err != nil {
		return "", fmt.Errorf("store: encode params: %w", err)
	}
	ins, err := json.Marshal(rn.Inputs)
	if err != nil {
		return "", fmt.Errorf("store: encode inputs: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, seed, duration, steps, n_spikes, params, inputs, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rn.ID, rn.CreatedAt.Format(time.RFC3339Nano), int64(rn.Seed), rn.T,
		rn.Result.Steps, len(rn.Result.Spikes), string(pars), string(ins), rn.Err)
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	sst, err := tx.PrepareContext(ctx, `INSERT INTO spikes (run_id, idx, t) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("store: prepare spikes: %w", err)
	}
	defer sst.Close()
	for i, st := range rn.Result.Spikes {
		if _, err := sst.ExecContext(ctx, rn.ID, i, st); err != nil {
			return "", fmt.Errorf("store: insert spike: %w", err)
		}
	}

	tst, err := tx.PrepareContext(ctx, `INSERT INTO trace (run_id, step, u) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("store: prepare trace: %w", err)
	}
	defer tst.Close()
	for i, u := range rn.Result.Vm {
		if _, err := tst.ExecContext(ctx, rn.ID, i, u); err != nil {
			return "", fmt.Errorf("store: insert trace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return rn.ID, nil
}

// Load returns the run with the given id, including its trace.
func (s *Store) Load(ctx context.Context, id string) (*Run, error) {
	var (
		created, pars, ins string
		seed               int64
		rn                 = &Run{ID: id, Result: &srm.Result{}}
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, seed, duration, steps, params, inputs, error FROM runs WHERE id = ?`, id).
		Scan(&created, &seed, &rn.T, &rn.Result.Steps, &pars, &ins, &rn.Err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load run: %w", err)
	}
	rn.Seed = uint64(seed)
	if rn.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("store: created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(pars), &rn.Params); err != nil {
		return nil, fmt.Errorf("store: decode params: %w", err)
	}
	if err := json.Unmarshal([]byte(ins), &rn.Inputs); err != nil {
		return nil, fmt.Errorf("store: decode inputs: %w", err)
	}
	rn.Result.Dt = rn.Params.Dt
	rn.Result.T = rn.T

	if rn.Result.Spikes, err = s.column(ctx, `SELECT t FROM spikes WHERE run_id = ? ORDER BY idx`, id); err != nil {
		return nil, err
	}
	if rn.Result.Vm, err = s.column(ctx, `SELECT u FROM trace WHERE run_id = ? ORDER BY step`, id); err != nil {
		return nil, err
	}
	return rn, nil
}

func (s *Store) column(ctx context.Context, q, id string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()
	vals := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		vals = append(vals, v)
	}
	return vals, rows.Err()
}

// List returns summaries of all runs, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, seed, duration, steps, n_spikes, error FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()
	var sums []Summary
	for rows.Next() {
		var (
			sm      Summary
			created string
			seed    int64
		)
		if err := rows.Scan(&sm.ID, &created, &seed, &sm.T, &sm.Steps, &sm.NSpikes, &sm.Err); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		sm.Seed = uint64(seed)
		if sm.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("store: created_at: %w", err)
		}
		sums = append(sums, sm)
	}
	return sums, rows.Err()
}

// Delete removes a run and its spikes and trace.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
