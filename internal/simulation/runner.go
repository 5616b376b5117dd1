package simulation

import (
	"context"
	"testing"

	"github.com/jhsa24/randomwalk/internal/engine"
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/store"
	"github.com/jhsa24/randomwalk/internal/timeline"
)

// Runner orchestrates simulation experiments against the real engine and an
// isolated SQLite repository.
type Runner struct {
	t    *testing.T
	repo *store.SQLiteRepository
}

// NewRunner creates a simulation runner with an isolated SQLite repository
// and sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	repo, err := store.NewSQLiteRepository(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("NewRunner: failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return &Runner{t: t, repo: repo}
}

// Run executes the scenario, saves the result under the scenario's name,
// and returns everything collected along the way.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	ctx := context.Background()

	result := SimulationResult{Scenario: scenario}
	if scenario.Factory != nil {
		stores, err := engine.RunSamples(ctx, scenario.Config, scenario.Samples, scenario.Workers, scenario.Factory)
		if err != nil {
			r.t.Fatalf("%s: RunSamples: %v", scenario.Name, err)
		}
		result.Stores = stores
	} else {
		result.Sweeps, result.Stores = r.runSingle(ctx, scenario)
	}

	tl, err := timeline.Build(result.Stores)
	if err != nil {
		r.t.Fatalf("%s: timeline.Build: %v", scenario.Name, err)
	}
	result.Timeline = tl

	result.Loaded = r.persist(ctx, scenario.Name, result.Stores)
	return result
}

// runSingle steps one engine sweep by sweep, snapshotting after each.
func (r *Runner) runSingle(ctx context.Context, scenario Scenario) ([]SweepResult, []*lineage.Store) {
	r.t.Helper()

	e, err := engine.New(scenario.Config, scenario.Samplers)
	if err != nil {
		r.t.Fatalf("%s: engine.New: %v", scenario.Name, err)
	}

	var sweeps []SweepResult
	for i := 0; !e.Done(); i++ {
		if err := ctx.Err(); err != nil {
			r.t.Fatalf("%s: %v", scenario.Name, err)
		}
		if scenario.BeforeSweep != nil {
			scenario.BeforeSweep(i, e)
		}
		e.Step()
		sweeps = append(sweeps, snapshot(i, e.Store()))
	}
	return sweeps, []*lineage.Store{e.Store()}
}

func snapshot(index int, s *lineage.Store) SweepResult {
	walkers := s.Walkers()
	sr := SweepResult{Index: index, Walkers: make([]WalkerState, len(walkers))}
	for i := range walkers {
		sr.Walkers[i] = WalkerState{Alive: walkers[i].Alive, Positions: len(walkers[i].Positions)}
		if walkers[i].Alive {
			sr.Alive++
		}
	}
	return sr
}

// persist saves the stores and loads them back.
func (r *Runner) persist(ctx context.Context, name string, stores []*lineage.Store) *store.Collection {
	r.t.Helper()
	if name == "" {
		name = "scenario"
	}

	if err := r.repo.Save(ctx, &store.Collection{Name: name, Samples: stores}); err != nil {
		r.t.Fatalf("%s: Save: %v", name, err)
	}
	loaded, err := r.repo.Load(ctx, name)
	if err != nil {
		r.t.Fatalf("%s: Load: %v", name, err)
	}
	return loaded
}
