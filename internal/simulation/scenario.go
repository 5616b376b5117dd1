package simulation

import (
	"math"

	"github.com/jhsa24/randomwalk/internal/engine"
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/sampler"
	"github.com/jhsa24/randomwalk/internal/store"
	"github.com/jhsa24/randomwalk/internal/timeline"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name   string
	Config engine.Config

	// Samplers drives a single-sample run. It is ignored when Factory is set.
	Samplers engine.Samplers

	// Factory, when non-nil, switches the runner to RunSamples with Samples
	// independent samples.
	Factory engine.SamplerFactory
	Samples int
	Workers int

	// BeforeSweep, when non-nil, is called before each sweep of a
	// single-sample run. Use it to inspect or perturb the engine mid-run.
	BeforeSweep func(sweep int, e *engine.Engine)
}

// WalkerState is one walker's status at the end of a sweep.
type WalkerState struct {
	Alive     bool
	Positions int
}

// SweepResult captures the lineage after one sweep.
type SweepResult struct {
	Index   int
	Alive   int
	Walkers []WalkerState
}

// SimulationResult captures all sweeps and the final state.
type SimulationResult struct {
	Scenario Scenario
	Sweeps   []SweepResult

	// Stores holds one lineage per sample, in sample order.
	Stores   []*lineage.Store
	Timeline *timeline.Timeline

	// Loaded is the collection read back from the repository after saving.
	Loaded *store.Collection
}

// Store returns the lineage of the first sample.
func (r SimulationResult) Store() *lineage.Store {
	return r.Stores[0]
}

// Straight returns samplers for a walker that moves one unit per step
// without turning or branching.
func Straight() engine.Samplers {
	return engine.Samplers{
		StepLength:  sampler.Constant(1),
		TurnAngle:   sampler.Constant(0),
		BranchAngle: sampler.Constant(math.Pi / 3),
		BranchWait:  sampler.Constant(math.Inf(1)),
	}
}

// Periodic returns samplers for straight walkers that branch every wait
// steps, children diverging by angle on each side.
func Periodic(wait, angle float64) engine.Samplers {
	s := Straight()
	s.BranchWait = sampler.Constant(wait)
	s.BranchAngle = sampler.Constant(angle)
	return s
}
