// Package simulation provides a scenario test harness for validating the
// invariants of branching annihilating walks end to end.
//
// The harness exercises the real Engine, the timeline reconstructor, and the
// SQLite repository with no mocks. Scenarios are Go builders that pair an
// engine configuration with replayable samplers, run sweep by sweep, and
// capture per-sweep snapshots for property-based assertions.
//
// Each test gets an isolated SQLite database via t.TempDir() and a sandboxed
// HOME to prevent touching user data.
//
// Usage:
//
//	func TestLinearBudget(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:     "linear",
//	        Config:   engine.Config{Steps: 25, Roots: 1, Lookback: 2},
//	        Samplers: simulation.Straight(),
//	    })
//	    simulation.AssertLinearBudget(t, result)
//	}
package simulation
