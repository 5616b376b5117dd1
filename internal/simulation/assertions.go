package simulation

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/timeline"
)

// AssertConsistent asserts that every sample's lineage passes validation.
func AssertConsistent(t *testing.T, result SimulationResult) {
	t.Helper()
	for i, s := range result.Stores {
		if err := s.Validate(); err != nil {
			t.Errorf("AssertConsistent: sample %d: %v", i, err)
		}
	}
}

// AssertStartTimes asserts start[root] == 0 and
// start[child] == start[parent] + parent length for every sample.
func AssertStartTimes(t *testing.T, result SimulationResult) {
	t.Helper()
	for i, s := range result.Stores {
		starts, err := timeline.StartTimes(s)
		if err != nil {
			t.Errorf("AssertStartTimes: sample %d: %v", i, err)
			continue
		}
		walkers := s.Walkers()
		for id := range walkers {
			w := &walkers[id]
			want := 0
			if w.Parent.Valid() {
				want = starts[w.Parent] + walkers[w.Parent].Length()
			}
			if starts[id] != want {
				t.Errorf("AssertStartTimes: sample %d walker %d: start %d, want %d", i, id, starts[id], want)
			}
		}
	}
}

// AssertLinearBudget asserts that a lineage without branching accounts for
// exactly the configured number of steps.
func AssertLinearBudget(t *testing.T, result SimulationResult) {
	t.Helper()
	for i, s := range result.Stores {
		total := 0
		for _, w := range s.Walkers() {
			total += w.Length()
		}
		if want := result.Scenario.Config.Steps * result.Scenario.Config.Roots; total != want {
			t.Errorf("AssertLinearBudget: sample %d: %d steps recorded, want %d", i, total, want)
		}
	}
}

// AssertDeadFrozen asserts that a walker's history never grows after the
// sweep in which it died.
func AssertDeadFrozen(t *testing.T, result SimulationResult) {
	t.Helper()
	frozen := make(map[int]int)
	for _, sr := range result.Sweeps {
		for id, ws := range sr.Walkers {
			if n, ok := frozen[id]; ok && ws.Positions != n {
				t.Errorf("AssertDeadFrozen: sweep %d: dead walker %d grew from %d to %d positions", sr.Index, id, n, ws.Positions)
			}
			if !ws.Alive {
				if _, ok := frozen[id]; !ok {
					frozen[id] = ws.Positions
				}
			}
		}
	}
}

// AssertAliveAt asserts the number of live walkers after sweep index.
func AssertAliveAt(t *testing.T, result SimulationResult, index, want int) {
	t.Helper()
	if index >= len(result.Sweeps) {
		t.Fatalf("AssertAliveAt: sweep %d out of range (%d sweeps)", index, len(result.Sweeps))
	}
	if got := result.Sweeps[index].Alive; got != want {
		t.Errorf("AssertAliveAt: sweep %d: %d alive, want %d", index, got, want)
	}
}

// AssertDiesAt asserts that walker id is alive after sweep index-1 and dead
// after sweep index.
func AssertDiesAt(t *testing.T, result SimulationResult, id, index int) {
	t.Helper()
	if index < 1 || index >= len(result.Sweeps) {
		t.Fatalf("AssertDiesAt: sweep %d out of range (%d sweeps)", index, len(result.Sweeps))
	}
	alive := func(i int) bool {
		ws := result.Sweeps[i].Walkers
		return id < len(ws) && ws[id].Alive
	}
	if !alive(index - 1) {
		t.Errorf("AssertDiesAt: walker %d already dead after sweep %d", id, index-1)
	}
	if alive(index) {
		t.Errorf("AssertDiesAt: walker %d still alive after sweep %d", id, index)
	}
}

// AssertWalkerCount asserts how many walkers the first sample ever created.
func AssertWalkerCount(t *testing.T, result SimulationResult, want int) {
	t.Helper()
	if got := result.Store().Len(); got != want {
		t.Errorf("AssertWalkerCount: %d walkers, want %d", got, want)
	}
}

// AssertPersisted asserts that the collection loaded back from the
// repository encodes identically to the lineages that were saved.
func AssertPersisted(t *testing.T, result SimulationResult) {
	t.Helper()
	if result.Loaded == nil {
		t.Fatal("AssertPersisted: nothing was loaded")
	}
	if len(result.Loaded.Samples) != len(result.Stores) {
		t.Fatalf("AssertPersisted: loaded %d samples, want %d", len(result.Loaded.Samples), len(result.Stores))
	}
	for i := range result.Stores {
		if !sameLineage(t, result.Stores[i], result.Loaded.Samples[i]) {
			t.Errorf("AssertPersisted: sample %d differs after reload", i)
		}
	}
}

// AssertIdentical asserts that two runs produced byte-identical lineages.
func AssertIdentical(t *testing.T, a, b SimulationResult) {
	t.Helper()
	if len(a.Stores) != len(b.Stores) {
		t.Fatalf("AssertIdentical: %d samples vs %d", len(a.Stores), len(b.Stores))
	}
	for i := range a.Stores {
		if !sameLineage(t, a.Stores[i], b.Stores[i]) {
			t.Errorf("AssertIdentical: sample %d differs", i)
		}
	}
}

func sameLineage(t *testing.T, a, b *lineage.Store) bool {
	t.Helper()
	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("encoding lineage: %v", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("encoding lineage: %v", err)
	}
	return bytes.Equal(ja, jb)
}
