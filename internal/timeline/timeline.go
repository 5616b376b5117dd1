// Package timeline flattens per-walker local histories into one global
// clock shared by all walkers of a sample, and provides the numeric
// reductions used for analysis.
package timeline

import (
	"fmt"

	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/particle"
)

// StartTimes resolves the global iteration at which each walker of s was
// born. Roots start at 0, and a child starts where its parent's local
// history ends. Walkers whose ancestry never reaches a root are reported
// as lineage.ErrInconsistent.
func StartTimes(s *lineage.Store) ([]int, error) {
	walkers := s.Walkers()
	n := len(walkers)
	start := make([]int, n)
	resolved := make([]bool, n)
	children := make([][]lineage.ID, n)
	queue := make([]lineage.ID, 0, n)

	for i := range walkers {
		w := &walkers[i]
		if len(w.Positions) == 0 {
			return nil, fmt.Errorf("%w: walker %d has no positions", lineage.ErrInconsistent, i)
		}
		switch {
		case w.Parent == lineage.NoID:
			resolved[i] = true
			queue = append(queue, lineage.ID(i))
		case int(w.Parent) < 0 || int(w.Parent) >= n:
			return nil, fmt.Errorf("%w: walker %d has unknown parent %d", lineage.ErrInconsistent, i, w.Parent)
		default:
			children[w.Parent] = append(children[w.Parent], lineage.ID(i))
		}
	}

	// Breadth first from the roots; ids need not be in topological order.
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, c := range children[p] {
			start[c] = start[p] + walkers[p].Length()
			resolved[c] = true
			queue = append(queue, c)
		}
	}

	for i, ok := range resolved {
		if !ok {
			return nil, fmt.Errorf("%w: walker %d does not descend from a root", lineage.ErrInconsistent, i)
		}
	}
	return start, nil
}

// Timeline is the flattened, column-oriented view of a sample collection:
// one row per (walker, local step). All columns have the same length.
type Timeline struct {
	X         []float64
	Y         []float64
	Iteration []int
	Angle     []float64
	WalkerID  []int
	ParentID  []int // lineage.NoID for roots
	SampleID  []int
}

// Build flattens stores, tagging each row with the index of its store.
// Rows are ordered by sample, then walker id, then local iteration.
func Build(stores []*lineage.Store) (*Timeline, error) {
	rows := 0
	for _, s := range stores {
		for _, w := range s.Walkers() {
			rows += len(w.Positions)
		}
	}
	tl := newTimeline(rows)

	for sample, s := range stores {
		start, err := StartTimes(s)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", sample, err)
		}
		for i, w := range s.Walkers() {
			if len(w.Angles) != len(w.Positions) {
				return nil, fmt.Errorf("sample %d: %w: walker %d has %d positions and %d angles",
					sample, lineage.ErrInconsistent, i, len(w.Positions), len(w.Angles))
			}
			for t, p := range w.Positions {
				tl.append(p, start[i]+t, w.Angles[t], i, int(w.Parent), sample)
			}
		}
	}
	return tl, nil
}

func newTimeline(capacity int) *Timeline {
	return &Timeline{
		X:         make([]float64, 0, capacity),
		Y:         make([]float64, 0, capacity),
		Iteration: make([]int, 0, capacity),
		Angle:     make([]float64, 0, capacity),
		WalkerID:  make([]int, 0, capacity),
		ParentID:  make([]int, 0, capacity),
		SampleID:  make([]int, 0, capacity),
	}
}

func (tl *Timeline) append(p particle.Point, iter int, angle float64, walker, parent, sample int) {
	tl.X = append(tl.X, p.X)
	tl.Y = append(tl.Y, p.Y)
	tl.Iteration = append(tl.Iteration, iter)
	tl.Angle = append(tl.Angle, angle)
	tl.WalkerID = append(tl.WalkerID, walker)
	tl.ParentID = append(tl.ParentID, parent)
	tl.SampleID = append(tl.SampleID, sample)
}

// Len returns the number of rows.
func (tl *Timeline) Len() int { return len(tl.X) }

// Point returns the position of row k.
func (tl *Timeline) Point(k int) particle.Point {
	return particle.Point{X: tl.X[k], Y: tl.Y[k]}
}

// Filter returns a new Timeline with the rows for which keep is true.
func (tl *Timeline) Filter(keep func(k int) bool) *Timeline {
	out := newTimeline(0)
	for k := range tl.X {
		if keep(k) {
			out.append(tl.Point(k), tl.Iteration[k], tl.Angle[k], tl.WalkerID[k], tl.ParentID[k], tl.SampleID[k])
		}
	}
	return out
}

// Samples keeps only the rows of the given samples. With no arguments the
// timeline is returned unchanged.
func (tl *Timeline) Samples(ids ...int) *Timeline {
	if len(ids) == 0 {
		return tl
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return tl.Filter(func(k int) bool { return want[tl.SampleID[k]] })
}

// Window keeps only the rows with lo <= iteration <= hi.
func (tl *Timeline) Window(lo, hi int) *Timeline {
	return tl.Filter(func(k int) bool {
		return tl.Iteration[k] >= lo && tl.Iteration[k] <= hi
	})
}

// SampleCount returns the number of distinct samples present.
func (tl *Timeline) SampleCount() int {
	seen := make(map[int]struct{})
	for _, s := range tl.SampleID {
		seen[s] = struct{}{}
	}
	return len(seen)
}
