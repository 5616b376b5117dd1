package timeline

import (
	"math"
	"sort"

	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/particle"
)

// Series is a reduction indexed by global iteration, in ascending order.
// Only iterations that have at least one row appear.
type Series struct {
	Iterations []int     `json:"iterations"`
	Values     []float64 `json:"values"`
}

// Histogram holds bin edges (len(Density)+1 of them) and a density
// normalized to integrate to one.
type Histogram struct {
	Edges   []float64 `json:"edges"`
	Density []float64 `json:"density"`
}

// groupByIteration returns the row indices of each iteration, with the
// iterations sorted.
func (tl *Timeline) groupByIteration() ([]int, map[int][]int) {
	groups := make(map[int][]int)
	for k, it := range tl.Iteration {
		groups[it] = append(groups[it], k)
	}
	iters := make([]int, 0, len(groups))
	for it := range groups {
		iters = append(iters, it)
	}
	sort.Ints(iters)
	return iters, groups
}

// MeanSquaredDistance averages the squared distance from the origin over
// all rows at each iteration.
func (tl *Timeline) MeanSquaredDistance() Series {
	iters, groups := tl.groupByIteration()
	out := Series{Iterations: iters, Values: make([]float64, len(iters))}
	for i, it := range iters {
		sum := 0.0
		for _, k := range groups[it] {
			sum += tl.Point(k).Norm2()
		}
		out.Values[i] = sum / float64(len(groups[it]))
	}
	return out
}

// ActiveWalkers counts the distinct positions occupied at each iteration,
// divided by the number of samples present at that iteration. A parent's
// tip and its children's birth points share one position and count once.
func (tl *Timeline) ActiveWalkers() Series {
	type key struct {
		sample int
		p      particle.Point
	}
	iters, groups := tl.groupByIteration()
	out := Series{Iterations: iters, Values: make([]float64, len(iters))}
	for i, it := range iters {
		positions := make(map[key]struct{})
		samples := make(map[int]struct{})
		for _, k := range groups[it] {
			positions[key{tl.SampleID[k], tl.Point(k)}] = struct{}{}
			samples[tl.SampleID[k]] = struct{}{}
		}
		out.Values[i] = float64(len(positions)) / float64(len(samples))
	}
	return out
}

// AngleHistogram bins the recorded headings over [0, 2π).
func (tl *Timeline) AngleHistogram(bins int) Histogram {
	if bins < 1 {
		bins = 1
	}
	width := particle.TwoPi / float64(bins)
	h := Histogram{Edges: make([]float64, bins+1), Density: make([]float64, bins)}
	for i := range h.Edges {
		h.Edges[i] = float64(i) * width
	}
	if len(tl.Angle) == 0 {
		return h
	}

	for _, a := range tl.Angle {
		b := int(particle.Wrap(a) / width)
		if b >= bins {
			b = bins - 1
		}
		h.Density[b]++
	}
	norm := float64(len(tl.Angle)) * width
	for i := range h.Density {
		h.Density[i] /= norm
	}
	return h
}

// BranchLengths returns the number of recorded positions of every walker,
// ordered by sample and walker id.
func (tl *Timeline) BranchLengths() []int {
	type key struct{ sample, walker int }
	counts := make(map[key]int)
	var order []key
	for k := range tl.X {
		id := key{tl.SampleID[k], tl.WalkerID[k]}
		if _, ok := counts[id]; !ok {
			order = append(order, id)
		}
		counts[id]++
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].sample != order[j].sample {
			return order[i].sample < order[j].sample
		}
		return order[i].walker < order[j].walker
	})
	out := make([]int, len(order))
	for i, id := range order {
		out[i] = counts[id]
	}
	return out
}

// PositionsByIteration groups the positions of one sample by iteration.
func (tl *Timeline) PositionsByIteration(sample int) map[int][]particle.Point {
	out := make(map[int][]particle.Point)
	for k := range tl.X {
		if tl.SampleID[k] == sample {
			out[tl.Iteration[k]] = append(out[tl.Iteration[k]], tl.Point(k))
		}
	}
	return out
}

// Somas returns the birth points of the root walkers of one sample.
func (tl *Timeline) Somas(sample int) []particle.Point {
	var out []particle.Point
	for k := range tl.X {
		if tl.SampleID[k] == sample && tl.ParentID[k] == int(lineage.NoID) && tl.Iteration[k] == 0 {
			out = append(out, tl.Point(k))
		}
	}
	return out
}

// MaxIteration returns the largest global iteration, or -1 when empty.
func (tl *Timeline) MaxIteration() int {
	m := -1
	for _, it := range tl.Iteration {
		m = max(m, it)
	}
	return m
}

// Extent returns the bounding box of all positions. An empty timeline has
// an inverted box.
func (tl *Timeline) Extent() (lo, hi particle.Point) {
	lo = particle.Point{X: math.Inf(1), Y: math.Inf(1)}
	hi = particle.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for k := range tl.X {
		lo.X = min(lo.X, tl.X[k])
		lo.Y = min(lo.Y, tl.Y[k])
		hi.X = max(hi.X, tl.X[k])
		hi.Y = max(hi.Y, tl.Y[k])
	}
	return lo, hi
}
