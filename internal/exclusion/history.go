// Package exclusion decides which parts of a run's position history a walker
// may collide with.
//
// The collision test compares a walker's current position against every
// recorded point of the run. Points on the walker's own trailing tail and
// points that coincide with a fresh branch point are excluded, otherwise
// every branch event would annihilate its own children.
package exclusion

import (
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/particle"
)

// History is the flat, append-only record of every visited point in a run,
// stored as parallel columns. A child's birth point is not appended again;
// it is already present as its parent's tip.
type History struct {
	IDs        []lineage.ID
	Iterations []int
	X          []float64
	Y          []float64
}

// NewHistory creates a history with room for n points.
func NewHistory(n int) *History {
	return &History{
		IDs:        make([]lineage.ID, 0, n),
		Iterations: make([]int, 0, n),
		X:          make([]float64, 0, n),
		Y:          make([]float64, 0, n),
	}
}

// Append records that walker id was at p at local iteration iter.
func (h *History) Append(id lineage.ID, iter int, p particle.Point) {
	h.IDs = append(h.IDs, id)
	h.Iterations = append(h.Iterations, iter)
	h.X = append(h.X, p.X)
	h.Y = append(h.Y, p.Y)
}

// Len returns the number of recorded points.
func (h *History) Len() int {
	return len(h.IDs)
}

// Point returns the k-th recorded position.
func (h *History) Point(k int) particle.Point {
	return particle.Point{X: h.X[k], Y: h.Y[k]}
}
