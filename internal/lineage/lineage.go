// Package lineage holds the per-run mutable state of a branching walk: one
// record per walker, addressed by its integer id, together with the
// parent/sibling links needed for exclusion and reconstruction.
//
// Ids are assigned in insertion order starting at 0 and are never reused.
// The store only grows; records are mutated in place by the engine while a
// run is in progress and are treated as frozen afterwards.
package lineage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jhsa24/randomwalk/internal/particle"
)

// ErrInconsistent marks a broken lineage: asymmetric sibling links,
// discontinuous branch points, unresolvable ancestors, or histories whose
// length disagrees with the particle's step counter.
var ErrInconsistent = errors.New("inconsistent lineage")

// ID identifies a walker within one run.
type ID int

// NoID is the parent and sibling of a root walker.
const NoID ID = -1

// NoDeadline marks a walker that never branches on its own clock.
const NoDeadline = math.MaxInt

// Valid reports whether id refers to a walker rather than NoID.
func (id ID) Valid() bool {
	return id >= 0
}

// Walker is the record kept for every walker in a run.
type Walker struct {
	particle.Particle `json:"particle"`

	// Alive becomes false exactly once, on annihilation or on branching.
	Alive bool `json:"alive"`

	// Deadline is the local iteration at which the walker stops moving and
	// branches instead. NoDeadline when branching is probabilistic or disabled.
	Deadline int `json:"deadline"`

	// Positions[0] is the birth position; Angles[i] is the heading recorded
	// alongside Positions[i].
	Positions []particle.Point `json:"positions"`
	Angles    []float64        `json:"angles"`

	Parent  ID   `json:"parent"`
	Sibling ID   `json:"sibling"`
	Soma    bool `json:"soma"`
}

// Length returns the number of steps the walker has taken.
func (w *Walker) Length() int {
	return len(w.Positions) - 1
}

// Tip returns the most recent recorded position.
func (w *Walker) Tip() particle.Point {
	return w.Positions[len(w.Positions)-1]
}

// Store is the full id → record mapping for one run.
type Store struct {
	walkers []Walker
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// FromWalkers builds a store around already materialized records, e.g. after
// loading a run from disk. The slice is owned by the store afterwards.
func FromWalkers(walkers []Walker) *Store {
	return &Store{walkers: walkers}
}

// Len returns the number of walkers ever created.
func (s *Store) Len() int {
	return len(s.walkers)
}

// Walker returns the record for id. The pointer stays valid only until the
// next AddRoot or Branch call, which may grow the backing array.
func (s *Store) Walker(id ID) *Walker {
	return &s.walkers[id]
}

// Walkers returns the records in id order. Callers must not modify them.
func (s *Store) Walkers() []Walker {
	return s.walkers
}

// Alive returns the number of walkers that are still alive.
func (s *Store) Alive() int {
	n := 0
	for i := range s.walkers {
		if s.walkers[i].Alive {
			n++
		}
	}
	return n
}

// AddRoot appends a soma walker with the given kinematic state and deadline.
func (s *Store) AddRoot(p particle.Particle, deadline int) ID {
	return s.add(Walker{
		Particle:  p,
		Alive:     true,
		Deadline:  deadline,
		Positions: []particle.Point{p.Position},
		Angles:    []float64{p.Heading},
		Parent:    NoID,
		Sibling:   NoID,
		Soma:      true,
	})
}

// Branch appends the two children of parent. Both start at the parent's
// tip; left turns by +leftAngle and right by -rightAngle relative to the
// parent's final heading. The parent is not modified.
func (s *Store) Branch(parent ID, leftAngle, rightAngle float64, leftDeadline, rightDeadline int) (ID, ID) {
	p := s.walkers[parent].Particle
	left := ID(len(s.walkers))
	right := left + 1

	s.add(newChild(p, p.Heading+leftAngle, leftDeadline, parent, right))
	s.add(newChild(p, p.Heading-rightAngle, rightDeadline, parent, left))

	return left, right
}

func newChild(parent particle.Particle, heading float64, deadline int, parentID, sibling ID) Walker {
	c := particle.New(parent.Position, heading)
	return Walker{
		Particle:  c,
		Alive:     true,
		Deadline:  deadline,
		Positions: []particle.Point{c.Position},
		Angles:    []float64{c.Heading},
		Parent:    parentID,
		Sibling:   sibling,
	}
}

func (s *Store) add(w Walker) ID {
	s.walkers = append(s.walkers, w)
	return ID(len(s.walkers) - 1)
}

// Record appends the walker's current position and heading to its history.
// It is called after every move.
func (s *Store) Record(id ID) {
	w := &s.walkers[id]
	w.Positions = append(w.Positions, w.Particle.Position)
	w.Angles = append(w.Angles, w.Particle.Heading)
}

// Kill marks id as dead. Killing a dead walker is a no-op.
func (s *Store) Kill(id ID) {
	s.walkers[id].Alive = false
}

// Roots returns the ids of all soma walkers.
func (s *Store) Roots() []ID {
	var out []ID
	for i := range s.walkers {
		if s.walkers[i].Parent == NoID {
			out = append(out, ID(i))
		}
	}
	return out
}

// MarshalJSON encodes the store as a plain array of walker records.
func (s *Store) MarshalJSON() ([]byte, error) {
	if s.walkers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.walkers)
}

// UnmarshalJSON decodes an array of walker records.
func (s *Store) UnmarshalJSON(data []byte) error {
	var walkers []Walker
	if err := json.Unmarshal(data, &walkers); err != nil {
		return fmt.Errorf("decoding walkers: %w", err)
	}
	s.walkers = walkers
	return nil
}
