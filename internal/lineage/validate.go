package lineage

import "fmt"

// Validate checks the structural invariants of a store:
//   - every history has len(Positions) == len(Angles) == Particle.Iteration+1
//   - parent and sibling ids are in range and not self-referential
//   - sibling links are symmetric and share one parent
//   - each branch event produced exactly two children
//   - every child starts at its parent's final position
//   - only roots are marked as soma
//
// All failures wrap ErrInconsistent.
func (s *Store) Validate() error {
	n := ID(len(s.walkers))
	inRange := func(id ID) bool { return id >= 0 && id < n }

	children := make(map[ID]int)
	for i := range s.walkers {
		id := ID(i)
		w := &s.walkers[i]

		if len(w.Positions) == 0 {
			return fmt.Errorf("walker %d has no positions: %w", id, ErrInconsistent)
		}
		if len(w.Positions) != len(w.Angles) || len(w.Positions) != w.Particle.Iteration+1 {
			return fmt.Errorf("walker %d: %d positions, %d angles, iteration %d: %w",
				id, len(w.Positions), len(w.Angles), w.Particle.Iteration, ErrInconsistent)
		}

		if w.Parent == NoID {
			if w.Sibling != NoID {
				return fmt.Errorf("root walker %d has sibling %d: %w", id, w.Sibling, ErrInconsistent)
			}
			if !w.Soma {
				return fmt.Errorf("root walker %d is not marked as soma: %w", id, ErrInconsistent)
			}
			continue
		}

		if w.Soma {
			return fmt.Errorf("walker %d has parent %d but is marked as soma: %w", id, w.Parent, ErrInconsistent)
		}
		if !inRange(w.Parent) || w.Parent == id {
			return fmt.Errorf("walker %d has invalid parent %d: %w", id, w.Parent, ErrInconsistent)
		}
		if !inRange(w.Sibling) || w.Sibling == id {
			return fmt.Errorf("walker %d has invalid sibling %d: %w", id, w.Sibling, ErrInconsistent)
		}

		sib := &s.walkers[w.Sibling]
		if sib.Sibling != id {
			return fmt.Errorf("walker %d names sibling %d, which names %d: %w", id, w.Sibling, sib.Sibling, ErrInconsistent)
		}
		if sib.Parent != w.Parent {
			return fmt.Errorf("siblings %d and %d have parents %d and %d: %w", id, w.Sibling, w.Parent, sib.Parent, ErrInconsistent)
		}

		parent := &s.walkers[w.Parent]
		if parent.Alive {
			return fmt.Errorf("walker %d has live parent %d: %w", id, w.Parent, ErrInconsistent)
		}
		if w.Positions[0] != parent.Tip() {
			return fmt.Errorf("walker %d starts at %v, parent %d ends at %v: %w",
				id, w.Positions[0], w.Parent, parent.Tip(), ErrInconsistent)
		}
		children[w.Parent]++
	}

	for parent, count := range children {
		if count != 2 {
			return fmt.Errorf("walker %d has %d children, want 2: %w", parent, count, ErrInconsistent)
		}
	}

	return nil
}
