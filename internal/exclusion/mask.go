package exclusion

import (
	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/particle"
)

// Policy holds the tunables of the exclusion rules.
type Policy struct {
	// Lookback is how many steps away from a walker's current point (along
	// its own path, or back through a branch point) still count as "here".
	Lookback int

	// Epsilon is the squared distance below which two points are the same.
	Epsilon float64
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Lookback: constants.DefaultLookback,
		Epsilon:  constants.DefaultSelfEpsilon,
	}
}

// Rules is the id/iteration part of the exclusion mask for one walker at one
// moment. The distance-based self-identity rule is applied separately
// because it needs the candidate position.
//
// A history entry (id, t) is excluded when any of these holds:
//   - id is the walker itself and t >= selfFrom
//   - id is the parent and t >= parentFrom
//   - id is the sibling and t <= siblingTo
//   - id is the grandparent and t >= grandparentFrom
//   - id is the uncle and t <= uncleTo
//
// Relatives that do not apply are set to lineage.NoID.
type Rules struct {
	Self     lineage.ID
	SelfFrom int

	Parent     lineage.ID
	ParentFrom int

	Sibling   lineage.ID
	SiblingTo int

	Grandparent     lineage.ID
	GrandparentFrom int

	Uncle   lineage.ID
	UncleTo int
}

// RulesFor computes the exclusion rules for walker id in store s.
//
// Parent, sibling, grandparent and uncle entries are only excluded while the
// walker is within Lookback steps of its birth. A parent point is excluded
// when the path from it through the branch point to the walker is at most
// Lookback steps long. The grandparent and uncle are considered only when the
// parent itself was at most Lookback steps long, so that the grandparent's
// branch point is still within reach.
func (p Policy) RulesFor(s *lineage.Store, id lineage.ID) Rules {
	w := s.Walker(id)
	t := w.Particle.Iteration
	k := p.Lookback

	r := Rules{
		Self:        id,
		SelfFrom:    t - k,
		Parent:      lineage.NoID,
		Sibling:     lineage.NoID,
		Grandparent: lineage.NoID,
		Uncle:       lineage.NoID,
	}

	if w.Parent == lineage.NoID || t > k {
		return r
	}

	parent := s.Walker(w.Parent)
	parentLen := parent.Length()

	r.Parent = w.Parent
	r.ParentFrom = parentLen - k + t
	r.Sibling = w.Sibling
	r.SiblingTo = k

	if parent.Parent == lineage.NoID || parentLen > k {
		return r
	}

	grandparent := s.Walker(parent.Parent)
	r.Grandparent = parent.Parent
	r.GrandparentFrom = grandparent.Length() - k + parentLen + t
	r.Uncle = parent.Sibling
	r.UncleTo = k

	return r
}

// Excludes reports whether the history entry (id, iter) is masked by r.
func (r Rules) Excludes(id lineage.ID, iter int) bool {
	switch id {
	case r.Self:
		return iter >= r.SelfFrom
	case r.Parent:
		return iter >= r.ParentFrom
	case r.Sibling:
		return iter <= r.SiblingTo
	case r.Grandparent:
		return iter >= r.GrandparentFrom
	case r.Uncle:
		return iter <= r.UncleTo
	}
	return false
}

// Mask returns, for every entry of h, whether it is excluded from the
// collision test of walker id. It is the union of the self-identity rule
// (squared distance below Epsilon), the self-recency rule and the
// relative-recency rules.
func (p Policy) Mask(h *History, s *lineage.Store, id lineage.ID) []bool {
	rules := p.RulesFor(s, id)
	pos := s.Walker(id).Particle.Position

	mask := make([]bool, h.Len())
	for k := range mask {
		mask[k] = p.excluded(h, k, pos, rules)
	}
	return mask
}

// Collides reports whether walker id is within radius of any history entry
// not excluded by the mask. A radius of zero never collides.
func (p Policy) Collides(h *History, s *lineage.Store, id lineage.ID, radius float64) bool {
	_, ok := p.FirstCollision(h, s, id, radius)
	return ok
}

// FirstCollision returns the index of the first history entry that walker id
// collides with, if any.
func (p Policy) FirstCollision(h *History, s *lineage.Store, id lineage.ID, radius float64) (int, bool) {
	if radius <= 0 {
		return -1, false
	}
	r2 := radius * radius
	rules := p.RulesFor(s, id)
	pos := s.Walker(id).Particle.Position

	for k := 0; k < h.Len(); k++ {
		dx := h.X[k] - pos.X
		dy := h.Y[k] - pos.Y
		d2 := dx*dx + dy*dy
		if d2 >= r2 {
			continue
		}
		if p.excluded(h, k, pos, rules) {
			continue
		}
		return k, true
	}
	return -1, false
}

func (p Policy) excluded(h *History, k int, pos particle.Point, rules Rules) bool {
	if h.Point(k).Dist2(pos) < p.Epsilon {
		return true
	}
	return rules.Excludes(h.IDs[k], h.Iterations[k])
}
