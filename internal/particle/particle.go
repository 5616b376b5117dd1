// Package particle provides the kinematic point that every walker carries:
// a position, a heading in [0, 2π), and a local step counter.
package particle

import "math"

// TwoPi is one full turn in radians.
const TwoPi = 2 * math.Pi

// Point is a position in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist2 returns the squared euclidean distance between p and q.
func (p Point) Dist2(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Norm2 returns the squared distance of p from the origin.
func (p Point) Norm2() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Particle is a movable, rotatable point. It is owned by exactly one walker
// record and mutated in place.
type Particle struct {
	Position  Point   `json:"position"`
	Heading   float64 `json:"heading"`
	Iteration int     `json:"iteration"`
}

// New creates a particle at position with the heading wrapped into [0, 2π).
func New(position Point, heading float64) Particle {
	return Particle{Position: position, Heading: Wrap(heading)}
}

// Move advances the particle by distance along its current heading.
// Negative distances move it backwards.
func (p *Particle) Move(distance float64) {
	p.Position.X += distance * math.Cos(p.Heading)
	p.Position.Y += distance * math.Sin(p.Heading)
}

// Rotate adds delta to the heading and reduces the result modulo 2π.
func (p *Particle) Rotate(delta float64) {
	p.Heading = Wrap(p.Heading + delta)
}

// Wrap reduces an angle into [0, 2π).
func Wrap(angle float64) float64 {
	a := math.Mod(angle, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// math.Mod of a tiny negative number can round up to exactly 2π.
	if a >= TwoPi {
		a = 0
	}
	return a
}
