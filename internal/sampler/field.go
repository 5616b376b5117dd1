package sampler

import "math"

// Field is a pure function of position, used for the guidance angle and the
// guidance strength.
type Field func(x, y float64) float64

// ConstantField returns c everywhere.
func ConstantField(c float64) Field {
	return func(x, y float64) float64 { return c }
}

// Swirl points along the polar angle plus offset, reduced into [0, 2π).
// An offset of 0 gives a radial field, π/2 a circular one.
func Swirl(offset float64) Field {
	return func(x, y float64) float64 {
		a := math.Mod(math.Atan2(y, x)+offset, 2*math.Pi)
		if a < 0 {
			a += 2 * math.Pi
		}
		return a
	}
}

// HalfPlane points towards the y axis from both sides: angle 0 for x < 0 and
// π otherwise.
func HalfPlane() Field {
	return func(x, y float64) float64 {
		if x < 0 {
			return 0
		}
		return math.Pi
	}
}
