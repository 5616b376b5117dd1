package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/jhsa24/randomwalk/internal/particle"
)

// PointSampler returns one position per call.
type PointSampler func() particle.Point

// ConstantPoint always returns p.
func ConstantPoint(p particle.Point) PointSampler {
	return func() particle.Point { return p }
}

// Polygon returns the vertices of a regular n-gon of circumradius scale,
// starting on the positive x axis, one per call, wrapping around after n.
func Polygon(n int, scale float64) PointSampler {
	if n < 1 {
		n = 1
	}
	vertices := make([]particle.Point, n)
	for k := range vertices {
		theta := 2 * float64(k) * math.Pi / float64(n)
		vertices[k] = particle.Point{X: scale * math.Cos(theta), Y: scale * math.Sin(theta)}
	}
	i := 0
	return func() particle.Point {
		p := vertices[i%n]
		i++
		return p
	}
}

// UniformBox draws points uniformly from the square [-half, half)².
func UniformBox(rng *rand.Rand, half float64) PointSampler {
	return func() particle.Point {
		return particle.Point{
			X: -half + 2*half*rng.Float64(),
			Y: -half + 2*half*rng.Float64(),
		}
	}
}

// RadialAngle returns the polar angle of p, used to point somas outwards.
func RadialAngle(p particle.Point) float64 {
	return math.Atan2(p.Y, p.X)
}
