package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhsa24/randomwalk/internal/particle"
)

func TestPolygonVertices(t *testing.T) {
	s := Polygon(4, 5)
	want := []particle.Point{{X: 5, Y: 0}, {X: 0, Y: 5}, {X: -5, Y: 0}, {X: 0, Y: -5}, {X: 5, Y: 0}}
	for i, w := range want {
		got := s()
		assert.InDelta(t, w.X, got.X, 1e-12, "vertex %d x", i)
		assert.InDelta(t, w.Y, got.Y, 1e-12, "vertex %d y", i)
	}
}

func TestPolygonSingleVertex(t *testing.T) {
	s := Polygon(0, 2)
	assert.Equal(t, particle.Point{X: 2, Y: 0}, s())
}

func TestUniformBox(t *testing.T) {
	s := UniformBox(NewRand(1, 0), 2)
	for range 500 {
		p := s()
		require.GreaterOrEqual(t, p.X, -2.0)
		require.Less(t, p.X, 2.0)
		require.GreaterOrEqual(t, p.Y, -2.0)
		require.Less(t, p.Y, 2.0)
	}
}

func TestRadialAngle(t *testing.T) {
	assert.InDelta(t, math.Pi/2, RadialAngle(particle.Point{X: 0, Y: 3}), 1e-12)
	assert.InDelta(t, math.Pi, RadialAngle(particle.Point{X: -1, Y: 0}), 1e-12)
}

func TestFields(t *testing.T) {
	assert.Equal(t, 1.5, ConstantField(1.5)(10, -10))

	radial := Swirl(0)
	assert.InDelta(t, 3*math.Pi/2, radial(0, -1), 1e-12)

	circular := Swirl(math.Pi / 2)
	assert.InDelta(t, math.Pi/2, circular(1, 0), 1e-12)

	hp := HalfPlane()
	assert.Equal(t, 0.0, hp(-1, 0))
	assert.Equal(t, math.Pi, hp(1, 0))
}
