package particle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"zero", 0, 0},
		{"inside range", 1.5, 1.5},
		{"full turn", TwoPi, 0},
		{"more than a turn", TwoPi + 0.25, 0.25},
		{"negative", -math.Pi / 2, 3 * math.Pi / 2},
		{"several negative turns", -3*TwoPi - 0.5, TwoPi - 0.5},
		{"tiny negative", -1e-18, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.input)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, TwoPi)
		})
	}
}

func TestNew_WrapsHeading(t *testing.T) {
	p := New(Point{X: 1, Y: 2}, -math.Pi)
	assert.InDelta(t, math.Pi, p.Heading, 1e-12)
	assert.Equal(t, Point{X: 1, Y: 2}, p.Position)
	assert.Equal(t, 0, p.Iteration)
}

func TestParticle_Move(t *testing.T) {
	tests := []struct {
		name     string
		heading  float64
		distance float64
		want     Point
	}{
		{"east", 0, 1, Point{X: 1, Y: 0}},
		{"north", math.Pi / 2, 2, Point{X: 0, Y: 2}},
		{"west", math.Pi, 1, Point{X: -1, Y: 0}},
		{"diagonal", math.Pi / 4, math.Sqrt2, Point{X: 1, Y: 1}},
		{"backwards", 0, -3, Point{X: -3, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Point{}, tt.heading)
			p.Move(tt.distance)
			assert.InDelta(t, tt.want.X, p.Position.X, 1e-12)
			assert.InDelta(t, tt.want.Y, p.Position.Y, 1e-12)
		})
	}
}

func TestParticle_Rotate(t *testing.T) {
	p := New(Point{}, 0)

	p.Rotate(math.Pi / 3)
	assert.InDelta(t, math.Pi/3, p.Heading, 1e-12)

	p.Rotate(-2 * math.Pi / 3)
	assert.InDelta(t, TwoPi-math.Pi/3, p.Heading, 1e-12)

	p.Rotate(4 * TwoPi)
	assert.InDelta(t, TwoPi-math.Pi/3, p.Heading, 1e-9)
}

func TestParticle_MoveDoesNotTouchIteration(t *testing.T) {
	p := New(Point{}, 0)
	p.Move(1)
	p.Rotate(1)
	assert.Equal(t, 0, p.Iteration)
}

func TestPoint_Dist2(t *testing.T) {
	a := Point{X: 1, Y: 1}
	b := Point{X: 4, Y: 5}
	assert.InDelta(t, 25.0, a.Dist2(b), 1e-12)
	assert.InDelta(t, a.Dist2(b), b.Dist2(a), 1e-12)
}
