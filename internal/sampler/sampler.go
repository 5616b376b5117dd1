// Package sampler provides the zero-argument random variate generators the
// engine consumes (step length, turning angle, branch waiting time, branch
// angle, initial heading and position) and the position-dependent guidance
// fields.
//
// Every constructor that draws randomness takes its own *rand.Rand so that
// independent samples can run on independent streams.
package sampler

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Sampler returns one fresh variate per call.
type Sampler func() float64

// Constant always returns v.
func Constant(v float64) Sampler {
	return func() float64 { return v }
}

// Sequence replays values in order and wraps around at the end. It is the
// deterministic stand-in for a random stream in tests. An empty sequence
// always returns 0.
func Sequence(values ...float64) Sampler {
	vals := append([]float64(nil), values...)
	i := 0
	return func() float64 {
		if len(vals) == 0 {
			return 0
		}
		v := vals[i%len(vals)]
		i++
		return v
	}
}

// Uniform draws from [lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) Sampler {
	return func() float64 { return lo + (hi-lo)*rng.Float64() }
}

// Exponential draws waiting times with the given rate (mean 1/rate).
func Exponential(rng *rand.Rand, rate float64) Sampler {
	return func() float64 { return rng.ExpFloat64() / rate }
}

// Normal draws from a gaussian with the given mean and standard deviation.
func Normal(rng *rand.Rand, mean, stddev float64) Sampler {
	return func() float64 { return mean + stddev*rng.NormFloat64() }
}

// Cauchy draws from a Cauchy distribution by inverting its CDF.
func Cauchy(rng *rand.Rand, location, scale float64) Sampler {
	return func() float64 {
		return location + scale*math.Tan(math.Pi*(rng.Float64()-0.5))
	}
}

// VonMises draws angles concentrated around mu with concentration kappa,
// using the Best-Fisher rejection scheme. For kappa near zero it degrades to
// the uniform distribution on [mu-π, mu+π).
func VonMises(rng *rand.Rand, mu, kappa float64) Sampler {
	if kappa < 1e-8 {
		return Uniform(rng, mu-math.Pi, mu+math.Pi)
	}
	a := 1 + math.Sqrt(1+4*kappa*kappa)
	b := (a - math.Sqrt(2*a)) / (2 * kappa)
	r := (1 + b*b) / (2 * b)

	return func() float64 {
		for {
			u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
			z := math.Cos(math.Pi * u1)
			f := (1 + r*z) / (r + z)
			c := kappa * (r - f)
			if c*(2-c)-u2 > 0 || math.Log(c/u2)+1-c >= 0 {
				theta := math.Acos(f)
				if u3 < 0.5 {
					theta = -theta
				}
				return mu + theta
			}
		}
	}
}

// Choice draws one of values with probability proportional to weights.
// A nil weights slice means all values are equally likely.
func Choice(rng *rand.Rand, values, weights []float64) Sampler {
	vals := append([]float64(nil), values...)
	cumulative := make([]float64, len(vals))
	total := 0.0
	for i := range vals {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		total += w
		cumulative[i] = total
	}

	return func() float64 {
		u := rng.Float64() * total
		i := sort.SearchFloat64s(cumulative, u)
		// SearchFloat64s finds the first bound >= u; a draw landing exactly on
		// a bound belongs to the next bucket.
		for i < len(cumulative)-1 && cumulative[i] == u {
			i++
		}
		if i >= len(vals) {
			i = len(vals) - 1
		}
		return vals[i]
	}
}

// Abs wraps s so that it always returns non-negative values.
func Abs(s Sampler) Sampler {
	return func() float64 { return math.Abs(s()) }
}

// NewRand returns an independent PCG stream for one sample of a seeded run.
func NewRand(seed uint64, sample int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(sample)))
}
