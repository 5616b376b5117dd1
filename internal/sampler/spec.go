package sampler

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

// Distribution kinds understood by Spec.
const (
	KindConstant    = "constant"
	KindUniform     = "uniform"
	KindExponential = "exponential"
	KindNormal      = "normal"
	KindCauchy      = "cauchy"
	KindVonMises    = "vonmises"
	KindChoice      = "choice"
	KindSequence    = "sequence"
)

// Spec is the declarative form of a Sampler as it appears in configuration
// files. Only the parameters relevant to Kind are read.
type Spec struct {
	Kind    string    `json:"kind" yaml:"kind"`
	Value   float64   `json:"value,omitempty" yaml:"value,omitempty"`
	Min     float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max     float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Rate    float64   `json:"rate,omitempty" yaml:"rate,omitempty"`
	Mean    float64   `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev  float64   `json:"stddev,omitempty" yaml:"stddev,omitempty"`
	Scale   float64   `json:"scale,omitempty" yaml:"scale,omitempty"`
	Kappa   float64   `json:"kappa,omitempty" yaml:"kappa,omitempty"`
	Values  []float64 `json:"values,omitempty" yaml:"values,omitempty"`
	Weights []float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// UnmarshalYAML replaces s as a whole, so a distribution given in a config
// file never inherits parameters from the default it overrides.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	type plain Spec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Spec(p)
	return nil
}

// finite rejects NaN and infinite distribution parameters.
func finite(kind string, params map[string]float64) error {
	for name, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %s must be finite, got %g", kind, name, v)
		}
	}
	return nil
}

// drawable rejects values that can never be a sample. +Inf is allowed as a
// wait that never elapses.
func drawable(kind string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, -1) {
			return fmt.Errorf("%s: value %g is not a number a walker can use", kind, v)
		}
	}
	return nil
}

// Validate checks that the parameters are usable for Kind.
func (s Spec) Validate() error {
	if err := s.validateNumbers(); err != nil {
		return err
	}
	switch s.Kind {
	case KindConstant:
		return nil
	case KindUniform:
		if s.Max < s.Min {
			return fmt.Errorf("uniform: max %g below min %g", s.Max, s.Min)
		}
	case KindExponential:
		if s.Rate <= 0 {
			return fmt.Errorf("exponential: rate must be positive, got %g", s.Rate)
		}
	case KindNormal:
		if s.StdDev < 0 {
			return fmt.Errorf("normal: stddev must be non-negative, got %g", s.StdDev)
		}
	case KindCauchy:
		if s.Scale <= 0 {
			return fmt.Errorf("cauchy: scale must be positive, got %g", s.Scale)
		}
	case KindVonMises:
		if s.Kappa < 0 {
			return fmt.Errorf("vonmises: kappa must be non-negative, got %g", s.Kappa)
		}
	case KindChoice:
		if len(s.Values) == 0 {
			return fmt.Errorf("choice: values must not be empty")
		}
		if s.Weights != nil {
			if len(s.Weights) != len(s.Values) {
				return fmt.Errorf("choice: %d weights for %d values", len(s.Weights), len(s.Values))
			}
			total := 0.0
			for _, w := range s.Weights {
				if w < 0 {
					return fmt.Errorf("choice: negative weight %g", w)
				}
				total += w
			}
			if total <= 0 {
				return fmt.Errorf("choice: weights sum to zero")
			}
		}
	case KindSequence:
		if len(s.Values) == 0 {
			return fmt.Errorf("sequence: values must not be empty")
		}
	case "":
		return fmt.Errorf("distribution kind is required")
	default:
		return fmt.Errorf("unknown distribution kind %q", s.Kind)
	}
	return nil
}

func (s Spec) validateNumbers() error {
	switch s.Kind {
	case KindConstant:
		return drawable(s.Kind, s.Value)
	case KindUniform:
		return finite(s.Kind, map[string]float64{"min": s.Min, "max": s.Max})
	case KindExponential:
		return finite(s.Kind, map[string]float64{"rate": s.Rate})
	case KindNormal:
		return finite(s.Kind, map[string]float64{"mean": s.Mean, "stddev": s.StdDev})
	case KindCauchy:
		return finite(s.Kind, map[string]float64{"mean": s.Mean, "scale": s.Scale})
	case KindVonMises:
		return finite(s.Kind, map[string]float64{"mean": s.Mean, "kappa": s.Kappa})
	case KindChoice:
		for i, w := range s.Weights {
			if err := finite(s.Kind, map[string]float64{fmt.Sprintf("weight %d", i): w}); err != nil {
				return err
			}
		}
		return drawable(s.Kind, s.Values...)
	case KindSequence:
		return drawable(s.Kind, s.Values...)
	}
	return nil
}

// Build validates the spec and returns a Sampler drawing from rng.
func (s Spec) Build(rng *rand.Rand) (Sampler, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch s.Kind {
	case KindUniform:
		return Uniform(rng, s.Min, s.Max), nil
	case KindExponential:
		return Exponential(rng, s.Rate), nil
	case KindNormal:
		return Normal(rng, s.Mean, s.StdDev), nil
	case KindCauchy:
		return Cauchy(rng, s.Mean, s.Scale), nil
	case KindVonMises:
		return VonMises(rng, s.Mean, s.Kappa), nil
	case KindChoice:
		return Choice(rng, s.Values, s.Weights), nil
	case KindSequence:
		return Sequence(s.Values...), nil
	default:
		return Constant(s.Value), nil
	}
}

// Field kinds understood by FieldSpec.
const (
	FieldNone      = "none"
	FieldConstant  = "constant"
	FieldSwirl     = "swirl"
	FieldHalfPlane = "halfplane"
)

// FieldSpec is the declarative form of a guidance Field.
type FieldSpec struct {
	Kind   string  `json:"kind" yaml:"kind"`
	Value  float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Offset float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Build returns the Field, or nil for an empty or "none" kind.
func (f FieldSpec) Build() (Field, error) {
	if err := finite("field", map[string]float64{"value": f.Value, "offset": f.Offset}); err != nil {
		return nil, err
	}
	switch f.Kind {
	case "", FieldNone:
		return nil, nil
	case FieldConstant:
		return ConstantField(f.Value), nil
	case FieldSwirl:
		return Swirl(f.Offset), nil
	case FieldHalfPlane:
		return HalfPlane(), nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", f.Kind)
	}
}
