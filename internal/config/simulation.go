package config

import (
	"fmt"
	"math"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/engine"
	"github.com/jhsa24/randomwalk/internal/particle"
	"github.com/jhsa24/randomwalk/internal/sampler"
)

// Soma layouts.
const (
	SomaOrigin  = "origin"
	SomaPolygon = "polygon"
	SomaBox     = "box"
)

// Simulation describes one run: its budget, exclusion parameters,
// distributions and initial layout. Workers bounds how many samples run at
// once; zero means one per CPU.
type Simulation struct {
	Steps   int    `json:"steps" yaml:"steps"`
	Samples int    `json:"samples" yaml:"samples"`
	Workers int    `json:"workers" yaml:"workers"`
	Seed    uint64 `json:"seed" yaml:"seed"`

	Radius   float64 `json:"radius" yaml:"radius"`
	Roots    int     `json:"roots" yaml:"roots"`
	Lookback int     `json:"lookback" yaml:"lookback"`
	Epsilon  float64 `json:"epsilon" yaml:"epsilon"`

	Branching Branching `json:"branching" yaml:"branching"`

	StepLength   sampler.Spec `json:"step_length" yaml:"step_length"`
	TurnAngle    sampler.Spec `json:"turn_angle" yaml:"turn_angle"`
	BranchAngle  sampler.Spec `json:"branch_angle" yaml:"branch_angle"`
	InitialAngle sampler.Spec `json:"initial_angle" yaml:"initial_angle"`

	Soma     Soma     `json:"soma" yaml:"soma"`
	Guidance Guidance `json:"guidance" yaml:"guidance"`
}

// Branching selects exactly one branching mode: a sampled waiting time per
// walker, or a fixed per-step probability.
type Branching struct {
	Waiting     *sampler.Spec `json:"waiting,omitempty" yaml:"waiting,omitempty"`
	Probability *float64      `json:"probability,omitempty" yaml:"probability,omitempty"`
}

// UnmarshalYAML replaces b as a whole so that choosing probability in a
// file drops the default waiting time.
func (b *Branching) UnmarshalYAML(value *yaml.Node) error {
	type plain Branching
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*b = Branching(p)
	return nil
}

// Soma places the roots.
type Soma struct {
	// Layout is "origin", "polygon" (a regular n-gon, n = roots) or "box"
	// (uniform in [-scale, scale)²).
	Layout string  `json:"layout" yaml:"layout"`
	Scale  float64 `json:"scale,omitempty" yaml:"scale,omitempty"`

	// Radial points each root away from the origin.
	Radial bool `json:"radial,omitempty" yaml:"radial,omitempty"`
}

// Guidance biases turning towards a field's preferred angle.
type Guidance struct {
	Field    sampler.FieldSpec `json:"field" yaml:"field"`
	Strength float64           `json:"strength,omitempty" yaml:"strength,omitempty"`
	Coupling float64           `json:"coupling" yaml:"coupling"`
}

// DefaultSimulation returns the classic single-soma BARW setup.
func DefaultSimulation() Simulation {
	return Simulation{
		Steps:    constants.DefaultSteps,
		Samples:  constants.DefaultSamples,
		Seed:     constants.DefaultSeed,
		Radius:   constants.DefaultRadius,
		Roots:    constants.DefaultRoots,
		Lookback: constants.DefaultLookback,
		Epsilon:  constants.DefaultSelfEpsilon,
		Branching: Branching{
			Waiting: &sampler.Spec{Kind: sampler.KindExponential, Rate: constants.DefaultBranchRate},
		},
		StepLength:   sampler.Spec{Kind: sampler.KindConstant, Value: constants.DefaultStepLength},
		TurnAngle:    sampler.Spec{Kind: sampler.KindUniform, Min: -constants.DefaultTurnAngleMax, Max: constants.DefaultTurnAngleMax},
		BranchAngle:  sampler.Spec{Kind: sampler.KindConstant, Value: constants.DefaultBranchAngle},
		InitialAngle: sampler.Spec{Kind: sampler.KindConstant},
		Soma: Soma{
			Layout: SomaOrigin,
			Scale:  constants.DefaultSomaScale,
		},
		Guidance: Guidance{
			Field:    sampler.FieldSpec{Kind: sampler.FieldNone},
			Coupling: constants.DefaultGuidanceCoupling,
		},
	}
}

// WorkerLimit resolves Workers, substituting the CPU count for zero.
func (s *Simulation) WorkerLimit() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// EngineConfig returns the scalar engine parameters.
func (s *Simulation) EngineConfig() engine.Config {
	cfg := engine.Config{
		Steps:            s.Steps,
		Radius:           s.Radius,
		Roots:            s.Roots,
		Lookback:         s.Lookback,
		Epsilon:          s.Epsilon,
		GuidanceCoupling: s.Guidance.Coupling,
		RadialHeadings:   s.Soma.Radial,
	}
	if p := s.Branching.Probability; p != nil {
		v := *p
		cfg.BranchProbability = &v
	}
	return cfg
}

// Validate checks everything the engine cannot check on its own. Every
// failure wraps engine.ErrInvalidConfig.
func (s *Simulation) Validate() error {
	if err := s.EngineConfig().Validate(); err != nil {
		return err
	}
	if s.Samples < 1 {
		return invalid("samples must be at least 1, got %d", s.Samples)
	}
	if s.Workers < 0 {
		return invalid("workers must be non-negative, got %d", s.Workers)
	}

	specs := []struct {
		name string
		spec sampler.Spec
	}{
		{"step_length", s.StepLength},
		{"turn_angle", s.TurnAngle},
		{"branch_angle", s.BranchAngle},
		{"initial_angle", s.InitialAngle},
	}
	for _, sp := range specs {
		if err := sp.spec.Validate(); err != nil {
			return invalid("%s: %v", sp.name, err)
		}
	}

	switch b := s.Branching; {
	case b.Waiting != nil && b.Probability != nil:
		return invalid("branching: waiting and probability are mutually exclusive")
	case b.Waiting == nil && b.Probability == nil:
		return invalid("branching: one of waiting or probability is required")
	case b.Waiting != nil:
		if err := b.Waiting.Validate(); err != nil {
			return invalid("branching.waiting: %v", err)
		}
	}

	switch s.Soma.Layout {
	case "", SomaOrigin:
	case SomaPolygon, SomaBox:
		if math.IsNaN(s.Soma.Scale) || s.Soma.Scale < 0 {
			return invalid("soma.scale must be non-negative, got %g", s.Soma.Scale)
		}
	default:
		return invalid("soma.layout: unknown layout %q (valid: origin, polygon, box)", s.Soma.Layout)
	}

	if _, err := s.Guidance.Field.Build(); err != nil {
		return invalid("guidance.field: %v", err)
	}
	if math.IsNaN(s.Guidance.Strength) || math.IsInf(s.Guidance.Strength, 0) {
		return invalid("guidance.strength must be finite")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", engine.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Samplers builds the engine samplers for one sample. All of them draw from
// a single PCG stream seeded by (Seed, sample), so samples are independent
// and each one is reproducible on its own.
func (s *Simulation) Samplers(sample int) (engine.Samplers, error) {
	rng := sampler.NewRand(s.Seed, sample)

	var out engine.Samplers
	var err error
	if out.StepLength, err = s.StepLength.Build(rng); err != nil {
		return out, fmt.Errorf("step_length: %w", err)
	}
	if out.TurnAngle, err = s.TurnAngle.Build(rng); err != nil {
		return out, fmt.Errorf("turn_angle: %w", err)
	}
	if out.BranchAngle, err = s.BranchAngle.Build(rng); err != nil {
		return out, fmt.Errorf("branch_angle: %w", err)
	}
	if out.InitialAngle, err = s.InitialAngle.Build(rng); err != nil {
		return out, fmt.Errorf("initial_angle: %w", err)
	}

	if w := s.Branching.Waiting; w != nil {
		if out.BranchWait, err = w.Build(rng); err != nil {
			return out, fmt.Errorf("branching.waiting: %w", err)
		}
	} else {
		out.BranchChance = sampler.Uniform(rng, 0, 1)
	}

	switch s.Soma.Layout {
	case SomaPolygon:
		out.InitialPosition = sampler.Polygon(s.Roots, s.Soma.Scale)
	case SomaBox:
		out.InitialPosition = sampler.UniformBox(rng, s.Soma.Scale)
	default:
		out.InitialPosition = sampler.ConstantPoint(particle.Point{})
	}

	field, err := s.Guidance.Field.Build()
	if err != nil {
		return out, fmt.Errorf("guidance.field: %w", err)
	}
	if field != nil {
		out.GuidanceAngle = field
		out.GuidanceStrength = sampler.ConstantField(s.Guidance.Strength)
	}
	return out, nil
}
