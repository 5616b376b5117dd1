package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/sampler"
)

// ErrInvalidConfig marks configuration errors. They are fatal and surface
// before any sweep runs.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the scalar parameters of one simulation.
type Config struct {
	// Steps is the global iteration budget.
	Steps int
	// Radius is the annihilation radius. Zero disables collision testing.
	Radius float64
	// Roots is the number of soma walkers seeded before the first sweep.
	Roots int
	// Lookback and Epsilon parameterize the exclusion mask.
	Lookback int
	Epsilon  float64
	// BranchProbability switches branching to a per-step coin flip. It is
	// mutually exclusive with Samplers.BranchWait.
	BranchProbability *float64
	// GuidanceCoupling scales the guidance restoring term.
	GuidanceCoupling float64
	// RadialHeadings points every root away from the origin instead of
	// sampling InitialAngle.
	RadialHeadings bool
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Steps:            constants.DefaultSteps,
		Radius:           constants.DefaultRadius,
		Roots:            constants.DefaultRoots,
		Lookback:         constants.DefaultLookback,
		Epsilon:          constants.DefaultSelfEpsilon,
		GuidanceCoupling: constants.DefaultGuidanceCoupling,
	}
}

// Samplers are the random and positional inputs of a simulation. Each
// sample of a run needs its own set, drawing from its own stream.
type Samplers struct {
	StepLength  sampler.Sampler
	TurnAngle   sampler.Sampler
	BranchAngle sampler.Sampler

	// Exactly one of BranchWait and Config.BranchProbability is set.
	// BranchChance supplies the uniform draws for the probability mode.
	BranchWait   sampler.Sampler
	BranchChance sampler.Sampler

	// InitialPosition defaults to the origin, InitialAngle to 0.
	InitialPosition sampler.PointSampler
	InitialAngle    sampler.Sampler

	// GuidanceAngle and GuidanceStrength are set together or not at all.
	GuidanceAngle    sampler.Field
	GuidanceStrength sampler.Field
}

// Validate checks the scalar parameters.
func (c Config) Validate() error {
	switch {
	case c.Steps <= 0:
		return fmt.Errorf("%w: step budget must be positive, got %d", ErrInvalidConfig, c.Steps)
	case math.IsNaN(c.Radius) || c.Radius < 0:
		return fmt.Errorf("%w: radius must be non-negative, got %g", ErrInvalidConfig, c.Radius)
	case c.Roots < 1:
		return fmt.Errorf("%w: at least one root is required, got %d", ErrInvalidConfig, c.Roots)
	case c.Lookback < 0:
		return fmt.Errorf("%w: lookback must be non-negative, got %d", ErrInvalidConfig, c.Lookback)
	case math.IsNaN(c.Epsilon) || c.Epsilon < 0:
		return fmt.Errorf("%w: epsilon must be non-negative, got %g", ErrInvalidConfig, c.Epsilon)
	}
	if p := c.BranchProbability; p != nil && (math.IsNaN(*p) || *p < 0 || *p > 1) {
		return fmt.Errorf("%w: branch probability must be in [0, 1], got %g", ErrInvalidConfig, *p)
	}
	return nil
}

// validate checks the samplers against the branching mode chosen in c.
func (s Samplers) validate(c Config) error {
	switch {
	case s.StepLength == nil:
		return fmt.Errorf("%w: step length sampler is required", ErrInvalidConfig)
	case s.TurnAngle == nil:
		return fmt.Errorf("%w: turn angle sampler is required", ErrInvalidConfig)
	case s.BranchAngle == nil:
		return fmt.Errorf("%w: branch angle sampler is required", ErrInvalidConfig)
	case s.BranchWait != nil && c.BranchProbability != nil:
		return fmt.Errorf("%w: branch waiting time and branch probability are mutually exclusive", ErrInvalidConfig)
	case s.BranchWait == nil && c.BranchProbability == nil:
		return fmt.Errorf("%w: one of branch waiting time or branch probability is required", ErrInvalidConfig)
	case c.BranchProbability != nil && s.BranchChance == nil:
		return fmt.Errorf("%w: branch probability needs a branch chance sampler", ErrInvalidConfig)
	case (s.GuidanceAngle == nil) != (s.GuidanceStrength == nil):
		return fmt.Errorf("%w: guidance angle and strength must be set together", ErrInvalidConfig)
	}
	return nil
}

// Deadline converts a sampled waiting time into a whole number of local
// iterations, rounding up. Non-positive waits branch immediately and +Inf
// never branches.
func Deadline(wait float64) int {
	switch {
	case math.IsNaN(wait) || wait <= 0:
		return 0
	case wait >= float64(lineage.NoDeadline):
		return lineage.NoDeadline
	}
	return int(math.Ceil(wait))
}
