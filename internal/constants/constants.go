// Package constants provides named constants used throughout the randomwalk codebase.
// This centralizes tuned numbers so the engine, config and CLI agree on defaults.
package constants

import "math"

// Exclusion constants
const (
	// DefaultLookback is the number of steps along a path that still count as
	// "the same place" when testing for annihilation. It covers both a walker's
	// own tail and the neighbourhood of its birth branch point.
	DefaultLookback = 2

	// DefaultSelfEpsilon is the squared distance below which two points are
	// treated as identical and never collide.
	DefaultSelfEpsilon = 1e-9
)

// Guidance constants
const (
	// DefaultGuidanceCoupling scales the restoring term that pulls a walker's
	// heading towards the guidance field's preferred angle.
	DefaultGuidanceCoupling = 1.0
)

// Default run shape, used by `barw init` and when the config omits a value.
const (
	// DefaultSteps is the global iteration budget of one sample.
	DefaultSteps = 200

	// DefaultSamples is the number of independent runs in a collection.
	DefaultSamples = 1

	// DefaultRadius is the annihilation radius.
	DefaultRadius = 0.9

	// DefaultRoots is the number of soma walkers seeded per run.
	DefaultRoots = 1

	// DefaultSeed seeds the per-sample random streams.
	DefaultSeed = 1
)

// Default distributions, matching the classic BARW parameters: unit steps,
// uniform turning in ±π/5, exponential branch waiting time with mean 15, and
// branches diverging by π/3.
const (
	DefaultStepLength     = 1.0
	DefaultTurnAngleMax   = math.Pi / 5
	DefaultBranchRate     = 1.0 / 15
	DefaultBranchAngle    = math.Pi / 3
	DefaultSomaScale      = 5.0
	DefaultAngleHistogram = 36
)

// Archive rotation controls how many collection archives are retained.
const (
	// MaxArchiveRotation is the default maximum number of archive files kept
	// in the archive directory, across all collections.
	MaxArchiveRotation = 10
)

// MaxCollectionNameLen is the longest accepted collection name.
const MaxCollectionNameLen = 128
