// Package engine runs branching annihilating random walks. An Engine owns
// one sample: a lineage store, the flat position history used for collision
// tests, and the samplers that drive it.
package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/jhsa24/randomwalk/internal/exclusion"
	"github.com/jhsa24/randomwalk/internal/lineage"
	"github.com/jhsa24/randomwalk/internal/logging"
	"github.com/jhsa24/randomwalk/internal/metrics"
	"github.com/jhsa24/randomwalk/internal/particle"
	"github.com/jhsa24/randomwalk/internal/sampler"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger. Sweeps are logged at debug and
// walker decisions at trace.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEvents sets the lifecycle event log.
func WithEvents(el *logging.EventLogger) Option {
	return func(e *Engine) { e.events = el }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithSample tags logs and events with a sample index.
func WithSample(i int) Option {
	return func(e *Engine) { e.sample = i }
}

// Engine is the step scheduler for one sample. It is not safe for
// concurrent use.
type Engine struct {
	cfg      Config
	samplers Samplers
	policy   exclusion.Policy

	store     *lineage.Store
	history   *exclusion.History
	iteration int
	branching []lineage.ID

	sample   int
	logger   *slog.Logger
	events   *logging.EventLogger
	recorder *metrics.Recorder
}

// New validates cfg and s and seeds the root walkers.
func New(cfg Config, s Samplers, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.validate(cfg); err != nil {
		return nil, err
	}
	if s.InitialPosition == nil {
		s.InitialPosition = sampler.ConstantPoint(particle.Point{})
	}
	if s.InitialAngle == nil {
		s.InitialAngle = sampler.Constant(0)
	}

	e := &Engine{
		cfg:      cfg,
		samplers: s,
		policy:   exclusion.Policy{Lookback: cfg.Lookback, Epsilon: cfg.Epsilon},
		store:    lineage.NewStore(),
		history:  exclusion.NewHistory(cfg.Steps * cfg.Roots),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for range cfg.Roots {
		pos := s.InitialPosition()
		heading := s.InitialAngle()
		if cfg.RadialHeadings {
			heading = sampler.RadialAngle(pos)
		}
		id := e.store.AddRoot(particle.New(pos, heading), e.nextDeadline())
		e.history.Append(id, 0, pos)
		e.spawned(id)
	}
	return e, nil
}

// Store returns the lineage store. It is complete once Done reports true.
func (e *Engine) Store() *lineage.Store { return e.store }

// History returns the flat position history used for collision tests.
func (e *Engine) History() *exclusion.History { return e.history }

// Iteration returns the number of sweeps performed so far.
func (e *Engine) Iteration() int { return e.iteration }

// Done reports whether the step budget is exhausted.
func (e *Engine) Done() bool { return e.iteration >= e.cfg.Steps }

// Run sweeps until the step budget is exhausted or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for !e.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.step(ctx)
	}
	return nil
}

// Step performs one global iteration. Calling it after the budget is
// exhausted is a no-op.
func (e *Engine) Step() {
	if e.Done() {
		return
	}
	e.step(context.Background())
}

func (e *Engine) step(ctx context.Context) {
	// Children created during this sweep must not act in it.
	n := e.store.Len()
	e.branching = e.branching[:0]
	moved, annihilated := 0, 0

	for i := range n {
		id := lineage.ID(i)
		w := e.store.Walker(id)
		if !w.Alive {
			continue
		}

		if e.cfg.Radius > 0 && e.policy.Collides(e.history, e.store, id, e.cfg.Radius) {
			e.store.Kill(id)
			annihilated++
			e.trace(ctx, "walker annihilated", id, w.Iteration)
			e.event("annihilate", id, w.Position)
			continue
		}

		if e.branchDue(w) {
			e.store.Kill(id)
			e.branching = append(e.branching, id)
			e.trace(ctx, "walker branching", id, w.Iteration)
			continue
		}

		e.advance(id)
		moved++
	}

	for _, id := range e.branching {
		e.branch(id)
	}

	e.iteration++
	e.recorder.Sweep()
	e.recorder.Walker(metrics.EventAnnihilated, annihilated)
	e.recorder.Walker(metrics.EventBranched, len(e.branching))
	e.logger.Debug("sweep done",
		"sample", e.sample,
		"iteration", e.iteration,
		"moved", moved,
		"annihilated", annihilated,
		"branched", len(e.branching),
		"walkers", e.store.Len())
}

func (e *Engine) branchDue(w *lineage.Walker) bool {
	if w.Iteration >= w.Deadline {
		return true
	}
	if p := e.cfg.BranchProbability; p != nil {
		return e.samplers.BranchChance() < *p
	}
	return false
}

// advance turns and moves a surviving walker and makes its new position
// visible to walkers evaluated later in the same sweep.
func (e *Engine) advance(id lineage.ID) {
	w := e.store.Walker(id)

	turn := e.samplers.TurnAngle()
	if e.samplers.GuidanceAngle != nil {
		x, y := w.Position.X, w.Position.Y
		strength := e.samplers.GuidanceStrength(x, y)
		turn -= e.cfg.GuidanceCoupling * strength * math.Sin(w.Heading-e.samplers.GuidanceAngle(x, y))
	}
	w.Rotate(turn)
	w.Move(e.samplers.StepLength())
	w.Iteration++

	e.store.Record(id)
	e.history.Append(id, w.Iteration, w.Position)
}

func (e *Engine) branch(parent lineage.ID) {
	leftAngle := math.Abs(e.samplers.BranchAngle())
	rightAngle := math.Abs(e.samplers.BranchAngle())
	leftDeadline := e.nextDeadline()
	rightDeadline := e.nextDeadline()

	left, right := e.store.Branch(parent, leftAngle, rightAngle, leftDeadline, rightDeadline)
	e.event("branch", parent, e.store.Walker(parent).Position)
	e.spawned(left)
	e.spawned(right)
}

func (e *Engine) nextDeadline() int {
	if e.samplers.BranchWait == nil {
		return lineage.NoDeadline
	}
	return Deadline(e.samplers.BranchWait())
}

func (e *Engine) trace(ctx context.Context, msg string, id lineage.ID, iter int) {
	if !e.logger.Enabled(ctx, logging.LevelTrace) {
		return
	}
	e.logger.Log(ctx, logging.LevelTrace, msg, "sample", e.sample, "walker", int(id), "iteration", iter)
}

func (e *Engine) spawned(id lineage.ID) {
	e.recorder.Walker(metrics.EventSpawned, 1)
	e.event("spawn", id, e.store.Walker(id).Position)
}

func (e *Engine) event(kind string, id lineage.ID, pos particle.Point) {
	if e.events == nil {
		return
	}
	ev := map[string]any{
		"event":     kind,
		"sample":    e.sample,
		"walker":    int(id),
		"iteration": e.iteration,
	}
	if e.events.Detailed() {
		ev["x"] = pos.X
		ev["y"] = pos.Y
	}
	e.events.Log(ev)
}
