// Package controller implements the Tuning Controller state machine:
// it yields the next configuration to measure, accepts measurements,
// detects phase completion, selects the phase optimum, advances the
// phase counter, and responds to newton3-option invalidation and
// explicit reset.
//
// The Controller is single-threaded cooperative: every exported method
// runs to completion synchronously, none of them are safe to call
// concurrently with one another, and callers must serialize access
// externally.
package controller

import (
	"fmt"

	"github.com/rawblock/autotune-core/internal/tuning/evidence"
	"github.com/rawblock/autotune-core/internal/tuning/predict"
	"github.com/rawblock/autotune-core/internal/tuning/space"
	"github.com/rawblock/autotune-core/internal/tuning/tuneerr"
	t "github.com/rawblock/autotune-core/pkg/tuning"
	"go.uber.org/zap"
)

// Observer receives Controller diagnostic events at debug severity:
// search-space size at construction, active-set size at each phase
// start, and the selected configuration at each phase end. It is the
// hook internal/dashboard and internal/store subscribe through; the
// Controller never blocks or changes behavior based on what an observer
// does with an event.
type Observer interface {
	SearchSpaceBuilt(size int)
	PhaseStarted(phase t.PhaseNumber, activeSetSize int)
	PhaseEnded(phase t.PhaseNumber, selected t.Configuration, cost int64)
	ConfigurationsInvalidated(option t.Newton3, removed int)
	Reset()
}

// NoopObserver implements Observer with no-ops; New and SetObserver use
// it when no observer is supplied.
type NoopObserver struct{}

func (NoopObserver) SearchSpaceBuilt(int)                          {}
func (NoopObserver) PhaseStarted(t.PhaseNumber, int)                {}
func (NoopObserver) PhaseEnded(t.PhaseNumber, t.Configuration, int64) {}
func (NoopObserver) ConfigurationsInvalidated(t.Newton3, int)       {}
func (NoopObserver) Reset()                                        {}

// Controller owns the SearchSpace, EvidenceStore, Prediction and
// CurrentCursor for the lifetime of a tuning session.
type Controller struct {
	space     *space.SearchSpace
	store     *evidence.Store
	predictor predict.Predictor
	params    predict.Params

	logger   *zap.Logger
	observer Observer

	phase      t.PhaseNumber
	active     map[t.Configuration]bool
	prediction map[t.Configuration]float64
	cursorIdx  int // index into space.All(); -1 means "end of phase"
}

// Config bundles Controller construction inputs.
type Config struct {
	Options   t.Options
	Predictor predict.Predictor // nil defaults to predict.LinearPredictor{}
	Logger    *zap.Logger       // nil defaults to zap.NewNop()
	Observer  Observer          // nil defaults to NoopObserver{}
}

// New builds the initial search space from opts and begins phase 1
// directly: CurrentConfiguration, AddEvidence and Tune are all valid to
// call against phase-1 state as soon as New returns.
func New(cfg Config) (*Controller, error) {
	built, err := space.Build(cfg.Options)
	if err != nil {
		return nil, err
	}

	predictor := cfg.Predictor
	if predictor == nil {
		predictor = predict.LinearPredictor{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NoopObserver{}
	}

	params := predict.Params{
		RelativeOptimumRange: cfg.Options.RelativeOptimumRange,
		MaxPhasesWithoutTest: cfg.Options.MaxPhasesWithoutTest,
	}
	if params.RelativeOptimumRange == 0 {
		params.RelativeOptimumRange = t.DefaultRelativeOptimumRange
	}
	if params.MaxPhasesWithoutTest == 0 {
		params.MaxPhasesWithoutTest = t.DefaultMaxPhasesWithoutTest
	}

	c := &Controller{
		space:     built,
		store:     evidence.NewStore(),
		predictor: predictor,
		params:    params,
		logger:    logger,
		observer:  observer,
		phase:     0,
	}
	logger.Debug("search space built", zap.Int("size", built.Len()))
	observer.SearchSpaceBuilt(built.Len())

	if err := c.beginPhase(1); err != nil {
		return nil, err
	}
	return c, nil
}

// beginPhase implements the PhaseBegin state: compute the active set
// via the Predictor, clear LatestByConfig and the prior Prediction, and
// position CurrentCursor at the first element of SearchSpace that is in
// the active set.
func (c *Controller) beginPhase(phase t.PhaseNumber) error {
	configs := c.space.All()
	result, err := predict.DeriveActiveSet(configs, c.store, c.predictor, phase, c.params)
	if err != nil {
		return err
	}
	c.phase = phase
	c.active = result.Active
	c.prediction = result.Prediction
	c.store.ClearCurrentPhase()
	c.cursorIdx = c.space.NextFrom(0, c.inActive)

	c.logger.Debug("phase started",
		zap.Uint64("phase", uint64(phase)),
		zap.Int("activeSetSize", len(c.active)))
	c.observer.PhaseStarted(phase, len(c.active))
	return nil
}

func (c *Controller) inActive(config t.Configuration) bool {
	return c.active[config]
}

// CurrentConfiguration returns the configuration the outer simulation
// should execute next. It is always valid while the search space is
// non-empty and the phase has not yet been exhausted.
func (c *Controller) CurrentConfiguration() (t.Configuration, error) {
	if c.space.Len() == 0 {
		return t.Configuration{}, tuneerr.NoValidConfigurations("search space is empty")
	}
	if c.cursorIdx < 0 {
		return t.Configuration{}, fmt.Errorf("no current configuration: phase %d exhausted, call Tune to finalize it", c.phase)
	}
	return c.space.At(c.cursorIdx), nil
}

// AddEvidence records cost for the current configuration at the
// current phase. The caller must invoke this exactly once per
// configuration between consecutive Tune() calls while Tune() returns
// true.
func (c *Controller) AddEvidence(cost int64) error {
	config, err := c.CurrentConfiguration()
	if err != nil {
		return err
	}
	return c.store.Record(c.space, config, c.phase, cost)
}

// Tune advances the Probing state: it moves CurrentCursor to the next
// active-set element in search-space order. When the cursor has already
// reached the end, Tune instead finalizes the phase (selects the phase
// optimum, advances the phase counter, begins the next phase) and
// returns false. It returns true while more configurations in the
// current phase's active set remain to be measured.
func (c *Controller) Tune() (bool, error) {
	if c.space.Len() == 0 {
		return false, tuneerr.NoValidConfigurations("search space is empty")
	}
	if c.cursorIdx >= 0 {
		next := c.space.NextFrom(c.cursorIdx+1, c.inActive)
		c.cursorIdx = next
		if c.cursorIdx >= 0 {
			return true, nil
		}
	}
	// Cursor at end: finalize the phase.
	if err := c.finalizePhase(); err != nil {
		return false, err
	}
	return false, nil
}

// finalizePhase implements PhaseEnd: choose argmin over LatestByConfig
// by cost, tie-broken by lexicographic Configuration order, then
// advance the phase and begin the next one.
func (c *Controller) finalizePhase() error {
	latest := c.store.LatestByConfig()
	if len(latest) == 0 {
		return tuneerr.NoMeasurements(c.phase)
	}

	var best t.Configuration
	var bestCost int64
	first := true
	for config, cost := range latest {
		if first || cost < bestCost || (cost == bestCost && config.Less(best)) {
			best, bestCost = config, cost
			first = false
		}
	}

	c.logger.Debug("phase ended",
		zap.Uint64("phase", uint64(c.phase)),
		zap.String("selected", best.String()),
		zap.Int64("cost", bestCost))
	c.observer.PhaseEnded(c.phase, best, bestCost)

	return c.beginPhase(c.phase + 1)
}

// RemoveN3Option deletes every search-space configuration using the
// given newton3 option (an external invalidation event, e.g. the force
// functor rejects Newton-3). If CurrentCursor pointed at a deleted
// configuration it advances to the next surviving active configuration.
// Fails fatally if the search space becomes empty.
func (c *Controller) RemoveN3Option(option t.Newton3) error {
	oldConfigs := c.space.All()
	haveCurrent := c.cursorIdx >= 0
	oldCursorIdx := c.cursorIdx
	var currentConfig t.Configuration
	if haveCurrent {
		currentConfig = oldConfigs[oldCursorIdx]
	}

	var removed []t.Configuration
	c.space.RemoveIf(func(cfg t.Configuration) bool {
		match := cfg.Newton3 == option
		if match {
			removed = append(removed, cfg)
		}
		return match
	})

	if c.space.Len() == 0 {
		c.observer.ConfigurationsInvalidated(option, len(removed))
		return tuneerr.EmptyAfterInvalidation(option)
	}

	c.store.Forget(removed)
	for _, cfg := range removed {
		delete(c.active, cfg)
		delete(c.prediction, cfg)
	}

	if haveCurrent {
		if currentConfig.Newton3 == option {
			// The cursor's configuration was deleted: advance to the next
			// surviving active configuration in the original order. The
			// survivors before the old cursor position keep their relative
			// order, so their count gives the new starting index to search
			// from.
			survivingBefore := 0
			for i := 0; i < oldCursorIdx; i++ {
				if oldConfigs[i].Newton3 != option {
					survivingBefore++
				}
			}
			c.cursorIdx = c.space.NextFrom(survivingBefore, c.inActive)
		} else {
			c.cursorIdx = c.space.IndexOf(currentConfig)
		}
	}

	c.logger.Debug("newton3 option invalidated",
		zap.String("option", option.String()),
		zap.Int("removed", len(removed)))
	c.observer.ConfigurationsInvalidated(option, len(removed))
	return nil
}

// Reset starts a fresh phase using accumulated history: it clears
// LatestByConfig and Prediction, recomputes the active set, and
// repositions CurrentCursor, exactly like PhaseEnd's transition, but
// without selecting or advancing past a just-completed phase. reset
// followed immediately by reset is equivalent to a single reset.
func (c *Controller) Reset() error {
	c.observer.Reset()
	return c.beginPhase(c.phase)
}

// SearchSpaceIsTrivial reports whether the search space has exactly one
// element, in which case the active set always equals the search space
// and Tune() returns false on the first call of every phase.
func (c *Controller) SearchSpaceIsTrivial() bool {
	return c.space.Len() == 1
}

// SearchSpaceIsEmpty reports whether the search space has been emptied
// by invalidation.
func (c *Controller) SearchSpaceIsEmpty() bool {
	return c.space.Len() == 0
}

// Phase returns the current phase number, for diagnostics and tests.
func (c *Controller) Phase() t.PhaseNumber { return c.phase }

// Configurations returns every configuration currently in the search
// space, in order. It exists so callers (e.g. the CLI driver's
// workload simulator) can build per-configuration state without
// duplicating the Search-Space Builder's pruning logic.
func (c *Controller) Configurations() []t.Configuration {
	return c.space.All()
}

// SetObserver replaces the Controller's Observer. It exists for drivers
// that need to build an Observer from the Controller itself (e.g.
// internal/store's PersistingObserver, which calls back into
// Controller.Snapshot) — a dependency New's constructor-argument
// Observer cannot express. It does not replay past events; the new
// observer only sees events from this point forward.
func (c *Controller) SetObserver(o Observer) {
	if o == nil {
		o = NoopObserver{}
	}
	c.observer = o
}

// Snapshot returns a copy of the full evidence history accumulated so
// far, for diagnostics and external persistence (internal/store). It
// has no effect on tuning behavior.
func (c *Controller) Snapshot() map[t.Configuration][]t.Evidence {
	return c.store.Snapshot()
}

// PredictionFor returns the Predictor's projected cost for config at
// the current phase, as computed by the most recent beginPhase. It
// exists for diagnostics (internal/telemetry's drift tracking) and has
// no effect on tuning behavior.
func (c *Controller) PredictionFor(config t.Configuration) (float64, bool) {
	v, ok := c.prediction[config]
	return v, ok
}
