package predict

import (
	"github.com/rawblock/autotune-core/internal/tuning/evidence"
	"github.com/rawblock/autotune-core/internal/tuning/tuneerr"
	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// Params bundles the two tuning-parameter knobs from spec §4.3/§6.
type Params struct {
	// RelativeOptimumRange is R: admission threshold for predicted
	// near-optimal candidates. Default tuning.DefaultRelativeOptimumRange.
	RelativeOptimumRange float64
	// MaxPhasesWithoutTest is S: staleness threshold forcing a re-probe.
	// Default tuning.DefaultMaxPhasesWithoutTest.
	MaxPhasesWithoutTest uint64
}

// Result is the per-phase output of DeriveActiveSet: the active subset
// of configs to measure this phase, and the projected cost of every
// configuration for which a projection could be computed.
type Result struct {
	Active     map[t.Configuration]bool
	Prediction map[t.Configuration]float64
}

// DeriveActiveSet implements spec §4.3: cold phases (0 or 1) and a
// single-element search space always measure everything; otherwise a
// configuration is admitted to the active set when it has fewer than
// two historical evidences (rule 3 — unknown is not pruned), or its
// last measurement is at least S phases stale (rule 2 — forces
// re-probing of stale candidates), or its projected cost is within
// factor R of the minimum projected cost (rule 1 — narrows focus to
// near-optimal candidates).
func DeriveActiveSet(configs []t.Configuration, store *evidence.Store, predictor Predictor, phase t.PhaseNumber, params Params) (Result, error) {
	if len(configs) == 1 {
		return Result{Active: map[t.Configuration]bool{configs[0]: true}, Prediction: map[t.Configuration]float64{}}, nil
	}
	if phase <= 1 {
		active := make(map[t.Configuration]bool, len(configs))
		for _, c := range configs {
			active[c] = true
		}
		return Result{Active: active, Prediction: map[t.Configuration]float64{}}, nil
	}

	predictions := make(map[t.Configuration]float64)
	lastPhase := make(map[t.Configuration]t.PhaseNumber)
	fewHistory := make(map[t.Configuration]bool)

	minProjected := 0.0
	haveMin := false

	for _, c := range configs {
		history := store.HistoryOf(c)
		if len(history) > 0 {
			lastPhase[c] = history[len(history)-1].Phase
		}
		cost, ok := predictor.Predict(history, phase)
		if !ok {
			fewHistory[c] = true
			continue
		}
		predictions[c] = cost
		if !haveMin || cost < minProjected {
			minProjected = cost
			haveMin = true
		}
	}

	active := make(map[t.Configuration]bool)
	for _, c := range configs {
		if fewHistory[c] {
			active[c] = true
			continue
		}
		if lp, ok := lastPhase[c]; ok {
			if uint64(phase)-uint64(lp) >= params.MaxPhasesWithoutTest {
				active[c] = true
				continue
			}
		}
		if haveMin && ratio(predictions[c], minProjected) <= params.RelativeOptimumRange {
			active[c] = true
		}
	}

	if len(active) == 0 {
		return Result{}, tuneerr.NoCandidates(phase)
	}
	return Result{Active: active, Prediction: predictions}, nil
}
