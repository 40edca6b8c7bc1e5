// Package predict projects per-configuration costs for the upcoming
// phase and derives the active candidate set the Controller will
// actually measure.
package predict

import t "github.com/rawblock/autotune-core/pkg/tuning"

// Predictor is the single-method prediction strategy. LinearPredictor
// is the only mandated implementation; the interface exists so
// alternative prediction methods can be swapped in without touching the
// Controller or the active-set admission rules.
type Predictor interface {
	// Predict projects a configuration's cost at currentPhase from its
	// history. ok is false when the history is insufficient to predict
	// (fewer than two evidences), in which case the caller must treat
	// the configuration as unpredictable rather than as zero-cost.
	Predict(history []t.Evidence, currentPhase t.PhaseNumber) (cost float64, ok bool)
}
