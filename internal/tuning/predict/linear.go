package predict

import t "github.com/rawblock/autotune-core/pkg/tuning"

// LinearPredictor projects cost by linear extrapolation from the two
// most recent evidences: given (p1, t1) the second-most-recent phase
// and (p2, t2) the most recent, it projects
//
//	t_hat = t2 + (t2-t1)/(p2-p1) * (currentPhase - p2)
//
// clamped at zero. It is the default and only prediction method
// mandated by the spec.
type LinearPredictor struct{}

// Predict implements Predictor.
func (LinearPredictor) Predict(history []t.Evidence, currentPhase t.PhaseNumber) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	p1, p2 := history[len(history)-2], history[len(history)-1]
	dPhase := float64(p2.Phase) - float64(p1.Phase)
	if dPhase == 0 {
		// History is sorted strictly increasing by phase (store invariant);
		// this only happens if that invariant is violated upstream.
		return clampNonNegative(float64(p2.Cost)), true
	}
	slope := (float64(p2.Cost) - float64(p1.Cost)) / dPhase
	projected := float64(p2.Cost) + slope*(float64(currentPhase)-float64(p2.Phase))
	return clampNonNegative(projected), true
}
