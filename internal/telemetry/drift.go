// Package telemetry tracks how well the Predictor's projections match
// the outer simulation's actual measurements: it compares predicted
// versus measured cost per sample and reports an aggregate divergence
// rate via GenerateDriftReport.
package telemetry

import (
	"math"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// Sample is one (predicted, actual) pair recorded for a configuration
// at a phase.
type Sample struct {
	Config    t.Configuration
	Phase     t.PhaseNumber
	Predicted float64
	Actual    int64
}

// DriftTracker accumulates Samples and computes summary divergence
// statistics, mirroring ShadowRunner's persisted comparison plus its
// GenerateDriftReport aggregate query, but in memory.
type DriftTracker struct {
	samples []Sample
}

// NewDriftTracker returns an empty tracker.
func NewDriftTracker() *DriftTracker {
	return &DriftTracker{}
}

// Record stores a predicted/actual comparison. Call it once per
// configuration measured, before Controller.Tune can begin the next
// phase, using
// Controller.PredictionFor to obtain the predicted value; skip
// recording when PredictionFor reports ok=false (no prediction was
// made for that configuration this phase, e.g. fewer-than-two-history).
func (d *DriftTracker) Record(s Sample) {
	d.samples = append(d.samples, s)
}

// Report summarizes the accumulated samples: the number of
// comparisons, the mean absolute relative error between prediction and
// actual, and the largest single divergence observed.
type Report struct {
	TotalSamples       int
	MeanAbsRelError    float64
	MaxAbsRelError     float64
	WorstConfiguration t.Configuration
	WorstPhase         t.PhaseNumber
}

// GenerateDriftReport computes a Report over every sample recorded so
// far, analogous to ShadowRunner.GenerateDriftReport's aggregate over
// persisted shadow_results.
func (d *DriftTracker) GenerateDriftReport() Report {
	if len(d.samples) == 0 {
		return Report{}
	}
	var sumAbsRel, maxAbsRel float64
	var worst Sample
	for _, s := range d.samples {
		rel := relError(s.Predicted, s.Actual)
		sumAbsRel += rel
		if rel > maxAbsRel {
			maxAbsRel = rel
			worst = s
		}
	}
	return Report{
		TotalSamples:       len(d.samples),
		MeanAbsRelError:    sumAbsRel / float64(len(d.samples)),
		MaxAbsRelError:      maxAbsRel,
		WorstConfiguration: worst.Config,
		WorstPhase:         worst.Phase,
	}
}

func relError(predicted float64, actual int64) float64 {
	if actual == 0 {
		if predicted == 0 {
			return 0
		}
		return math.Abs(predicted)
	}
	return math.Abs(predicted-float64(actual)) / math.Abs(float64(actual))
}
