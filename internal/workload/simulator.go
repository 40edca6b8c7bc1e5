// Package workload is a synthetic stand-in for the outer simulation a
// real auto-tuner would measure: it reports a plausible, phase-drifting
// cost for a configuration so the CLI driver has something to tune
// against without an actual particle simulation.
package workload

import (
	"math"
	"math/rand"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// Profile is the synthetic cost model for one configuration: a base
// cost, a per-phase linear drift, and multiplicative noise amplitude.
type Profile struct {
	BaseCostNanos int64
	DriftPerPhase float64
	NoiseFraction float64
}

// Simulator generates a cost for (configuration, phase) from a fixed
// per-configuration profile, standing in for the wall-clock cost the
// real outer simulation would measure by running one traversal.
type Simulator struct {
	profiles map[t.Configuration]Profile
	rng      *rand.Rand
}

// NewSimulator builds profiles for every configuration in configs,
// deterministic given seed so demo runs and tests are reproducible. The
// base cost is derived from the configuration's fields so different
// configurations have genuinely different, comparable costs: smaller
// cell-size factors and SoA layouts are modeled as cheaper, matching
// the qualitative behavior a real cell-based traversal would show.
func NewSimulator(configs []t.Configuration, seed int64) *Simulator {
	rng := rand.New(rand.NewSource(seed))
	profiles := make(map[t.Configuration]Profile, len(configs))
	for _, c := range configs {
		profiles[c] = defaultProfile(c, rng)
	}
	return &Simulator{profiles: profiles, rng: rng}
}

func defaultProfile(c t.Configuration, rng *rand.Rand) Profile {
	base := int64(5000) + int64(c.CellSizeFactor*2000)
	if c.DataLayout == t.DataLayoutSoA {
		base = base * 7 / 10
	}
	if c.Newton3 == t.Newton3Enabled {
		base = base * 9 / 10
	}
	// A handful of configurations are modeled as degrading over time, to
	// exercise the Predictor's staleness and narrowing rules.
	drift := 0.0
	if rng.Float64() < 0.2 {
		drift = float64(base) * 0.05
	}
	return Profile{
		BaseCostNanos: base,
		DriftPerPhase: drift,
		NoiseFraction: 0.05,
	}
}

// Measure returns a synthetic wall-clock cost in nanoseconds for config
// at phase. It never returns a negative value.
func (s *Simulator) Measure(config t.Configuration, phase t.PhaseNumber) int64 {
	p, ok := s.profiles[config]
	if !ok {
		p = defaultProfile(config, s.rng)
		s.profiles[config] = p
	}
	mean := float64(p.BaseCostNanos) + p.DriftPerPhase*float64(phase)
	noise := mean * p.NoiseFraction * (s.rng.Float64()*2 - 1)
	cost := mean + noise
	if cost < 0 {
		cost = 0
	}
	return int64(math.Round(cost))
}
