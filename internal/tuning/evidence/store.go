// Package evidence records per-configuration cost measurements, indexed
// both by the configuration they belong to and by the tuning phase in
// which each sample was taken.
package evidence

import (
	"fmt"

	"github.com/rawblock/autotune-core/internal/tuning/tuneerr"
	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// Membership is queried by Store to reject evidence for configurations
// outside the search space, without the evidence package importing the
// space package back.
type Membership interface {
	Contains(t.Configuration) bool
}

// Store holds two related views of the same facts: LatestByConfig (the
// current phase's most recent measurement per configuration, cleared at
// phase end) and History (the append-only, per-configuration,
// phase-ordered sequence of all measurements ever recorded).
type Store struct {
	latest  map[t.Configuration]int64
	history map[t.Configuration][]t.Evidence
}

// NewStore returns an empty evidence store.
func NewStore() *Store {
	return &Store{
		latest:  make(map[t.Configuration]int64),
		history: make(map[t.Configuration][]t.Evidence),
	}
}

// Record appends a measurement to History (or replaces the cost already
// recorded for the same phase) and updates LatestByConfig.
// config must be a member of the search space (checked via members) and
// cost must be non-negative; both are contract violations the spec
// treats as fatal.
func (s *Store) Record(members Membership, config t.Configuration, phase t.PhaseNumber, cost int64) error {
	if !members.Contains(config) {
		return tuneerr.UnknownConfiguration(config)
	}
	if cost < 0 {
		return fmt.Errorf("negative cost %d for configuration %s", cost, config)
	}
	h := s.history[config]
	if n := len(h); n > 0 && h[n-1].Phase == phase {
		// A re-measurement in the same phase (e.g. after Controller.Reset)
		// replaces that phase's cost, keeping one evidence per phase.
		h[n-1].Cost = cost
	} else {
		s.history[config] = append(h, t.Evidence{Phase: phase, Cost: cost})
	}
	s.latest[config] = cost
	return nil
}

// LatestCost returns the current phase's measurement for config, or
// ("absent") via the ok=false return.
func (s *Store) LatestCost(config t.Configuration) (int64, bool) {
	c, ok := s.latest[config]
	return c, ok
}

// LatestByConfig returns a copy of the current phase's measurements.
func (s *Store) LatestByConfig() map[t.Configuration]int64 {
	cp := make(map[t.Configuration]int64, len(s.latest))
	for k, v := range s.latest {
		cp[k] = v
	}
	return cp
}

// HistoryOf returns the full ordered sequence of (phase, cost) for
// config across all phases; History contains each phase at most once
// (Record replaces the cost of a repeated phase) and is sorted by phase
// as long as Record is called with non-decreasing phases, which the
// Controller does.
func (s *Store) HistoryOf(config t.Configuration) []t.Evidence {
	h := s.history[config]
	cp := make([]t.Evidence, len(h))
	copy(cp, h)
	return cp
}

// ClearCurrentPhase removes all LatestByConfig entries; History is
// preserved. Called at the start of every phase.
func (s *Store) ClearCurrentPhase() {
	s.latest = make(map[t.Configuration]int64)
}

// ClearAll removes History as well as LatestByConfig, for a full
// teardown of the tuning session. The Controller's per-phase Reset does
// not call it and preserves History.
func (s *Store) ClearAll() {
	s.latest = make(map[t.Configuration]int64)
	s.history = make(map[t.Configuration][]t.Evidence)
}

// Snapshot returns an immutable copy of History for export (e.g. to
// internal/store for persistence). It is read-only: nothing the
// Controller does depends on values written back through it.
func (s *Store) Snapshot() map[t.Configuration][]t.Evidence {
	cp := make(map[t.Configuration][]t.Evidence, len(s.history))
	for k, v := range s.history {
		row := make([]t.Evidence, len(v))
		copy(row, v)
		cp[k] = row
	}
	return cp
}

// Forget removes all history and latest-phase entries for the given
// configurations. Used by the Controller when newton3-option
// invalidation permanently removes configurations from the search
// space, so stale history cannot resurface if the same tuple were ever
// rebuilt.
func (s *Store) Forget(configs []t.Configuration) {
	for _, c := range configs {
		delete(s.latest, c)
		delete(s.history, c)
	}
}
