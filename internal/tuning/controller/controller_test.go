package controller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/autotune-core/internal/tuning/tuneerr"
	t "github.com/rawblock/autotune-core/pkg/tuning"
)

func trivialOptions() t.Options {
	return t.Options{
		Containers:      []t.Container{t.ContainerLinkedCells},
		CellSizeFactors: []float64{1.0},
		Traversals:      []t.Traversal{t.TraversalC08},
		DataLayouts:     []t.DataLayout{t.DataLayoutAoS},
		Newton3Options:  []t.Newton3{t.Newton3Enabled},
	}
}

func threeConfigOptions() t.Options {
	return t.Options{
		Containers:      []t.Container{t.ContainerLinkedCells},
		CellSizeFactors: []float64{1.0, 1.5, 2.0},
		Traversals:      []t.Traversal{t.TraversalC08},
		DataLayouts:     []t.DataLayout{t.DataLayoutAoS},
		Newton3Options:  []t.Newton3{t.Newton3Enabled},
	}
}

// A single-configuration search space has no alternatives to cycle
// through: its sole configuration measures once, Tune finalizes the
// phase immediately, and the same configuration remains current.
func TestController_SingleElementSpace(t2 *testing.T) {
	c, err := New(Config{Options: trivialOptions()})
	if err != nil {
		t2.Fatal(err)
	}
	if !c.SearchSpaceIsTrivial() {
		t2.Fatal("expected trivial search space")
	}
	cfg, err := c.CurrentConfiguration()
	if err != nil {
		t2.Fatal(err)
	}
	if err := c.AddEvidence(1000); err != nil {
		t2.Fatal(err)
	}
	more, err := c.Tune()
	if err != nil {
		t2.Fatal(err)
	}
	if more {
		t2.Fatal("expected tune() to return false for trivial space after its sole measurement")
	}
	if c.Phase() != 2 {
		t2.Fatalf("expected phase to advance to 2, got %d", c.Phase())
	}
	cfg2, err := c.CurrentConfiguration()
	if err != nil {
		t2.Fatal(err)
	}
	if cfg2 != cfg {
		t2.Fatalf("expected same sole configuration to remain current, got %v vs %v", cfg, cfg2)
	}
}

// Phase 1 has no prior evidence to predict from, so every configuration
// is admitted to the active set and must be measured: over 3
// configurations, Tune returns true twice (advancing A->B, B->C) and
// false once (finalizing the phase after C), covering all 3.
func TestController_ColdPhaseMeasuresAll(t2 *testing.T) {
	c, err := New(Config{Options: threeConfigOptions()})
	if err != nil {
		t2.Fatal(err)
	}
	seen := map[t.Configuration]bool{}
	trueCount := 0
	for {
		cfg, err := c.CurrentConfiguration()
		if err != nil {
			t2.Fatal(err)
		}
		seen[cfg] = true
		if err := c.AddEvidence(100); err != nil {
			t2.Fatal(err)
		}
		more, err := c.Tune()
		if err != nil {
			t2.Fatal(err)
		}
		if !more {
			break
		}
		trueCount++
	}
	if len(seen) != 3 {
		t2.Fatalf("expected all 3 configurations measured, got %d: %v", len(seen), seen)
	}
	if trueCount != 2 {
		t2.Fatalf("expected 2 true returns before the final false, got %d", trueCount)
	}
}

// selectionRecorder captures every PhaseEnded selection so a test can
// inspect what finalizePhase chose.
type selectionRecorder struct {
	NoopObserver
	selected []t.Configuration
}

func (r *selectionRecorder) PhaseEnded(_ t.PhaseNumber, selected t.Configuration, _ int64) {
	r.selected = append(r.selected, selected)
}

// When every configuration in a phase measures the same cost, finalize
// must break the tie deterministically rather than favor whichever one
// happened to be measured last.
func TestController_TieBreakPicksLexicographicallySmallest(t2 *testing.T) {
	rec := &selectionRecorder{}
	c, err := New(Config{Options: threeConfigOptions(), Observer: rec})
	if err != nil {
		t2.Fatal(err)
	}
	var smallest t.Configuration
	first := true
	for {
		cfg, err := c.CurrentConfiguration()
		if err != nil {
			t2.Fatal(err)
		}
		if first || cfg.Less(smallest) {
			smallest = cfg
			first = false
		}
		if err := c.AddEvidence(100); err != nil { // all equal cost
			t2.Fatal(err)
		}
		more, err := c.Tune()
		if err != nil {
			t2.Fatal(err)
		}
		if !more {
			break
		}
	}
	if len(rec.selected) != 1 {
		t2.Fatalf("expected exactly one phase selection, got %d", len(rec.selected))
	}
	selected := rec.selected[0]
	if selected != smallest {
		t2.Fatalf("expected tie-break to select lexicographically smallest %v, got %v", smallest, selected)
	}
}

// Invalidation mid-phase must advance the cursor past the deleted
// configuration and let the phase continue, rather than stall or panic
// on the now-absent current configuration.
func TestController_InvalidationMidPhaseAdvancesCursor(t2 *testing.T) {
	// Two cell-size factors x two newton3 options gives 4 configurations,
	// ordered (csf=1,enabled) (csf=1,disabled) (csf=2,enabled) (csf=2,disabled),
	// so invalidating the option the cursor sits on mid-phase (at index 1)
	// has a genuine surviving successor to advance to (index 2 pre-removal,
	// index 1 post-removal).
	opts := t.Options{
		Containers:      []t.Container{t.ContainerLinkedCells},
		CellSizeFactors: []float64{1.0, 2.0},
		Traversals:      []t.Traversal{t.TraversalC08},
		DataLayouts:     []t.DataLayout{t.DataLayoutAoS},
		Newton3Options:  []t.Newton3{t.Newton3Enabled, t.Newton3Disabled},
	}
	c, err := New(Config{Options: opts})
	if err != nil {
		t2.Fatal(err)
	}
	if _, err := c.CurrentConfiguration(); err != nil {
		t2.Fatal(err)
	}
	if err := c.AddEvidence(100); err != nil {
		t2.Fatal(err)
	}
	more, err := c.Tune()
	if err != nil {
		t2.Fatal(err)
	}
	if !more {
		t2.Fatal("expected a second configuration to measure before invalidation")
	}
	second, err := c.CurrentConfiguration()
	if err != nil {
		t2.Fatal(err)
	}

	if err := c.RemoveN3Option(second.Newton3); err != nil {
		t2.Fatal(err)
	}
	if c.SearchSpaceIsEmpty() {
		t2.Fatal("did not expect search space to empty")
	}
	cur, err := c.CurrentConfiguration()
	if err != nil {
		t2.Fatal(err)
	}
	if cur.Newton3 == second.Newton3 {
		t2.Fatalf("expected cursor to have moved off the invalidated option, got %v", cur)
	}
}

func TestController_EmptyAfterInvalidation(t2 *testing.T) {
	c, err := New(Config{Options: trivialOptions()})
	if err != nil {
		t2.Fatal(err)
	}
	err = c.RemoveN3Option(t.Newton3Enabled)
	if !errors.Is(err, tuneerr.ErrEmptyAfterInvalidation) {
		t2.Fatalf("expected ErrEmptyAfterInvalidation, got %v", err)
	}
	if !c.SearchSpaceIsEmpty() {
		t2.Fatal("expected search space to be empty")
	}
}

func TestController_NoMeasurementsIsFatal(t2 *testing.T) {
	c, err := New(Config{Options: threeConfigOptions()})
	if err != nil {
		t2.Fatal(err)
	}
	// Advance the cursor through every active configuration without ever
	// calling AddEvidence.
	for {
		more, err := c.Tune()
		if err == nil && !more {
			t2.Fatal("expected NoMeasurements before phase finalizes")
		}
		if err != nil {
			if !errors.Is(err, tuneerr.ErrNoMeasurements) {
				t2.Fatalf("expected ErrNoMeasurements, got %v", err)
			}
			return
		}
		if !more {
			return
		}
	}
}

func TestController_ResetIdempotent(t2 *testing.T) {
	c, err := New(Config{Options: threeConfigOptions()})
	require.NoError(t2, err)

	require.NoError(t2, c.AddEvidence(100))
	require.NoError(t2, c.Reset())
	phaseAfterFirst := c.Phase()

	require.NoError(t2, c.Reset())
	require.Equal(t2, phaseAfterFirst, c.Phase(), "reset;reset should equal a single reset")
}

func TestController_PhaseNumberMonotoneAcrossRun(t2 *testing.T) {
	c, err := New(Config{Options: threeConfigOptions()})
	require.NoError(t2, err)

	lastPhase := c.Phase()
	for i := 0; i < 20; i++ {
		require.NoError(t2, c.AddEvidence(int64(100+i)))
		_, err := c.Tune()
		require.NoError(t2, err)
		require.GreaterOrEqual(t2, c.Phase(), lastPhase, "phase must never go backwards")
		lastPhase = c.Phase()
	}
}
