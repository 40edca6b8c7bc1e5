package space

import (
	"errors"
	"testing"

	"github.com/rawblock/autotune-core/internal/tuning/tuneerr"
	t "github.com/rawblock/autotune-core/pkg/tuning"
)

func TestBuild_PrunesIncompatibleTraversals(t2 *testing.T) {
	opts := t.Options{
		Containers:      []t.Container{t.ContainerDirectSum, t.ContainerLinkedCells},
		CellSizeFactors: []float64{1.0},
		Traversals:      []t.Traversal{t.TraversalDirectSumTraversal, t.TraversalC08},
		DataLayouts:     []t.DataLayout{t.DataLayoutAoS},
		Newton3Options:  []t.Newton3{t.Newton3Enabled},
	}
	sp, err := Build(opts)
	if err != nil {
		t2.Fatalf("unexpected error: %v", err)
	}
	// DirectSum only supports DirectSumTraversal, LinkedCells only c08 here.
	if sp.Len() != 2 {
		t2.Fatalf("expected 2 configurations, got %d: %v", sp.Len(), sp.All())
	}
}

func TestBuild_EmptyIsFatal(t2 *testing.T) {
	opts := t.Options{
		Containers:      []t.Container{t.ContainerDirectSum},
		CellSizeFactors: []float64{1.0},
		Traversals:      []t.Traversal{t.TraversalC08}, // incompatible with DirectSum
		DataLayouts:     []t.DataLayout{t.DataLayoutAoS},
		Newton3Options:  []t.Newton3{t.Newton3Enabled},
	}
	_, err := Build(opts)
	if !errors.Is(err, tuneerr.ErrNoValidConfigurations) {
		t2.Fatalf("expected ErrNoValidConfigurations, got %v", err)
	}
}

func TestBuild_DeterministicOrder(t2 *testing.T) {
	opts := t.Options{
		Containers:      []t.Container{t.ContainerLinkedCells},
		CellSizeFactors: []float64{1.0, 0.5},
		Traversals:      []t.Traversal{t.TraversalC08, t.TraversalC01},
		DataLayouts:     []t.DataLayout{t.DataLayoutSoA, t.DataLayoutAoS},
		Newton3Options:  []t.Newton3{t.Newton3Enabled, t.Newton3Disabled},
	}
	a, err := Build(opts)
	if err != nil {
		t2.Fatal(err)
	}
	b, err := Build(opts)
	if err != nil {
		t2.Fatal(err)
	}
	if a.Len() != b.Len() {
		t2.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			t2.Fatalf("order differs at %d: %v vs %v", i, a.At(i), b.At(i))
		}
	}
	for i := 1; i < a.Len(); i++ {
		if !a.At(i - 1).Less(a.At(i)) {
			t2.Fatalf("not strictly increasing at %d: %v >= %v", i, a.At(i-1), a.At(i))
		}
	}
}
