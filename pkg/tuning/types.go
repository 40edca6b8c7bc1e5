// Package tuning holds the value types shared by the auto-tuning core:
// Configuration, Evidence, PhaseNumber and the small closed enumerations
// a Configuration is built from. Nothing in this package is stateful.
package tuning

import "fmt"

// Container is the particle-container family a configuration targets.
type Container string

const (
	ContainerDirectSum           Container = "DirectSum"
	ContainerLinkedCells         Container = "LinkedCells"
	ContainerVerletLists         Container = "VerletLists"
	ContainerVerletClusterLists  Container = "VerletClusterLists"
	ContainerVerletListsCells    Container = "VerletListsCells"
)

// Traversal is a pairwise-interaction traversal algorithm.
type Traversal string

const (
	TraversalDirectSumTraversal Traversal = "DirectSumTraversal"
	TraversalC01                Traversal = "c01"
	TraversalC04                Traversal = "c04"
	TraversalC08                Traversal = "c08"
	TraversalC18                Traversal = "c18"
	TraversalSliced             Traversal = "sliced"
	TraversalVerletLists        Traversal = "VerletListsTraversal"
	TraversalVerletClusterCells Traversal = "VerletClusterCellsTraversal"
)

// DataLayout is the per-particle data layout a traversal executes over.
type DataLayout string

const (
	DataLayoutAoS DataLayout = "AoS"
	DataLayoutSoA DataLayout = "SoA"
)

// Newton3 selects whether a traversal exploits force-pair symmetry.
type Newton3 string

const (
	Newton3Enabled  Newton3 = "enabled"
	Newton3Disabled Newton3 = "disabled"
)

// rank orders a closed enumeration deterministically for lexicographic
// comparison; values not present sort last.
func rank(order []string, v string) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return len(order)
}

var containerOrder = []string{
	string(ContainerDirectSum),
	string(ContainerLinkedCells),
	string(ContainerVerletLists),
	string(ContainerVerletClusterLists),
	string(ContainerVerletListsCells),
}

var traversalOrder = []string{
	string(TraversalDirectSumTraversal),
	string(TraversalC01),
	string(TraversalC04),
	string(TraversalC08),
	string(TraversalC18),
	string(TraversalSliced),
	string(TraversalVerletLists),
	string(TraversalVerletClusterCells),
}

var dataLayoutOrder = []string{string(DataLayoutAoS), string(DataLayoutSoA)}

var newton3Order = []string{string(Newton3Enabled), string(Newton3Disabled)}

// Configuration is the 5-tuple (container, cellSizeFactor, traversal,
// dataLayout, newton3) the Controller yields to the outer simulation.
// Configurations are value-equal, hashable (usable as a map key as-is)
// and totally orderable by Compare.
type Configuration struct {
	Container      Container
	CellSizeFactor float64
	Traversal      Traversal
	DataLayout     DataLayout
	Newton3        Newton3
}

// String renders a configuration for logs and diagnostics.
func (c Configuration) String() string {
	return fmt.Sprintf("%s/csf=%g/%s/%s/%s", c.Container, c.CellSizeFactor, c.Traversal, c.DataLayout, c.Newton3)
}

// Compare returns <0, 0, >0 as c sorts before, equal to, or after o under
// lexicographic tuple order: container, cellSizeFactor, traversal,
// dataLayout, newton3.
func (c Configuration) Compare(o Configuration) int {
	if d := rank(containerOrder, string(c.Container)) - rank(containerOrder, string(o.Container)); d != 0 {
		return d
	}
	if c.CellSizeFactor < o.CellSizeFactor {
		return -1
	}
	if c.CellSizeFactor > o.CellSizeFactor {
		return 1
	}
	if d := rank(traversalOrder, string(c.Traversal)) - rank(traversalOrder, string(o.Traversal)); d != 0 {
		return d
	}
	if d := rank(dataLayoutOrder, string(c.DataLayout)) - rank(dataLayoutOrder, string(o.DataLayout)); d != 0 {
		return d
	}
	return rank(newton3Order, string(c.Newton3)) - rank(newton3Order, string(o.Newton3))
}

// Less reports whether c sorts strictly before o.
func (c Configuration) Less(o Configuration) bool {
	return c.Compare(o) < 0
}

// PhaseNumber is a non-negative, monotonically advancing tuning-phase
// counter. Phase 0 is the phase before any tuning has occurred; phase 1
// is the first phase that collects evidence.
type PhaseNumber uint64

// String renders the phase number for logs and error messages.
func (p PhaseNumber) String() string {
	return fmt.Sprintf("%d", uint64(p))
}

// String renders the newton3 option for logs and error messages.
func (n Newton3) String() string {
	return string(n)
}

// Evidence is a single measurement: a configuration's cost in a phase,
// in nanoseconds (or any monotone time unit the caller is consistent
// about).
type Evidence struct {
	Phase PhaseNumber
	Cost  int64
}
