package space

import t "github.com/rawblock/autotune-core/pkg/tuning"

// compatibleTraversals is the capability oracle CompatibleTraversals
// from the spec: a pure function mapping container to the set of
// traversals physically applicable to it. It stands in for the real
// container/traversal compatibility rules of the surrounding
// simulation code, which are out of scope for the tuning core.
var compatibleTraversals = map[t.Container][]t.Traversal{
	t.ContainerDirectSum: {
		t.TraversalDirectSumTraversal,
	},
	t.ContainerLinkedCells: {
		t.TraversalC01, t.TraversalC04, t.TraversalC08, t.TraversalC18, t.TraversalSliced,
	},
	t.ContainerVerletLists: {
		t.TraversalVerletLists,
	},
	t.ContainerVerletClusterLists: {
		t.TraversalVerletClusterCells,
	},
	t.ContainerVerletListsCells: {
		t.TraversalC01, t.TraversalC08, t.TraversalVerletLists,
	},
}

// CompatibleTraversals returns the traversals physically applicable to
// container. Queried only during search-space construction.
func CompatibleTraversals(container t.Container) []t.Traversal {
	out := compatibleTraversals[container]
	cp := make([]t.Traversal, len(out))
	copy(cp, out)
	return cp
}

func contains(set []t.Traversal, v t.Traversal) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
