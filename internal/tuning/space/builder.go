package space

import (
	"fmt"

	"github.com/rawblock/autotune-core/internal/tuning/tuneerr"
	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// Build constructs the initial SearchSpace from the five allowed option
// sets: for each allowed container, it intersects the requested
// traversals with CompatibleTraversals(container), then takes the
// Cartesian product of the result with cell-size factors, data layouts
// and newton3 options, and unions the result across containers.
//
// Build fails with tuneerr.ErrNoValidConfigurations when the resulting
// set is empty — most commonly because no requested traversal is
// compatible with any requested container.
func Build(opts t.Options) (*SearchSpace, error) {
	var configs []t.Configuration

	for _, container := range opts.Containers {
		compatible := CompatibleTraversals(container)
		for _, traversal := range opts.Traversals {
			if !contains(compatible, traversal) {
				continue
			}
			for _, csf := range opts.CellSizeFactors {
				for _, layout := range opts.DataLayouts {
					for _, n3 := range opts.Newton3Options {
						configs = append(configs, t.Configuration{
							Container:      container,
							CellSizeFactor: csf,
							Traversal:      traversal,
							DataLayout:     layout,
							Newton3:        n3,
						})
					}
				}
			}
		}
	}

	if len(configs) == 0 {
		return nil, tuneerr.NoValidConfigurations(fmt.Sprintf(
			"containers=%v traversals=%v cellSizeFactors=%v dataLayouts=%v newton3=%v",
			opts.Containers, opts.Traversals, opts.CellSizeFactors, opts.DataLayouts, opts.Newton3Options))
	}

	return New(configs), nil
}
