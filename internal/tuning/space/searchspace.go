// Package space builds and owns the auto-tuning SearchSpace: the
// ordered, once-built, only-ever-shrinking set of configurations the
// Controller draws from.
package space

import (
	"sort"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// SearchSpace is an ordered set of Configurations. It is populated once
// at construction by Build and thereafter only shrunk, never grown, by
// RemoveIf (the sole mutation path, used for newton3-option
// invalidation).
type SearchSpace struct {
	configs []t.Configuration
}

// New copies configs and sorts the copy by Configuration order; it does
// not remove duplicates, so configs must not contain any. Build is the
// normal entry point; this is exposed for tests that want to construct
// a space directly from literal configurations.
func New(configs []t.Configuration) *SearchSpace {
	cp := make([]t.Configuration, len(configs))
	copy(cp, configs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Less(cp[j]) })
	return &SearchSpace{configs: cp}
}

// Len returns the number of configurations currently in the space.
func (s *SearchSpace) Len() int { return len(s.configs) }

// At returns the configuration at ordered index i.
func (s *SearchSpace) At(i int) t.Configuration { return s.configs[i] }

// All returns a copy of the ordered configuration slice.
func (s *SearchSpace) All() []t.Configuration {
	cp := make([]t.Configuration, len(s.configs))
	copy(cp, s.configs)
	return cp
}

// IndexOf returns the ordered index of config, or -1 if absent.
func (s *SearchSpace) IndexOf(config t.Configuration) int {
	for i, c := range s.configs {
		if c == config {
			return i
		}
	}
	return -1
}

// Contains reports whether config is currently in the space.
func (s *SearchSpace) Contains(config t.Configuration) bool {
	return s.IndexOf(config) >= 0
}

// RemoveIf deletes every configuration for which predicate returns
// true, preserving relative order of survivors. It does not expose a
// raw iterator across the mutation: callers that were tracking a
// cursor by configuration value should re-resolve their position with
// IndexOf/NextFrom afterward, which is exactly what the Controller
// does in RemoveN3Option.
func (s *SearchSpace) RemoveIf(predicate func(t.Configuration) bool) {
	kept := s.configs[:0:0]
	for _, c := range s.configs {
		if !predicate(c) {
			kept = append(kept, c)
		}
	}
	s.configs = kept
}

// NextFrom returns the ordered index of the first configuration at or
// after index `from` that satisfies `in`. It returns -1 if none does,
// which the Controller treats as the "end" sentinel.
func (s *SearchSpace) NextFrom(from int, in func(t.Configuration) bool) int {
	for i := from; i < len(s.configs); i++ {
		if in(s.configs[i]) {
			return i
		}
	}
	return -1
}
