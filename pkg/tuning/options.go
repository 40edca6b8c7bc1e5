package tuning

import "github.com/google/uuid"

// Options is the allowed-option input to the Search-Space Builder: the
// four enumerations plus the cell-size factor set, and the two tuning
// parameters R and S. Construction rejects option sets that yield no
// configuration at all; individual values (such as a non-positive
// cell-size factor or a negative R) are not checked, and a zero R or S
// is replaced by its default.
type Options struct {
	Containers      []Container
	CellSizeFactors []float64
	Traversals      []Traversal
	DataLayouts     []DataLayout
	Newton3Options  []Newton3

	// RelativeOptimumRange (R) is the admission threshold: a configuration
	// whose projected cost is within this multiple of the best projected
	// cost stays in the active set. Default 1.2.
	RelativeOptimumRange float64
	// MaxPhasesWithoutTest (S) forces a re-probe of any configuration not
	// measured in this many phases. Default 5.
	MaxPhasesWithoutTest uint64
}

// DefaultRelativeOptimumRange and DefaultMaxPhasesWithoutTest are the
// spec-mandated defaults for R and S.
const (
	DefaultRelativeOptimumRange = 1.2
	DefaultMaxPhasesWithoutTest = 5
)

// Session tags diagnostic events and persisted rows with a stable
// identity for one tuning run. It carries no tuning semantics: removing
// it changes nothing about how the Controller selects configurations.
type Session struct {
	ID      string
	Options Options
}

// NewSession mints a Session with a fresh random identifier.
func NewSession(opts Options) Session {
	return Session{ID: uuid.New().String(), Options: opts}
}
