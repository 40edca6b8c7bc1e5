// Package config loads the auto-tuning demo driver's configuration from
// a YAML file with environment-variable overrides, so the allowed
// option sets, R, S, and the optional dashboard/Postgres sinks are
// operator-tunable without a rebuild.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// Demo is the CLI driver's configuration: the allowed option sets, the
// two tuning parameters, and the optional sinks (dashboard, Postgres).
type Demo struct {
	Containers      []string  `yaml:"containers"`
	CellSizeFactors []float64 `yaml:"cellSizeFactors"`
	Traversals      []string  `yaml:"traversals"`
	DataLayouts     []string  `yaml:"dataLayouts"`
	Newton3Options  []string  `yaml:"newton3Options"`

	RelativeOptimumRange float64 `yaml:"relativeOptimumRange"`
	MaxPhasesWithoutTest uint64  `yaml:"maxPhasesWithoutTest"`

	Phases int `yaml:"phases"`
	Seed   int64 `yaml:"seed"`

	DashboardAddr string `yaml:"dashboardAddr"`
	DatabaseURL   string `yaml:"databaseUrl"`
}

// Default returns a reasonable demo configuration covering every
// enumeration value this repository defines, used when no config file
// is supplied.
func Default() Demo {
	return Demo{
		Containers:           []string{"DirectSum", "LinkedCells", "VerletLists", "VerletClusterLists", "VerletListsCells"},
		CellSizeFactors:      []float64{0.8, 1.0, 1.5, 2.0},
		Traversals:           []string{"DirectSumTraversal", "c01", "c04", "c08", "c18", "sliced", "VerletListsTraversal", "VerletClusterCellsTraversal"},
		DataLayouts:          []string{"AoS", "SoA"},
		Newton3Options:       []string{"enabled", "disabled"},
		RelativeOptimumRange: t.DefaultRelativeOptimumRange,
		MaxPhasesWithoutTest: t.DefaultMaxPhasesWithoutTest,
		Phases:               20,
		Seed:                 1,
	}
}

// Load reads a YAML config file at path, keeping the Default() value of
// any field the file does not set, then applies environment-variable overrides
// for the two optional sinks (DASHBOARD_ADDR, DATABASE_URL) and the
// phase count (TUNING_PHASES).
func Load(path string) (Demo, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Demo{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Demo{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.DashboardAddr = GetEnvOrDefault("DASHBOARD_ADDR", cfg.DashboardAddr)
	cfg.DatabaseURL = GetEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	if v := os.Getenv("TUNING_PHASES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Demo{}, fmt.Errorf("parsing TUNING_PHASES=%q: %w", v, err)
		}
		cfg.Phases = n
	}
	return cfg, nil
}

// ToOptions converts the string-based YAML config into the strongly
// typed tuning.Options the Search-Space Builder consumes.
func (d Demo) ToOptions() t.Options {
	opts := t.Options{
		CellSizeFactors:      d.CellSizeFactors,
		RelativeOptimumRange: d.RelativeOptimumRange,
		MaxPhasesWithoutTest: d.MaxPhasesWithoutTest,
	}
	for _, c := range d.Containers {
		opts.Containers = append(opts.Containers, t.Container(c))
	}
	for _, tr := range d.Traversals {
		opts.Traversals = append(opts.Traversals, t.Traversal(tr))
	}
	for _, l := range d.DataLayouts {
		opts.DataLayouts = append(opts.DataLayouts, t.DataLayout(l))
	}
	for _, n := range d.Newton3Options {
		opts.Newton3Options = append(opts.Newton3Options, t.Newton3(n))
	}
	return opts
}

// GetEnvOrDefault returns the environment variable's value, or def if
// unset. Used by Load for the optional sinks, which always have a safe
// fallback (the config-file or Default() value) and so never need to
// fail hard the way a missing required credential would.
func GetEnvOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
