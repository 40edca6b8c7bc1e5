package config

import (
	"os"
	"testing"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

func TestLoad_NoPathUsesDefaults(t2 *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t2.Fatal(err)
	}
	if cfg.RelativeOptimumRange != t.DefaultRelativeOptimumRange {
		t2.Fatalf("expected default relative optimum range, got %v", cfg.RelativeOptimumRange)
	}
	if len(cfg.Containers) == 0 {
		t2.Fatal("expected default containers to be populated")
	}
}

func TestLoad_FileOverridesDefaults(t2 *testing.T) {
	f, err := os.CreateTemp(t2.TempDir(), "demo-*.yaml")
	if err != nil {
		t2.Fatal(err)
	}
	if _, err := f.WriteString("phases: 7\nrelativeOptimumRange: 1.5\n"); err != nil {
		t2.Fatal(err)
	}
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t2.Fatal(err)
	}
	if cfg.Phases != 7 {
		t2.Fatalf("expected phases=7 from file, got %d", cfg.Phases)
	}
	if cfg.RelativeOptimumRange != 1.5 {
		t2.Fatalf("expected relativeOptimumRange=1.5 from file, got %v", cfg.RelativeOptimumRange)
	}
}

func TestLoad_MissingFileErrors(t2 *testing.T) {
	if _, err := Load("/nonexistent/path/demo.yaml"); err == nil {
		t2.Fatal("expected error for missing config file")
	}
}

func TestDemo_ToOptionsConvertsStringsToTypedEnums(t2 *testing.T) {
	d := Demo{
		Containers:     []string{"LinkedCells"},
		Traversals:     []string{"c08"},
		DataLayouts:    []string{"SoA"},
		Newton3Options: []string{"enabled"},
	}
	opts := d.ToOptions()
	if len(opts.Containers) != 1 || opts.Containers[0] != t.ContainerLinkedCells {
		t2.Fatalf("expected LinkedCells container, got %v", opts.Containers)
	}
	if len(opts.Traversals) != 1 || opts.Traversals[0] != t.TraversalC08 {
		t2.Fatalf("expected c08 traversal, got %v", opts.Traversals)
	}
}

func TestGetEnvOrDefault_FallsBackWhenUnset(t2 *testing.T) {
	os.Unsetenv("AUTOTUNE_TEST_UNSET_VAR2")
	if v := GetEnvOrDefault("AUTOTUNE_TEST_UNSET_VAR2", "fallback"); v != "fallback" {
		t2.Fatalf("expected fallback value, got %q", v)
	}
}
