// Command autotunesim drives the Tuning Controller against a synthetic
// workload for a fixed number of phases, optionally publishing a live
// diagnostic dashboard and persisting evidence history to Postgres.
//
// It reads its settings from the environment and an optional config
// file, brings up the optional dashboard/Postgres subsystems with
// warn-and-continue semantics (a subsystem failing to start logs a
// warning and the run continues without it), and then drives the core
// tuning loop to completion.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rawblock/autotune-core/internal/config"
	"github.com/rawblock/autotune-core/internal/dashboard"
	"github.com/rawblock/autotune-core/internal/store"
	"github.com/rawblock/autotune-core/internal/telemetry"
	"github.com/rawblock/autotune-core/internal/tuning/controller"
	"github.com/rawblock/autotune-core/internal/workload"
	t "github.com/rawblock/autotune-core/pkg/tuning"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "autotunesim",
		Short: "Run the auto-tuning state machine against a synthetic workload",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML demo config (defaults built in if omitted)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	session := t.NewSession(cfg.ToOptions())
	logger.Info("starting tuning session", zap.String("sessionId", session.ID))

	ctx := context.Background()

	var evStore *store.EvidenceStore
	if cfg.DatabaseURL != "" {
		evStore, err = store.Connect(ctx, cfg.DatabaseURL, session.ID)
		if err != nil {
			logger.Warn("failed to connect to postgres, continuing without persistence", zap.Error(err))
			evStore = nil
		} else {
			defer evStore.Close()
			if err := evStore.InitSchema(ctx); err != nil {
				logger.Warn("schema init failed", zap.Error(err))
			}
		}
	}

	var hub *dashboard.Hub
	if cfg.DashboardAddr != "" {
		hub = dashboard.NewHub()
		go hub.Run()
	}

	ctl, err := controller.New(controller.Config{
		Options: session.Options,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("initializing controller: %w", err)
	}

	var observers fanoutObserver
	if hub != nil {
		observers = append(observers, dashboard.NewObserver(hub))
	}
	if evStore != nil {
		observers = append(observers, store.NewPersistingObserver(ctx, evStore, ctl))
	}
	if len(observers) > 0 {
		ctl.SetObserver(observers)
	}

	if hub != nil {
		router := dashboard.SetupRouter(hub, ctl)
		go func() {
			if err := router.Run(cfg.DashboardAddr); err != nil {
				logger.Warn("dashboard server stopped", zap.Error(err))
			}
		}()
		logger.Info("dashboard listening", zap.String("addr", cfg.DashboardAddr))
	}

	sim := workload.NewSimulator(ctl.Configurations(), cfg.Seed)
	drift := telemetry.NewDriftTracker()

	for phase := 0; phase < cfg.Phases; phase++ {
		for {
			current, err := ctl.CurrentConfiguration()
			if err != nil {
				return fmt.Errorf("reading current configuration: %w", err)
			}
			cost := sim.Measure(current, ctl.Phase())
			if predicted, ok := ctl.PredictionFor(current); ok {
				drift.Record(telemetry.Sample{Config: current, Phase: ctl.Phase(), Predicted: predicted, Actual: cost})
			}
			if err := ctl.AddEvidence(cost); err != nil {
				return fmt.Errorf("recording evidence: %w", err)
			}
			more, err := ctl.Tune()
			if err != nil {
				return fmt.Errorf("advancing tuning state machine: %w", err)
			}
			if !more {
				break
			}
		}
	}

	report := drift.GenerateDriftReport()
	logger.Info("run complete",
		zap.Uint64("finalPhase", uint64(ctl.Phase())),
		zap.Int("predictionSamples", report.TotalSamples),
		zap.Float64("meanAbsRelError", report.MeanAbsRelError))

	return nil
}

// fanoutObserver broadcasts every Observer event to all wrapped
// observers, used to combine the dashboard and persistence sinks
// without either knowing the other exists.
type fanoutObserver []controller.Observer

func (f fanoutObserver) SearchSpaceBuilt(size int) {
	for _, o := range f {
		o.SearchSpaceBuilt(size)
	}
}

func (f fanoutObserver) PhaseStarted(phase t.PhaseNumber, activeSetSize int) {
	for _, o := range f {
		o.PhaseStarted(phase, activeSetSize)
	}
}

func (f fanoutObserver) PhaseEnded(phase t.PhaseNumber, selected t.Configuration, cost int64) {
	for _, o := range f {
		o.PhaseEnded(phase, selected, cost)
	}
}

func (f fanoutObserver) ConfigurationsInvalidated(option t.Newton3, removed int) {
	for _, o := range f {
		o.ConfigurationsInvalidated(option, removed)
	}
}

func (f fanoutObserver) Reset() {
	for _, o := range f {
		o.Reset()
	}
}
