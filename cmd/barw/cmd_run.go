package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/engine"
	"github.com/jhsa24/randomwalk/internal/logging"
	"github.com/jhsa24/randomwalk/internal/metrics"
	"github.com/jhsa24/randomwalk/internal/pathutil"
	"github.com/jhsa24/randomwalk/internal/store"
	"github.com/jhsa24/randomwalk/internal/timeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured simulation and save it as a collection",
		Long: `Run the configured number of independent samples and save their lineages
under --name. Flags override the corresponding simulation settings.

Examples:
  barw run --name baseline
  barw run --name wide --samples 20 --radius 1.2 --workers 4
  barw run --name quick --steps 50 --arrow quick.arrow --metrics-file quick.prom`,
		RunE: runSimulation,
	}

	cmd.Flags().String("name", "", "Collection name (required)")
	cmd.Flags().Int("samples", 0, "Number of independent samples")
	cmd.Flags().Int("steps", 0, "Global step budget per sample")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().Int("workers", 0, "Samples run concurrently (0 = one per CPU)")
	cmd.Flags().Float64("radius", 0, "Annihilation radius (0 disables annihilation)")
	cmd.Flags().String("arrow", "", "Also write the flattened timeline as an Arrow IPC file")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this file")
	cmd.Flags().Bool("replace", false, "Replace an existing collection with the same name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	if err := pathutil.ValidateName(name); err != nil {
		return err
	}
	arrowPath, _ := flags.GetString("arrow")
	metricsPath, _ := flags.GetString("metrics-file")
	replace, _ := flags.GetBool("replace")

	sim := &env.cfg.Simulation
	if flags.Changed("samples") {
		sim.Samples, _ = flags.GetInt("samples")
	}
	if flags.Changed("steps") {
		sim.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		sim.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("workers") {
		sim.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("radius") {
		sim.Radius, _ = flags.GetFloat64("radius")
	}
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	repo, err := env.openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if !replace {
		_, err := repo.Load(ctx, name)
		switch {
		case err == nil:
			return fmt.Errorf("collection %q already exists (use --replace to overwrite)", name)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	dataDir, err := env.dataDir()
	if err != nil {
		return err
	}
	events := logging.NewEventLogger(dataDir, env.cfg.LogLevel())
	defer events.Close()
	recorder := metrics.NewRecorder()

	env.logger.Info("running simulation",
		"name", name,
		"samples", sim.Samples,
		"steps", sim.Steps,
		"workers", sim.WorkerLimit(),
		"seed", sim.Seed)

	start := time.Now()
	stores, err := engine.RunSamples(ctx, sim.EngineConfig(), sim.Samples, sim.WorkerLimit(), sim.Samplers,
		engine.WithLogger(env.logger),
		engine.WithEvents(events),
		engine.WithRecorder(recorder))
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	elapsed := time.Since(start)

	snapshot, err := env.cfg.ToYAML()
	if err != nil {
		return err
	}
	c := &store.Collection{Name: name, Config: string(snapshot), Samples: stores}
	if err := repo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	env.logger.Info("collection saved", "name", name, "walkers", c.Walkers(), "duration", elapsed)

	if arrowPath != "" {
		tl, err := timeline.Build(stores)
		if err != nil {
			return err
		}
		if err := writeArrowFile(arrowPath, tl); err != nil {
			return err
		}
	}
	if metricsPath != "" {
		if err := recorder.WriteTextfile(metricsPath); err != nil {
			return err
		}
	}

	alive := 0
	for _, s := range stores {
		alive += s.Alive()
	}

	if env.jsonOut {
		return writeJSON(cmd, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"samples":     len(stores),
			"walkers":     c.Walkers(),
			"alive":       alive,
			"duration_ms": elapsed.Milliseconds(),
			"arrow":       arrowPath,
			"metrics":     metricsPath,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved collection %q: %d samples, %d walkers (%d alive) in %s\n",
		name, len(stores), c.Walkers(), alive, elapsed.Round(time.Millisecond))
	if arrowPath != "" {
		fmt.Fprintf(out, "  Timeline: %s\n", arrowPath)
	}
	if metricsPath != "" {
		fmt.Fprintf(out, "  Metrics:  %s\n", metricsPath)
	}
	return nil
}

func writeArrowFile(path string, tl *timeline.Timeline) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := tl.WriteArrow(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
