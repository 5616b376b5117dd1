package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhsa24/randomwalk/internal/config"
	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/logging"
	"github.com/jhsa24/randomwalk/internal/store"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "barw",
		Short: "Branching annihilating random walks",
		Long: `barw simulates branching annihilating random walks in the plane.

Walkers take random steps, split in two at random times, and die when they
come within the annihilation radius of any earlier trajectory. Runs are saved
as named collections that can be analyzed, exported, and archived.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: <root>/.barw/config.yaml, then ~/.barw/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newRunCmd(),
		newListCmd(),
		newShowCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newBackupCmd(),
		newImportCmd(),
		newDeleteCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// cmdEnv is what most commands need: the project root, the effective
// configuration and a logger writing to stderr.
type cmdEnv struct {
	root    string
	jsonOut bool
	cfg     *config.Config
	logger  *slog.Logger
}

func loadEnv(cmd *cobra.Command) (*cmdEnv, error) {
	root, _ := cmd.Flags().GetString("root")
	jsonOut, _ := cmd.Flags().GetBool("json")
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(root, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cmdEnv{
		root:    root,
		jsonOut: jsonOut,
		cfg:     cfg,
		logger:  logging.NewLogger(cfg.LogLevel(), cmd.ErrOrStderr()),
	}, nil
}

// dataDir resolves the configured storage scope.
func (e *cmdEnv) dataDir() (string, error) {
	scope, err := constants.ParseScope(e.cfg.Storage.Scope)
	if err != nil {
		return "", err
	}
	return store.DataDir(scope, e.root)
}

func (e *cmdEnv) archiveDir() (string, error) {
	dir, err := e.dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

func (e *cmdEnv) openRepository(ctx context.Context) (store.Repository, error) {
	dir, err := e.dataDir()
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDir(dir); err != nil {
		return nil, err
	}
	repo, err := store.Open(ctx, e.cfg.Storage.Backend, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return repo, nil
}

func (e *cmdEnv) loadCollection(ctx context.Context, name string) (*store.Collection, error) {
	repo, err := e.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repo.Load(ctx, name)
}

func writeJSON(cmd *cobra.Command, v any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
}

// signalContext returns a context cancelled on interrupt. The returned stop
// function releases the signal handler.
func signalContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
