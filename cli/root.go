// ABOUTME: Root cobra command, global flags and logger setup
// ABOUTME: Every subcommand builds its engine from the loaded config plus flag overrides
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/harperreed/leadbook/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries global flags and the per-invocation logger.
type app struct {
	verbose  bool
	dbDriver string
	dsn      string

	logger *zap.Logger
}

// NewRootCmd builds the leadbook command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "leadbook",
		Short: "Unified lead console across every intake source",
		Long: `leadbook merges leads from seven intake tables into one stream,
deduplicates them by email and lets you filter, score, export and
update them. Edits show up immediately and are reverted if the
datastore rejects them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&a.dbDriver, "db-driver", "", "Database driver: sqlite3 or pgx (default from config)")
	root.PersistentFlags().StringVar(&a.dsn, "dsn", "", "Database path or connection string (default from config)")

	root.AddCommand(
		a.newInitCmd(),
		a.newSeedCmd(),
		a.newListCmd(),
		a.newStatsCmd(),
		a.newExportCmd(),
		a.newUpdateCmd(),
		a.newBulkUpdateCmd(),
		a.newDeleteCmd(),
		a.newDashboardCmd(),
		a.newGraphCmd(),
		a.newMCPCmd(),
		a.newServeCmd(),
		a.newTUICmd(),
	)
	return root
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initLogger logs to stderr, except for the full-screen console which
// would be corrupted by it; that one logs to a file in the data directory.
func (a *app) initLogger(cmd *cobra.Command) error {
	cfg := zap.NewProductionConfig()
	if a.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if cmd.Name() == "tui" {
		if err := os.MkdirAll(config.Dir(), 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		logPath := filepath.Join(config.Dir(), "leadbook.log")
		cfg.OutputPaths = []string{logPath}
		cfg.ErrorOutputPaths = []string{logPath}
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// loadConfig applies the global flags over the stored config.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if a.dbDriver != "" {
		cfg.DBDriver = a.dbDriver
	}
	if a.dsn != "" {
		cfg.DSN = a.dsn
	}
	return cfg, nil
}

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.Path()); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", config.Path())
			}
			cfg := config.Default()
			if a.dbDriver != "" {
				cfg.DBDriver = a.dbDriver
			}
			if a.dsn != "" {
				cfg.DSN = a.dsn
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Config written: %s\n", config.Path())
			fmt.Fprintf(cmd.OutOrStdout(), "  Driver: %s\n", cfg.DBDriver)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
