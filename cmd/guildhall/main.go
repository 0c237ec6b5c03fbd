// Package main is the guildhall command line: a personal achievement journal
// with a Council that reviews verifications, proposals, promotions, links,
// partnerships and physical artifacts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heron-guild/guildhall/config"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// Global flags
var (
	jsonOutput bool
	logLevel   string
)

// The wired application, built before every subcommand.
var current *app

var rootCmd = &cobra.Command{
	Use:   "guildhall",
	Short: "Keep an achievement journal and petition the Council",
	Long: `guildhall keeps one member's achievement journal.

Badges are downloaded from the official library or authored by hand, their
requirements are completed with evidence, and mastered badges can be put
before the Council for verification, physical artifacts and more.

Examples:
  guildhall badge download b1
  guildhall badge evidence b1 r1 --url https://example.org/photo.jpg --note "planted"
  guildhall council submit verification b1
  guildhall council queue
  guildhall profile tier --target Wayfarer`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(badgeCmd)
	rootCmd.AddCommand(councilCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if serr := shutdown(); err == nil {
		err = serr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}

	log := setupLogger(cfg)
	log.Debug("starting guildhall",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("storage", cfg.Storage.Location),
	)

	// migrate talks to the database directly and needs no store.
	if cmd == migrateCmd {
		current = &app{cfg: cfg, log: log}
		return nil
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	current = a
	return nil
}

// shutdown flushes the journal and releases connections. It runs after every
// command, including failed ones, and is a no-op when setup never ran.
func shutdown() error {
	if current == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), current.cfg.App.ShutdownTimeout)
	defer cancel()

	err := current.close(ctx)
	_ = current.log.Sync()
	current = nil
	return err
}

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Output = os.Stderr
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Console = cfg.Observability.LogFormat != "json"
	opts.AddCaller = cfg.App.Debug
	return logger.New(opts).With(logger.String("app", cfg.App.Name))
}
