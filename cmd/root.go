package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mj1618/winsync/internal/config"
	"github.com/mj1618/winsync/internal/logging"
	"github.com/mj1618/winsync/internal/output"
	"github.com/mj1618/winsync/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "winsync",
	Short: "Keep a shared roster of application windows in sync",
	Long: `winsync lets independently running windows of the same application discover
each other through a shared key-value store (a directory, an S3 bucket, or
process memory), agree on a roster of participants, and react when one appears,
disappears or moves on screen.`,
	SilenceUsage: true,
}

// activeConfig is the resolved configuration for the running command: the
// --config file (or defaults) with explicitly set flags applied on top.
var activeConfig = config.Default()

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so running participants unregister before exit.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	pf := rootCmd.PersistentFlags()
	pf.String("format", "yaml", "Output format: yaml, json")
	pf.Bool("pretty", false, "Pretty-print JSON output")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text, json")
	pf.String("config", "", "Config file (.yaml, .yml or .hcl)")
	pf.String("store", config.DefaultStore(), "Shared store: a directory, file://dir, s3://bucket/prefix, or memory (this process only)")
	pf.String("dir", "", "Shorthand for --store with a directory")
	pf.String("key", "windows", "Store key holding the roster")
	pf.Duration("poll-interval", 0, "Change polling interval for file and S3 stores (0 = backend default)")
	rootCmd.PersistentPreRunE = setup
}

// setup resolves configuration, output format and the logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	activeConfig = cfg

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	output.OutputFormat = format
	output.PrettyOutput, _ = cmd.Flags().GetBool("pretty")

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOutput(cmd))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(commandContext(cmd), logger))
	return nil
}

func logOutput(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if flags.Changed("dir") {
		cfg.Store, _ = flags.GetString("dir")
	}
	if flags.Changed("key") {
		cfg.Key, _ = flags.GetString("key")
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval, _ = flags.GetDuration("poll-interval")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if cmd == joinCmd {
		return applyJoinFlags(cmd, cfg)
	}
	return nil
}

// timeoutContext bounds ctx by seconds; zero or less means no bound.
func timeoutContext(ctx context.Context, seconds float64) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds*float64(time.Second)))
}
