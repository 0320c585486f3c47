// Package main provides the dnamatch CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orneryd/dnamatch/pkg/config"
	"github.com/orneryd/dnamatch/pkg/logger"
	"github.com/orneryd/dnamatch/pkg/logger/console"
	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/metrics"
)

var (
	version = "0.9.2"
	commit  = "dev"
)

// cfg is loaded once per invocation in the root PersistentPreRunE.
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("dnamatch failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dnamatch",
		Short: "dnamatch - find who explains several DNA matches at once",
		Long: `dnamatch takes a family tree and several DNA testers, each with the
shared centimorgans (cM) they report with one unknown person, and lists
the people in the tree whose expected shared-DNA range fits every tester.

Example:
  dnamatch match tree.yaml 101,1500 201,1250 301,980 > matches.dot
  dot -Tsvg matches.dot > matches.svg`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json, logfmt")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory of the imported pedigree store")
	rootCmd.PersistentFlags().Bool("in-memory", false, "Keep the pedigree store in memory")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dnamatch v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newSnapshotsCmd())
	rootCmd.AddCommand(newRangesCmd())
	rootCmd.AddCommand(newClassifyCmd())
	return rootCmd
}

// setup layers config (defaults, file, env, flags) and starts logging.
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		loaded.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("data-dir") {
		loaded.Storage.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("in-memory") {
		loaded.Storage.InMemory, _ = flags.GetBool("in-memory")
	}
	if err := applyMatchFlags(cmd, loaded); err != nil {
		return err
	}

	loaded.Normalize()
	if err := loaded.Validate(); err != nil {
		if errors.Is(err, match.ErrInputValidation) && loaded.Metrics.TextfilePath != "" {
			rec := metrics.New()
			rec.ObserveRun(nil, err)
			_ = rec.WriteTextfile(loaded.Metrics.TextfilePath)
		}
		return err
	}

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level:  loaded.Logging.Level,
		Format: loaded.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	}))
	logger.Debug("configuration loaded", "config", loaded.String())

	cfg = loaded
	return nil
}
