// Package cmd provides the tariffscout command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tariffscout/internal/config"
	"tariffscout/internal/errors"
	"tariffscout/internal/logging"
)

var (
	refresh bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tariffscout",
	Short: "Find the cheapest region for every mobile tariff",
	Long: `tariffscout visits every regional storefront of a carrier, extracts the
mobile tariffs embedded in each page and writes one consolidated price table.
It then prints, for each tariff, the lowest price and the regions charging it.

Pages are cached per region; later runs reuse the cache unless --refresh is
given. Everything else is configured through environment variables or .env.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout())
	},
}

// Execute runs the CLI. Errors are printed to stderr before being returned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// ExitCode maps a run error to the process status: 1 when the run failed for
// a reason the user must fix (configuration, region list, output), 2 for
// anything else, such as bad flags or an interrupted run.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Fatal(err):
		return 1
	default:
		return 2
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "ignore cached region data and fetch every region again")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := cfg.Logging()
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return errors.Wrap(errors.TypeConfig, "build logger", err)
	}
	defer logger.Sync()
	logger.Debug("configuration loaded", zap.Stringer("config", cfg))

	app, err := build(ctx, cfg, logger, stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = app.engine.Run(ctx)
	app.writeMetrics()
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}
