// Package cmd defines and implements the CLI commands for the skysnap
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudsight/skysnap/internal/app"
	"github.com/cloudsight/skysnap/internal/clock/system"
	"github.com/cloudsight/skysnap/internal/config"
	"github.com/cloudsight/skysnap/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skysnap",
		Short: "Scheduled webcam snapshot collector",
		Long: `skysnap downloads images from fixed webcam URLs at scheduled UTC
times of day, crops each to a configured region, and archives the results
into dated backup directories.`,

		// Runs before the subcommand's RunE: load config, build the logger
		// and the service container, and inject them into the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Dir, system.New().Now())
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			appInstance, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Ensures services shut down gracefully after the command finishes.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./skysnap.{json,yaml})")

	cmd.AddCommand(newCollectCmd())
	cmd.AddCommand(newSourcesCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. An interrupt or termination signal cancels
// the command context; the collect loop treats that as a request for a
// graceful shutdown with a final archive pass.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
