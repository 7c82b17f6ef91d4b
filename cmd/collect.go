package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloudsight/skysnap/internal/api"
	"github.com/cloudsight/skysnap/internal/archive"
	"github.com/cloudsight/skysnap/internal/clock/system"
	collyfetcher "github.com/cloudsight/skysnap/internal/fetcher/colly"
	"github.com/cloudsight/skysnap/internal/id/uuid"
	"github.com/cloudsight/skysnap/internal/scheduler"
	"github.com/cloudsight/skysnap/internal/snapshot"
)

// newCollectCmd creates the 'collect' subcommand: one full scheduled pass
// over all configured sources.
func newCollectCmd() *cobra.Command {
	var archiveEach bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one scheduled collection pass over all sources",
		Long: `Expands every configured source into one entry per trigger time,
sorts them by the next UTC instant each time resolves to, then sleeps until
each is due, downloads the image, crops it, and saves it. Results are moved
into a dated archive directory when the pass finishes (or is interrupted).`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, archiveEach)
		},
	}

	cmd.Flags().BoolVar(&archiveEach, "archive-each", false,
		"archive after every successful fetch instead of only at run end")
	return cmd
}

func runCollect(cmd *cobra.Command, archiveEach bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	defs, err := cfg.Definitions()
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	runID, err := uuid.NewGenerator().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger.Info("Run starting",
		zap.String("run_id", runID),
		zap.Int("sources", len(defs)))

	if cfg.Metrics.Addr != "" {
		api.NewServer(logger).Start(cfg.Metrics.Addr)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.HTTPTimeout(),
		InsecureTLS:  cfg.HTTP.InsecureTLS,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})

	pipeline, err := snapshot.NewPipeline(fetcher, cfg.Output.Dir, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	clk := system.New()
	archiver := archive.New(cfg.Output.Dir, cfg.Archive.Dir, clk, appInstance.Mirror(), logger)

	sched := scheduler.New(
		clk,
		pipeline,
		archiver,
		appInstance.Publisher(),
		scheduler.Config{
			ArchiveEachSuccess: archiveEach || cfg.Archive.EachSuccess,
			EventTopic:         cfg.Publisher.TopicName,
		},
		runID,
		logger,
	)

	if err := sched.Run(cmd.Context(), defs); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run schedule: %w", err)
	}

	logger.Info("Collect command finished", zap.String("run_id", runID))
	return nil
}
