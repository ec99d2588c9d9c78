package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/controllers"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

var (
	scrapeAcquisition acquisitionFlags
	scrapeCollection  collectionFlags
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run the pipeline for one channel or playlist",
	Example: `  ytscraper scrape --channel veritasium --subtitles en
  ytscraper scrape --playlist PLxxxx --subtitles en,fa --audio
  ytscraper scrape --channel veritasium --video --min-duration 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape()
	},
}

func init() {
	scrapeCollection.register(scrapeCmd)
	scrapeAcquisition.register(scrapeCmd)
}

func runScrape() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	col, err := scrapeCollection.collection()
	if err != nil {
		return err
	}
	opts, err := scrapeAcquisition.runOptions()
	if err != nil {
		return err
	}

	layout, err := utils.NewLayout(cfg.DownloadRoot, col.Key(), opts.AudioOnly)
	if err != nil {
		return err
	}
	logger, err := utils.NewRunLogger(cfg.LogLevel, layout.LogPath())
	if err != nil {
		return err
	}
	logger.WithField("collection", col.Key()).Info("Starting scrape run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := controllers.NewBatchController(cfg, opts, logger)
	summary, err := batch.RunSource(ctx, col)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Interrupted runs are clean exits: all completed work is
			// persisted and the next run resumes where this one stopped.
			logger.Info("Interrupted, progress saved")
			return nil
		}
		if errors.Is(err, controllers.ErrBlocked) {
			logger.Warn("Run stopped early on block signals, progress saved")
			return err
		}
		return err
	}

	fmt.Printf("\nRun finished for %s\n", col.Key())
	fmt.Printf("  discovered: %d\n", summary.Discovered)
	fmt.Printf("  processed:  %d\n", summary.Processed)
	fmt.Printf("  succeeded:  %d\n", summary.Succeeded)
	fmt.Printf("  failed:     %d\n", summary.Failed)
	return nil
}
