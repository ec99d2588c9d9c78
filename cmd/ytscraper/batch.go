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
	batchAcquisition acquisitionFlags
	batchSourcesFile string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for every source listed in a file",
	Long: `Reads a sources file (one channel username or playlist_<id> per line,
# comments allowed) and runs the full pipeline for each source in order,
with a cooldown between sources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch()
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchSourcesFile, "sources", "f", "", "sources file (defaults to SOURCES_FILE)")
	batchAcquisition.register(batchCmd)
}

func runBatch() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	sourcesFile := batchSourcesFile
	if sourcesFile == "" {
		sourcesFile = cfg.SourcesFile
	}
	if sourcesFile == "" {
		return fmt.Errorf("no sources file: pass --sources or set SOURCES_FILE")
	}

	sources, err := utils.LoadSources(sourcesFile)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("sources file %s lists no sources", sourcesFile)
	}

	opts, err := batchAcquisition.runOptions()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := controllers.NewBatchController(cfg, opts, logger)
	if err := batch.RunAll(ctx, sources); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Interrupted, progress saved")
			return nil
		}
		return err
	}
	return nil
}
