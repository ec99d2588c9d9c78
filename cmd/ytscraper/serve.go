package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/api"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/controllers"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/scheduler"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

var serveAcquisition acquisitionFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a daemon: scheduled pipeline passes plus a status API",
	Long: `Runs pipeline passes over the SOURCES_FILE collections on the
CRON_SCHEDULE, and serves /health and /status on SERVER_PORT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveAcquisition.register(serveCmd)
}

func runServe() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.SourcesFile == "" {
		return fmt.Errorf("serve mode requires SOURCES_FILE")
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting ytscraper daemon")

	opts, err := serveAcquisition.runOptions()
	if err != nil {
		return err
	}

	// Cancelling this context interrupts the in-flight pipeline pass;
	// sched.Stop waits for it to checkpoint before the process exits.
	ctx, cancel := context.WithCancel(context.Background())

	// 3. Initialize controllers and scheduler
	batch := controllers.NewBatchController(cfg, opts, logger)
	sched := scheduler.NewScheduler(batch, cfg, logger)
	if err := sched.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()
	defer cancel()

	// 4. Initialize HTTP server
	server := api.NewServer(cfg, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 5. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("ytscraper daemon is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("ytscraper daemon stopped")
	return nil
}
