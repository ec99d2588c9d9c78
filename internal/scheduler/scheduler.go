// Package scheduler runs periodic pipeline passes in serve mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/controllers"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// Scheduler manages scheduled pipeline runs over the configured sources.
type Scheduler struct {
	cron   *cron.Cron
	batch  *controllers.BatchController
	cfg    *config.Config
	logger *logrus.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler.
func NewScheduler(batch *controllers.BatchController, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		batch:  batch,
		cfg:    cfg,
		logger: logger,
	}
}

// Start starts the scheduler and kicks off an initial run immediately.
// Cancelling ctx interrupts the in-flight pass; the stages checkpoint on
// cancellation, so progress is preserved across restarts.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.WithField("schedule", s.cfg.CronSchedule).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, func() {
		s.runPipeline(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add pipeline job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPipeline(ctx)
	}()

	return nil
}

// Stop stops the scheduler and waits for any in-flight pass to finish
// checkpointing. Call after cancelling the context passed to Start.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// runPipeline executes one batch pass over the configured sources.
func (s *Scheduler) runPipeline(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("Running scheduled pipeline pass")

	sources, err := utils.LoadSources(s.cfg.SourcesFile)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load sources")
		return
	}
	if len(sources) == 0 {
		s.logger.Warn("No sources configured, nothing to do")
		return
	}

	if err := s.batch.RunAll(ctx, sources); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("Pipeline pass interrupted, progress saved")
			return
		}
		if errors.Is(err, controllers.ErrBlocked) {
			s.logger.WithError(err).Warn("Pipeline pass blocked, will retry on next schedule")
			return
		}
		s.logger.WithError(err).Error("Pipeline pass failed")
		return
	}
	s.logger.Info("Pipeline pass completed successfully")
}
