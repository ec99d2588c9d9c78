package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/completion"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// RunOptions selects what a pipeline run acquires for each item.
type RunOptions struct {
	Languages []string
	Media     bool
	AudioOnly bool
	Filter    *utils.ContentFilter
}

// Request returns the completion request the options describe.
func (o RunOptions) Request() completion.Request {
	return completion.Request{Languages: o.Languages, Media: o.Media}
}

// BatchController runs the full pipeline for one or more collections.
// Each collection gets its own directory tree, ledger and yt-dlp client;
// collections never share state.
type BatchController struct {
	cfg    *config.Config
	opts   RunOptions
	logger *logrus.Logger
}

// NewBatchController creates a new batch controller.
func NewBatchController(cfg *config.Config, opts RunOptions, logger *logrus.Logger) *BatchController {
	return &BatchController{cfg: cfg, opts: opts, logger: logger}
}

// RunSource executes the pipeline for one collection and exports its CSV
// snapshot afterwards.
func (c *BatchController) RunSource(ctx context.Context, col ytdlp.Collection) (*RunSummary, error) {
	layout, err := utils.NewLayout(c.cfg.DownloadRoot, col.Key(), c.opts.AudioOnly)
	if err != nil {
		return nil, err
	}

	db, err := models.NewDatabase(layout.DatabasePath())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	classifier, err := newClassifier(c.cfg)
	if err != nil {
		return nil, err
	}
	client, err := ytdlp.NewClient(c.cfg, layout, classifier, c.logger)
	if err != nil {
		return nil, err
	}

	evaluator := completion.NewEvaluator(db, layout, c.cfg.MinMediaSizeBytes, c.logger)
	discovery := NewDiscoveryController(db, client, c.cfg, c.logger)
	acquisition := NewAcquisitionController(db, client, evaluator, c.cfg, c.opts.AudioOnly, c.logger)
	pipeline := NewPipelineController(discovery, acquisition, c.logger)

	summary, runErr := pipeline.Run(ctx, col, c.opts.Filter, c.opts.Request())

	// Export whatever we have, even after a failed run.
	if videos, err := db.AllVideos(); err != nil {
		c.logger.WithError(err).Error("Failed to list videos for CSV export")
	} else if len(videos) > 0 {
		if err := utils.ExportCSV(videos, layout.CSVPath()); err != nil {
			c.logger.WithError(err).Error("Failed to export CSV")
		} else {
			c.logger.WithField("path", layout.CSVPath()).Info("CSV exported")
		}
	}

	return summary, runErr
}

// RunAll processes sources in order with a cooldown between them. A
// blocked run aborts the remaining sources, because the block applies to
// us, not to the collection.
func (c *BatchController) RunAll(ctx context.Context, sources []utils.Source) error {
	c.logger.WithField("sources", len(sources)).Info("Starting batch run")

	var failed int
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		col := ytdlp.Collection{Identifier: src.Identifier, IsPlaylist: src.IsPlaylist}
		log := c.logger.WithFields(logrus.Fields{
			"source":   col.Key(),
			"position": fmt.Sprintf("%d/%d", i+1, len(sources)),
		})
		log.Info("Processing source")

		summary, err := c.RunSource(ctx, col)
		if err != nil {
			if errors.Is(err, ErrBlocked) || errors.Is(err, context.Canceled) {
				return err
			}
			log.WithError(err).Error("Source failed")
			failed++
		} else {
			log.WithFields(logrus.Fields{
				"discovered": summary.Discovered,
				"succeeded":  summary.Succeeded,
				"failed":     summary.Failed,
			}).Info("Source finished")
		}

		if i+1 < len(sources) {
			log.WithField("cooldown", c.cfg.BatchCooldown.String()).Info("Cooling down before next source")
			utils.Sleep(ctx, c.cfg.BatchCooldown)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	c.logger.Info("Batch run finished")
	return nil
}

// newClassifier builds the block-signal classifier, preferring the
// configured phrase file over the built-in list.
func newClassifier(cfg *config.Config) (*ytdlp.Classifier, error) {
	if cfg.BlockPhrasesFile == "" {
		return ytdlp.NewClassifier(), nil
	}
	return ytdlp.NewClassifierFromFile(cfg.BlockPhrasesFile)
}
