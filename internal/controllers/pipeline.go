package controllers

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/completion"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// RunSummary aggregates the outcome of one full pipeline run.
type RunSummary struct {
	Collection string `json:"collection"`
	Discovered int    `json:"discovered"`
	Processed  int    `json:"processed"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
}

// PipelineController runs discovery and then acquisition for one
// collection. The two phases are deliberately sequential: discovery is
// cheap and safe, acquisition is expensive and can be blocked, so all
// knowledge of what exists is persisted before downloads begin.
type PipelineController struct {
	discovery   *DiscoveryController
	acquisition *AcquisitionController
	logger      *logrus.Logger
}

// NewPipelineController creates a new pipeline controller.
func NewPipelineController(discovery *DiscoveryController, acquisition *AcquisitionController, logger *logrus.Logger) *PipelineController {
	return &PipelineController{
		discovery:   discovery,
		acquisition: acquisition,
		logger:      logger,
	}
}

// Run executes the full pipeline for one collection. A discovery failure
// is logged and the run proceeds to acquisition anyway: whatever the
// failed enumeration managed to persist is still worth downloading.
// Cancellation and ErrBlocked propagate.
func (c *PipelineController) Run(ctx context.Context, col ytdlp.Collection, filter *utils.ContentFilter, req completion.Request) (*RunSummary, error) {
	summary := &RunSummary{Collection: col.Key()}
	log := c.logger.WithField("collection", col.Key())

	log.Info("Phase 1: discovering videos")
	discovered, err := c.discovery.Discover(ctx, col, filter)
	summary.Discovered = discovered
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return summary, err
		}
		log.WithError(err).Error("Discovery failed, continuing with already persisted items")
	}

	if len(req.Languages) == 0 && !req.Media {
		log.Info("No artifacts requested, discovery-only run finished")
		return summary, nil
	}

	log.Info("Phase 2: acquiring missing artifacts")
	acquired, err := c.acquisition.AcquireAll(ctx, req)
	if acquired != nil {
		summary.Processed = acquired.Processed
		summary.Succeeded = acquired.Succeeded
		summary.Failed = acquired.Failed
	}
	if err != nil {
		return summary, err
	}

	log.WithFields(logrus.Fields{
		"discovered": summary.Discovered,
		"processed":  summary.Processed,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
	}).Info("Pipeline run finished")
	return summary, nil
}
