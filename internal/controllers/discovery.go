// Package controllers wires the ledger, the completion evaluator and the
// yt-dlp collaborators into the discovery and acquisition stages, and the
// pipeline driver that runs them in sequence.
package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// Enumerator lists a collection's items newest-first.
type Enumerator interface {
	Enumerate(ctx context.Context, col ytdlp.Collection) (ytdlp.Enumeration, error)
}

// DiscoveryController walks a collection's enumeration, persists new
// items as metadata-only ledger records, and maintains the per-collection
// resume cursor.
type DiscoveryController struct {
	db     *models.Database
	enum   Enumerator
	cfg    *config.Config
	logger *logrus.Logger

	// seen caches ids already confirmed present in the ledger, so a long
	// enumeration does not re-query the same ids on every run.
	seen *gocache.Cache
}

// NewDiscoveryController creates a new discovery controller.
func NewDiscoveryController(db *models.Database, enum Enumerator, cfg *config.Config, logger *logrus.Logger) *DiscoveryController {
	return &DiscoveryController{
		db:     db,
		enum:   enum,
		cfg:    cfg,
		logger: logger,
		seen:   gocache.New(time.Hour, 10*time.Minute),
	}
}

// Discover enumerates the collection and saves every new item that passes
// the filter. It resumes from the saved cursor: items are skipped until
// the cursor id is seen, then recording starts strictly after it. The
// cursor is checkpointed periodically and once more at the end, and is
// checkpointed before any mid-stream error is returned, so an interrupted
// run never repeats persisted work.
func (c *DiscoveryController) Discover(ctx context.Context, col ytdlp.Collection, filter *utils.ContentFilter) (int, error) {
	key := col.Key()
	log := c.logger.WithField("collection", key)

	progress, err := c.db.GetProgress(key)
	if err != nil {
		return 0, err
	}
	resuming := progress.LastVideoID != ""
	if resuming {
		log.WithFields(logrus.Fields{
			"last_video_id": progress.LastVideoID,
			"total_scraped": progress.TotalScraped,
		}).Info("Resuming discovery from checkpoint")
	} else {
		log.Info("Starting discovery from the beginning")
	}

	enumeration, err := c.enum.Enumerate(ctx, col)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate %s: %w", key, err)
	}
	defer enumeration.Close()

	var (
		saved        int
		skipped      int
		filtered     int
		lastSavedID  string
		totalScraped = progress.TotalScraped
		pastCursor   = !resuming
		cursorSeen   = !resuming
	)

	checkpoint := func() error {
		if lastSavedID == "" {
			return nil
		}
		return c.db.UpdateProgress(key, lastSavedID, totalScraped)
	}

	for {
		if err := ctx.Err(); err != nil {
			if cerr := checkpoint(); cerr != nil {
				log.WithError(cerr).Error("Failed to checkpoint progress on cancellation")
			}
			return saved, err
		}

		descriptor, err := enumeration.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Checkpoint what was persisted so the next run resumes past it.
			if cerr := checkpoint(); cerr != nil {
				log.WithError(cerr).Error("Failed to checkpoint progress after enumeration error")
			}
			return saved, fmt.Errorf("enumeration of %s failed: %w", key, err)
		}

		id := descriptor.VideoID
		if !pastCursor {
			skipped++
			if id == progress.LastVideoID {
				cursorSeen = true
				pastCursor = true
				log.WithField("skipped", skipped).Info("Reached checkpoint, recording new videos")
			}
			continue
		}

		if _, cached := c.seen.Get(id); cached {
			skipped++
			continue
		}
		exists, err := c.db.VideoExists(id)
		if err != nil {
			if cerr := checkpoint(); cerr != nil {
				log.WithError(cerr).Error("Failed to checkpoint progress after storage error")
			}
			return saved, err
		}
		if exists {
			c.seen.SetDefault(id, struct{}{})
			skipped++
			continue
		}

		video := extractVideo(descriptor)
		if filter != nil {
			ok, reason := filter.ShouldProcess(video.Title, video.LengthText)
			if !ok {
				log.WithFields(logrus.Fields{
					"video_id": id,
					"reason":   reason,
				}).Debug("Filtered out")
				filtered++
				continue
			}
		}

		video.ChannelName = key
		metadataCompleted := true
		video.MetadataCompleted = &metadataCompleted
		video.ProcessingStatus = models.StatusMetadataOnly
		video.DownloadStatus = "pending"
		if err := c.db.SaveVideo(video); err != nil {
			if cerr := checkpoint(); cerr != nil {
				log.WithError(cerr).Error("Failed to checkpoint progress after storage error")
			}
			return saved, err
		}
		c.seen.SetDefault(id, struct{}{})
		saved++
		totalScraped++
		lastSavedID = id

		if saved%c.cfg.CheckpointEvery == 0 {
			if err := checkpoint(); err != nil {
				return saved, err
			}
			log.WithField("saved", saved).Info("Checkpoint saved")
			utils.Sleep(ctx, 100*time.Millisecond)
		}
	}

	if resuming && !cursorSeen {
		// The cursor id never reappeared (the item was deleted or the
		// listing order changed). Nothing after it could be identified, so
		// leave the cursor untouched for the next run.
		log.WithField("last_video_id", progress.LastVideoID).
			Warn("Checkpoint video not found in enumeration, cursor left unchanged")
		return saved, nil
	}

	if err := checkpoint(); err != nil {
		return saved, err
	}

	log.WithFields(logrus.Fields{
		"new":      saved,
		"skipped":  skipped,
		"filtered": filtered,
	}).Info("Discovery finished")
	return saved, nil
}
