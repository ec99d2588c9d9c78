package controllers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/completion"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// ErrBlocked halts an acquisition run after every fallback strategy has
// failed on a block signal. Continuing would burn the remaining items
// against a service that is refusing us.
var ErrBlocked = errors.New("all download strategies blocked, stopping run")

// Fetcher acquires individual artifacts for one video.
type Fetcher interface {
	Probe(ctx context.Context, videoID string) error
	FetchSubtitles(ctx context.Context, videoID, lang string) (ytdlp.SubtitleOutcome, error)
	FetchMedia(ctx context.Context, videoID string, variant ytdlp.MediaVariant) (ytdlp.MediaResult, error)
}

// AcquireSummary reports the outcome of one acquisition pass.
type AcquireSummary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
}

// AcquisitionController walks the incomplete items of the ledger and
// fetches whatever the completion evaluator says is missing.
type AcquisitionController struct {
	db        *models.Database
	fetcher   Fetcher
	evaluator *completion.Evaluator
	cfg       *config.Config
	audioOnly bool
	logger    *logrus.Logger
	rng       *rand.Rand
	ladder    []ytdlp.MediaVariant
}

// NewAcquisitionController creates a new acquisition controller.
func NewAcquisitionController(db *models.Database, fetcher Fetcher, evaluator *completion.Evaluator, cfg *config.Config, audioOnly bool, logger *logrus.Logger) *AcquisitionController {
	return &AcquisitionController{
		db:        db,
		fetcher:   fetcher,
		evaluator: evaluator,
		cfg:       cfg,
		audioOnly: audioOnly,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		ladder:    ytdlp.FallbackLadder(),
	}
}

// AcquireAll processes every incomplete ledger item, oldest first. Items
// are independent: one item's failure is recorded and the pass moves on.
// The two run-halting exceptions are cancellation and ErrBlocked; both
// leave all previously processed items' statuses intact.
func (c *AcquisitionController) AcquireAll(ctx context.Context, req completion.Request) (*AcquireSummary, error) {
	videos, err := c.db.GetIncompleteVideos()
	if err != nil {
		return nil, err
	}

	summary := &AcquireSummary{}
	c.logger.WithFields(logrus.Fields{
		"items":     len(videos),
		"languages": req.Languages,
		"media":     req.Media,
	}).Info("Starting acquisition pass")

	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		outcome, err := c.acquireOne(ctx, video, req)
		if err != nil {
			return summary, err
		}
		switch outcome {
		case itemSkipped:
			summary.Skipped++
		case itemCompleted:
			summary.Processed++
			summary.Succeeded++
		default:
			summary.Processed++
			summary.Failed++
		}

		if c.cfg.LongPauseEvery > 0 && (i+1)%c.cfg.LongPauseEvery == 0 && i+1 < len(videos) {
			c.logger.WithField("processed", i+1).Info("Taking a longer pause")
			utils.Sleep(ctx, c.cfg.SleepInterval)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("Acquisition pass finished")
	return summary, nil
}

type itemOutcome int

const (
	itemCompleted itemOutcome = iota
	itemPartial
	itemSkipped
)

// acquireOne brings one item as close to complete as the remote service
// allows. The returned error is run-halting; per-item failures are
// recorded in the ledger instead.
func (c *AcquisitionController) acquireOne(ctx context.Context, video *models.Video, req completion.Request) (itemOutcome, error) {
	log := c.logger.WithField("video_id", video.VideoID)

	result, err := c.evaluator.Evaluate(video.VideoID, req)
	if err != nil {
		return itemPartial, err
	}
	if result.FullyCompleted {
		// Nothing to fetch. Converge the stored status so the item drops
		// out of future incomplete listings.
		if video.ProcessingStatus != models.StatusCompleted {
			done := models.StatusCompleted
			step := "all_completed"
			err := c.db.UpdateCompletion(video.VideoID, models.CompletionUpdate{
				ProcessingStatus: &done,
				LastStep:         &step,
			})
			if err != nil {
				return itemPartial, err
			}
		}
		log.Debug("Already fully completed, skipping")
		return itemSkipped, nil
	}

	for _, lang := range result.MissingLanguages {
		if err := ctx.Err(); err != nil {
			return itemPartial, err
		}
		if err := c.acquireSubtitle(ctx, video.VideoID, lang, req.Languages); err != nil {
			return itemPartial, err
		}
	}

	if result.NeedsMedia {
		// A confirmed deletion is terminal: no probe, no fetch, ever again.
		if gone, _ := video.Details()["video_gone"].(bool); gone {
			log.Debug("Video is gone, media permanently skipped")
		} else if err := c.acquireMedia(ctx, video.VideoID); err != nil {
			return itemPartial, err
		}
	}

	final, err := c.evaluator.Evaluate(video.VideoID, req)
	if err != nil {
		return itemPartial, err
	}
	status := models.StatusPartial
	step := "partial_completion"
	outcome := itemPartial
	if final.FullyCompleted {
		status = models.StatusCompleted
		step = "all_completed"
		outcome = itemCompleted
	}
	err = c.db.UpdateCompletion(video.VideoID, models.CompletionUpdate{
		ProcessingStatus: &status,
		LastStep:         &step,
	})
	if err != nil {
		return itemPartial, err
	}
	log.WithField("status", status).Info("Item processed")
	return outcome, nil
}

// acquireSubtitle fetches one caption language with retries. Exhausted
// attempts mark the language not_available, which is terminal: the
// language is never requested for this item again.
func (c *AcquisitionController) acquireSubtitle(ctx context.Context, videoID, lang string, requested []string) error {
	log := c.logger.WithFields(logrus.Fields{"video_id": videoID, "language": lang})

	var outcome ytdlp.SubtitleOutcome
	operation := func() error {
		var err error
		outcome, err = c.fetcher.FetchSubtitles(ctx, videoID, lang)
		if err != nil {
			log.WithError(err).Warn("Subtitle fetch attempt failed")
		}
		return err
	}
	err := backoff.Retry(operation, c.newBackOff(ctx))

	// An aborted run is not an exhausted language. Marking not_available
	// here would be terminal, so cancellation propagates instead.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil || !outcome.Obtained() {
		log.Info("No captions obtained, marking language not available")
		update := models.CompletionUpdate{
			Subtitles: map[string]models.LangStatus{lang: models.LangNotAvailable},
		}
		if err != nil {
			update.Details = map[string]any{"subtitles_" + lang + "_error": err.Error()}
		}
		return c.db.UpdateCompletion(videoID, update)
	}

	kind := models.SubtitleNone
	switch {
	case outcome.ManualPath != "" && outcome.AutoPath != "":
		kind = models.SubtitleBoth
	case outcome.ManualPath != "":
		kind = models.SubtitleManual
	case outcome.AutoPath != "":
		kind = models.SubtitleAuto
	}
	if err := c.db.UpdateSubtitleResult(videoID, outcome.ManualPath, outcome.AutoPath, kind, requested); err != nil {
		return err
	}
	step := "subtitles_" + lang
	err = c.db.UpdateCompletion(videoID, models.CompletionUpdate{
		Subtitles: map[string]models.LangStatus{lang: models.LangCompleted},
		LastStep:  &step,
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"manual": outcome.ManualPath != "",
		"auto":   outcome.AutoPath != "",
	}).Info("Captions downloaded")
	return nil
}

// acquireMedia fetches the media artifact: probe, primary strategy with
// retries, then the escalation ladder on block signals. Ladder exhaustion
// surfaces as ErrBlocked and halts the run.
func (c *AcquisitionController) acquireMedia(ctx context.Context, videoID string) error {
	log := c.logger.WithField("video_id", videoID)

	if err := c.fetcher.Probe(ctx, videoID); err != nil {
		if errors.Is(err, ytdlp.ErrVideoGone) {
			return c.recordVideoGone(videoID)
		}
		return err
	}

	result, err := c.fetchMediaWithEscalation(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrBlocked) {
			// Circuit breaker: persist this item's state before halting so
			// the next run resumes exactly here.
			if rerr := c.recordMediaFailure(videoID, "blocked on all strategies"); rerr != nil {
				log.WithError(rerr).Error("Failed to record blocked item")
			}
			return err
		}
		if errors.Is(err, ytdlp.ErrVideoGone) {
			return c.recordVideoGone(videoID)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Error("Media download failed")
		return c.recordMediaFailure(videoID, err.Error())
	}

	if err := c.db.UpdateMediaResult(videoID, result.Path, result.SizeMB(), c.audioOnly, "completed"); err != nil {
		return err
	}
	mediaDone := true
	step := "media"
	err = c.db.UpdateCompletion(videoID, models.CompletionUpdate{
		MediaCompleted: &mediaDone,
		LastStep:       &step,
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"path":    result.Path,
		"size_mb": fmt.Sprintf("%.1f", result.SizeMB()),
	}).Info("Media downloaded")

	c.successPause(ctx)
	return nil
}

// fetchMediaWithEscalation tries the primary strategy with retries, then
// walks the fallback ladder one attempt per rung. Block signals step down
// the ladder; anything else fails the item directly.
func (c *AcquisitionController) fetchMediaWithEscalation(ctx context.Context, videoID string) (ytdlp.MediaResult, error) {
	log := c.logger.WithField("video_id", videoID)
	primary := ytdlp.PrimaryVariant(c.cfg.CookiesBrowser)

	var result ytdlp.MediaResult
	operation := func() error {
		var err error
		result, err = c.fetcher.FetchMedia(ctx, videoID, primary)
		if err == nil {
			return nil
		}
		if ytdlp.IsBlock(err) || errors.Is(err, ytdlp.ErrVideoGone) {
			// Retrying the same strategy cannot help here.
			return backoff.Permanent(err)
		}
		log.WithError(err).Warn("Media fetch attempt failed")
		return err
	}
	err := backoff.Retry(operation, c.newBackOff(ctx))
	if err == nil {
		return result, nil
	}
	if !ytdlp.IsBlock(err) {
		return ytdlp.MediaResult{}, err
	}

	log.WithError(err).Warn("Block signal detected, escalating through fallback strategies")
	for _, variant := range c.ladder {
		if err := ctx.Err(); err != nil {
			return ytdlp.MediaResult{}, err
		}
		log.WithField("strategy", variant.Name).Info("Trying fallback strategy")
		result, err := c.fetcher.FetchMedia(ctx, videoID, variant)
		if err == nil {
			log.WithField("strategy", variant.Name).Info("Fallback strategy succeeded")
			return result, nil
		}
		if errors.Is(err, ytdlp.ErrVideoGone) {
			return ytdlp.MediaResult{}, err
		}
		log.WithFields(logrus.Fields{
			"strategy": variant.Name,
		}).WithError(err).Warn("Fallback strategy failed")
		utils.Sleep(ctx, variant.Cooldown)
	}
	return ytdlp.MediaResult{}, fmt.Errorf("%w: %s", ErrBlocked, videoID)
}

// recordVideoGone marks a confirmed remote deletion. The marker is
// checked before future probes, so a gone video never costs another
// remote call.
func (c *AcquisitionController) recordVideoGone(videoID string) error {
	if err := c.db.UpdateMediaResult(videoID, "", 0, c.audioOnly, "failed"); err != nil {
		return err
	}
	mediaDone := false
	step := "media_failed"
	return c.db.UpdateCompletion(videoID, models.CompletionUpdate{
		MediaCompleted: &mediaDone,
		LastStep:       &step,
		Details: map[string]any{
			"media_error": "video deleted or unavailable",
			"video_gone":  true,
		},
	})
}

// recordMediaFailure marks the media class failed without touching the
// subtitle or metadata state.
func (c *AcquisitionController) recordMediaFailure(videoID, reason string) error {
	if err := c.db.UpdateMediaResult(videoID, "", 0, c.audioOnly, "failed"); err != nil {
		return err
	}
	mediaDone := false
	step := "media_failed"
	return c.db.UpdateCompletion(videoID, models.CompletionUpdate{
		MediaCompleted: &mediaDone,
		LastStep:       &step,
		Details:        map[string]any{"media_error": reason},
	})
}

// newBackOff builds the per-fetch retry policy: exponential backoff
// capped at the configured attempt count, cancelled with the run context.
func (c *AcquisitionController) newBackOff(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second
	capped := backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries-1))
	return backoff.WithContext(capped, ctx)
}

// successPause waits a randomized interval after a successful media
// download to keep the request pattern irregular.
func (c *AcquisitionController) successPause(ctx context.Context) {
	min, max := c.cfg.MinSuccessPause, c.cfg.MaxSuccessPause
	pause := min
	if max > min {
		pause = min + time.Duration(c.rng.Int63n(int64(max-min)+1))
	}
	utils.Sleep(ctx, pause)
}
