// Package completion decides, for one video and one acquisition request,
// which artifact classes still need work. On-disk files are ground truth:
// stored flags claiming completion without a backing file are downgraded.
package completion

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// Request describes what an acquisition run wants for each video.
type Request struct {
	Languages []string // caption languages wanted
	Media     bool     // whether an audio/video artifact is wanted
}

// Result reports what remains to be done for one video.
type Result struct {
	Exists           bool
	NeedsMetadata    bool
	MissingLanguages []string
	NeedsMedia       bool
	FullyCompleted   bool
	ProcessingStatus models.ProcessingStatus
	LastStep         string
}

// Evaluator reconciles ledger flags against the filesystem. It is
// read-only with respect to the ledger except for the downgrade side
// effect, and idempotent: unchanged filesystem state yields identical
// results on repeated calls.
type Evaluator struct {
	db      *models.Database
	layout  *utils.Layout
	minSize int64
	logger  *logrus.Logger
}

// NewEvaluator creates a completion evaluator. minSize is the smallest
// media file size (bytes) accepted as a genuine download.
func NewEvaluator(db *models.Database, layout *utils.Layout, minSize int64, logger *logrus.Logger) *Evaluator {
	return &Evaluator{
		db:      db,
		layout:  layout,
		minSize: minSize,
		logger:  logger,
	}
}

// Evaluate computes the completion state of one video for a request.
func (e *Evaluator) Evaluate(videoID string, req Request) (*Result, error) {
	video, err := e.db.GetVideoByID(videoID)
	if errors.Is(err, models.ErrNotFound) {
		return &Result{
			Exists:           false,
			NeedsMetadata:    true,
			MissingLanguages: append([]string(nil), req.Languages...),
			NeedsMedia:       req.Media,
			ProcessingStatus: "not_started",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load video %s: %w", videoID, err)
	}

	// Rows written before granular tracking existed have a NULL
	// metadata_completed column. Initialize their completion state from
	// the files actually on disk, once.
	if video.MetadataCompleted == nil {
		if err := e.initializeFromFiles(video, req); err != nil {
			return nil, err
		}
		if video, err = e.db.GetVideoByID(videoID); err != nil {
			return nil, fmt.Errorf("failed to reload video %s: %w", videoID, err)
		}
	}

	result := &Result{
		Exists: true,
		// Discovery always writes full metadata, so existence implies
		// metadata completeness.
		NeedsMetadata:    false,
		ProcessingStatus: video.ProcessingStatus,
		LastStep:         video.LastProcessingStep,
	}

	statuses := video.SubtitleStatuses()
	for _, lang := range req.Languages {
		status := statuses[lang]
		if status == models.LangNotAvailable {
			// Terminal: never re-requested.
			continue
		}
		if e.subtitleOnDisk(videoID, lang) {
			continue
		}
		result.MissingLanguages = append(result.MissingLanguages, lang)
		if status == models.LangCompleted {
			e.logger.WithFields(logrus.Fields{
				"video_id": videoID,
				"language": lang,
			}).Warn("Subtitle marked completed but files missing, will re-download")
			partial := models.StatusPartial
			err := e.db.UpdateCompletion(videoID, models.CompletionUpdate{
				Subtitles:        map[string]models.LangStatus{lang: models.LangMissing},
				ProcessingStatus: &partial,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if req.Media {
		if !e.mediaOnDisk(videoID) {
			result.NeedsMedia = true
			if video.MediaCompleted {
				e.logger.WithField("video_id", videoID).
					Warn("Media marked completed but no substantial file found, will re-download")
				mediaCompleted := false
				partial := models.StatusPartial
				err := e.db.UpdateCompletion(videoID, models.CompletionUpdate{
					MediaCompleted:   &mediaCompleted,
					ProcessingStatus: &partial,
				})
				if err != nil {
					return nil, err
				}
			}
		}
	}

	result.FullyCompleted = !result.NeedsMetadata &&
		len(result.MissingLanguages) == 0 &&
		!result.NeedsMedia

	return result, nil
}

// subtitleOnDisk reports whether a non-empty manual or auto caption file
// exists for the language.
func (e *Evaluator) subtitleOnDisk(videoID, lang string) bool {
	return utils.NonEmptyFile(e.layout.ManualSubtitlePath(videoID, lang)) ||
		utils.NonEmptyFile(e.layout.AutoSubtitlePath(videoID, lang))
}

// mediaOnDisk reports whether at least one substantial, complete media
// file exists for the video. Temporary download suffixes never count.
func (e *Evaluator) mediaOnDisk(videoID string) bool {
	files, err := e.layout.MediaFiles(videoID)
	if err != nil {
		return false
	}
	for _, f := range files {
		if utils.IsIncompleteFile(f) {
			continue
		}
		if utils.FileSize(f) > e.minSize {
			return true
		}
	}
	return false
}

// initializeFromFiles backfills granular completion state for a legacy
// row by checking the filesystem directly.
func (e *Evaluator) initializeFromFiles(video *models.Video, req Request) error {
	statuses := make(map[string]models.LangStatus, len(req.Languages))
	allSubtitlesDone := true
	for _, lang := range req.Languages {
		if e.subtitleOnDisk(video.VideoID, lang) {
			statuses[lang] = models.LangCompleted
		} else {
			statuses[lang] = models.LangNotAvailable
			allSubtitlesDone = false
		}
	}

	mediaCompleted := false
	if req.Media {
		mediaCompleted = e.mediaOnDisk(video.VideoID)
	}

	metadataCompleted := true
	status := models.StatusPartial
	if allSubtitlesDone && (mediaCompleted || !req.Media) {
		status = models.StatusCompleted
	}
	step := "initialized_from_files"

	e.logger.WithFields(logrus.Fields{
		"video_id":  video.VideoID,
		"subtitles": statuses,
		"media":     mediaCompleted,
		"status":    status,
	}).Info("Initialized completion status from files")

	return e.db.UpdateCompletion(video.VideoID, models.CompletionUpdate{
		MetadataCompleted: &metadataCompleted,
		Subtitles:         statuses,
		MediaCompleted:    &mediaCompleted,
		ProcessingStatus:  &status,
		LastStep:          &step,
		Details: map[string]any{
			"initialized_from_files": true,
		},
	})
}
