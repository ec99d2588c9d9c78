package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Database wraps the gorm connection to one collection's ledger.
type Database struct {
	db *gorm.DB
}

// NewDatabase opens (or creates) the ledger at path and migrates the
// schema. AutoMigrate only ever adds columns, so ledgers written by older
// versions keep working; added columns default to NULL, which the
// completion evaluator treats as "initialize from files".
func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Video{}, &Progress{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Video operations

// SaveVideo inserts or fully replaces a video record. The write is a
// single statement, so an interrupted run never leaves a half-written row.
func (d *Database) SaveVideo(video *Video) error {
	if video.VideoID == "" {
		return errors.New("video id is required")
	}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		UpdateAll: true,
	}).Create(video).Error
	if err != nil {
		return fmt.Errorf("failed to save video %s: %w", video.VideoID, err)
	}
	return nil
}

// GetVideoByID retrieves a video record by id.
func (d *Database) GetVideoByID(videoID string) (*Video, error) {
	var video Video
	if err := d.db.First(&video, "video_id = ?", videoID).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// VideoExists checks whether a video id is already in the ledger.
func (d *Database) VideoExists(videoID string) (bool, error) {
	var count int64
	err := d.db.Model(&Video{}).Where("video_id = ?", videoID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check video %s: %w", videoID, err)
	}
	return count > 0, nil
}

// GetIncompleteVideos returns every video not yet fully completed,
// oldest-first, so acquisition order is fair and deterministic.
func (d *Database) GetIncompleteVideos() ([]*Video, error) {
	var videos []*Video
	err := d.db.
		Where("processing_status IS NULL OR processing_status <> ?", StatusCompleted).
		Order("scraped_at ASC").
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete videos: %w", err)
	}
	return videos, nil
}

// CompletionUpdate carries a partial update of the completion
// sub-structure. nil fields are left untouched; Subtitles and Details are
// merged into the stored maps rather than replacing them.
type CompletionUpdate struct {
	MetadataCompleted *bool
	Subtitles         map[string]LangStatus
	MediaCompleted    *bool
	ProcessingStatus  *ProcessingStatus
	LastStep          *string
	Details           map[string]any
}

// UpdateCompletion applies a partial completion update inside one
// transaction. The read-modify-write of the subtitle and details maps
// runs under the transaction's write lock, so per-class updates never
// clobber each other.
func (d *Database) UpdateCompletion(videoID string, upd CompletionUpdate) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var video Video
		if err := tx.First(&video, "video_id = ?", videoID).Error; err != nil {
			return err
		}

		changes := make(map[string]any)

		if upd.MetadataCompleted != nil {
			changes["metadata_completed"] = *upd.MetadataCompleted
		}
		if upd.Subtitles != nil {
			merged := video.SubtitleStatuses()
			for lang, status := range upd.Subtitles {
				merged[lang] = status
			}
			changes["subtitles_completed"] = encodeJSON(merged)
		}
		if upd.MediaCompleted != nil {
			changes["media_completed"] = *upd.MediaCompleted
		}
		if upd.ProcessingStatus != nil {
			changes["processing_status"] = *upd.ProcessingStatus
		}

		details := video.Details()
		if upd.LastStep != nil {
			changes["last_processing_step"] = *upd.LastStep
			details["last_step"] = *upd.LastStep
			details["last_updated"] = time.Now().Format(time.RFC3339)
		}
		for k, v := range upd.Details {
			details[k] = v
		}
		changes["completion_details"] = encodeJSON(details)

		return tx.Model(&Video{}).Where("video_id = ?", videoID).Updates(changes).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update completion for %s: %w", videoID, err)
	}
	return nil
}

// UpdateSubtitleResult records caption artifact locations after a fetch.
func (d *Database) UpdateSubtitleResult(videoID, manualPath, autoPath string, kind SubtitleKind, languages []string) error {
	now := time.Now()
	changes := map[string]any{
		"subtitle_type":          kind,
		"subtitle_languages":     encodeJSON(languages),
		"subtitle_downloaded_at": &now,
	}
	if manualPath != "" {
		changes["subtitle_path"] = manualPath
	}
	if autoPath != "" {
		changes["auto_subtitle_path"] = autoPath
	}
	err := d.db.Model(&Video{}).Where("video_id = ?", videoID).Updates(changes).Error
	if err != nil {
		return fmt.Errorf("failed to update subtitle result for %s: %w", videoID, err)
	}
	return nil
}

// UpdateMediaResult records the media artifact location after a fetch.
func (d *Database) UpdateMediaResult(videoID, path string, sizeMB float64, audioOnly bool, status string) error {
	changes := map[string]any{
		"download_status": status,
		"file_size_mb":    sizeMB,
	}
	pathColumn := "video_path"
	if audioOnly {
		pathColumn = "audio_path"
	}
	if path != "" {
		changes[pathColumn] = path
	}
	if status == "completed" {
		now := time.Now()
		changes["downloaded_at"] = &now
	}
	err := d.db.Model(&Video{}).Where("video_id = ?", videoID).Updates(changes).Error
	if err != nil {
		return fmt.Errorf("failed to update media result for %s: %w", videoID, err)
	}
	return nil
}

// Progress operations

// GetProgress retrieves the discovery cursor for a collection. A missing
// cursor returns a zero-value record, not an error.
func (d *Database) GetProgress(collection string) (*Progress, error) {
	var progress Progress
	err := d.db.First(&progress, "channel_name = ?", collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Progress{ChannelName: collection}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for %s: %w", collection, err)
	}
	return &progress, nil
}

// UpdateProgress checkpoints the discovery cursor for a collection.
func (d *Database) UpdateProgress(collection, lastVideoID string, totalScraped int) error {
	progress := Progress{
		ChannelName:  collection,
		LastVideoID:  lastVideoID,
		TotalScraped: totalScraped,
		LastUpdated:  time.Now(),
		Status:       "active",
	}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_name"}},
		UpdateAll: true,
	}).Create(&progress).Error
	if err != nil {
		return fmt.Errorf("failed to update progress for %s: %w", collection, err)
	}
	return nil
}

// Stats

// Stats summarizes the ledger for the stats command and status endpoint.
type Stats struct {
	TotalVideos    int64                      `json:"total_videos"`
	VerifiedVideos int64                      `json:"verified_channel_videos"`
	ByStatus       map[ProcessingStatus]int64 `json:"by_status"`
	FirstScraped   *time.Time                 `json:"first_scraped,omitempty"`
	LastScraped    *time.Time                 `json:"last_scraped,omitempty"`
}

// GetStats computes ledger statistics.
func (d *Database) GetStats() (*Stats, error) {
	stats := &Stats{ByStatus: make(map[ProcessingStatus]int64)}

	if err := d.db.Model(&Video{}).Count(&stats.TotalVideos).Error; err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}
	if err := d.db.Model(&Video{}).Where("channel_verified = ?", true).
		Count(&stats.VerifiedVideos).Error; err != nil {
		return nil, fmt.Errorf("failed to count verified videos: %w", err)
	}

	type statusCount struct {
		ProcessingStatus ProcessingStatus
		Count            int64
	}
	var counts []statusCount
	err := d.db.Model(&Video{}).
		Select("processing_status, count(*) as count").
		Group("processing_status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	for _, c := range counts {
		stats.ByStatus[c.ProcessingStatus] = c.Count
	}

	// min/max aggregates come back as bare strings from sqlite, so the
	// range is read with two ordered single-row queries instead.
	if stats.TotalVideos > 0 {
		var first, last Video
		err = d.db.Model(&Video{}).Order("scraped_at ASC").First(&first).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read first scrape date: %w", err)
		}
		err = d.db.Model(&Video{}).Order("scraped_at DESC").First(&last).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read last scrape date: %w", err)
		}
		stats.FirstScraped = &first.ScrapedAt
		stats.LastScraped = &last.ScrapedAt
	}

	return stats, nil
}

// AllVideos returns every record ordered newest-first, for export.
func (d *Database) AllVideos() ([]*Video, error) {
	var videos []*Video
	if err := d.db.Order("scraped_at DESC").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}
